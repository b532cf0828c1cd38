package lobby

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncNameKeepsWholeCharacters(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Bob", "Bob"},
		{"abcdefghijklmn", "abcdefghijkl"},
		{strings.Repeat("a", NameMax-1) + "ö", strings.Repeat("a", NameMax-1)},
		{strings.Repeat("ö", 7), strings.Repeat("ö", 6)},
		{strings.Repeat("a", NameMax-2) + "😀", strings.Repeat("a", NameMax-2)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TruncName(tt.name), tt.name)
	}
}
