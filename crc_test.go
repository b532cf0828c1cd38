package lobby

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesChecksum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.ini")

	missing, err := RulesChecksum(path)
	require.NoError(t, err)
	assert.Equal(t, checksum(nil), missing)

	require.NoError(t, os.WriteFile(path, []byte("[General]\nBuildSpeed=1.0\n"), 0666))
	a, err := RulesChecksum(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("[General]\nBuildSpeed=0.5\n"), 0666))
	b, err := RulesChecksum(path)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, missing, a)

	_, err = RulesChecksum(dir)
	assert.Error(t, err, "a directory is not a rules file")
}
