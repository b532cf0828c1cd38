package lobby

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatterIsPingedOnceThenRemoved(t *testing.T) {
	l := &ChatList{}
	id := uuid.New()
	require.True(t, l.Touch(id, "Carol", "c", ColorRed, 0))

	pings := 0
	var removedAt Tick = -1
	for now := Tick(0); now <= 2*ChatStale && removedAt < 0; now++ {
		ping, removed := l.Service(now)
		pings += len(ping)
		if len(ping) > 0 {
			assert.Equal(t, ChatQuiet, now)
		}
		if len(removed) > 0 {
			assert.Equal(t, 1, pings, "removed only after exactly one ping")
			removedAt = now
		}
	}

	assert.Equal(t, ChatStale, removedAt)
	assert.Zero(t, l.Len())
}

func TestChatterReplyCancelsRemoval(t *testing.T) {
	l := &ChatList{}
	id := uuid.New()
	l.Touch(id, "Carol", "c", ColorRed, 0)

	ping, _ := l.Service(ChatQuiet)
	require.Len(t, ping, 1)
	assert.Equal(t, Addr("c"), ping[0].Addr)

	assert.False(t, l.Touch(id, "Carol", "c", ColorRed, ChatQuiet+10))
	assert.False(t, l.Chatters()[0].PingSent)

	_, removed := l.Service(ChatStale)
	assert.Empty(t, removed)

	ping, _ = l.Service(ChatQuiet + 10 + ChatQuiet)
	assert.Len(t, ping, 1, "a refreshed chatter can be pinged again")
}

func TestChatterRemovedBySignOff(t *testing.T) {
	l := &ChatList{}
	l.Touch(uuid.New(), "Carol", "c", ColorRed, 0)
	l.Touch(uuid.New(), "Dave", "d", ColorBlue, 0)

	c, ok := l.Remove("c")
	require.True(t, ok)
	assert.Equal(t, "Carol", c.Name)

	_, ok = l.Remove("c")
	assert.False(t, ok)
	assert.Equal(t, 1, l.Len())
}
