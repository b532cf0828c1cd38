package lobby

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameUpsert(t *testing.T) {
	l := NewGameList()

	isNew, changed := l.Upsert("Arena", "a", true, testVersions, 0)
	assert.True(t, isNew)
	assert.False(t, changed)

	isNew, changed = l.Upsert("Arena", "b", true, testVersions, 5)
	assert.False(t, isNew)
	assert.False(t, changed)

	g, ok := l.Get(1)
	require.True(t, ok)
	assert.Equal(t, Addr("a"), g.Owner, "the owner only moves with the open flag")
	assert.Equal(t, Tick(5), g.LastSeen)

	isNew, changed = l.Upsert("Arena", "c", false, testVersions, 6)
	assert.False(t, isNew)
	assert.True(t, changed)

	g, _ = l.Get(1)
	assert.Equal(t, Addr("c"), g.Owner)
	assert.False(t, g.Open)

	l.MarkOwnerAddress("Arena", "d")
	g, _ = l.Get(1)
	assert.Equal(t, Addr("d"), g.Owner)

	isNew, _ = l.Upsert("arena", "e", true, testVersions, 6)
	assert.True(t, isNew, "names are case sensitive")

	isNew, _ = l.Upsert("", "e", true, testVersions, 6)
	assert.False(t, isNew, "the sentinel name is never upserted")
	assert.Equal(t, 3, l.Len())
}

func TestGameExpire(t *testing.T) {
	l := NewGameList()
	l.Upsert("old", "a", true, testVersions, 0)
	l.Upsert("new", "b", true, testVersions, 300)

	indices, removed := l.Expire(GameTimeout)
	assert.Empty(t, indices)

	indices, removed = l.Expire(GameTimeout + 1)
	assert.Equal(t, []int{1}, indices)
	require.Len(t, removed, 1)
	assert.Equal(t, "old", removed[0].Name)
	assert.Equal(t, 2, l.Len())

	_, removed = l.Expire(10 * GameTimeout)
	assert.Len(t, removed, 1)
	assert.Equal(t, 1, l.Len())
}

func TestSentinelSurvivesAnything(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	l := NewGameList()

	var now Tick
	for i := 0; i < 2000; i++ {
		now += Tick(r.Intn(50))
		switch r.Intn(3) {
		case 0, 1:
			l.Upsert(fmt.Sprint("g", r.Intn(10)), Addr(fmt.Sprint(r.Intn(4))), r.Intn(2) == 0, testVersions, now)
		case 2:
			l.Expire(now)
		}

		g, ok := l.Get(0)
		require.True(t, ok)
		require.Equal(t, Key(0), g.Key)
		require.Empty(t, g.Name)

		for j := 1; j < l.Len(); j++ {
			g, _ := l.Get(j)
			require.NotEmpty(t, g.Name, "sentinel duplicated at %d", j)
		}
	}
}

func TestSelectionTracksRemovals(t *testing.T) {
	l := NewGameList()
	for i, name := range []string{"a", "b", "c", "d"} {
		l.Upsert(name, "x", true, testVersions, Tick(i*100))
	}

	require.True(t, l.Select(3))
	require.Equal(t, "c", l.SelectedGame().Name)

	l.Remove("a")
	assert.Equal(t, 2, l.Selected())
	assert.Equal(t, "c", l.SelectedGame().Name)

	l.Remove("d")
	assert.Equal(t, 2, l.Selected(), "later removals do not move it")

	l.Remove("c")
	assert.Equal(t, 1, l.Selected(), "losing the record selects its predecessor")
	assert.Equal(t, "b", l.SelectedGame().Name)

	l.Remove("b")
	assert.Equal(t, 0, l.Selected())

	assert.False(t, l.Select(5))
}

func TestSelectionSurvivesExpiry(t *testing.T) {
	l := NewGameList()
	l.Upsert("one", "x", true, testVersions, 0)
	l.Upsert("two", "y", true, testVersions, 0)
	require.True(t, l.Select(2))

	l.Upsert("two", "y", true, testVersions, GameTimeout)
	indices, _ := l.Expire(GameTimeout + 1)

	assert.Equal(t, []int{1}, indices)
	assert.Equal(t, 1, l.Selected())
	assert.Equal(t, "two", l.SelectedGame().Name)

	i, ok := l.Index(l.SelectedGame().Key)
	assert.True(t, ok)
	assert.Equal(t, 1, i)
}
