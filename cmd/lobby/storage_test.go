package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HimbeerserverDE/lobby"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := OpenSQLite3(filepath.Join(t.TempDir(), "storage", "lobby.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestStoreSetGet(t *testing.T) {
	s := openTestStore(t)

	v, err := s.Get("missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.Set("player:name", "Alice"))
	require.NoError(t, s.Set("player:name", "Bob"))

	v, err = s.Get("player:name")
	require.NoError(t, err)
	assert.Equal(t, "Bob", v, "set replaces")

	require.NoError(t, s.Set("player:name", ""))
	v, err = s.Get("player:name")
	require.NoError(t, err)
	assert.Empty(t, v, "empty value deletes")
}

func TestStoreOptions(t *testing.T) {
	s := openTestStore(t)

	opts := lobby.DefaultOptions()
	opts.Credits = 2500
	opts.Crates = true
	opts.Scenario = "scm01ea"
	require.NoError(t, s.SaveOptions(opts))

	// a hand edited or outdated value is ignored
	require.NoError(t, s.Set("options:speed", "fast"))

	got, err := s.LoadOptions(lobby.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, uint32(2500), got.Credits)
	assert.True(t, got.Crates)
	assert.Equal(t, "scm01ea", got.Scenario)
	assert.Equal(t, lobby.DefaultOptions().Speed, got.Speed)
}

func TestStoreIdentityKeepsUnsavedFields(t *testing.T) {
	s := openTestStore(t)

	id := lobby.Identity{Name: "Tanya", Color: lobby.ColorBlue, RulesCRC: 7}
	got, err := s.LoadIdentity(id)
	require.NoError(t, err)
	assert.Equal(t, id, got, "nothing saved yet")

	require.NoError(t, s.Set("player:color", "green"))
	got, err = s.LoadIdentity(id)
	require.NoError(t, err)
	assert.Equal(t, lobby.ColorGreen, got.Color)
	assert.Equal(t, "Tanya", got.Name)
	assert.Equal(t, uint32(7), got.RulesCRC)
}

func TestStoreBind(t *testing.T) {
	assert.Equal(t, "a = ? AND b = ?", (&Store{}).bind("a = ? AND b = ?"))
	assert.Equal(t, "a = $1 AND b = $2", (&Store{dollar: true}).bind("a = ? AND b = ?"))
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	c := lobby.DefaultConfig()
	c.Storage.Driver = "csv"

	_, err := OpenStore(c)
	assert.Error(t, err)
}
