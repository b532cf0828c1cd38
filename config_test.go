package lobby

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
player:
  name: Alice
  color: red
  faction: soviet
network:
  mode: direct
  peer: 192.168.1.20:5213
  bridges:
    - 10.1.255.255:5213
versions:
  min: 2
  max: 4
metrics:
  listen: 127.0.0.1:9100
`

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lobby.yml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0666))

	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Alice", c.Player.Name)
	assert.Equal(t, "direct", c.Network.Mode)
	assert.Equal(t, ":5213", c.Network.Listen, "defaults stay")
	assert.Equal(t, []string{"255.255.255.255:5213", "10.1.255.255:5213"}, c.BroadcastTargets())

	assert.Equal(t, "Alice", c.Key("player:name"))
	assert.Equal(t, 4, c.Key("versions:max"))
	assert.Nil(t, c.Key("player:name:deeper"))
	assert.Nil(t, c.Key("nothing"))

	c.Rules = filepath.Join(dir, "rules.ini")
	require.NoError(t, os.WriteFile(c.Rules, []byte("[General]\nUnits=10\n"), 0666))

	id, err := c.Identity()
	require.NoError(t, err)
	assert.Equal(t, ColorRed, id.Color)
	assert.Equal(t, FactionSoviet, id.Faction)
	assert.Equal(t, VersionRange{Min: 2, Max: 4}, id.Versions)
	assert.NotZero(t, id.RulesCRC)

	require.NoError(t, os.WriteFile(c.Rules, []byte("[General]\nUnits=11\n"), 0666))
	other, err := c.Identity()
	require.NoError(t, err)
	assert.NotEqual(t, id.RulesCRC, other.RulesCRC, "edited rules no longer match")
}

func TestMissingConfigIsDefault(t *testing.T) {
	c, err := LoadConfig(filepath.Join(t.TempDir(), "none.yml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Network, c.Network)
	assert.Nil(t, c.Key("player:name"))
}

func TestBadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lobby.yml")

	require.NoError(t, os.WriteFile(path, []byte("versions: {min: 3, max: 1}\n"), 0666))
	_, err := LoadConfig(path)
	assert.Error(t, err)

	c := DefaultConfig()
	c.Player.Color = "mauve"
	_, err = c.Identity()
	assert.Error(t, err)
}
