package lobby

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Config is the configuration of a lobby peer
type Config struct {
	Player struct {
		Name    string `yaml:"name"`
		Color   string `yaml:"color"`
		Faction string `yaml:"faction"`
	} `yaml:"player"`

	Network struct {
		// Mode is udp, direct or sim
		Mode      string   `yaml:"mode"`
		Listen    string   `yaml:"listen"`
		Broadcast []string `yaml:"broadcast"`
		// Bridges are extra broadcast targets on other subnets
		Bridges []string `yaml:"bridges"`
		// Peer is dialed in direct mode; empty means wait for it
		Peer string `yaml:"peer"`
	} `yaml:"network"`

	Versions struct {
		Min uint32 `yaml:"min"`
		Max uint32 `yaml:"max"`
	} `yaml:"versions"`

	Rules string `yaml:"rules"`

	Metrics struct {
		Listen string `yaml:"listen"`
	} `yaml:"metrics"`

	Storage struct {
		// Driver is sqlite3 or postgres
		Driver   string `yaml:"driver"`
		File     string `yaml:"file"`
		Host     string `yaml:"host"`
		Port     uint16 `yaml:"port"`
		Name     string `yaml:"name"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"storage"`

	Plugins string `yaml:"plugins"`
	Prompt  string `yaml:"console_prompt"`
	Debug   bool   `yaml:"debug"`

	raw map[interface{}]interface{}
}

// DefaultConfig returns the configuration used for missing keys
func DefaultConfig() *Config {
	c := &Config{}
	c.Network.Mode = "udp"
	c.Network.Listen = ":5213"
	c.Network.Broadcast = []string{"255.255.255.255:5213"}
	c.Versions.Min = 1
	c.Versions.Max = 1
	c.Rules = "rules.ini"
	c.Storage.Driver = "sqlite3"
	c.Storage.File = "lobby.sqlite"
	c.Plugins = "plugins"
	c.Prompt = "> "

	return c
}

// LoadConfig reads the YAML file at path over the defaults.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	c.raw = make(map[interface{}]interface{})

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	} else if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &c.raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if c.Versions.Min > c.Versions.Max {
		return nil, fmt.Errorf("%s: versions: min %d is above max %d", path, c.Versions.Min, c.Versions.Max)
	}

	return c, nil
}

// Key returns the value at a colon separated path in the raw file,
// e.g. "player:name", or nil
func (c *Config) Key(key string) interface{} {
	keys := strings.Split(key, ":")
	m := c.raw
	for i := 0; i < len(keys)-1; i++ {
		next, ok := m[keys[i]].(map[interface{}]interface{})
		if !ok {
			return nil
		}
		m = next
	}

	return m[keys[len(keys)-1]]
}

// BroadcastTargets returns the broadcast address and every bridge
func (c *Config) BroadcastTargets() []string {
	return append(append([]string(nil), c.Network.Broadcast...), c.Network.Bridges...)
}

// Identity builds the local identity from the player section,
// the version range and the checksum of the rules file
func (c *Config) Identity() (Identity, error) {
	id := Identity{
		Name:     c.Player.Name,
		Versions: VersionRange{Min: c.Versions.Min, Max: c.Versions.Max},
	}

	if c.Player.Color != "" {
		color, ok := ParseColor(c.Player.Color)
		if !ok {
			return Identity{}, fmt.Errorf("unknown color %q", c.Player.Color)
		}
		id.Color = color
	}

	if c.Player.Faction != "" {
		faction, ok := ParseFaction(c.Player.Faction)
		if !ok {
			return Identity{}, fmt.Errorf("unknown faction %q", c.Player.Faction)
		}
		id.Faction = faction
	}

	crc, err := RulesChecksum(c.Rules)
	if err != nil {
		return Identity{}, err
	}
	id.RulesCRC = crc

	return id, nil
}
