package lobby

import (
	"fmt"
	"io"
	"strconv"
)

// Options is the game configuration the owner replicates to its members
type Options struct {
	Scenario   string
	Credits    uint32
	Bases      bool
	Ore        bool
	Crates     bool
	Capture    bool
	BuildLevel uint8
	UnitCount  uint8
	AIPlayers  uint8
	Speed      uint8
	Seed       uint32
}

// DefaultOptions returns the options a new session starts with
func DefaultOptions() Options {
	return Options{
		Credits:    10000,
		Bases:      true,
		Ore:        true,
		BuildLevel: 10,
		UnitCount:  10,
		Speed:      3,
	}
}

func (o *Options) encode(w io.Writer) {
	WriteString(w, o.Scenario)
	WriteUint32(w, o.Credits)
	WriteBool(w, o.Bases)
	WriteBool(w, o.Ore)
	WriteBool(w, o.Crates)
	WriteBool(w, o.Capture)
	WriteUint8(w, o.BuildLevel)
	WriteUint8(w, o.UnitCount)
	WriteUint8(w, o.AIPlayers)
	WriteUint8(w, o.Speed)
	WriteUint32(w, o.Seed)
}

func (o *Options) decode(r io.Reader) {
	o.Scenario = ReadString(r)
	o.Credits = ReadUint32(r)
	o.Bases = ReadBool(r)
	o.Ore = ReadBool(r)
	o.Crates = ReadBool(r)
	o.Capture = ReadBool(r)
	o.BuildLevel = ReadUint8(r)
	o.UnitCount = ReadUint8(r)
	o.AIPlayers = ReadUint8(r)
	o.Speed = ReadUint8(r)
	o.Seed = ReadUint32(r)
}

// OptionKeys lists the keys accepted by Set and Get
var OptionKeys = []string{
	"scenario", "credits", "bases", "ore", "crates", "capture",
	"buildlevel", "units", "ai", "speed", "seed",
}

// Set changes the option named key, parsing value for its type
func (o *Options) Set(key, value string) error {
	var err error
	switch key {
	case "scenario":
		o.Scenario = value
	case "credits":
		o.Credits, err = parseUint32(value)
	case "bases":
		o.Bases, err = strconv.ParseBool(value)
	case "ore":
		o.Ore, err = strconv.ParseBool(value)
	case "crates":
		o.Crates, err = strconv.ParseBool(value)
	case "capture":
		o.Capture, err = strconv.ParseBool(value)
	case "buildlevel":
		o.BuildLevel, err = parseUint8(value)
	case "units":
		o.UnitCount, err = parseUint8(value)
	case "ai":
		o.AIPlayers, err = parseUint8(value)
	case "speed":
		o.Speed, err = parseUint8(value)
	case "seed":
		o.Seed, err = parseUint32(value)
	default:
		return fmt.Errorf("unknown option %q", key)
	}

	if err != nil {
		return fmt.Errorf("option %s: %w", key, err)
	}

	return nil
}

// Get returns the option named key formatted as a string
func (o *Options) Get(key string) (string, bool) {
	switch key {
	case "scenario":
		return o.Scenario, true
	case "credits":
		return strconv.FormatUint(uint64(o.Credits), 10), true
	case "bases":
		return strconv.FormatBool(o.Bases), true
	case "ore":
		return strconv.FormatBool(o.Ore), true
	case "crates":
		return strconv.FormatBool(o.Crates), true
	case "capture":
		return strconv.FormatBool(o.Capture), true
	case "buildlevel":
		return strconv.Itoa(int(o.BuildLevel)), true
	case "units":
		return strconv.Itoa(int(o.UnitCount)), true
	case "ai":
		return strconv.Itoa(int(o.AIPlayers)), true
	case "speed":
		return strconv.Itoa(int(o.Speed)), true
	case "seed":
		return strconv.FormatUint(uint64(o.Seed), 10), true
	}

	return "", false
}

func parseUint8(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	return uint8(v), err
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}
