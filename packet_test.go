package lobby

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameLayout(t *testing.T) {
	q := &QueryJoin{
		Header:   Header{Name: "Commander Keen"},
		Session:  "Arena",
		Color:    ColorGreen,
		Faction:  FactionSoviet,
		Versions: VersionRange{Min: 2, Max: 5},
		RulesCRC: 0xdeadbeef,
	}

	frame, err := encodeFrame(frameDataAck, 42, q)
	require.NoError(t, err)
	require.Len(t, frame, FrameSize)
	assert.Equal(t, []byte{0x4c, 0x42, 0x42, 0x59, 1, 0, 0, 0, 42}, frame[:headerSize])

	kind, id, pkt, err := decodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, frameDataAck, kind)
	assert.Equal(t, uint32(42), id)

	got, ok := pkt.(*QueryJoin)
	require.True(t, ok)
	assert.Equal(t, "Commander Ke", got.Sender(), "names are cut to the field width")
	assert.Equal(t, "Arena", got.Session)
	assert.Equal(t, ColorGreen, got.Color)
	assert.Equal(t, FactionSoviet, got.Faction)
	assert.Equal(t, VersionRange{Min: 2, Max: 5}, got.Versions)
	assert.Equal(t, uint32(0xdeadbeef), got.RulesCRC)
}

func TestPresencePacketsCarryID(t *testing.T) {
	id := uuid.New()
	frame, err := encodeFrame(frameData, 1, &ChatAnnounce{Header: Header{Name: "a"}, ID: id, Color: ColorBrown})
	require.NoError(t, err)

	_, _, pkt, err := decodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, id, pkt.(*ChatAnnounce).ID)
	assert.Equal(t, ColorBrown, pkt.(*ChatAnnounce).Color)
}

func TestOptionsFitInAFrame(t *testing.T) {
	opts := DefaultOptions()
	opts.Scenario = strings.Repeat("s", 64)
	opts.UnitCount = 50

	frame, err := encodeFrame(frameDataAck, 1, &GameOptions{Session: "Arena", Options: opts})
	require.NoError(t, err)

	_, _, pkt, err := decodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, opts, pkt.(*GameOptions).Options)
}

func TestBadFrames(t *testing.T) {
	_, _, _, err := decodeFrame([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrShortFrame)

	_, _, _, err = decodeFrame(make([]byte, FrameSize))
	assert.ErrorIs(t, err, ErrBadMagic)

	frame, err := encodeFrame(frameData, 1, &QueryGame{})
	require.NoError(t, err)
	frame[headerSize] = 0xff
	_, _, _, err = decodeFrame(frame)
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = encodeFrame(frameData, 1, &Message{Text: strings.Repeat("x", FrameSize)})
	assert.ErrorIs(t, err, ErrFrameOverflow)
}

func TestAckFrameHasNoPacket(t *testing.T) {
	frame, err := encodeFrame(frameAck, 7, nil)
	require.NoError(t, err)

	kind, id, pkt, err := decodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, frameAck, kind)
	assert.Equal(t, uint32(7), id)
	assert.Nil(t, pkt)
}
