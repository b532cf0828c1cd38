package lobby

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransports(t *testing.T) (*Hub, *ManualClock, *Transport, *Transport) {
	hub := NewHub()
	clock := &ManualClock{}
	a := NewTransport(hub.Link("a"), clock, nil)
	b := NewTransport(hub.Link("b"), clock, nil)

	return hub, clock, a, b
}

func isAck(frame []byte) bool { return frame[4] == byte(frameAck) }

func TestAckRequiredSurvivesLoss(t *testing.T) {
	hub, clock, a, b := newTransports(t)

	lost := 0
	hub.Loss = func(from, to Addr, frame []byte) bool {
		if from == "a" && !isAck(frame) && lost < 2 {
			lost++
			return true
		}
		return false
	}

	require.NoError(t, a.Send(&Message{Text: "hi"}, "b", true))
	assert.Equal(t, 1, a.PendingSendCount())

	var got []Packet
	for i := 0; i < 4*int(RetryInterval); i++ {
		a.Service()
		for {
			pkt, from, ok := b.Poll()
			if !ok {
				break
			}
			assert.Equal(t, Addr("a"), from)
			got = append(got, pkt)
		}
		clock.Advance(1)
	}

	require.Len(t, got, 1)
	assert.Equal(t, "hi", got[0].(*Message).Text)
	assert.Zero(t, a.PendingSendCount())
	assert.Equal(t, 2, lost)
}

func TestDuplicateIsDroppedAndAckedAgain(t *testing.T) {
	hub, clock, a, b := newTransports(t)

	acks := 0
	hub.Loss = func(from, to Addr, frame []byte) bool {
		if from == "b" && isAck(frame) {
			acks++
			return acks == 1
		}
		return false
	}

	require.NoError(t, a.Send(&Ping{}, "b", true))

	n := 0
	for i := 0; i < 2*int(RetryInterval)+1; i++ {
		a.Service()
		for {
			if _, _, ok := b.Poll(); !ok {
				break
			}
			n++
		}
		clock.Advance(1)
	}

	assert.Equal(t, 1, n)
	assert.Equal(t, 2, acks)
	assert.Zero(t, a.PendingSendCount())
}

func TestGiveUp(t *testing.T) {
	_, clock, a, _ := newTransports(t)

	require.NoError(t, a.Send(&Ping{}, "nobody", true))
	for clock.Now() < GiveUp {
		a.Service()
		assert.Equal(t, 1, a.PendingSendCount())
		clock.Advance(1)
	}

	a.Service()
	assert.Zero(t, a.PendingSendCount())
}

func TestRetryCeiling(t *testing.T) {
	hub, clock, a, _ := newTransports(t)
	b := hub.Link("c")

	a.SetTiming(10, 2, 1000)
	require.NoError(t, a.Send(&Ping{}, "c", true))

	for i := 0; i <= 30; i++ {
		a.Service()
		clock.Advance(1)
	}

	assert.Zero(t, a.PendingSendCount())

	n := 0
	for {
		if _, _, ok := b.ReadFrom(); !ok {
			break
		}
		n++
	}
	assert.Equal(t, 3, n, "one send and two retries")
}

func TestBroadcastIsNeverPending(t *testing.T) {
	_, _, a, b := newTransports(t)

	require.NoError(t, a.Send(&QueryGame{}, Broadcast, true))
	assert.Zero(t, a.PendingSendCount())

	pkt, from, ok := b.Poll()
	require.True(t, ok)
	assert.Equal(t, Addr("a"), from)
	assert.IsType(t, &QueryGame{}, pkt)

	// the sender hears its own broadcast too
	_, _, ok = a.Poll()
	assert.True(t, ok)
}

func TestFlushIsBounded(t *testing.T) {
	_, clock, a, _ := newTransports(t)

	require.NoError(t, a.Send(&Ping{}, "nobody", true))
	assert.False(t, a.Flush(context.Background(), 10))
	assert.Equal(t, Tick(10), clock.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, a.Flush(ctx, 10))
}

func TestMalformedFramesAreDropped(t *testing.T) {
	hub, _, a, _ := newTransports(t)
	raw := hub.Link("raw")

	require.NoError(t, raw.WriteTo([]byte("short"), "a"))
	require.NoError(t, raw.WriteTo(make([]byte, FrameSize), "a"))

	_, _, ok := a.Poll()
	assert.False(t, ok)
}

func TestFullInboxIsNotAcked(t *testing.T) {
	_, clock, a, b := newTransports(t)
	b.inbox = make([]inbound, inboxLen)

	require.NoError(t, a.Send(&Message{Text: "late"}, "b", true))
	b.Service()
	a.Service()
	assert.Equal(t, 1, a.PendingSendCount(), "a frame that was not queued is not acked")
	assert.Len(t, b.inbox, inboxLen)

	b.inbox = nil
	clock.Advance(RetryInterval)
	a.Service()
	b.Service()
	a.Service()
	assert.Zero(t, a.PendingSendCount())

	pkt, from, ok := b.Poll()
	require.True(t, ok)
	assert.Equal(t, Addr("a"), from)
	assert.Equal(t, "late", pkt.(*Message).Text)
}

func TestWithdraw(t *testing.T) {
	hub, clock, a, _ := newTransports(t)
	c := hub.Link("c")

	id, err := a.SendID(&Ping{}, "c", true)
	require.NoError(t, err)
	_, _, ok := c.ReadFrom()
	require.True(t, ok)

	assert.True(t, a.Withdraw(id))
	assert.Zero(t, a.PendingSendCount())
	assert.False(t, a.Withdraw(id))

	clock.Advance(RetryInterval)
	a.Service()
	_, _, ok = c.ReadFrom()
	assert.False(t, ok, "no retry after withdrawing")
}
