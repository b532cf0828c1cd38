package lobby

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// hookClock is a ManualClock whose Wait runs onWait after every tick,
// so bounded waits on one peer let the others make progress
type hookClock struct {
	ManualClock
	onWait func()
}

func (c *hookClock) Wait(ctx context.Context, n Tick) error {
	for i := Tick(0); i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.Advance(1)
		if c.onWait != nil {
			c.onWait()
		}
	}

	return nil
}

type peer struct {
	*Session
	addr   Addr
	link   *MemLink
	events []Event
}

func (p *peer) service() {
	p.events = append(p.events, p.Service()...)
}

func (p *peer) saw(kind EventKind, name string) bool {
	for _, e := range p.events {
		if e.Kind == kind && e.Name == name {
			return true
		}
	}

	return false
}

type world struct {
	t     *testing.T
	hub   *Hub
	clock *hookClock
	peers []*peer
}

var testVersions = VersionRange{Min: 1, Max: 3}

const testRulesCRC = 7

func newWorld(t *testing.T) *world {
	return &world{t: t, hub: NewHub(), clock: &hookClock{}}
}

func (w *world) add(addr Addr, name string) *peer {
	link := w.hub.Link(addr)
	tr := NewTransport(link, w.clock, zap.NewNop())
	s := NewSession(tr, Identity{Name: name, Versions: testVersions, RulesCRC: testRulesCRC}, nil)

	p := &peer{Session: s, addr: addr, link: link}
	w.peers = append(w.peers, p)

	return p
}

func (w *world) remove(p *peer) {
	for i, q := range w.peers {
		if q == p {
			w.peers = append(w.peers[:i], w.peers[i+1:]...)
			break
		}
	}

	p.Close()
}

// run services every peer once per tick for n ticks
func (w *world) run(n Tick) {
	for i := Tick(0); i < n; i++ {
		for _, p := range w.peers {
			p.service()
		}

		w.clock.Advance(1)
	}
}

// during runs f, which blocks on busy, while every other peer keeps
// being serviced
func (w *world) during(busy *peer, f func()) {
	w.clock.onWait = func() {
		for _, p := range w.peers {
			if p != busy {
				p.service()
			}
		}
	}
	defer func() { w.clock.onWait = nil }()

	f()
}

// frames returns every packet queued on a bare link
func frames(t *testing.T, l *MemLink) []Packet {
	var pkts []Packet
	for {
		data, _, ok := l.ReadFrom()
		if !ok {
			return pkts
		}

		kind, _, pkt, err := decodeFrame(data)
		require.NoError(t, err)
		if kind != frameAck {
			pkts = append(pkts, pkt)
		}
	}
}

// cmdOf returns the command carried by a data frame
func cmdOf(frame []byte) (Cmd, bool) {
	kind, _, pkt, err := decodeFrame(frame)
	if err != nil || kind == frameAck {
		return 0, false
	}

	return pkt.Cmd(), true
}

// count returns how often kind was reported for name
func (p *peer) count(kind EventKind, name string) int {
	n := 0
	for _, e := range p.events {
		if e.Kind == kind && e.Name == name {
			n++
		}
	}

	return n
}
