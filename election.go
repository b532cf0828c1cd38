package lobby

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Host election timing in ticks
const (
	ElectionGrace   Tick = 80
	ElectionResend  Tick = 30
	ElectionTimeout Tick = 3600
)

// TieBreak is the value compared during host election.
// Seed is a clock reading; Salt separates peers that read the same tick.
type TieBreak struct {
	Seed uint32
	Salt uint32
}

// NewTieBreak returns a TieBreak from the clock, salted with a random uuid
func NewTieBreak(clock Clock) TieBreak {
	return TieBreak{Seed: uint32(clock.Now()), Salt: uuid.New().ID()}
}

// Compare returns -1, 0 or 1 as t is less than, equal to or greater than u
func (t TieBreak) Compare(u TieBreak) int {
	switch {
	case t.Seed < u.Seed:
		return -1
	case t.Seed > u.Seed:
		return 1
	case t.Salt < u.Salt:
		return -1
	case t.Salt > u.Salt:
		return 1
	}

	return 0
}

// ElectionResult is the outcome of a host election
type ElectionResult struct {
	// Host reports whether the local peer owns the session
	Host bool
	Peer Addr
	Mine TieBreak
	Them TieBreak
}

// An Election decides which of two directly linked peers hosts.
// Step advances it by one tick without blocking.
type Election struct {
	tr   *Transport
	name string
	peer Addr
	tb   TieBreak
	log  *zap.Logger

	start    Tick
	lastSent Tick
	sent     bool

	decided    bool
	result     ElectionResult
	drainUntil Tick
}

// NewElection prepares an election over tr with the peer at peer
func NewElection(tr *Transport, name string, peer Addr, tb TieBreak, log *zap.Logger) *Election {
	if log == nil {
		log = zap.NewNop()
	}

	return &Election{
		tr:    tr,
		name:  TruncName(name),
		peer:  peer,
		tb:    tb,
		log:   log,
		start: tr.Clock().Now(),
	}
}

// Result returns the outcome once Step has reported completion
func (e *Election) Result() ElectionResult { return e.result }

// Step processes received connect packets and sends our own when due.
// It reports true once the outcome is decided and the final connect
// was acknowledged or the drain time ran out.
func (e *Election) Step() (bool, error) {
	e.tr.Service()
	now := e.tr.Clock().Now()

	if e.decided {
		return e.tr.PendingSendCount() == 0 || now >= e.drainUntil, nil
	}

	for {
		pkt, from, ok := e.tr.Poll()
		if !ok {
			break
		}

		c, ok := pkt.(*Connect)
		if !ok {
			continue
		}

		them := TieBreak{Seed: c.Seed, Salt: c.Salt}
		switch e.tb.Compare(them) {
		case 0:
			e.log.Error("received our own tie-break", zap.String("from", string(from)))
			return false, ErrLoopback
		case -1:
			e.result = ElectionResult{Host: false, Peer: from, Mine: e.tb, Them: them}
		case 1:
			e.result = ElectionResult{Host: true, Peer: from, Mine: e.tb, Them: them}
		}

		e.decided = true
		e.drainUntil = now + DrainTicks
		e.log.Info("election decided", zap.Bool("host", e.result.Host), zap.String("peer", string(from)))

		// the peer may not have our value yet; make sure it gets it
		if err := e.send(true); err != nil {
			return false, err
		}

		return false, nil
	}

	if now-e.start >= ElectionTimeout {
		return false, ErrElectionTimeout
	}

	if now-e.start >= ElectionGrace && (!e.sent || now-e.lastSent >= ElectionResend) {
		if err := e.send(false); err != nil {
			e.log.Debug("connect", zap.Error(err))
		}
	}

	return false, nil
}

func (e *Election) send(ackRequired bool) error {
	e.sent = true
	e.lastSent = e.tr.Clock().Now()

	c := &Connect{Seed: e.tb.Seed, Salt: e.tb.Salt}
	c.Name = e.name

	return e.tr.Send(c, e.peer, ackRequired)
}

// Elect runs an election to completion. It returns ErrLoopback if the
// link echoes our own connect packets and ErrElectionTimeout if no peer
// shows up.
func Elect(ctx context.Context, tr *Transport, name string, peer Addr, log *zap.Logger) (ElectionResult, error) {
	e := NewElection(tr, name, peer, NewTieBreak(tr.Clock()), log)
	for {
		done, err := e.Step()
		if err != nil {
			return ElectionResult{}, err
		}

		if done {
			return e.Result(), nil
		}

		if err := tr.Clock().Wait(ctx, 1); err != nil {
			return ElectionResult{}, err
		}
	}
}
