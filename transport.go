package lobby

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// inboxLen bounds the data frames buffered between two Polls
const inboxLen = 512

type pendingSend struct {
	id    uint32
	to    Addr
	cmd   Cmd
	frame []byte
	first Tick
	last  Tick
	tries int
}

type inbound struct {
	pkt  Packet
	from Addr
}

// Transport sends and receives Packets over a Link.
// Ack-required sends are retried until acknowledged or given up.
// A Transport is not safe for concurrent use; it belongs to one
// service loop.
type Transport struct {
	link  Link
	clock Clock
	log   *zap.Logger

	retry      Tick
	maxRetries int
	giveUp     Tick

	nextID  uint32
	pending []*pendingSend
	inbox   []inbound
	seen    map[Addr]map[uint32]Tick
}

// NewTransport returns a Transport on link with the default timing
func NewTransport(link Link, clock Clock, log *zap.Logger) *Transport {
	if log == nil {
		log = zap.NewNop()
	}

	return &Transport{
		link:       link,
		clock:      clock,
		log:        log,
		retry:      RetryInterval,
		maxRetries: MaxRetries,
		giveUp:     GiveUp,
		seen:       make(map[Addr]map[uint32]Tick),
	}
}

// Link returns the Link the Transport runs on
func (t *Transport) Link() Link { return t.link }

// Clock returns the Clock the Transport runs on
func (t *Transport) Clock() Clock { return t.clock }

// SetTiming changes the retry policy of ack-required sends.
// maxRetries -1 means only giveUp limits the retries.
func (t *Transport) SetTiming(retry Tick, maxRetries int, giveUp Tick) {
	t.retry = retry
	t.maxRetries = maxRetries
	t.giveUp = giveUp
}

// Send encodes pkt and writes it to to, or to every peer if to is Broadcast.
// Broadcasts are never ack-required.
func (t *Transport) Send(pkt Packet, to Addr, ackRequired bool) error {
	_, err := t.SendID(pkt, to, ackRequired)
	return err
}

// SendID is Send, also returning the frame id Withdraw takes
func (t *Transport) SendID(pkt Packet, to Addr, ackRequired bool) (uint32, error) {
	if to == Broadcast {
		ackRequired = false
	}

	kind := frameData
	if ackRequired {
		kind = frameDataAck
	}

	t.nextID++
	id := t.nextID
	frame, err := encodeFrame(kind, id, pkt)
	if err != nil {
		return 0, err
	}

	err = t.write(frame, to, pkt.Cmd())
	if ackRequired {
		now := t.clock.Now()
		t.pending = append(t.pending, &pendingSend{
			id:    id,
			to:    to,
			cmd:   pkt.Cmd(),
			frame: frame,
			first: now,
			last:  now,
		})
		pendingSends.Inc()

		if err != nil {
			// the retry covers it
			t.log.Debug("send failed, will retry", zap.Stringer("cmd", pkt.Cmd()),
				zap.String("to", string(to)), zap.Error(err))
			return id, nil
		}
	}

	if err != nil {
		return id, fmt.Errorf("send %s to %s: %w", pkt.Cmd(), to, err)
	}

	return id, nil
}

// Withdraw stops retrying the ack-required send with the given id.
// It reports whether the send was still pending.
func (t *Transport) Withdraw(id uint32) bool {
	for i, p := range t.pending {
		if p.id == id {
			t.pending = append(t.pending[:i], t.pending[i+1:]...)
			pendingSends.Dec()

			t.log.Debug("withdrew send", zap.Stringer("cmd", p.cmd),
				zap.String("to", string(p.to)), zap.Int("retries", p.tries))
			return true
		}
	}

	return false
}

func (t *Transport) write(frame []byte, to Addr, cmd Cmd) error {
	framesSent.WithLabelValues(cmd.String()).Inc()
	if to == Broadcast {
		return t.link.Broadcast(frame)
	}

	return t.link.WriteTo(frame, to)
}

// Poll returns the next received packet and its source.
// It never blocks.
func (t *Transport) Poll() (Packet, Addr, bool) {
	t.pump()

	if len(t.inbox) == 0 {
		return nil, "", false
	}

	in := t.inbox[0]
	t.inbox[0] = inbound{}
	t.inbox = t.inbox[1:]

	return in.pkt, in.from, true
}

// PendingSendCount reports how many ack-required sends are unacknowledged
func (t *Transport) PendingSendCount() int { return len(t.pending) }

// Service reads the link, processes acks and retransmits or gives up
// on pending sends. Data packets are kept for Poll.
func (t *Transport) Service() {
	t.pump()

	now := t.clock.Now()
	kept := t.pending[:0]
	for _, p := range t.pending {
		if now-p.first >= t.giveUp {
			t.drop(p)
			continue
		}

		if now-p.last >= t.retry {
			if t.maxRetries >= 0 && p.tries >= t.maxRetries {
				t.drop(p)
				continue
			}

			if err := t.write(p.frame, p.to, p.cmd); err != nil {
				t.log.Debug("retransmit failed", zap.Stringer("cmd", p.cmd),
					zap.String("to", string(p.to)), zap.Error(err))
			}

			p.tries++
			p.last = now
			retransmits.Inc()
		}

		kept = append(kept, p)
	}

	for i := len(kept); i < len(t.pending); i++ {
		t.pending[i] = nil
	}
	t.pending = kept

	t.forget(now)
}

// Flush services the transport until every ack-required send is
// acknowledged or given up, or limit ticks pass.
// It reports whether everything was acknowledged.
func (t *Transport) Flush(ctx context.Context, limit Tick) bool {
	deadline := t.clock.Now() + limit
	for {
		t.Service()
		if len(t.pending) == 0 {
			return true
		}

		if t.clock.Now() >= deadline {
			return false
		}

		if err := t.clock.Wait(ctx, 1); err != nil {
			return false
		}
	}
}

func (t *Transport) drop(p *pendingSend) {
	t.log.Debug("gave up on send", zap.Stringer("cmd", p.cmd),
		zap.String("to", string(p.to)), zap.Int("retries", p.tries))

	giveUps.Inc()
	pendingSends.Dec()
}

func (t *Transport) pump() {
	for {
		data, from, ok := t.link.ReadFrom()
		if !ok {
			return
		}

		t.receive(data, from)
	}
}

func (t *Transport) receive(data []byte, from Addr) {
	kind, id, pkt, err := decodeFrame(data)
	if err != nil {
		t.log.Debug("dropping frame", zap.String("from", string(from)), zap.Error(err))
		framesDropped.WithLabelValues("malformed").Inc()
		return
	}

	if kind == frameAck {
		t.acked(from, id)
		return
	}

	// neither acked nor marked seen, so a retry still gets in
	if len(t.inbox) >= inboxLen {
		framesDropped.WithLabelValues("inbox_full").Inc()
		return
	}

	if kind == frameDataAck {
		// always ack, the sender may have missed the first one
		t.sendAck(from, id)

		if t.duplicate(from, id) {
			framesDropped.WithLabelValues("duplicate").Inc()
			return
		}
	}

	framesReceived.WithLabelValues(pkt.Cmd().String()).Inc()
	t.inbox = append(t.inbox, inbound{pkt: pkt, from: from})
}

func (t *Transport) acked(from Addr, id uint32) {
	for i, p := range t.pending {
		if p.id == id && p.to == from {
			t.pending = append(t.pending[:i], t.pending[i+1:]...)
			pendingSends.Dec()
			return
		}
	}
}

func (t *Transport) sendAck(to Addr, id uint32) {
	frame, err := encodeFrame(frameAck, id, nil)
	if err != nil {
		return
	}

	if err := t.link.WriteTo(frame, to); err != nil {
		t.log.Debug("ack failed", zap.String("to", string(to)), zap.Error(err))
	}
}

func (t *Transport) duplicate(from Addr, id uint32) bool {
	ids := t.seen[from]
	if ids == nil {
		ids = make(map[uint32]Tick)
		t.seen[from] = ids
	}

	if _, ok := ids[id]; ok {
		return true
	}

	ids[id] = t.clock.Now()
	return false
}

// forget drops duplicate-detection state old enough that the sender
// must have given up on the frame
func (t *Transport) forget(now Tick) {
	for addr, ids := range t.seen {
		for id, at := range ids {
			if now-at > 2*t.giveUp {
				delete(ids, id)
			}
		}

		if len(ids) == 0 {
			delete(t.seen, addr)
		}
	}
}
