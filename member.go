package lobby

import (
	"context"

	"go.uber.org/zap"
)

// Member is the role of a peer that asked to join someone else's session
type Member struct {
	s *Session

	state  JoinState
	reason RejectReason

	session string
	owner   Addr
	color   Color
	faction Faction
	version uint32
	options Options

	// frame id of the join query, retried until the owner acks it
	query uint32
}

// State returns the join state
func (m *Member) State() JoinState { return m.state }

// Reason returns why the join attempt was rejected, if it was
func (m *Member) Reason() RejectReason { return m.reason }

// SessionName returns the name of the session being joined
func (m *Member) SessionName() string { return m.session }

// OwnerAddr returns the address of the session owner
func (m *Member) OwnerAddr() Addr { return m.owner }

// Color returns the color the owner assigned
func (m *Member) Color() Color { return m.color }

// Faction returns the faction the owner confirmed
func (m *Member) Faction() Faction { return m.faction }

// Version returns the protocol version agreed with the owner
func (m *Member) Version() uint32 { return m.version }

// Options returns the last options received from the owner
func (m *Member) Options() Options { return m.options }

func (m *Member) joined() bool {
	return m.state == Confirmed || m.state == StartGame || m.state == StartGameLoad
}

// expects reports whether a ConfirmJoin for session from from belongs
// to this join attempt
func (m *Member) expects(session string, from Addr) bool {
	return m.session == session && m.owner == from && (m.state == AwaitingConfirm || m.joined())
}

// AckRejection returns a rejected member to Idle and the peer to the lobby
func (m *Member) AckRejection() {
	if m.state != Rejected {
		return
	}

	m.state = Idle
	m.s.member = nil
	m.s.enterLobby()
}

// Cancel withdraws a pending join request or leaves the joined session.
// Peers are told with a sign-off; Cancel waits a bounded time for the
// acknowledged ones to be delivered.
func (m *Member) Cancel(ctx context.Context) error {
	s := m.s
	off := &SignOff{Session: m.session, Reason: SignOffLeave}

	switch m.state {
	case AwaitingConfirm:
		// a query retried after the sign-off would admit us again
		s.tr.Withdraw(m.query)

		// the owner may not know our address yet, so tell everyone
		for i := 0; i < 2; i++ {
			s.broadcast(off)
		}
	case Confirmed:
		for _, addr := range m.peers() {
			if err := s.send(off, addr, true); err != nil {
				s.log.Debug("sign-off", zap.String("to", string(addr)), zap.Error(err))
			}
		}
	}

	if !s.tr.Flush(ctx, DrainTicks) {
		s.log.Info("sign-off not acknowledged by every peer", zap.Int("pending", s.tr.PendingSendCount()))
	}

	s.log.Info("left session", zap.String("session", m.session), zap.Stringer("state", m.state))

	m.state = Idle
	s.member = nil
	s.enterLobby()

	return ctx.Err()
}

// RequestScenario tells the owner the scenario file is missing locally
func (m *Member) RequestScenario() error {
	if !m.joined() {
		return ErrNotJoined
	}

	return m.s.send(&ReqScenario{Session: m.session}, m.owner, true)
}

// Ready tells the owner the member is ready to start
func (m *Member) Ready() error {
	if !m.joined() {
		return ErrNotJoined
	}

	return m.s.send(&ReadyToGo{Session: m.session}, m.owner, true)
}

// peers returns the owner and every other known member of the session
func (m *Member) peers() []Addr {
	addrs := []Addr{m.owner}
	for _, p := range m.s.roster.Players() {
		dup := p.Self()
		for _, a := range addrs {
			dup = dup || a == p.Addr
		}

		if !dup {
			addrs = append(addrs, p.Addr)
		}
	}

	return addrs
}

func (m *Member) stateEvent() Event {
	return Event{Kind: EventStateChange, Name: m.session, Addr: m.owner, State: m.state, Reason: m.reason}
}

// lost ends the join attempt because the session disappeared
func (m *Member) lost() Event {
	if m.state != AwaitingConfirm && m.state != Confirmed {
		return Event{}
	}

	m.state = Rejected
	m.reason = RejectDisbanded

	return m.stateEvent()
}

// handle processes the packets only a member acts on.
// Only the owner of the joined session can move the state.
func (m *Member) handle(pkt Packet, from Addr) Event {
	if from != m.owner {
		return Event{}
	}

	switch p := pkt.(type) {
	case *ConfirmJoin:
		if m.state != AwaitingConfirm || p.Session != m.session {
			break
		}

		m.state = Confirmed
		m.color = p.Color
		m.faction = p.Faction
		m.version = p.Version
		m.s.log.Info("join confirmed", zap.String("session", m.session), zap.Stringer("color", p.Color))

		// players of the session answer the roster query; learn them now
		m.s.sched.PlayerQuery.Force()

		return m.stateEvent()
	case *RejectJoin:
		if m.state != AwaitingConfirm || p.Session != m.session {
			break
		}

		m.state = Rejected
		m.reason = p.Reason
		m.s.log.Info("join rejected", zap.String("session", m.session), zap.Stringer("reason", p.Reason))

		return m.stateEvent()
	case *GameOptions:
		if p.Session != m.session || (m.state != AwaitingConfirm && m.state != Confirmed) {
			break
		}

		m.options = p.Options
		return Event{Kind: EventOptionsChanged, Name: m.session, Addr: from}
	case *Go:
		if m.state != Confirmed || p.Session != m.session {
			break
		}

		m.state = StartGame
		m.version = p.Version

		return m.stateEvent()
	case *LoadGame:
		if m.state != Confirmed || p.Session != m.session {
			break
		}

		m.state = StartGameLoad
		m.version = p.Version

		return m.stateEvent()
	case *SignOff:
		if m.state != AwaitingConfirm && m.state != Confirmed {
			break
		}

		m.state = Rejected
		m.reason = RejectDisbanded
		if p.Reason == SignOffByOwner {
			m.reason = RejectRevoked
		}
		m.s.log.Info("removed from session", zap.String("session", m.session), zap.Stringer("reason", m.reason))

		return m.stateEvent()
	}

	return Event{}
}
