package lobby

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageMax is the longest message text that is sent
const MessageMax = 240

// Identity describes the local player
type Identity struct {
	Name     string
	Color    Color
	Faction  Faction
	ID       uuid.UUID
	Versions VersionRange
	RulesCRC uint32
}

// A Session is the whole protocol state of one peer.
// It is driven by calling Service from a single loop; nothing in it
// is safe for concurrent use.
type Session struct {
	tr    *Transport
	clock Clock
	log   *zap.Logger
	self  Identity

	games  *GameList
	chat   *ChatList
	roster *PlayerList
	sched  *Scheduler

	owner  *Owner
	member *Member

	events      []Event
	dispatching bool

	// ask the lobby for its chatters on the next timer run
	chatQuery bool
}

// NewSession returns a Session in the lobby, speaking through tr
func NewSession(tr *Transport, self Identity, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}

	if self.ID == uuid.Nil {
		self.ID = uuid.New()
	}
	self.Name = TruncName(self.Name)

	return &Session{
		tr:        tr,
		clock:     tr.Clock(),
		log:       log,
		self:      self,
		games:     NewGameList(),
		chat:      &ChatList{},
		roster:    &PlayerList{},
		sched:     NewScheduler(),
		chatQuery: true,
	}
}

// Identity returns the local identity
func (s *Session) Identity() Identity { return s.self }

// SetIdentity changes the local name, color and faction,
// re-announces presence and asks the lobby for its chatters
// immediately. It fails while in a session.
func (s *Session) SetIdentity(name string, color Color, faction Faction) error {
	if name == "" {
		return ErrNameEmpty
	}

	if s.owner != nil || s.member != nil {
		return ErrInSession
	}

	s.self.Name = TruncName(name)
	s.self.Color = color
	s.self.Faction = faction

	s.enterLobby()
	s.runTimers(s.clock.Now())

	return nil
}

// Transport returns the Transport of the Session
func (s *Session) Transport() *Transport { return s.tr }

// Games returns the discovery registry, sentinel first
func (s *Session) Games() []Game { return s.games.Games() }

// Chatters returns the presence registry
func (s *Session) Chatters() []Chatter { return s.chat.Chatters() }

// Roster returns the known players of the selected session
func (s *Session) Roster() []Player { return s.roster.Players() }

// Owner returns the owner role, or nil if no session is owned locally
func (s *Session) Owner() *Owner { return s.owner }

// Member returns the member role, or nil outside of a join attempt
func (s *Session) Member() *Member { return s.member }

// JoinState returns the state of the current join attempt
func (s *Session) JoinState() JoinState {
	if s.member == nil {
		return Idle
	}

	return s.member.state
}

// RejectReason returns why the last join attempt was rejected
func (s *Session) RejectReason() RejectReason {
	if s.member == nil {
		return RejectNone
	}

	return s.member.reason
}

// InLobby reports whether the peer is available to chat,
// i.e. owns no session and is not joined to one
func (s *Session) InLobby() bool {
	if s.owner != nil {
		return false
	}

	return s.member == nil || s.member.state == Idle || s.member.state == Rejected
}

// Selected returns the position of the selected session
func (s *Session) Selected() int { return s.games.Selected() }

// Select changes the selected session and queries its players at once.
// The selection is pinned while a join attempt is in progress.
func (s *Session) Select(i int) bool {
	if s.member != nil && s.member.state != Idle && s.member.state != Rejected {
		return false
	}

	if !s.games.Select(i) {
		return false
	}

	s.roster.Clear()
	s.sched.PlayerQuery.Force()
	s.runTimers(s.clock.Now())

	return true
}

// Host forms a new open session named name, owned by the local peer
func (s *Session) Host(name string, opts Options) (*Owner, error) {
	if name == "" || s.self.Name == "" {
		return nil, ErrNameEmpty
	}

	if !s.InLobby() {
		return nil, ErrInSession
	}

	s.member = nil
	s.owner = newOwner(s, TruncName(name), opts)
	s.games.Select(0)
	s.roster.Clear()

	s.log.Info("hosting session", zap.String("session", s.owner.name))

	// let everyone see the session without waiting for their next query
	s.owner.announce(Broadcast)

	return s.owner, nil
}

// RequestJoin asks the owner of the session at position idx to admit
// the local player. It reports false, without sending anything, if
// idx is not a real open session, the name is empty or a join attempt
// or owned session already exists.
func (s *Session) RequestJoin(idx int, name string, color Color, faction Faction) bool {
	if s.owner != nil || (s.member != nil && s.member.state != Idle && s.member.state != Rejected) {
		return false
	}

	if s.games.Len() <= 1 || idx <= 0 || idx >= s.games.Len() || name == "" {
		return false
	}

	g, _ := s.games.Get(idx)
	if !g.Open {
		return false
	}

	s.self.Name = TruncName(name)
	s.self.Color = color
	s.self.Faction = faction

	query, err := s.sendID(&QueryJoin{
		Session:  g.Name,
		Color:    color,
		Faction:  faction,
		Versions: s.self.Versions,
		RulesCRC: s.self.RulesCRC,
	}, g.Owner, true)
	if err != nil {
		s.log.Warn("join request not sent", zap.String("session", g.Name), zap.Error(err))
		return false
	}

	if s.games.Selected() != idx {
		s.games.Select(idx)
		s.roster.Clear()
	}

	s.member = &Member{
		s:       s,
		state:   AwaitingConfirm,
		session: g.Name,
		owner:   g.Owner,
		color:   color,
		faction: faction,
		query:   query,
	}

	s.log.Info("requested to join", zap.String("session", g.Name), zap.String("owner", string(g.Owner)))

	return true
}

// Leave cancels the join attempt, leaves the joined session or
// disbands the owned one, whichever applies
func (s *Session) Leave(ctx context.Context) error {
	switch {
	case s.owner != nil:
		return s.owner.Disband(ctx)
	case s.member != nil:
		return s.member.Cancel(ctx)
	}

	return nil
}

// SendMessage sends text to the session the peer belongs to,
// or to everyone in the lobby
func (s *Session) SendMessage(text string) error {
	msg := &Message{Color: s.self.Color, Text: truncate(text, MessageMax)}

	var to []Addr
	switch {
	case s.owner != nil:
		msg.Session = s.owner.name
		to = s.owner.addrs()
	case s.member != nil && s.member.state == Confirmed:
		msg.Session = s.member.session
		to = s.member.peers()
	default:
		return s.send(msg, Broadcast, false)
	}

	var first error
	for _, addr := range to {
		if err := s.send(msg, addr, true); err != nil && first == nil {
			first = err
		}
	}

	return first
}

// Service runs one iteration of the protocol: it dispatches every
// received packet, expires stale records and sends whatever is due.
// It returns the events that occurred.
func (s *Session) Service() []Event {
	s.tr.Service()

	for {
		pkt, from, ok := s.tr.Poll()
		if !ok {
			break
		}

		e, err := s.Dispatch(pkt, from)
		if err != nil {
			s.log.Error("dispatch", zap.Error(err))
			continue
		}

		s.emit(e)
	}

	now := s.clock.Now()
	s.expire(now)
	s.runTimers(now)

	events := s.events
	s.events = nil

	return events
}

// Close stops using the transport's link
func (s *Session) Close() error {
	return s.tr.Link().Close()
}

func (s *Session) emit(e Event) {
	if e.Kind == EventNone {
		return
	}

	eventsTotal.WithLabelValues(e.Kind.String()).Inc()
	s.events = append(s.events, e)
}

func (s *Session) send(pkt Packet, to Addr, ackRequired bool) error {
	_, err := s.sendID(pkt, to, ackRequired)
	return err
}

func (s *Session) sendID(pkt Packet, to Addr, ackRequired bool) (uint32, error) {
	pkt.header().Name = s.self.Name
	return s.tr.SendID(pkt, to, ackRequired)
}

// enterLobby makes the next timer run announce our presence and ask
// the other chatters for theirs
func (s *Session) enterLobby() {
	s.sched.ChatAnnounce.Force()
	s.chatQuery = true
}

func (s *Session) expire(now Tick) {
	_, removed := s.games.Expire(now)
	for _, g := range removed {
		s.emit(Event{Kind: EventSessionLeft, Name: g.Name, Addr: g.Owner})

		if m := s.member; m != nil && g.Name == m.session {
			s.emit(m.lost())
		}
	}

	if len(removed) > 0 && s.games.Selected() == 0 {
		s.roster.Clear()
	}

	for _, p := range s.roster.Expire(now, PlayerTimeout) {
		s.emit(Event{Kind: EventMemberLeft, Name: p.Name, Addr: p.Addr})
	}

	ping, gone := s.chat.Service(now)
	for _, c := range ping {
		if err := s.send(&Ping{ID: s.self.ID}, c.Addr, false); err != nil {
			s.log.Debug("ping", zap.String("to", string(c.Addr)), zap.Error(err))
		}
	}

	for _, c := range gone {
		s.emit(Event{Kind: EventChatterLeft, Name: c.Name, Addr: c.Addr})
	}

	if s.owner != nil {
		for _, p := range s.owner.members.Expire(now, MemberTimeout) {
			s.log.Info("member timed out", zap.String("name", p.Name))
			s.emit(Event{Kind: EventMemberLeft, Name: p.Name, Addr: p.Addr})
		}
	}
}

func (s *Session) runTimers(now Tick) {
	if s.sched.GameQuery.Due(now) && s.owner == nil {
		s.broadcast(&QueryGame{})
	}

	if s.sched.PlayerQuery.Due(now) && s.owner == nil && s.games.Selected() != 0 {
		s.broadcast(&QueryPlayer{Session: s.games.SelectedGame().Name})
	}

	if s.chatQuery && s.InLobby() && s.self.Name != "" {
		s.chatQuery = false
		s.broadcast(&ChatRequest{ID: s.self.ID})
	}

	if s.sched.ChatAnnounce.Due(now) && s.InLobby() && s.self.Name != "" {
		s.broadcast(&ChatAnnounce{ID: s.self.ID, Color: s.self.Color})
	}

	if s.owner != nil && s.owner.optTimer.Due(now) {
		s.owner.pushOptions()
	}
}

func (s *Session) broadcast(pkt Packet) {
	if err := s.send(pkt, Broadcast, false); err != nil {
		s.log.Debug("broadcast", zap.Stringer("cmd", pkt.Cmd()), zap.Error(err))
	}
}
