package lobby

import (
	"go.uber.org/zap"
)

// Dispatch routes one received packet to the registry or role it
// concerns and returns the resulting event. Discovery, roster and
// presence queries are answered directly. Dispatch must not be called
// from inside itself.
func (s *Session) Dispatch(pkt Packet, from Addr) (Event, error) {
	if s.dispatching {
		return Event{}, ErrReentrant
	}

	s.dispatching = true
	defer func() { s.dispatching = false }()

	if s.echo(pkt) {
		return Event{}, nil
	}

	now := s.clock.Now()
	if s.owner != nil {
		s.owner.members.Touch(from, now)
	}

	switch p := pkt.(type) {
	case *QueryGame:
		s.answerGame(from)
	case *AnswerGame:
		return s.onAnswerGame(p, from, now), nil
	case *QueryPlayer:
		s.answerPlayer(p, from)
	case *AnswerPlayer:
		return s.onAnswerPlayer(p, from, now), nil
	case *ChatAnnounce:
		if s.chat.Touch(p.ID, p.Sender(), from, p.Color, now) {
			return Event{Kind: EventNewChatter, Name: p.Sender(), Addr: from}, nil
		}
	case *ChatRequest:
		s.answerChat(from)
	case *Ping:
		s.answerChat(from)
	case *SignOff:
		return s.onSignOff(p, from), nil
	case *Message:
		return Event{Kind: EventMessage, Name: p.Sender(), Addr: from, Text: p.Text}, nil
	case *QueryJoin:
		if s.owner != nil {
			return s.owner.admit(p, from, now), nil
		}
	case *ReqScenario:
		if s.owner != nil {
			return s.owner.fromMember(EventScenarioRequest, p.Session, from), nil
		}
	case *ReadyToGo:
		if s.owner != nil {
			return s.owner.fromMember(EventReady, p.Session, from), nil
		}
	case *ConfirmJoin:
		if m := s.member; m != nil && m.expects(p.Session, from) {
			return m.handle(p, from), nil
		}

		s.decline(p, from)
	case *RejectJoin, *GameOptions, *Go, *LoadGame:
		if s.member != nil {
			return s.member.handle(pkt, from), nil
		}
	case *Connect:
		// late election traffic
	default:
		s.log.Warn("unhandled packet", zap.Stringer("cmd", pkt.Cmd()))
	}

	return Event{}, nil
}

// echo reports whether pkt is one of our own broadcasts coming back.
// Presence packets carry our id, the other broadcast kinds our name.
func (s *Session) echo(pkt Packet) bool {
	switch p := pkt.(type) {
	case *ChatAnnounce:
		return p.ID == s.self.ID
	case *ChatRequest:
		return p.ID == s.self.ID
	case *Ping:
		return p.ID == s.self.ID
	case *QueryGame, *AnswerGame, *QueryPlayer, *AnswerPlayer, *SignOff, *Message:
		return p.Sender() == s.self.Name
	}

	return false
}

// answerGame tells a querying peer about our session. While a session
// is open only its owner answers, so the answer's source is the address
// to send join requests to. Once closed every member answers and the
// session stays visible even if the owner is gone.
func (s *Session) answerGame(to Addr) {
	var ans *AnswerGame
	switch {
	case s.owner != nil:
		ans = &AnswerGame{Session: s.owner.name, Open: s.owner.open, Versions: s.self.Versions}
	case s.member != nil && s.member.joined():
		i, ok := s.games.Find(s.member.session)
		if !ok {
			return
		}

		if g, _ := s.games.Get(i); g.Open {
			return
		}

		ans = &AnswerGame{Session: s.member.session, Versions: s.self.Versions}
	default:
		return
	}

	if err := s.send(ans, to, false); err != nil {
		s.log.Debug("answer game", zap.Error(err))
	}
}

func (s *Session) onAnswerGame(p *AnswerGame, from Addr, now Tick) Event {
	isNew, openChanged := s.games.Upsert(p.Session, from, p.Open, p.Versions, now)
	if p.Open {
		s.games.MarkOwnerAddress(p.Session, from)
	}

	switch {
	case isNew:
		return Event{Kind: EventNewSession, Name: p.Session, Addr: from}
	case openChanged:
		return Event{Kind: EventSessionChanged, Name: p.Session, Addr: from}
	}

	return Event{}
}

func (s *Session) answerPlayer(p *QueryPlayer, to Addr) {
	var session string
	color, faction := s.self.Color, s.self.Faction

	switch {
	case s.owner != nil:
		session = s.owner.name
	case s.member != nil && s.member.joined():
		session = s.member.session
		color, faction = s.member.color, s.member.faction
	}

	if session == "" || session != p.Session {
		return
	}

	ans := &AnswerPlayer{Session: session, Color: color, Faction: faction}
	if err := s.send(ans, to, false); err != nil {
		s.log.Debug("answer player", zap.Error(err))
	}
}

func (s *Session) onAnswerPlayer(p *AnswerPlayer, from Addr, now Tick) Event {
	if s.games.Selected() == 0 || s.games.SelectedGame().Name != p.Session {
		return Event{}
	}

	isNew := s.roster.Upsert(Player{
		Name:     p.Sender(),
		Addr:     from,
		Color:    p.Color,
		Faction:  p.Faction,
		LastSeen: now,
	})
	if isNew {
		return Event{Kind: EventNewMember, Name: p.Sender(), Addr: from}
	}

	return Event{}
}

// decline signs off from a session that admitted us after the join
// attempt was given up, so the owner does not keep a member that
// never comes
func (s *Session) decline(p *ConfirmJoin, from Addr) {
	s.log.Info("declining join confirmation", zap.String("session", p.Session), zap.String("from", string(from)))

	if err := s.send(&SignOff{Session: p.Session, Reason: SignOffLeave}, from, true); err != nil {
		s.log.Debug("decline", zap.Error(err))
	}
}

func (s *Session) answerChat(to Addr) {
	if !s.InLobby() || s.self.Name == "" {
		return
	}

	if err := s.send(&ChatAnnounce{ID: s.self.ID, Color: s.self.Color}, to, false); err != nil {
		s.log.Debug("answer chat", zap.Error(err))
	}
}

// onSignOff removes the sender from every registry. A sign-off from the
// owner of the session we are joining ends the join attempt, which is
// the event reported in that case.
func (s *Session) onSignOff(p *SignOff, from Addr) Event {
	var e Event

	if m := s.member; m != nil && from == m.owner && p.Session == m.session {
		e = m.handle(p, from)
	}

	if i, ok := s.games.Find(p.Session); ok {
		if g, _ := s.games.Get(i); g.Owner == from {
			s.games.Remove(p.Session)
			if e.Kind == EventNone {
				e = Event{Kind: EventSessionLeft, Name: g.Name, Addr: from}
			}
		}
	}

	if i, ok := s.roster.FindAddr(from); ok {
		pl := s.roster.RemoveAt(i)
		if e.Kind == EventNone {
			e = Event{Kind: EventMemberLeft, Name: pl.Name, Addr: from}
		}
	}

	if s.owner != nil {
		if i, ok := s.owner.members.FindAddr(from); ok {
			pl := s.owner.members.RemoveAt(i)
			s.log.Info("member left", zap.String("name", pl.Name))
			if e.Kind == EventNone {
				e = Event{Kind: EventMemberLeft, Name: pl.Name, Addr: from}
			}
		}
	}

	if c, ok := s.chat.Remove(from); ok && e.Kind == EventNone {
		e = Event{Kind: EventChatterLeft, Name: c.Name, Addr: from}
	}

	return e
}
