package lobby

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Owner is the role of the peer that formed a session.
// It admits members and replicates the options to them.
type Owner struct {
	s *Session

	name     string
	open     bool
	members  *PlayerList
	options  Options
	optTimer *Timer
}

func newOwner(s *Session, name string, opts Options) *Owner {
	o := &Owner{
		s:        s,
		name:     name,
		open:     true,
		members:  &PlayerList{},
		options:  opts,
		optTimer: NewTimer(OptionsPeriod),
	}

	o.members.Add(Player{
		Name:    s.self.Name,
		Color:   s.self.Color,
		Faction: s.self.Faction,
		Version: s.self.Versions.Max,
	})

	return o
}

// Name returns the session name
func (o *Owner) Name() string { return o.name }

// Open reports whether the session accepts joins
func (o *Owner) Open() bool { return o.open }

// SetOpen opens or closes the session to new members
func (o *Owner) SetOpen(open bool) {
	if o.open == open {
		return
	}

	o.open = open
	o.announce(Broadcast)
}

// Members returns the members, the owner itself first
func (o *Owner) Members() []Player { return o.members.Players() }

// Options returns the current options
func (o *Owner) Options() Options { return o.options }

// Version returns the highest protocol version every member speaks
func (o *Owner) Version() uint32 {
	v := o.s.self.Versions.Max
	for _, p := range o.members.Players() {
		if p.Version < v {
			v = p.Version
		}
	}

	return v
}

// BroadcastOptions replaces the options and pushes them to every member
func (o *Owner) BroadcastOptions(opts Options) error {
	o.options = opts
	o.optTimer.Reset(o.s.clock.Now())

	return o.pushOptions()
}

// SetOption changes one option by name and pushes the result
func (o *Owner) SetOption(key, value string) error {
	opts := o.options
	if err := opts.Set(key, value); err != nil {
		return err
	}

	return o.BroadcastOptions(opts)
}

func (o *Owner) pushOptions() error {
	var first error
	for _, addr := range o.addrs() {
		err := o.s.send(&GameOptions{Session: o.name, Options: o.options}, addr, true)
		if err != nil && first == nil {
			first = err
		}
	}

	return first
}

// Revoke removes the member named name from the session
func (o *Owner) Revoke(ctx context.Context, name string) error {
	i, ok := o.members.Find(name)
	if !ok || o.members.Get(i).Self() {
		return fmt.Errorf("revoke %s: %w", name, ErrNoSuchMember)
	}

	p := o.members.RemoveAt(i)
	if err := o.s.send(&SignOff{Session: o.name, Reason: SignOffByOwner}, p.Addr, true); err != nil {
		return err
	}

	o.s.log.Info("revoked member", zap.String("name", p.Name))
	o.s.emit(Event{Kind: EventMemberLeft, Name: p.Name, Addr: p.Addr})

	o.s.tr.Flush(ctx, DrainTicks)
	return ctx.Err()
}

// Go closes the session and tells every member to start
func (o *Owner) Go(ctx context.Context) error {
	return o.start(ctx, func(v uint32) Packet { return &Go{Session: o.name, Version: v} })
}

// LoadGame closes the session and tells every member to start
// from the saved state
func (o *Owner) LoadGame(ctx context.Context) error {
	return o.start(ctx, func(v uint32) Packet { return &LoadGame{Session: o.name, Version: v} })
}

func (o *Owner) start(ctx context.Context, pkt func(version uint32) Packet) error {
	o.SetOpen(false)

	v := o.Version()
	for _, addr := range o.addrs() {
		if err := o.s.send(pkt(v), addr, true); err != nil {
			return err
		}
	}

	o.s.log.Info("starting session", zap.String("session", o.name), zap.Int("members", o.members.Len()))

	if !o.s.tr.Flush(ctx, DrainTicks) {
		o.s.log.Warn("start not acknowledged by every member", zap.Int("pending", o.s.tr.PendingSendCount()))
	}

	return ctx.Err()
}

// Disband tells every member and the network that the session is gone
// and returns the peer to the lobby
func (o *Owner) Disband(ctx context.Context) error {
	off := &SignOff{Session: o.name, Reason: SignOffDisbanded}
	for _, addr := range o.addrs() {
		if err := o.s.send(off, addr, true); err != nil {
			o.s.log.Debug("sign-off", zap.String("to", string(addr)), zap.Error(err))
		}
	}

	for i := 0; i < 2; i++ {
		o.s.broadcast(off)
	}

	o.s.tr.Flush(ctx, DrainTicks)

	o.s.log.Info("disbanded session", zap.String("session", o.name))
	o.s.owner = nil
	o.s.enterLobby()

	return ctx.Err()
}

// addrs returns the addresses of every remote member
func (o *Owner) addrs() []Addr {
	var addrs []Addr
	for _, p := range o.members.Players() {
		if !p.Self() {
			addrs = append(addrs, p.Addr)
		}
	}

	return addrs
}

func (o *Owner) announce(to Addr) {
	ans := &AnswerGame{Session: o.name, Open: o.open, Versions: o.s.self.Versions}
	if err := o.s.send(ans, to, false); err != nil {
		o.s.log.Debug("announce", zap.Error(err))
	}
}

func (o *Owner) fromMember(kind EventKind, session string, from Addr) Event {
	i, ok := o.members.FindAddr(from)
	if !ok || session != o.name {
		return Event{}
	}

	return Event{Kind: kind, Name: o.members.Get(i).Name, Addr: from}
}

// admit decides a join request.
// A repeated request from a member that is already in is ignored.
func (o *Owner) admit(p *QueryJoin, from Addr, now Tick) Event {
	if p.Session != o.name {
		return Event{}
	}

	name := p.Sender()
	self := o.s.self

	reason := RejectNone
	if i, ok := o.members.Find(name); ok {
		if m := o.members.Get(i); !m.Self() && m.Addr == from {
			return Event{}
		}

		reason = RejectDuplicateName
	}

	switch {
	case reason != RejectNone:
	case name == "":
		reason = RejectDuplicateName
	case !o.open || o.members.Len() >= MaxPlayers:
		reason = RejectFull
	case p.RulesCRC != self.RulesCRC:
		reason = RejectConfigMismatch
	case p.Versions.Min > self.Versions.Max:
		reason = RejectTooOld
	case p.Versions.Max < self.Versions.Min:
		reason = RejectTooNew
	}

	if reason != RejectNone {
		o.s.log.Info("rejected join", zap.String("name", name), zap.String("from", string(from)),
			zap.Stringer("reason", reason))

		if err := o.s.send(&RejectJoin{Session: o.name, Reason: reason}, from, true); err != nil {
			o.s.log.Debug("reject", zap.Error(err))
		}

		return Event{}
	}

	color, ok := o.members.FreeColor(p.Color)
	if !ok {
		o.s.log.Info("rejected join", zap.String("name", name), zap.String("from", string(from)),
			zap.Stringer("reason", RejectFull))

		if err := o.s.send(&RejectJoin{Session: o.name, Reason: RejectFull}, from, true); err != nil {
			o.s.log.Debug("reject", zap.Error(err))
		}

		return Event{}
	}

	version := p.Versions.Max
	if self.Versions.Max < version {
		version = self.Versions.Max
	}

	o.members.Add(Player{
		Name:     name,
		Addr:     from,
		Color:    color,
		Faction:  p.Faction,
		Version:  version,
		LastSeen: now,
	})

	o.s.log.Info("admitted member", zap.String("name", name), zap.String("from", string(from)),
		zap.Stringer("color", color))

	err := o.s.send(&ConfirmJoin{Session: o.name, Color: color, Faction: p.Faction, Version: version}, from, true)
	if err != nil {
		o.s.log.Debug("confirm", zap.Error(err))
	}

	// the new member needs the options now, not at the next resend
	err = o.s.send(&GameOptions{Session: o.name, Options: o.options}, from, true)
	if err != nil {
		o.s.log.Debug("options", zap.Error(err))
	}

	return Event{Kind: EventNewMember, Name: name, Addr: from}
}
