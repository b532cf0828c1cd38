package lobby

import "github.com/google/uuid"

// A Chatter is a peer that announced itself as available to chat
type Chatter struct {
	ID       uuid.UUID
	Name     string
	Addr     Addr
	Color    Color
	LastSeen Tick
	PingSent bool
	PingAt   Tick
}

// ChatList is the presence registry
type ChatList struct {
	list []*Chatter
}

// Len returns the number of known chatters
func (l *ChatList) Len() int { return len(l.list) }

// Chatters returns a copy of every record
func (l *ChatList) Chatters() []Chatter {
	cs := make([]Chatter, len(l.list))
	for i, c := range l.list {
		cs[i] = *c
	}

	return cs
}

// Touch records an announcement or ping reply from the peer with id.
// It reports whether the peer is new.
func (l *ChatList) Touch(id uuid.UUID, name string, addr Addr, color Color, now Tick) bool {
	for _, c := range l.list {
		if c.ID == id {
			c.Name = name
			c.Addr = addr
			c.Color = color
			c.LastSeen = now
			c.PingSent = false
			return false
		}
	}

	l.list = append(l.list, &Chatter{
		ID:       id,
		Name:     name,
		Addr:     addr,
		Color:    color,
		LastSeen: now,
	})
	registrySize.WithLabelValues("chat").Set(float64(len(l.list)))

	return true
}

// Remove deletes the chatter at addr
func (l *ChatList) Remove(addr Addr) (Chatter, bool) {
	for i, c := range l.list {
		if c.Addr == addr {
			l.list = append(l.list[:i], l.list[i+1:]...)
			registrySize.WithLabelValues("chat").Set(float64(len(l.list)))
			return *c, true
		}
	}

	return Chatter{}, false
}

// Service advances liveness. A chatter quiet for ChatQuiet ticks is
// returned in ping exactly once; one that has not answered ChatReply
// ticks after the ping and is quiet for ChatStale ticks is removed.
func (l *ChatList) Service(now Tick) (ping, removed []Chatter) {
	kept := l.list[:0]
	for _, c := range l.list {
		quiet := now - c.LastSeen

		switch {
		case !c.PingSent && quiet >= ChatQuiet:
			c.PingSent = true
			c.PingAt = now
			ping = append(ping, *c)
		case c.PingSent && now-c.PingAt >= ChatReply && quiet >= ChatStale:
			removed = append(removed, *c)
			continue
		}

		kept = append(kept, c)
	}

	for i := len(kept); i < len(l.list); i++ {
		l.list[i] = nil
	}
	l.list = kept

	if len(removed) > 0 {
		registrySize.WithLabelValues("chat").Set(float64(len(l.list)))
	}

	return ping, removed
}
