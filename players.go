package lobby

// A Player is a member of a session
type Player struct {
	Name     string
	Addr     Addr
	Color    Color
	Faction  Faction
	Version  uint32
	LastSeen Tick
}

// Self reports whether p is the local player, whose address is never used
func (p Player) Self() bool { return p.Addr == "" }

// PlayerList is an ordered list of session members.
// On an owner, position 0 is the owner itself.
type PlayerList struct {
	list []*Player
}

// Len returns the number of players
func (l *PlayerList) Len() int { return len(l.list) }

// Players returns a copy of every record
func (l *PlayerList) Players() []Player {
	ps := make([]Player, len(l.list))
	for i, p := range l.list {
		ps[i] = *p
	}

	return ps
}

// Add appends p
func (l *PlayerList) Add(p Player) {
	l.list = append(l.list, &p)
}

// Find returns the position of the player named name
func (l *PlayerList) Find(name string) (int, bool) {
	for i, p := range l.list {
		if p.Name == name {
			return i, true
		}
	}

	return 0, false
}

// FindAddr returns the position of the player at addr
func (l *PlayerList) FindAddr(addr Addr) (int, bool) {
	for i, p := range l.list {
		if !p.Self() && p.Addr == addr {
			return i, true
		}
	}

	return 0, false
}

// Get returns the player at position i
func (l *PlayerList) Get(i int) Player { return *l.list[i] }

// RemoveAt deletes and returns the player at position i
func (l *PlayerList) RemoveAt(i int) Player {
	p := *l.list[i]
	l.list = append(l.list[:i], l.list[i+1:]...)

	return p
}

// Clear removes every player
func (l *PlayerList) Clear() { l.list = nil }

// Touch refreshes the player at addr
func (l *PlayerList) Touch(addr Addr, now Tick) bool {
	if i, ok := l.FindAddr(addr); ok {
		l.list[i].LastSeen = now
		return true
	}

	return false
}

// Upsert adds p or refreshes the record with the same name and address.
// It reports whether p is new.
func (l *PlayerList) Upsert(p Player) bool {
	for _, q := range l.list {
		if q.Name == p.Name && q.Addr == p.Addr {
			*q = p
			return false
		}
	}

	l.Add(p)
	return true
}

// Expire removes every remote player not seen for timeout ticks
func (l *PlayerList) Expire(now, timeout Tick) []Player {
	var removed []Player

	kept := l.list[:0]
	for _, p := range l.list {
		if !p.Self() && now-p.LastSeen > timeout {
			removed = append(removed, *p)
			continue
		}

		kept = append(kept, p)
	}

	for i := len(kept); i < len(l.list); i++ {
		l.list[i] = nil
	}
	l.list = kept

	return removed
}

// FreeColor returns want if no player holds it,
// else the lowest-numbered color nobody holds
func (l *PlayerList) FreeColor(want Color) (Color, bool) {
	var used [ColorCount]bool
	for _, p := range l.list {
		if p.Color < ColorCount {
			used[p.Color] = true
		}
	}

	if want < ColorCount && !used[want] {
		return want, true
	}

	for c := Color(0); c < ColorCount; c++ {
		if !used[c] {
			return c, true
		}
	}

	return 0, false
}
