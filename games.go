package lobby

// Key identifies a Game record for as long as it exists.
// The sentinel record always has Key 0.
type Key uint32

// A Game is a session as seen through discovery answers
type Game struct {
	Key      Key
	Name     string
	Owner    Addr
	Open     bool
	Versions VersionRange
	LastSeen Tick
}

// GameList is the session discovery registry.
// Position 0 holds a sentinel standing for "no session".
type GameList struct {
	games    []*Game
	pos      map[Key]int
	next     Key
	selected Key
}

// NewGameList returns a GameList holding only the sentinel
func NewGameList() *GameList {
	return &GameList{
		games: []*Game{{}},
		pos:   map[Key]int{0: 0},
	}
}

// Len returns the number of records, sentinel included
func (l *GameList) Len() int { return len(l.games) }

// Get returns the record at position i
func (l *GameList) Get(i int) (Game, bool) {
	if i < 0 || i >= len(l.games) {
		return Game{}, false
	}

	return *l.games[i], true
}

// Index returns the current position of the record with key k
func (l *GameList) Index(k Key) (int, bool) {
	i, ok := l.pos[k]
	return i, ok
}

// Find returns the position of the record named name
func (l *GameList) Find(name string) (int, bool) {
	for i := 1; i < len(l.games); i++ {
		if l.games[i].Name == name {
			return i, true
		}
	}

	return 0, false
}

// Games returns a copy of every record, sentinel included
func (l *GameList) Games() []Game {
	games := make([]Game, len(l.games))
	for i, g := range l.games {
		games[i] = *g
	}

	return games
}

// Upsert records a discovery answer for name.
// isNew reports a record was created, openChanged that an existing
// record flipped its open flag.
func (l *GameList) Upsert(name string, addr Addr, open bool, versions VersionRange, now Tick) (isNew, openChanged bool) {
	if name == "" {
		return false, false
	}

	if i, ok := l.Find(name); ok {
		g := l.games[i]
		g.LastSeen = now
		g.Versions = versions

		if g.Open != open {
			g.Open = open
			g.Owner = addr
			return false, true
		}

		return false, false
	}

	l.next++
	l.games = append(l.games, &Game{
		Key:      l.next,
		Name:     name,
		Owner:    addr,
		Open:     open,
		Versions: versions,
		LastSeen: now,
	})
	l.pos[l.next] = len(l.games) - 1
	registrySize.WithLabelValues("games").Set(float64(len(l.games) - 1))

	return true, false
}

// MarkOwnerAddress sets the owner of the record named name
func (l *GameList) MarkOwnerAddress(name string, addr Addr) {
	if i, ok := l.Find(name); ok {
		l.games[i].Owner = addr
	}
}

// Expire removes every record not seen for GameTimeout ticks.
// It returns the positions the removed records had before the call
// together with the records themselves.
func (l *GameList) Expire(now Tick) ([]int, []Game) {
	var (
		indices []int
		removed []Game
	)

	for i := len(l.games) - 1; i > 0; i-- {
		if now-l.games[i].LastSeen > GameTimeout {
			indices = append([]int{i}, indices...)
			removed = append([]Game{*l.games[i]}, removed...)
			l.removeAt(i)
		}
	}

	return indices, removed
}

// Remove deletes the record named name
func (l *GameList) Remove(name string) (Game, bool) {
	i, ok := l.Find(name)
	if !ok {
		return Game{}, false
	}

	g := *l.games[i]
	l.removeAt(i)

	return g, true
}

func (l *GameList) removeAt(i int) {
	g := l.games[i]

	// the selection is kept by key, so it follows its record down;
	// if the record itself goes away it lands on the predecessor
	if g.Key == l.selected {
		l.selected = l.games[i-1].Key
	}

	delete(l.pos, g.Key)
	l.games = append(l.games[:i], l.games[i+1:]...)
	for j := i; j < len(l.games); j++ {
		l.pos[l.games[j].Key] = j
	}

	registrySize.WithLabelValues("games").Set(float64(len(l.games) - 1))
}

// Select makes the record at position i the selected one
func (l *GameList) Select(i int) bool {
	if i < 0 || i >= len(l.games) {
		return false
	}

	l.selected = l.games[i].Key
	return true
}

// Selected returns the position of the selected record
func (l *GameList) Selected() int { return l.pos[l.selected] }

// SelectedGame returns the selected record
func (l *GameList) SelectedGame() Game { return *l.games[l.Selected()] }
