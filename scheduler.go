package lobby

// A Timer fires every Period ticks, or on the next check after Force
type Timer struct {
	Period Tick

	last   Tick
	forced bool
}

// NewTimer returns a Timer that fires on its first check
func NewTimer(period Tick) *Timer {
	return &Timer{Period: period, forced: true}
}

// Due reports whether the timer fires at now.
// Firing restarts the countdown.
func (t *Timer) Due(now Tick) bool {
	if t.forced || now-t.last >= t.Period {
		t.forced = false
		t.last = now
		return true
	}

	return false
}

// Force makes the timer fire on its next check
func (t *Timer) Force() { t.forced = true }

// Reset restarts the countdown at now
func (t *Timer) Reset(now Tick) {
	t.forced = false
	t.last = now
}

// Scheduler holds the periodic send timers of a Session.
// The periods are pairwise coprime so the timers rarely fire together.
type Scheduler struct {
	GameQuery    *Timer
	PlayerQuery  *Timer
	ChatAnnounce *Timer
}

// NewScheduler returns a Scheduler with the protocol periods
func NewScheduler() *Scheduler {
	return &Scheduler{
		GameQuery:    NewTimer(GameQueryPeriod),
		PlayerQuery:  NewTimer(PlayerQueryPeriod),
		ChatAnnounce: NewTimer(ChatAnnouncePeriod),
	}
}
