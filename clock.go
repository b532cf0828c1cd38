package lobby

import (
	"context"
	"sync"
	"time"
)

// TickRate is the number of ticks per second of a TickClock
const TickRate = 60

// Tick is a point in time or a duration measured in protocol ticks
type Tick int64

// Duration converts a tick count to wall time at TickRate
func (t Tick) Duration() time.Duration {
	return time.Duration(t) * time.Second / TickRate
}

// A Clock supplies the tick counter every timer in the protocol runs on
type Clock interface {
	Now() Tick
	// Wait blocks for n ticks or until ctx is done
	Wait(ctx context.Context, n Tick) error
}

// TickClock is a Clock backed by the system monotonic clock
type TickClock struct {
	start time.Time
}

// NewTickClock returns a TickClock that starts at tick zero
func NewTickClock() *TickClock {
	return &TickClock{start: time.Now()}
}

// Now returns the ticks elapsed since the clock was created
func (c *TickClock) Now() Tick {
	return Tick(time.Since(c.start) * TickRate / time.Second)
}

func (c *TickClock) Wait(ctx context.Context, n Tick) error {
	t := time.NewTimer(n.Duration())
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ManualClock is a Clock that only moves when told to
// Wait advances it, so bounded loops terminate without real time passing
type ManualClock struct {
	mu  sync.Mutex
	now Tick
}

func (c *ManualClock) Now() Tick {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// Advance moves the clock n ticks forward
func (c *ManualClock) Advance(n Tick) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now += n
}

func (c *ManualClock) Wait(ctx context.Context, n Tick) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.Advance(n)
	return nil
}
