package manip

import (
	"sync"
	"time"
)

// DefaultWindow is how long a gesture must rest before its steps are
// committed as one history entry.
const DefaultWindow = 80 * time.Millisecond

// Committer is the part of the scene store the coalescer drives.
type Committer interface {
	Commit() bool
}

// Coalescer folds a burst of preview edits into one history entry. Every
// Touch re-arms the timer; the entry is written when the timer fires or on
// an explicit Flush, whichever comes first.
type Coalescer struct {
	mu      sync.Mutex
	target  Committer
	clock   Clock
	window  time.Duration
	timer   Timer
	gen     uint64
	pending bool
}

func NewCoalescer(target Committer, clock Clock, window time.Duration) *Coalescer {
	if clock == nil {
		clock = SystemClock{}
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Coalescer{target: target, clock: clock, window: window}
}

// Touch records that a preview edit happened and restarts the window.
func (c *Coalescer) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = true
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
	}
	gen := c.gen
	c.timer = c.clock.AfterFunc(c.window, func() { c.fire(gen) })
}

// Flush commits pending edits now. It reports whether anything was written.
func (c *Coalescer) Flush() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushLocked()
}

// Pending reports whether edits are waiting for the window to close.
func (c *Coalescer) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// A timer that lost the race with Stop still fires; gen tells it apart.
func (c *Coalescer) fire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.flushLocked()
}

func (c *Coalescer) flushLocked() bool {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	if !c.pending {
		return false
	}
	c.pending = false
	return c.target.Commit()
}
