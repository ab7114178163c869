// Package player drives timestep playback: it owns the current index, the
// stopped/playing state machine, and the periodic advance timer.
package player

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterval is the delay between automatic timestep advances.
const DefaultInterval = time.Second

// Config holds configuration for a Controller.
type Config struct {
	// Timesteps is the number of timesteps under control.
	Timesteps int

	// Interval is the playback tick period. Default: DefaultInterval.
	Interval time.Duration

	// OnChange is invoked synchronously with the new index on every
	// timestep transition. A single callback, no queuing.
	OnChange func(index int)

	// Logger for playback transitions.
	Logger zerolog.Logger
}

// Controller is the timestep playback state machine.
//
// Out-of-range indices passed to SetTimestep are silently ignored rather
// than surfaced as errors; this is a deliberate contract, not a defect.
type Controller struct {
	interval time.Duration
	onChange func(int)
	logger   zerolog.Logger

	mu      sync.Mutex
	count   int
	current int
	playing bool
	stop    chan struct{}
}

// NewController creates a stopped controller positioned at index 0.
func NewController(cfg Config) *Controller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	onChange := cfg.OnChange
	if onChange == nil {
		onChange = func(int) {}
	}
	return &Controller{
		interval: interval,
		onChange: onChange,
		logger:   cfg.Logger,
		count:    cfg.Timesteps,
	}
}

// Current returns the current timestep index.
func (c *Controller) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Playing reports whether playback is active.
func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Count returns the number of timesteps under control.
func (c *Controller) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// SetTimestep jumps to the given index and fires the callback. Indices
// outside [0, count) are ignored: the index stays put and the callback is
// not invoked. A successful seek restarts any pending periodic advance so
// the next automatic step happens a full interval later.
func (c *Controller) SetTimestep(i int) {
	c.mu.Lock()
	if i < 0 || i >= c.count {
		c.mu.Unlock()
		return
	}
	c.current = i
	if c.playing {
		c.restartTimerLocked()
	}
	c.mu.Unlock()

	c.onChange(i)
}

// Next advances one timestep, clamped at the end (no wraparound).
func (c *Controller) Next() {
	c.mu.Lock()
	i := c.current + 1
	c.mu.Unlock()
	c.SetTimestep(i)
}

// Previous steps back one timestep, clamped at the start.
func (c *Controller) Previous() {
	c.mu.Lock()
	i := c.current - 1
	c.mu.Unlock()
	c.SetTimestep(i)
}

// Play starts periodic advancement. Reaching the last index wraps to 0 so
// the animation loops. Play while already playing is a no-op.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing || c.count == 0 {
		return
	}
	c.playing = true
	c.startTimerLocked()
	c.logger.Debug().Int("index", c.current).Msg("playback started")
}

// Pause stops periodic advancement. The pending tick is canceled
// deterministically; the current index is untouched.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing {
		return
	}
	c.playing = false
	c.stopTimerLocked()
	c.logger.Debug().Int("index", c.current).Msg("playback paused")
}

func (c *Controller) startTimerLocked() {
	stop := make(chan struct{})
	c.stop = stop
	go c.loop(stop)
}

func (c *Controller) stopTimerLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Controller) restartTimerLocked() {
	c.stopTimerLocked()
	c.startTimerLocked()
}

func (c *Controller) loop(stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !c.advance(stop) {
				return
			}
		}
	}
}

// advance moves to the next index, wrapping at the end. It reports false
// when this loop has been superseded.
func (c *Controller) advance(stop chan struct{}) bool {
	c.mu.Lock()
	if !c.playing || c.stop != stop {
		c.mu.Unlock()
		return false
	}
	next := c.current + 1
	if next >= c.count {
		next = 0
	}
	c.current = next
	c.mu.Unlock()

	c.onChange(next)
	return true
}
