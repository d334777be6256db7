package game

import (
	"time"

	clock "github.com/CodeAndHammer/whackamole/internal/clock"
)

// Countdown owns State.Remaining and the once-per-second ticker.
type Countdown struct {
	state  *State
	clock  clock.Clock
	view   View
	run    func(epoch uint64, fn func())
	stop   func() string
	ticker clock.Timer
}

// Start sets the remaining time and begins ticking. Any ticker left from an
// earlier session is cancelled first.
func (c *Countdown) Start(seconds int) {
	c.Cancel()
	c.state.Remaining = seconds
	c.view.ShowTime(itoa(seconds))

	epoch := c.state.Epoch
	var ticker clock.Timer
	ticker = c.clock.Every(time.Second, func() {
		c.run(epoch, func() {
			if c.ticker != ticker {
				return
			}
			c.Tick()
		})
	})
	c.ticker = ticker
}

// Tick advances the countdown by one second. Landing on zero stops the
// session on the same tick; a tick that finds zero already just repaints and
// calls the idempotent stop.
func (c *Countdown) Tick() int {
	if c.state.Remaining > 0 {
		c.state.Remaining--
		c.view.ShowTime(itoa(c.state.Remaining))
		if c.state.Remaining == 0 {
			c.stop()
		}
		return c.state.Remaining
	}
	c.view.ShowTime("0")
	c.stop()
	return 0
}

// Cancel stops the ticker if one is running. It is safe to call repeatedly.
func (c *Countdown) Cancel() bool {
	if c.ticker == nil {
		return false
	}
	c.ticker.Stop()
	c.ticker = nil
	return true
}

func (c *Countdown) Running() bool {
	return c.ticker != nil
}
