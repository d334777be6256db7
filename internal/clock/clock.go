package clock

import (
	"sync"
	"time"
)

// Timer is a cancellable handle for a scheduled callback.
// Stop reports whether the call actually cancelled something.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Game code depends on this instead of the time
// package so tests can drive it with Fake.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
	Every(d time.Duration, f func()) Timer
	Now() time.Time
}

// System is the default Clock implementation using the standard library.
var System Clock = systemClock{}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (systemClock) Every(d time.Duration, f func()) Timer {
	t := &systemTicker{ticker: time.NewTicker(d), done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-t.done:
				return
			case <-t.ticker.C:
				f()
			}
		}
	}()
	return t
}

func (systemClock) Now() time.Time {
	return time.Now()
}

type systemTicker struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *systemTicker) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}
