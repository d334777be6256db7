package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced Clock. Callbacks run synchronously inside
// Advance, in expiry order, on the caller's goroutine and without Fake's lock
// held, so they may schedule further callbacks.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*FakeTimer
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// FakeTimer is the handle returned by Fake. Periodic timers come from Every.
type FakeTimer struct {
	clock  *Fake
	when   time.Time
	period time.Duration
	fn     func()
	seq    uint64
	done   bool
	stops  int
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	return f.schedule(d, 0, fn)
}

func (f *Fake) Every(d time.Duration, fn func()) Timer {
	return f.schedule(d, d, fn)
}

func (f *Fake) schedule(d, period time.Duration, fn func()) *FakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &FakeTimer{clock: f, when: f.now.Add(d), period: period, fn: fn, seq: f.seq}
	f.timers = append(f.timers, t)
	return t
}

// Advance moves virtual time forward by d, firing every callback that comes
// due along the way.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		next := f.nextDue(target)
		if next == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		f.now = next.when
		if next.period > 0 {
			next.when = next.when.Add(next.period)
		} else {
			next.done = true
		}
		fn := next.fn
		f.mu.Unlock()

		fn()
	}
}

func (f *Fake) nextDue(target time.Time) *FakeTimer {
	var next *FakeTimer
	live := f.timers[:0]
	for _, t := range f.timers {
		if t.done {
			continue
		}
		live = append(live, t)
		if t.when.After(target) {
			continue
		}
		if next == nil || t.when.Before(next.when) || (t.when.Equal(next.when) && t.seq < next.seq) {
			next = t
		}
	}
	f.timers = live
	return next
}

// Pending counts scheduled callbacks that have neither fired nor been stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.timers {
		if !t.done {
			n++
		}
	}
	return n
}

func (t *FakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.stops++
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Stops counts every Stop call on the handle, including no-op ones.
func (t *FakeTimer) Stops() int {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.stops
}

func (t *FakeTimer) Active() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return !t.done
}
