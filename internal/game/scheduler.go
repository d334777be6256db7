package game

import (
	"errors"
	"fmt"

	clock "github.com/CodeAndHammer/whackamole/internal/clock"
	difficulty "github.com/CodeAndHammer/whackamole/internal/difficulty"
	rng "github.com/CodeAndHammer/whackamole/internal/rng"
	util "github.com/CodeAndHammer/whackamole/internal/util"
)

// ErrGameStopped is returned by Advance when no time is left; the session
// has been stopped by the time the caller sees it.
var ErrGameStopped = errors.New("game stopped")

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRevealed
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRevealed:
		return "revealed"
	case PhaseStopped:
		return "stopped"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// RevealScheduler drives the reveal/hide chain and owns State.Last. There is
// at most one pending hide timer, and so at most one live chain.
type RevealScheduler struct {
	state *State
	board *Board
	clock clock.Clock
	src   rng.Source
	run   func(epoch uint64, fn func())
	stop  func() string

	phase   Phase
	current *Slot
	pending clock.Timer
}

func (r *RevealScheduler) Phase() Phase {
	return r.phase
}

// Advance reveals the next mole and schedules its hide. With no time left it
// stops the session instead and returns ErrGameStopped.
func (r *RevealScheduler) Advance() (clock.Timer, error) {
	if r.state.Remaining <= 0 {
		r.stop()
		return nil, ErrGameStopped
	}
	if r.phase == PhaseRevealed {
		r.cancelPending()
		r.board.Hide(r.current)
	}

	delay, err := difficulty.Delay(r.state.Difficulty, r.src)
	if err != nil {
		return nil, err
	}
	slot, err := ChooseSlot(r.board.Slots(), r.state.Last, r.src)
	if err != nil {
		return nil, err
	}
	r.state.Last = slot
	r.board.Reveal(slot)
	r.phase = PhaseRevealed
	r.current = slot

	epoch := r.state.Epoch
	var timer clock.Timer
	timer = r.clock.AfterFunc(delay, func() {
		r.run(epoch, func() {
			if r.pending != timer {
				return
			}
			r.hide()
		})
	})
	r.pending = timer
	util.LogDebug("Revealed slot %d for %v", slot.Index, delay)
	return timer, nil
}

func (r *RevealScheduler) hide() {
	r.board.Hide(r.current)
	r.phase = PhaseIdle
	r.current = nil
	r.pending = nil

	if r.state.Remaining > 0 {
		if _, err := r.Advance(); err != nil && !errors.Is(err, ErrGameStopped) {
			util.LogWarn("Reveal chain halted: %v", err)
			r.stop()
		}
		return
	}
	r.stop()
}

// Reset drops the current chain and returns to idle, ready for a new session.
func (r *RevealScheduler) Reset() {
	r.clear()
	r.phase = PhaseIdle
}

// Halt drops the current chain and parks the scheduler in the stopped state.
func (r *RevealScheduler) Halt() {
	r.clear()
	r.phase = PhaseStopped
}

func (r *RevealScheduler) clear() {
	r.cancelPending()
	if r.current != nil {
		r.board.Hide(r.current)
		r.current = nil
	}
}

func (r *RevealScheduler) cancelPending() {
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
}
