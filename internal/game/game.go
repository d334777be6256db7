package game

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gammazero/deque"
	"github.com/samber/lo"

	clock "github.com/CodeAndHammer/whackamole/internal/clock"
	constants "github.com/CodeAndHammer/whackamole/internal/constants"
	difficulty "github.com/CodeAndHammer/whackamole/internal/difficulty"
	rng "github.com/CodeAndHammer/whackamole/internal/rng"
	util "github.com/CodeAndHammer/whackamole/internal/util"
)

var ErrInvalidDuration = errors.New("duration must be at least one second")

// State is the session record. Each field has a single writer: the score
// tracker owns Points, the countdown owns Remaining, the scheduler owns Last.
type State struct {
	Points     int
	Remaining  int
	Difficulty difficulty.Level
	Active     bool
	Last       *Slot
	Epoch      uint64
}

type Options struct {
	Slots      int
	Duration   int
	Difficulty difficulty.Level
	Clock      clock.Clock
	Source     rng.Source
	View       View
	History    int
}

// Game is one player's board plus its session controller. All entry points,
// including timer callbacks, run under mu, which gives the game a single
// logical thread.
type Game struct {
	mu        sync.Mutex
	clock     clock.Clock
	surface   *Surface
	view      View
	board     *Board
	state     State
	duration  int
	score     *ScoreTracker
	countdown *Countdown
	scheduler *RevealScheduler
	events    deque.Deque[Event]
	history   int
}

func New(opts Options) (*Game, error) {
	if opts.Slots == 0 {
		opts.Slots = constants.DefaultSlots
	}
	if opts.Duration == 0 {
		opts.Duration = constants.DefaultDuration
	}
	if opts.Duration < 0 {
		return nil, fmt.Errorf("new game with %ds: %w", opts.Duration, ErrInvalidDuration)
	}
	if opts.Difficulty == "" {
		opts.Difficulty = difficulty.Normal
	}
	if _, err := difficulty.Parse(string(opts.Difficulty)); err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = clock.System
	}
	if opts.Source == nil {
		opts.Source = rng.Crypto
	}
	if opts.History <= 0 {
		opts.History = constants.RecentEvents
	}

	surface := NewSurface(max(opts.Slots, 0))
	view := MultiView(surface, opts.View)
	board, err := NewBoard(opts.Slots, view)
	if err != nil {
		return nil, err
	}

	g := &Game{
		clock:    opts.Clock,
		surface:  surface,
		view:     view,
		board:    board,
		duration: opts.Duration,
		history:  opts.History,
	}
	g.state.Difficulty = opts.Difficulty
	g.score = &ScoreTracker{state: &g.state, view: view}
	g.countdown = &Countdown{state: &g.state, clock: opts.Clock, view: view, run: g.run, stop: g.stopLocked}
	g.scheduler = &RevealScheduler{
		state: &g.state,
		board: board,
		clock: opts.Clock,
		src:   opts.Source,
		run:   g.run,
		stop:  g.stopLocked,
	}
	return g, nil
}

// run executes a timer callback on the game's logical thread. Callbacks from
// an earlier session are dropped.
func (g *Game) run(epoch uint64, fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Epoch != epoch {
		return
	}
	fn()
}

// Start begins a new session, cancelling whatever the previous one left
// scheduled before creating new timers.
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.countdown.Cancel()
	g.scheduler.Reset()
	g.state.Epoch++
	g.state.Last = nil

	g.score.Reset()
	g.bindSlots()
	g.state.Active = true
	g.countdown.Start(g.duration)
	if _, err := g.scheduler.Advance(); err != nil {
		g.stopLocked()
		return fmt.Errorf("start game: %w", err)
	}
	g.record(EventStart, -1)
	util.LogInfo("Game started: %d slots, %ds, difficulty %s", g.board.Len(), g.duration, g.state.Difficulty)
	return nil
}

// Stop ends the session. Calling it again only repaints the timer display.
func (g *Game) Stop() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stopLocked()
}

func (g *Game) stopLocked() string {
	if g.state.Active {
		g.state.Active = false
		g.state.Remaining = 0
		g.scheduler.Halt()
		g.record(EventStop, -1)
		util.LogInfo("Game stopped with %d point%s", g.state.Points, util.Plural(g.state.Points))
	}
	g.countdown.Cancel()
	g.view.ShowTime("0")
	return constants.GameStoppedMessage
}

func (g *Game) bindSlots() {
	for _, s := range g.board.Slots() {
		s.Bind(g.whack)
	}
}

// whack is the input handler bound to every slot.
func (g *Game) whack(s *Slot) bool {
	if !s.Revealed() {
		g.record(EventMiss, s.Index)
		util.LogDebug("Missed! slot %d", s.Index)
		return false
	}
	g.score.Award()
	g.board.Hide(s)
	g.record(EventHit, s.Index)
	return true
}

// Whack delivers a click on slot index. Clicking a hidden slot is a miss,
// not an error; only an index off the board is.
func (g *Game) Whack(index int) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.board.At(index)
	if err != nil {
		return false, err
	}
	return s.Activate(), nil
}

// SetDifficulty changes the level used for the next reveal.
func (g *Game) SetDifficulty(label string) error {
	level, err := difficulty.Parse(label)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.state.Difficulty = level
	g.mu.Unlock()
	return nil
}

// State returns a copy of the session record.
func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scheduler.Phase()
}

// Advance exposes the scheduler step on the game's thread.
func (g *Game) Advance() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, err := g.scheduler.Advance()
	return err
}

func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	recent := make([]Event, 0, g.events.Len())
	for i := g.events.Len() - 1; i >= 0; i-- {
		recent = append(recent, g.events.At(i))
	}
	return Snapshot{
		Score:      g.surface.Score,
		Time:       g.surface.Time,
		Points:     g.state.Points,
		Remaining:  g.state.Remaining,
		Difficulty: string(g.state.Difficulty),
		Active:     g.state.Active,
		Phase:      g.scheduler.Phase().String(),
		Slots: lo.Map(g.board.Slots(), func(s *Slot, i int) SlotView {
			return SlotView{Index: s.Index, Revealed: g.surface.Revealed[i]}
		}),
		Recent: recent,
	}
}

func (g *Game) record(kind EventKind, slot int) {
	g.events.PushBack(Event{Kind: kind, Slot: slot, Points: g.state.Points, At: g.clock.Now()})
	for g.events.Len() > g.history {
		g.events.PopFront()
	}
}
