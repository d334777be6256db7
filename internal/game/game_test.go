package game_test

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	clock "github.com/CodeAndHammer/whackamole/internal/clock"
	difficulty "github.com/CodeAndHammer/whackamole/internal/difficulty"
	game "github.com/CodeAndHammer/whackamole/internal/game"
)

type recordingClock struct {
	*clock.Fake
	tickers []*clock.FakeTimer
}

func (r *recordingClock) Every(d time.Duration, f func()) clock.Timer {
	t := r.Fake.Every(d, f)
	r.tickers = append(r.tickers, t.(*clock.FakeTimer))
	return t
}

type recordingView struct {
	scores  []string
	times   []string
	toggles []int
}

func (v *recordingView) ShowScore(text string) { v.scores = append(v.scores, text) }
func (v *recordingView) ShowTime(text string)  { v.times = append(v.times, text) }
func (v *recordingView) ToggleSlot(index int)  { v.toggles = append(v.toggles, index) }

func newTestGame(t *testing.T, duration int, level difficulty.Level) (*game.Game, *recordingClock, *recordingView) {
	t.Helper()
	clk := &recordingClock{Fake: clock.NewFake(time.Unix(0, 0))}
	view := &recordingView{}
	g, err := game.New(game.Options{
		Slots:      9,
		Duration:   duration,
		Difficulty: level,
		Clock:      clk,
		Source:     rand.New(rand.NewSource(3)),
		View:       view,
	})
	if err != nil {
		t.Fatalf("game.New: %v", err)
	}
	return g, clk, view
}

func revealedSlot(t *testing.T, g *game.Game) int {
	t.Helper()
	for _, s := range g.Snapshot().Slots {
		if s.Revealed {
			return s.Index
		}
	}
	t.Fatal("no slot is revealed")
	return -1
}

func hiddenSlot(t *testing.T, g *game.Game) int {
	t.Helper()
	for _, s := range g.Snapshot().Slots {
		if !s.Revealed {
			return s.Index
		}
	}
	t.Fatal("no slot is hidden")
	return -1
}

func TestStartInitialState(t *testing.T) {
	g, clk, view := newTestGame(t, 10, difficulty.Normal)
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	st := g.State()
	if !st.Active || st.Points != 0 || st.Remaining != 10 {
		t.Errorf("state after start = %+v", st)
	}
	snap := g.Snapshot()
	if snap.Score != "0" || snap.Time != "10" {
		t.Errorf("displays = %q/%q, want 0/10", snap.Score, snap.Time)
	}
	if snap.Phase != "revealed" {
		t.Errorf("phase = %s, want revealed", snap.Phase)
	}
	if len(view.toggles) != 1 {
		t.Errorf("toggles = %v, want exactly one reveal", view.toggles)
	}
	if clk.Pending() != 2 {
		t.Errorf("pending timers = %d, want ticker + hide", clk.Pending())
	}
}

func TestWhackVisibleSlotScores(t *testing.T) {
	g, _, view := newTestGame(t, 10, difficulty.Normal)
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	slot := revealedSlot(t, g)

	hit, err := g.Whack(slot)
	if err != nil || !hit {
		t.Fatalf("Whack(%d) = %v, %v; want hit", slot, hit, err)
	}
	snap := g.Snapshot()
	if snap.Points != 1 || snap.Score != "1" {
		t.Errorf("score = %d/%q, want 1", snap.Points, snap.Score)
	}
	if snap.Slots[slot].Revealed {
		t.Error("whacked slot should be hidden")
	}
	if view.scores[len(view.scores)-1] != "1" {
		t.Errorf("score display = %v", view.scores)
	}
}

func TestWhackHiddenSlotIsMiss(t *testing.T) {
	g, _, _ := newTestGame(t, 10, difficulty.Normal)
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	hit, err := g.Whack(hiddenSlot(t, g))
	if err != nil || hit {
		t.Fatalf("Whack(hidden) = %v, %v; want miss without error", hit, err)
	}
	snap := g.Snapshot()
	if snap.Points != 0 || snap.Score != "0" {
		t.Errorf("score = %d/%q, want 0", snap.Points, snap.Score)
	}
	if len(snap.Recent) == 0 || snap.Recent[0].Kind != game.EventMiss {
		t.Errorf("recent = %+v, want a miss first", snap.Recent)
	}
}

func TestWhackTwiceOnlyScoresOnce(t *testing.T) {
	g, _, _ := newTestGame(t, 10, difficulty.Normal)
	_ = g.Start()
	slot := revealedSlot(t, g)
	_, _ = g.Whack(slot)
	hit, err := g.Whack(slot)
	if hit || err != nil {
		t.Errorf("second whack = %v, %v; want miss", hit, err)
	}
	if g.State().Points != 1 {
		t.Errorf("points = %d, want 1", g.State().Points)
	}
}

func TestWhackUnknownSlot(t *testing.T) {
	g, _, _ := newTestGame(t, 10, difficulty.Normal)
	_ = g.Start()
	for _, idx := range []int{-1, 9, 100} {
		if _, err := g.Whack(idx); !errors.Is(err, game.ErrUnknownSlot) {
			t.Errorf("Whack(%d) error = %v, want ErrUnknownSlot", idx, err)
		}
	}
}

func TestWhackBeforeStartIgnored(t *testing.T) {
	g, _, _ := newTestGame(t, 10, difficulty.Normal)
	hit, err := g.Whack(0)
	if hit || err != nil {
		t.Errorf("Whack before start = %v, %v", hit, err)
	}
}

func TestCountdownRunsToSingleStop(t *testing.T) {
	g, clk, view := newTestGame(t, 10, difficulty.Normal)
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clk.Advance(15 * time.Second)

	if len(clk.tickers) != 1 {
		t.Fatalf("tickers created = %d, want 1", len(clk.tickers))
	}
	if got := clk.tickers[0].Stops(); got != 1 {
		t.Errorf("ticker cancelled %d times, want exactly 1", got)
	}
	st := g.State()
	if st.Active || st.Remaining != 0 {
		t.Errorf("state after countdown = %+v", st)
	}
	if view.times[len(view.times)-1] != "0" {
		t.Errorf("time display = %v", view.times)
	}
	if clk.Pending() != 0 {
		t.Errorf("pending timers after stop = %d", clk.Pending())
	}
	if g.Phase() != game.PhaseStopped {
		t.Errorf("phase = %v, want stopped", g.Phase())
	}
	if revealed := g.Snapshot().Slots; len(revealed) != 9 {
		t.Fatalf("slots = %d", len(revealed))
	}
	for _, s := range g.Snapshot().Slots {
		if s.Revealed {
			t.Errorf("slot %d still revealed after stop", s.Index)
		}
	}
}

func TestCountdownDisplaysEachSecond(t *testing.T) {
	g, clk, view := newTestGame(t, 3, difficulty.Easy)
	_ = g.Start()
	clk.Advance(3 * time.Second)
	want := []string{"3", "2", "1", "0"}
	got := view.times[:len(want)]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("time display = %v, want prefix %v", view.times, want)
		}
	}
}

func TestDurationOneStopsAfterOneTick(t *testing.T) {
	g, clk, _ := newTestGame(t, 1, difficulty.Normal)
	_ = g.Start()
	clk.Advance(time.Second)

	snap := g.Snapshot()
	if snap.Remaining != 0 || snap.Time != "0" || snap.Active {
		t.Errorf("snapshot = %+v, want stopped at 0", snap)
	}
}

func TestRemainingNeverIncreasesWhileActive(t *testing.T) {
	g, clk, _ := newTestGame(t, 10, difficulty.Hard)
	_ = g.Start()
	prev := g.State().Remaining
	for i := 0; i < 120; i++ {
		clk.Advance(100 * time.Millisecond)
		st := g.State()
		if st.Remaining > prev {
			t.Fatalf("remaining went from %d to %d", prev, st.Remaining)
		}
		prev = st.Remaining
	}
	if prev != 0 {
		t.Errorf("remaining = %d, want 0", prev)
	}
}

func TestRevealsNeverRepeatSlot(t *testing.T) {
	g, clk, view := newTestGame(t, 30, difficulty.Hard)
	_ = g.Start()
	clk.Advance(30 * time.Second)

	// Reveals are every even toggle when no slot was whacked.
	var reveals []int
	for i := 0; i < len(view.toggles); i += 2 {
		reveals = append(reveals, view.toggles[i])
	}
	if len(reveals) < 20 {
		t.Fatalf("only %d reveals in 30s on hard", len(reveals))
	}
	for i := 1; i < len(reveals); i++ {
		if reveals[i] == reveals[i-1] {
			t.Fatalf("slot %d revealed twice in a row at %d", reveals[i], i)
		}
	}
}

func TestOnlyOneSlotRevealedAtATime(t *testing.T) {
	g, clk, _ := newTestGame(t, 10, difficulty.Hard)
	_ = g.Start()
	for i := 0; i < 100; i++ {
		clk.Advance(100 * time.Millisecond)
		count := 0
		for _, s := range g.Snapshot().Slots {
			if s.Revealed {
				count++
			}
		}
		if count > 1 {
			t.Fatalf("%d slots revealed at once", count)
		}
	}
}

func TestRestartCancelsPreviousChain(t *testing.T) {
	g, clk, _ := newTestGame(t, 10, difficulty.Normal)
	_ = g.Start()
	clk.Advance(2500 * time.Millisecond)
	if err := g.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if clk.Pending() != 2 {
		t.Errorf("pending after restart = %d, want ticker + hide", clk.Pending())
	}
	if len(clk.tickers) != 2 || clk.tickers[0].Active() {
		t.Error("first session's ticker should be cancelled")
	}
	st := g.State()
	if st.Remaining != 10 || st.Points != 0 {
		t.Errorf("state after restart = %+v", st)
	}

	clk.Advance(time.Second)
	if got := g.State().Remaining; got != 9 {
		t.Errorf("remaining after one tick = %d, want 9 (one countdown only)", got)
	}
}

func TestRestartDoesNotRebindHandlers(t *testing.T) {
	g, _, _ := newTestGame(t, 10, difficulty.Normal)
	_ = g.Start()
	_ = g.Start()
	_ = g.Start()
	slot := revealedSlot(t, g)
	if hit, _ := g.Whack(slot); !hit {
		t.Fatal("expected hit")
	}
	if got := g.State().Points; got != 1 {
		t.Errorf("points = %d, want 1 (handler bound once)", got)
	}
}

func TestLateHideAfterWhackKeepsChainGoing(t *testing.T) {
	g, clk, view := newTestGame(t, 10, difficulty.Normal)
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	first := revealedSlot(t, g)
	if hit, _ := g.Whack(first); !hit {
		t.Fatal("expected hit")
	}
	if len(view.toggles) != 2 {
		t.Fatalf("toggles after whack = %v, want reveal + hide", view.toggles)
	}

	clk.Advance(time.Second)

	revealed := 0
	for _, s := range g.Snapshot().Slots {
		if s.Revealed {
			revealed++
		}
	}
	if revealed != 1 {
		t.Fatalf("%d slots revealed after the hide fired, want 1", revealed)
	}
	if next := revealedSlot(t, g); next == first {
		t.Errorf("slot %d revealed twice in a row", next)
	}
	if got := g.Phase().String(); got != "revealed" {
		t.Errorf("phase = %s, want revealed", got)
	}
	if len(view.toggles) != 3 {
		t.Errorf("toggles = %v, want the stale hide to add nothing", view.toggles)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	g, clk, view := newTestGame(t, 10, difficulty.Normal)
	_ = g.Start()
	if msg := g.Stop(); msg != "game stopped" {
		t.Errorf("Stop() = %q", msg)
	}
	if msg := g.Stop(); msg != "game stopped" {
		t.Errorf("second Stop() = %q", msg)
	}
	if got := clk.tickers[0].Stops(); got != 1 {
		t.Errorf("ticker cancelled %d times, want 1", got)
	}
	if view.times[len(view.times)-1] != "0" {
		t.Errorf("time display = %v", view.times)
	}
	stops := 0
	for _, e := range g.Snapshot().Recent {
		if e.Kind == game.EventStop {
			stops++
		}
	}
	if stops != 1 {
		t.Errorf("stop events = %d, want 1", stops)
	}
}

func TestAdvanceAfterTimeUpReturnsStopped(t *testing.T) {
	g, clk, _ := newTestGame(t, 2, difficulty.Normal)
	_ = g.Start()
	clk.Advance(2 * time.Second)

	if err := g.Advance(); !errors.Is(err, game.ErrGameStopped) {
		t.Errorf("Advance() error = %v, want ErrGameStopped", err)
	}
	if got := clk.tickers[0].Stops(); got != 1 {
		t.Errorf("ticker cancelled %d times, want 1", got)
	}
}

func TestSetDifficulty(t *testing.T) {
	g, _, _ := newTestGame(t, 10, difficulty.Normal)
	if err := g.SetDifficulty("hard"); err != nil {
		t.Fatalf("SetDifficulty(hard): %v", err)
	}
	if g.State().Difficulty != difficulty.Hard {
		t.Errorf("difficulty = %q", g.State().Difficulty)
	}
	if err := g.SetDifficulty("medium"); !errors.Is(err, difficulty.ErrInvalidDifficulty) {
		t.Errorf("SetDifficulty(medium) error = %v", err)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := game.New(game.Options{Difficulty: "medium"}); !errors.Is(err, difficulty.ErrInvalidDifficulty) {
		t.Errorf("bad difficulty error = %v", err)
	}
	if _, err := game.New(game.Options{Slots: -1}); !errors.Is(err, game.ErrNoSlots) {
		t.Errorf("bad slots error = %v", err)
	}
	if _, err := game.New(game.Options{Duration: -5}); !errors.Is(err, game.ErrInvalidDuration) {
		t.Errorf("bad duration error = %v", err)
	}
}

func TestRecentEventsBounded(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	g, err := game.New(game.Options{Clock: clk, Source: rand.New(rand.NewSource(1)), History: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = g.Start()
	for i := 0; i < 10; i++ {
		_, _ = g.Whack(hiddenSlot(t, g))
	}
	recent := g.Snapshot().Recent
	if len(recent) != 3 {
		t.Fatalf("recent events = %d, want 3", len(recent))
	}
	for _, e := range recent {
		if e.Kind != game.EventMiss {
			t.Errorf("event = %+v, want miss", e)
		}
	}
}
