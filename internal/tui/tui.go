package tui

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"

	config "github.com/CodeAndHammer/whackamole/internal/config"
	difficulty "github.com/CodeAndHammer/whackamole/internal/difficulty"
	game "github.com/CodeAndHammer/whackamole/internal/game"
	util "github.com/CodeAndHammer/whackamole/internal/util"
)

const (
	holeWidth  = 6
	holeHeight = 2
	marginTop  = 3
)

var (
	styleDefault = tcell.StyleDefault
	styleHole    = tcell.StyleDefault.Foreground(tcell.ColorMaroon)
	styleMole    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleHeader  = tcell.StyleDefault.Bold(true)
)

// Screen is a game.View drawn on a tcell screen. Updates arrive on timer
// goroutines, so they only record state and post a redraw request; drawing
// happens on the event loop.
type Screen struct {
	mu       sync.Mutex
	screen   tcell.Screen
	score    string
	time     string
	level    string
	revealed []bool
	message  string
}

func NewScreen(screen tcell.Screen, slots int) *Screen {
	return &Screen{
		screen:   screen,
		score:    "0",
		time:     "0",
		revealed: make([]bool, slots),
		message:  "press s to start",
	}
}

func (s *Screen) ShowScore(text string) {
	s.update(func() { s.score = text })
}

func (s *Screen) ShowTime(text string) {
	s.update(func() { s.time = text })
}

func (s *Screen) ToggleSlot(index int) {
	s.update(func() {
		if index >= 0 && index < len(s.revealed) {
			s.revealed[index] = !s.revealed[index]
		}
	})
}

func (s *Screen) setMessage(text string) {
	s.update(func() { s.message = text })
}

func (s *Screen) setLevel(level string) {
	s.update(func() { s.level = level })
}

func (s *Screen) update(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	_ = s.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

func (s *Screen) columns() int {
	return int(math.Ceil(math.Sqrt(float64(len(s.revealed)))))
}

// Draw repaints the whole board.
func (s *Screen) Draw() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.screen.Clear()
	drawText(s.screen, 0, 0, styleHeader, fmt.Sprintf("Score: %s   Time: %s   Difficulty: %s", s.score, s.time, s.level))
	drawText(s.screen, 0, 1, styleDefault, s.message)

	cols := s.columns()
	for i, up := range s.revealed {
		x := (i % cols) * holeWidth
		y := marginTop + (i/cols)*holeHeight
		label := fmt.Sprintf("%d", i+1)
		if up {
			drawText(s.screen, x, y, styleMole, "(@)"+label)
		} else {
			drawText(s.screen, x, y, styleHole, "( )"+label)
		}
	}
	help := "1-9 whack   s start   e/n/h difficulty   q quit"
	drawText(s.screen, 0, marginTop+((len(s.revealed)+cols-1)/cols)*holeHeight, styleDefault, help)
	s.screen.Show()
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		screen.SetContent(x+i, y, r, nil, style)
	}
}

// Controller maps key presses onto game operations.
type Controller struct {
	game *game.Game
	view *Screen
}

func NewController(g *game.Game, view *Screen) *Controller {
	view.setLevel(g.State().Difficulty.String())
	return &Controller{game: g, view: view}
}

// HandleKey applies one key press and reports whether the player quit.
func (c *Controller) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
	default:
		return false
	}

	r := ev.Rune()
	switch {
	case r == 'q':
		return true
	case r == 's':
		if err := c.game.Start(); err != nil {
			c.view.setMessage(err.Error())
			return false
		}
		c.view.setMessage("go!")
	case r == 'e' || r == 'n' || r == 'h':
		level := map[rune]difficulty.Level{'e': difficulty.Easy, 'n': difficulty.Normal, 'h': difficulty.Hard}[r]
		if err := c.game.SetDifficulty(level.String()); err == nil {
			c.view.setLevel(level.String())
		}
	case r >= '1' && r <= '9':
		hit, err := c.game.Whack(int(r - '1'))
		switch {
		case err != nil:
			c.view.setMessage("no such hole")
		case hit:
			c.view.setMessage("whack!")
		default:
			c.view.setMessage("missed!")
		}
	}
	return false
}

// Run plays one terminal session until the player quits.
func Run(cfg *config.Config) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()
	util.SetLogOutput(io.Discard)

	view := NewScreen(screen, cfg.Slots)
	g, err := game.New(game.Options{
		Slots:      cfg.Slots,
		Duration:   cfg.Duration,
		Difficulty: cfg.Difficulty,
		View:       view,
	})
	if err != nil {
		return err
	}
	defer g.Stop()

	return Loop(screen, NewController(g, view), view)
}

// Loop runs the event loop on screen until a quit key arrives.
func Loop(screen tcell.Screen, ctrl *Controller, view *Screen) error {
	view.Draw()
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			screen.Sync()
			view.Draw()
		case *tcell.EventInterrupt:
			view.Draw()
		case *tcell.EventKey:
			if ctrl.HandleKey(ev) {
				return nil
			}
			view.Draw()
		}
	}
}
