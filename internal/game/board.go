package game

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/samber/lo"
)

var (
	ErrNoSlots     = errors.New("board has no slots")
	ErrUnknownSlot = errors.New("unknown slot")
)

// View is the presentation boundary. The game pushes text to the two display
// surfaces and flips a slot's revealed presentation; it never reads back.
type View interface {
	ShowScore(text string)
	ShowTime(text string)
	ToggleSlot(index int)
}

// Slot is one hole on the board.
type Slot struct {
	Index    int
	revealed bool
	handler  func(*Slot) bool
}

func (s *Slot) Revealed() bool {
	return s.revealed
}

// Bind attaches the activation handler. A slot keeps its first handler;
// later calls report false and change nothing.
func (s *Slot) Bind(handler func(*Slot) bool) bool {
	if s.handler != nil {
		return false
	}
	s.handler = handler
	return true
}

func (s *Slot) Bound() bool {
	return s.handler != nil
}

// Activate delivers a click to the bound handler. Unbound slots ignore it.
func (s *Slot) Activate() bool {
	if s.handler == nil {
		return false
	}
	return s.handler(s)
}

type Board struct {
	slots []*Slot
	view  View
}

func NewBoard(n int, view View) (*Board, error) {
	if n < 1 {
		return nil, fmt.Errorf("new board with %d slots: %w", n, ErrNoSlots)
	}
	if view == nil {
		view = nopView{}
	}
	return &Board{
		slots: lo.Times(n, func(i int) *Slot { return &Slot{Index: i} }),
		view:  view,
	}, nil
}

func (b *Board) Slots() []*Slot {
	return b.slots
}

func (b *Board) Len() int {
	return len(b.slots)
}

func (b *Board) At(index int) (*Slot, error) {
	if index < 0 || index >= len(b.slots) {
		return nil, fmt.Errorf("slot %d of %d: %w", index, len(b.slots), ErrUnknownSlot)
	}
	return b.slots[index], nil
}

// Reveal and Hide only toggle the view on an actual transition, so a late
// hide can never flip a whacked slot back up.
func (b *Board) Reveal(s *Slot) bool {
	if s.revealed {
		return false
	}
	s.revealed = true
	b.view.ToggleSlot(s.Index)
	return true
}

func (b *Board) Hide(s *Slot) bool {
	if !s.revealed {
		return false
	}
	s.revealed = false
	b.view.ToggleSlot(s.Index)
	return true
}

func (b *Board) RevealedSlots() []int {
	revealed := lo.Filter(b.slots, func(s *Slot, _ int) bool { return s.revealed })
	return lo.Map(revealed, func(s *Slot, _ int) int { return s.Index })
}

type nopView struct{}

func (nopView) ShowScore(string) {}
func (nopView) ShowTime(string)  {}
func (nopView) ToggleSlot(int)   {}

// Surface is an in-memory View. The web frontend renders from it. It is not
// safe for concurrent use on its own; Game guards it with its own lock.
type Surface struct {
	Score    string
	Time     string
	Revealed []bool
}

func NewSurface(slots int) *Surface {
	return &Surface{Score: "0", Time: "0", Revealed: make([]bool, slots)}
}

func (s *Surface) ShowScore(text string) { s.Score = text }
func (s *Surface) ShowTime(text string)  { s.Time = text }

func (s *Surface) ToggleSlot(index int) {
	if index >= 0 && index < len(s.Revealed) {
		s.Revealed[index] = !s.Revealed[index]
	}
}

type multiView []View

// MultiView fans every update out to each non-nil view in order.
func MultiView(views ...View) View {
	return multiView(lo.Filter(views, func(v View, _ int) bool { return v != nil }))
}

func (m multiView) ShowScore(text string) {
	for _, v := range m {
		v.ShowScore(text)
	}
}

func (m multiView) ShowTime(text string) {
	for _, v := range m {
		v.ShowTime(text)
	}
}

func (m multiView) ToggleSlot(index int) {
	for _, v := range m {
		v.ToggleSlot(index)
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
