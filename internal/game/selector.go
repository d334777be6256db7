package game

import (
	"fmt"

	rng "github.com/CodeAndHammer/whackamole/internal/rng"
)

// maxRedraws bounds resampling so a broken source can't spin forever.
const maxRedraws = 64

// ChooseSlot picks a random slot, never returning last when there is any
// other choice. A one-slot board returns its only slot every time.
func ChooseSlot(slots []*Slot, last *Slot, src rng.Source) (*Slot, error) {
	if len(slots) == 0 {
		return nil, ErrNoSlots
	}
	if len(slots) == 1 {
		return slots[0], nil
	}
	for i := 0; i < maxRedraws; i++ {
		index, err := rng.RandomInteger(src, 0, len(slots)-1)
		if err != nil {
			return nil, fmt.Errorf("choose slot: %w", err)
		}
		if slots[index] != last {
			return slots[index], nil
		}
	}
	for i, s := range slots {
		if s == last {
			return slots[(i+1)%len(slots)], nil
		}
	}
	return slots[0], nil
}
