package game

import "time"

type EventKind string

const (
	EventStart EventKind = "start"
	EventHit   EventKind = "hit"
	EventMiss  EventKind = "miss"
	EventStop  EventKind = "stop"
)

// Event is one entry in a game's recent-activity log.
type Event struct {
	Kind   EventKind `json:"kind"`
	Slot   int       `json:"slot"`
	Points int       `json:"points"`
	At     time.Time `json:"at"`
}

type SlotView struct {
	Index    int  `json:"index"`
	Revealed bool `json:"revealed"`
}

// Snapshot is a read-only copy of a game for rendering, newest events first.
type Snapshot struct {
	Score      string     `json:"score"`
	Time       string     `json:"time"`
	Points     int        `json:"points"`
	Remaining  int        `json:"remaining"`
	Difficulty string     `json:"difficulty"`
	Active     bool       `json:"active"`
	Phase      string     `json:"phase"`
	Slots      []SlotView `json:"slots"`
	Recent     []Event    `json:"recent"`
}
