package game

// ScoreTracker owns State.Points. Every change is pushed to the score display
// in the same call so the two never drift.
type ScoreTracker struct {
	state *State
	view  View
}

func (s *ScoreTracker) Award() int {
	s.state.Points++
	s.view.ShowScore(itoa(s.state.Points))
	return s.state.Points
}

func (s *ScoreTracker) Reset() int {
	s.state.Points = 0
	s.view.ShowScore(itoa(s.state.Points))
	return s.state.Points
}
