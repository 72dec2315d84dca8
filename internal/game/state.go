package game

import "github.com/tomz197/typefall/internal/loop/config"

// Phase is the session phase.
type Phase int

const (
	PhaseIdle    Phase = iota // Waiting for start
	PhasePlaying              // Tasks running
	PhaseEnded                // Lives exhausted, score frozen
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhasePlaying:
		return "Playing"
	case PhaseEnded:
		return "Ended"
	default:
		return "Unknown"
	}
}

// State is everything a session mutates.
type State struct {
	Phase           Phase
	Score           int
	Lives           int
	ElapsedTicks    int
	SpeedMultiplier float64
	Words           []Word
}

// NewState returns a state with initial values in PhaseIdle.
func NewState() State {
	var s State
	s.Reset()
	return s
}

// Reset restores initial values and returns to PhaseIdle.
func (s *State) Reset() {
	*s = State{
		Phase:           PhaseIdle,
		Lives:           config.InitialLives,
		SpeedMultiplier: config.BaseSpeed,
		Words:           []Word{},
	}
}

// Apply reduces one Advance result into the state. Each landed word costs
// one life. Lives are clamped at zero and the phase becomes PhaseEnded.
// Returns true when this call ended the session.
func (s *State) Apply(r AdvanceResult) bool {
	if s.Phase != PhasePlaying {
		return false
	}

	s.Words = r.Words
	s.ElapsedTicks++

	if len(r.Landed) == 0 {
		return false
	}
	s.Lives -= len(r.Landed)
	if s.Lives > 0 {
		return false
	}
	s.Lives = 0
	s.Phase = PhaseEnded
	return true
}

// Ramp raises the speed multiplier one step, capped at config.MaxSpeed.
func (s *State) Ramp() {
	s.SpeedMultiplier = min(s.SpeedMultiplier+config.RampStep, config.MaxSpeed)
}

// AddWord appends a spawned word.
func (s *State) AddWord(w Word) {
	s.Words = append(s.Words, w)
}
