package loop

import (
	"time"

	"github.com/tomz197/typefall/internal/draw"
	"github.com/tomz197/typefall/internal/game"
)

// ClientState holds per-connection presentation state. Game state lives in
// the Controller.
type ClientState struct {
	Running       bool
	area          draw.Area     // Current render area
	offsetCol     int           // Centering offset of the render area
	offsetRow     int
	delta         time.Duration // Frame delta time
	notice        string        // Latest notification
	noticeTimer   float64       // Seconds the notice stays visible
	shuttingDown  bool
	shutdownTimer float64 // Countdown before auto-disconnect on shutdown
	isInactive    bool

	// Values of the previous frame, used to clear on transitions.
	prevPhase   game.Phase
	wasInactive bool
	wasShutdown bool
	forceRedraw bool
}

// NewClientState creates a new initialized client state.
func NewClientState() *ClientState {
	return &ClientState{
		Running:     true,
		prevPhase:   game.PhaseIdle,
		forceRedraw: true,
	}
}

// tick counts down the timers by the frame delta.
func (s *ClientState) tick() {
	secs := s.delta.Seconds()
	if s.noticeTimer > 0 {
		s.noticeTimer -= secs
		if s.noticeTimer <= 0 {
			s.noticeTimer = 0
			s.notice = ""
		}
	}
	if s.shuttingDown {
		s.shutdownTimer -= secs
		if s.shutdownTimer <= 0 {
			s.Running = false
		}
	}
}
