package loop

import "errors"

// Session errors. Identity gate failures are reported with the errors of
// the identity package.
var (
	ErrAlreadyPlaying = errors.New("a game is already running")
	ErrNotEnded       = errors.New("scores can only be submitted after game over")
	ErrSubmitInFlight = errors.New("a submission is already in progress")
	ErrClosed         = errors.New("controller closed")
)
