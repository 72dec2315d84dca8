// Package config centralizes all tunable game parameters.
package config

import "time"

// Field geometry in logical units. Rendering scales to fit the terminal.
const (
	FieldWidth    = 800.0
	FieldHeight   = 600.0
	WordWidth     = 200.0 // Horizontal room reserved for a word at spawn
	SpawnY        = -50.0 // Words start above the top edge
	FloorMargin   = 50.0  // Floor sits this far above the bottom edge
	DespawnMargin = 50.0  // Words past height+margin are pruned
)

// Task periods.
const (
	SpawnEvery = 2000 * time.Millisecond
	TickEvery  = 16 * time.Millisecond
	RampEvery  = 8000 * time.Millisecond
)

// Difficulty
const (
	BaseSpeed   = 1.0
	SpeedJitter = 0.5 // Spawn speed is in [base, base+jitter)
	RampStep    = 0.3
	MaxSpeed    = 5.0
)

// Scoring and lives
const (
	PointsPerLetter = 10
	InitialLives    = 3
)

// Score submission
const (
	TransactionsPerSubmit = 1
)

// Rank thresholds shown on the game over screen.
const (
	RankLegendary = 1000
	RankElite     = 500
	RankSkilled   = 200
)

// Client rendering
const (
	ClientTargetFPS       = 30
	ClientTargetFrameTime = time.Second / ClientTargetFPS
	MaxTermWidth          = 160
	MaxTermHeight         = 50
	NoticeSeconds         = 4.0 // How long a notification stays on screen
)

// Inactivity (SSH sessions only)
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
)
