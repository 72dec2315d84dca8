// Package game holds the pure rules of the falling-words game: word
// spawning, motion, landing detection, typed-input matching and scoring.
// Nothing here knows about timers or terminals.
package game

import "github.com/tomz197/typefall/internal/loop/config"

// Field describes the play area in logical units.
type Field struct {
	Width         float64
	Height        float64
	WordWidth     float64 // Horizontal room reserved for a word at spawn
	SpawnY        float64
	FloorMargin   float64
	DespawnMargin float64
}

// DefaultField returns the standard 800x600 field.
func DefaultField() Field {
	return Field{
		Width:         config.FieldWidth,
		Height:        config.FieldHeight,
		WordWidth:     config.WordWidth,
		SpawnY:        config.SpawnY,
		FloorMargin:   config.FloorMargin,
		DespawnMargin: config.DespawnMargin,
	}
}

// FloorY is the y at which a falling word lands.
func (f Field) FloorY() float64 {
	return f.Height - f.FloorMargin
}

// DespawnY is the y past which no live word may exist.
func (f Field) DespawnY() float64 {
	return f.Height + f.DespawnMargin
}

// SpawnSpan is the width of the interval spawn x is drawn from.
func (f Field) SpawnSpan() float64 {
	span := f.Width - f.WordWidth
	if span < 0 {
		return 0
	}
	return span
}
