package game

import (
	"github.com/google/uuid"

	"github.com/tomz197/typefall/internal/loop/config"
)

// Rand is the subset of *math/rand.Rand the spawner needs.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Color is a cosmetic tag; renderers map it to a terminal color.
type Color int

const (
	ColorRed Color = iota
	ColorBlue
	ColorGreen
	ColorYellow
	ColorPurple
	ColorPink
)

// Palette lists every color a word can spawn with.
var Palette = []Color{ColorRed, ColorBlue, ColorGreen, ColorYellow, ColorPurple, ColorPink}

func (c Color) String() string {
	switch c {
	case ColorRed:
		return "red"
	case ColorBlue:
		return "blue"
	case ColorGreen:
		return "green"
	case ColorYellow:
		return "yellow"
	case ColorPurple:
		return "purple"
	case ColorPink:
		return "pink"
	default:
		return "unknown"
	}
}

// Word lists by difficulty tier. Spawning draws from all three pooled together.
var (
	EasyWords = []string{
		"cat", "dog", "run", "jump", "play",
		"eat", "sleep", "walk", "talk", "sing",
	}
	MediumWords = []string{
		"computer", "elephant", "beautiful", "adventure", "knowledge",
		"happiness", "butterfly", "mountain", "ocean", "sunshine",
	}
	HardWords = []string{
		"extraordinary", "phenomenon", "philosophy", "revolutionary", "sophisticated",
		"technological", "unprecedented", "accomplishment", "determination", "imagination",
	}
)

// WordPool returns the tiers concatenated; every entry is equally likely.
func WordPool() []string {
	pool := make([]string, 0, len(EasyWords)+len(MediumWords)+len(HardWords))
	pool = append(pool, EasyWords...)
	pool = append(pool, MediumWords...)
	pool = append(pool, HardWords...)
	return pool
}

// Word is a falling word.
type Word struct {
	ID    uuid.UUID
	Text  string
	X     float64
	Y     float64
	Speed float64
	Color Color
}

// Spawner creates words above the top edge of a field.
type Spawner struct {
	rng   Rand
	field Field
	pool  []string
}

// NewSpawner creates a spawner drawing from the pooled word list.
func NewSpawner(rng Rand, field Field) *Spawner {
	return &Spawner{
		rng:   rng,
		field: field,
		pool:  WordPool(),
	}
}

// Spawn returns a new word whose speed is in [base, base+jitter).
func (s *Spawner) Spawn(baseSpeed float64) Word {
	return Word{
		ID:    uuid.New(),
		Text:  s.pool[s.rng.Intn(len(s.pool))],
		X:     s.rng.Float64() * s.field.SpawnSpan(),
		Y:     s.field.SpawnY,
		Speed: baseSpeed + s.rng.Float64()*config.SpeedJitter,
		Color: Palette[s.rng.Intn(len(Palette))],
	}
}
