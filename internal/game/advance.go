package game

// landingEpsilon absorbs float drift from summing speeds tick by tick.
const landingEpsilon = 1e-9

// AdvanceResult is the outcome of moving every word one tick.
type AdvanceResult struct {
	Words  []Word // Words still falling
	Landed []Word // Words that reached the floor this tick
}

// Advance moves every word down by its speed. Words at or below the floor
// are removed and reported as landed, so a word never costs more than one
// life. The input slice is not modified.
func Advance(words []Word, field Field) AdvanceResult {
	floor := field.FloorY()
	despawn := field.DespawnY()

	res := AdvanceResult{Words: make([]Word, 0, len(words))}
	for _, w := range words {
		w.Y += w.Speed
		switch {
		case w.Y >= floor-landingEpsilon, w.Y >= despawn:
			res.Landed = append(res.Landed, w)
		default:
			res.Words = append(res.Words, w)
		}
	}
	return res
}
