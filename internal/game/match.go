package game

import (
	"strings"
	"unicode/utf8"

	"github.com/tomz197/typefall/internal/loop/config"
)

// MatchResult is the outcome of checking typed input against live words.
type MatchResult struct {
	Words   []Word // Words left after removing matches
	Matched []Word
	Points  int
}

// Hit reports whether at least one word matched.
func (r MatchResult) Hit() bool {
	return len(r.Matched) > 0
}

// Match removes every word whose text equals typed, ignoring case, and
// scores PointsPerLetter per letter of each removed word. Duplicates all
// match. Empty input never matches.
func Match(words []Word, typed string) MatchResult {
	res := MatchResult{Words: words}
	if typed == "" {
		return res
	}

	kept := make([]Word, 0, len(words))
	for _, w := range words {
		if strings.EqualFold(w.Text, typed) {
			res.Matched = append(res.Matched, w)
			res.Points += Points(w.Text)
			continue
		}
		kept = append(kept, w)
	}
	if res.Hit() {
		res.Words = kept
	}
	return res
}

// Points is the score awarded for typing text.
func Points(text string) int {
	return utf8.RuneCountInString(text) * config.PointsPerLetter
}
