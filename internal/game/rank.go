package game

import (
	"fmt"
	"time"

	"github.com/tomz197/typefall/internal/loop/config"
)

// Rank is the title shown for a final score.
func Rank(score int) string {
	switch {
	case score >= config.RankLegendary:
		return "Legendary Typist"
	case score >= config.RankElite:
		return "Elite Shark"
	case score >= config.RankSkilled:
		return "Skilled Hunter"
	default:
		return "Novice Swimmer"
	}
}

// SurvivalTime converts elapsed ticks to wall time at the given tick period.
func SurvivalTime(ticks int, tick time.Duration) time.Duration {
	return time.Duration(ticks) * tick
}

// FormatClock renders d as m:ss.
func FormatClock(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
