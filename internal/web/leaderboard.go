// Package web hosts the score endpoint, the leaderboard and its live feed.
package web

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one accepted score submission.
type Entry struct {
	Player          string    `json:"player"`
	Score           int       `json:"score"`
	TransactionHash string    `json:"transactionHash"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

// Board is an in-memory leaderboard. It keeps each player's best entry
// for the lifetime of the process.
type Board struct {
	mu          sync.RWMutex
	best        map[string]Entry
	submissions int
	now         func() time.Time
}

// NewBoard creates an empty leaderboard.
func NewBoard() *Board {
	return &Board{
		best: make(map[string]Entry),
		now:  time.Now,
	}
}

// Record stores a submission and returns its receipt. Lower scores than
// the player's best are receipted but do not replace it.
func (b *Board) Record(player string, score int) Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := Entry{
		Player:          player,
		Score:           score,
		TransactionHash: receiptHash(player, score),
		SubmittedAt:     b.now().UTC(),
	}
	b.submissions++
	if prev, ok := b.best[player]; !ok || score > prev.Score {
		b.best[player] = e
	}
	return e
}

// Top returns up to n best entries, highest score first. Ties go to the
// earlier submission.
func (b *Board) Top(n int) []Entry {
	b.mu.RLock()
	entries := make([]Entry, 0, len(b.best))
	for _, e := range b.best {
		entries = append(entries, e)
	}
	b.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].SubmittedAt.Before(entries[j].SubmittedAt)
	})
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Stats returns the number of distinct players and accepted submissions.
func (b *Board) Stats() (players, submissions int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.best), b.submissions
}

// receiptHash is a unique 0x-prefixed hex digest for one submission.
func receiptHash(player string, score int) string {
	sum := sha256.Sum256([]byte(uuid.NewString() + ":" + player + ":" + strconv.Itoa(score)))
	return "0x" + hex.EncodeToString(sum[:])
}
