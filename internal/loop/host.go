package loop

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Host tracks the sessions running in one process. Sessions share nothing
// but the host's shutdown signal.
type Host struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]string // Session ID -> player username
	shutdown chan struct{}
	once     sync.Once
	logger   *log.Logger
}

// NewHost creates an empty host.
func NewHost(logger *log.Logger) *Host {
	return &Host{
		sessions: make(map[uuid.UUID]string),
		shutdown: make(chan struct{}),
		logger:   logger,
	}
}

// Done is closed when the host starts shutting down.
func (h *Host) Done() <-chan struct{} {
	return h.shutdown
}

// Sessions returns the number of running sessions.
func (h *Host) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Run registers c, runs it until it exits and unregisters it.
func (h *Host) Run(ctx context.Context, c *Client) error {
	h.mu.Lock()
	h.sessions[c.ID()] = c.Username()
	total := len(h.sessions)
	h.mu.Unlock()
	h.logger.Info("session joined", "id", c.ID(), "player", c.Username(), "sessions", total)

	defer func() {
		h.mu.Lock()
		delete(h.sessions, c.ID())
		total := len(h.sessions)
		h.mu.Unlock()
		h.logger.Info("session left", "id", c.ID(), "player", c.Username(), "sessions", total)
	}()

	return c.Run(ctx)
}

// Shutdown notifies every session and waits for them to disconnect, or
// until timeout. Safe to call repeatedly.
func (h *Host) Shutdown(timeout time.Duration) {
	h.once.Do(func() { close(h.shutdown) })

	deadline := time.After(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		if h.Sessions() == 0 {
			return
		}
		select {
		case <-deadline:
			h.logger.Warn("shutdown timed out", "sessions", h.Sessions())
			return
		case <-ticker.C:
		}
	}
}
