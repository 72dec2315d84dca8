package web

import (
	"bytes"
	"encoding/json"
	"html"
	"io"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/tomz197/typefall/internal/identity"
	"github.com/tomz197/typefall/internal/score"
)

const (
	maxBodyBytes      = 4 << 10
	defaultBoardLimit = 10
	maxBoardLimit     = 100
)

// validationError is a message shown verbatim to the submitting player.
type validationError string

func (e validationError) Error() string { return string(e) }

const (
	errInvalidBody        validationError = "Invalid request body"
	errInvalidPlayer      validationError = "Invalid player address"
	errInvalidScore       validationError = "Score must be a non-negative integer"
	errInvalidTransaction validationError = "Transaction amount must be at least 1"
)

// LeaderboardResponse is the body of GET /api/leaderboard.
type LeaderboardResponse struct {
	Entries     []Entry `json:"entries"`
	Players     int     `json:"players"`
	Submissions int     `json:"submissions"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status   string `json:"status"`
	Watchers int    `json:"watchers"`
}

// handleSubmitScore handles POST /api/submit-score
func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSubmission(r.Body)
	if err != nil {
		s.logger.Warn("score rejected", "error", err)
		s.sendJSON(w, http.StatusBadRequest, &score.Response{Error: err.Error()})
		return
	}

	entry := s.board.Record(req.Player, req.ScoreAmount)
	s.logger.Info("score recorded", "player", entry.Player, "score", entry.Score)
	s.feed.Broadcast(FeedMessage{Type: MsgScore, Entry: &entry})

	s.sendJSON(w, http.StatusOK, &score.Response{TransactionHash: entry.TransactionHash})
}

// decodeSubmission parses and validates a score submission body.
func decodeSubmission(body io.Reader) (score.Request, error) {
	var req score.Request
	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, errInvalidBody
	}

	switch {
	case !identity.ValidAddress(req.Player):
		return req, errInvalidPlayer
	case req.ScoreAmount < 0:
		return req, errInvalidScore
	case req.TransactionAmount < 1:
		return req, errInvalidTransaction
	}
	return req, nil
}

// handleLeaderboard handles GET /api/leaderboard?limit=N
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultBoardLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.sendJSON(w, http.StatusBadRequest, &score.Response{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxBoardLimit)
	}

	players, submissions := s.board.Stats()
	s.sendJSON(w, http.StatusOK, &LeaderboardResponse{
		Entries:     s.board.Top(limit),
		Players:     players,
		Submissions: submissions,
	})
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, &HealthResponse{
		Status:   "ok",
		Watchers: s.feed.Watchers(),
	})
}

// handleFeed handles GET /ws/leaderboard
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	s.feed.Serve(w, r, FeedMessage{Type: MsgSnapshot, Entries: s.board.Top(defaultBoardLimit)})
}

// handleIndex serves the landing page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := fs.ReadFile(s.webFS, "index.html")
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(bytes.ReplaceAll(page, []byte("{{.SSHHost}}"), []byte(html.EscapeString(s.config.SSHDisplayHost))))
}

// sendJSON writes v as a JSON response with the given status.
func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}
