// Package score submits final scores to the score endpoint.
package score

import (
	"context"
	"errors"
	"fmt"
)

// SubmitPath is the endpoint path relative to the base URL.
const SubmitPath = "/api/submit-score"

// Request is the JSON body posted to the endpoint.
type Request struct {
	Player            string `json:"player"`
	ScoreAmount       int    `json:"scoreAmount"`
	TransactionAmount int    `json:"transactionAmount"`
}

// Response carries either a transaction hash (2xx) or an error string.
type Response struct {
	TransactionHash string `json:"transactionHash,omitempty"`
	Error           string `json:"error,omitempty"`
}

// ErrTransport wraps network and decoding failures. Callers show a generic
// retry prompt for it.
var ErrTransport = errors.New("score endpoint unavailable")

// RejectedError is returned when the endpoint answers with a non-2xx status.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("score rejected (%d): %s", e.Status, e.Message)
}

// Submitter sends a score and returns the transaction hash.
type Submitter interface {
	Submit(ctx context.Context, req Request) (string, error)
}
