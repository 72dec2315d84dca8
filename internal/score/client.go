package score

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const maxResponseBytes = 1 << 20

// Client posts scores over HTTP. One attempt per call; no retries.
type Client struct {
	url    string
	http   *http.Client
	logger *log.Logger
}

// Compile-time check that Client implements Submitter.
var _ Submitter = (*Client)(nil)

// NewClient creates a client for the endpoint rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	return &Client{
		url:    strings.TrimRight(baseURL, "/") + SubmitPath,
		http:   &http.Client{Timeout: timeout},
		logger: logger.WithPrefix("score"),
	}
}

// Submit posts req and returns the transaction hash. Non-2xx answers are
// *RejectedError; everything else that goes wrong wraps ErrTransport.
func (c *Client) Submit(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrTransport, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("submit failed", "player", req.Player, "error", err)
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		c.logger.Warn("bad response", "status", resp.StatusCode, "error", err)
		return "", fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}

	c.logger.Debug("submit done",
		"player", req.Player,
		"score", req.ScoreAmount,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := out.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", &RejectedError{Status: resp.StatusCode, Message: msg}
	}
	if out.TransactionHash == "" {
		return "", fmt.Errorf("%w: response missing transactionHash", ErrTransport)
	}
	return out.TransactionHash, nil
}
