package score

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(url, time.Second, log.New(io.Discard))
}

func TestSubmitSuccess(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, SubmitPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Response{TransactionHash: "0xabc"})
	}))
	defer srv.Close()

	hash, err := newTestClient(srv.URL+"/").Submit(context.Background(), Request{
		Player:            "0x1234567890abcdef1234567890abcdef12345678",
		ScoreAmount:       340,
		TransactionAmount: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, "0xabc", hash)
	assert.Equal(t, 340, got.ScoreAmount)
	assert.Equal(t, 1, got.TransactionAmount)
}

func TestSubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(Response{Error: "invalid player address"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Submit(context.Background(), Request{Player: "x"})

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusBadRequest, rejected.Status)
	assert.Equal(t, "invalid player address", rejected.Message)
	assert.NotErrorIs(t, err, ErrTransport)
}

func TestSubmitUnparseableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>oops</html>")
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Submit(context.Background(), Request{})

	assert.ErrorIs(t, err, ErrTransport)
}

func TestSubmitUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).Submit(context.Background(), Request{})

	assert.ErrorIs(t, err, ErrTransport)
}

func TestSubmitMissingHash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Submit(context.Background(), Request{})

	assert.ErrorIs(t, err, ErrTransport)
}
