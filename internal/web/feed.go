package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Size of the send channel buffer
	sendBufferSize = 64
)

// Feed message types.
const (
	MsgSnapshot = "leaderboard"
	MsgScore    = "score"
)

// FeedMessage is sent to every watcher of the live leaderboard.
type FeedMessage struct {
	Type    string  `json:"type"`
	Entry   *Entry  `json:"entry,omitempty"`
	Entries []Entry `json:"entries,omitempty"`
}

// Feed fans accepted scores out to websocket watchers.
type Feed struct {
	mu       sync.Mutex
	watchers map[*watcher]struct{}
	upgrader websocket.Upgrader
	logger   *log.Logger
	closed   bool
}

// NewFeed creates a feed with no watchers.
func NewFeed(logger *log.Logger) *Feed {
	return &Feed{
		watchers: make(map[*watcher]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The feed is public and read-only
				return true
			},
		},
		logger: logger,
	}
}

// Watchers returns the number of connected watchers.
func (f *Feed) Watchers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers)
}

// Broadcast queues msg for every watcher. Slow watchers drop messages.
func (f *Feed) Broadcast(msg FeedMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		f.logger.Error("encoding feed message", "error", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for w := range f.watchers {
		select {
		case w.send <- data:
		default:
			f.logger.Warn("feed buffer full, message dropped", "remote", w.remote)
		}
	}
}

// Serve upgrades r to a websocket, sends snapshot, then streams broadcasts
// until the peer goes away.
func (f *Feed) Serve(w http.ResponseWriter, r *http.Request, snapshot FeedMessage) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	wt := &watcher{
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		remote: r.RemoteAddr,
	}
	if data, err := json.Marshal(snapshot); err == nil {
		wt.send <- data
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		conn.Close()
		return
	}
	f.watchers[wt] = struct{}{}
	f.mu.Unlock()
	f.logger.Debug("feed watcher connected", "remote", wt.remote)

	go wt.writePump()
	wt.readPump()

	f.mu.Lock()
	delete(f.watchers, wt)
	f.mu.Unlock()
	f.logger.Debug("feed watcher disconnected", "remote", wt.remote)
}

// Run closes every watcher when ctx ends.
func (f *Feed) Run(ctx context.Context) error {
	<-ctx.Done()

	f.mu.Lock()
	f.closed = true
	for w := range f.watchers {
		w.close()
	}
	f.mu.Unlock()
	return nil
}

// watcher is one websocket connection of the feed.
type watcher struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	remote string
}

// close asks the write pump to say goodbye and drop the connection.
func (w *watcher) close() {
	w.once.Do(func() { close(w.done) })
}

// readPump discards incoming messages; it only detects the peer leaving.
func (w *watcher) readPump() {
	defer w.close()

	w.conn.SetReadLimit(maxMessageSize)
	w.conn.SetReadDeadline(time.Now().Add(pongWait))
	w.conn.SetPongHandler(func(string) error {
		w.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := w.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump pumps messages from the send channel to the connection.
func (w *watcher) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		w.conn.Close()
	}()

	for {
		select {
		case <-w.done:
			w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case message := <-w.send:
			w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
