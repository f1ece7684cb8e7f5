// Package capturedebug implements a local-only debug broadcaster for live
// capture notifications (onLocationFix/onLocationFixLost), exposed over a
// websocket so a developer-facing inspection tool can watch a session in
// real time. It carries no upload semantics and is off by default — this
// is not the out-of-scope upload transport (spec.md's SUPPLEMENTED
// FEATURES), just an introspection surface.
package capturedebug

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/trailcapture/core/internal/catalog"
)

const writeTimeout = 5 * time.Second

// eventKind distinguishes the two notification types sent over the socket.
type eventKind string

const (
	eventFix     eventKind = "location_fix"
	eventFixLost eventKind = "location_fix_lost"
)

// message is the JSON envelope written to every connected client.
type message struct {
	Kind     eventKind         `json:"kind"`
	Location *catalog.Location `json:"location,omitempty"`
}

// Broadcaster implements capture.Listener by fanning every notification out
// to all currently connected debug clients. A client whose send buffer is
// full misses that message rather than blocking capture; it stays
// connected.
type Broadcaster struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan message
}

// New creates a Broadcaster. It implements capture.Listener directly — wire
// it in wherever a Listener is expected to mirror fixes to any connected
// debug viewer.
func New(logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// OnLocationFix implements capture.Listener.
func (b *Broadcaster) OnLocationFix(loc catalog.Location) {
	b.broadcast(message{Kind: eventFix, Location: &loc})
}

// OnLocationFixLost implements capture.Listener.
func (b *Broadcaster) OnLocationFixLost() {
	b.broadcast(message{Kind: eventFixLost})
}

func (b *Broadcaster) broadcast(msg message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for c := range b.clients {
		select {
		case c.send <- msg:
		default:
			b.logger.Warn("debug client too slow, dropping message")
		}
	}
}

// Handler returns an http.Handler that upgrades each request to a
// websocket connection and streams notifications to it until the client
// disconnects. Intended to be mounted on a loopback-only debug listener;
// the core never binds this to a public address itself.
func (b *Broadcaster) Handler() http.Handler {
	return http.HandlerFunc(b.serve)
}

func (b *Broadcaster) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		b.logger.Error("debug websocket accept failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan message, 64)}

	b.addClient(c)
	defer b.removeClient(c)

	ctx := r.Context()

	defer conn.CloseNow()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-c.send:
			if !ok {
				return
			}

			if err := b.writeJSON(ctx, conn, msg); err != nil {
				b.logger.Debug("debug websocket write failed, closing", "error", err)
				return
			}
		}
	}
}

func (b *Broadcaster) writeJSON(ctx context.Context, conn *websocket.Conn, msg message) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return conn.Write(ctx, websocket.MessageText, data)
}

func (b *Broadcaster) addClient(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.clients[c] = struct{}{}
}

func (b *Broadcaster) removeClient(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.clients, c)
	close(c.send)
}

// ClientCount reports the number of currently connected debug clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.clients)
}
