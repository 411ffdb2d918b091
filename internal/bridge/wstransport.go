package bridge

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// WSTransport is a reference Transport that fans a broadcast payload out to
// every currently-connected websocket client. It accepts connections on its
// Handler and writes each EVENT_UPDATE payload to every client in turn,
// dropping clients whose write fails.
type WSTransport struct {
	logger       *slog.Logger
	allowOrigins []string
	writeTimeout time.Duration

	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
}

// WSOption configures a WSTransport.
type WSOption func(*WSTransport)

// WithWSLogger overrides the transport's diagnostic logger.
func WithWSLogger(logger *slog.Logger) WSOption {
	return func(t *WSTransport) { t.logger = logger }
}

// WithAllowOrigins restricts accepted cross-origin upgrade requests. An
// empty list means same-origin only.
func WithAllowOrigins(origins ...string) WSOption {
	return func(t *WSTransport) { t.allowOrigins = origins }
}

// WithWriteTimeout bounds how long a single client write may take before
// the connection is dropped.
func WithWriteTimeout(d time.Duration) WSOption {
	return func(t *WSTransport) {
		if d > 0 {
			t.writeTimeout = d
		}
	}
}

// NewWSTransport constructs a WSTransport with no connected clients.
func NewWSTransport(opts ...WSOption) *WSTransport {
	t := &WSTransport{
		logger:       slog.Default(),
		writeTimeout: 5 * time.Second,
		clients:      make(map[*websocket.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Handler upgrades incoming requests to websocket connections and registers
// them as broadcast recipients until the connection closes.
func (t *WSTransport) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: t.allowOrigins,
	})
	if err != nil {
		t.logger.Warn("bridge: websocket accept failed", "error", err)
		return
	}
	t.addClient(conn)
	defer func() {
		t.removeClient(conn)
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
	}()

	// The bridge only ever pushes; read and discard so the client's pings
	// and close frames are processed until it disconnects.
	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			return
		}
	}
}

func (t *WSTransport) addClient(conn *websocket.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clients[conn] = struct{}{}
}

func (t *WSTransport) removeClient(conn *websocket.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.clients, conn)
}

// Broadcast satisfies Transport by writing payload to every connected
// client, dropping any client whose write fails or times out.
func (t *WSTransport) Broadcast(payload []byte) error {
	t.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(t.clients))
	for c := range t.clients {
		conns = append(conns, c)
	}
	t.mu.RUnlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), t.writeTimeout)
		err := conn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			t.logger.Warn("bridge: client write failed, dropping", "error", err)
			t.removeClient(conn)
			_ = conn.Close(websocket.StatusInternalError, "write failed")
		}
	}
	return nil
}

// ClientCount reports the number of currently connected clients.
func (t *WSTransport) ClientCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.clients)
}
