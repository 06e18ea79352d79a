// Package realtime pushes live session status changes to connected participants.
package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/PritStyling132/NEXUS-sub000/internal/modules/model"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1024
	sendBuffer     = 16

	// A closed session refuses new peers for this long, which covers a join
	// whose access check ran just before the session ended.
	tombstoneTTL = 2 * time.Minute
)

// Peer is one websocket subscriber of a live session.
type Peer struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
	Conn      *websocket.Conn
	send      chan []byte
	closed    bool
}

// StatusHub keeps subscribers per live session.
type StatusHub struct {
	mu       sync.RWMutex
	peers    map[uuid.UUID]map[*Peer]struct{}
	closed   map[uuid.UUID]time.Time
	upgrader websocket.Upgrader
	log      *zap.Logger
	now      func() time.Time
}

func NewStatusHub(log *zap.Logger) *StatusHub {
	return &StatusHub{
		peers:  make(map[uuid.UUID]map[*Peer]struct{}),
		closed: make(map[uuid.UUID]time.Time),
		log:    log,
		now:    time.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers connect from the web app origin; auth is enforced before upgrade.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *StatusHub) Upgrader() *websocket.Upgrader { return &h.upgrader }

// Register adds conn as a subscriber and returns the cleanup func. A peer of a
// recently closed session comes back already closed, so Serve only sends the
// close frame.
func (h *StatusHub) Register(sessionID, userID uuid.UUID, conn *websocket.Conn) (*Peer, func()) {
	conn.SetReadLimit(maxMessageSize)
	p := &Peer{
		SessionID: sessionID,
		UserID:    userID,
		Conn:      conn,
		send:      make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	if at, ok := h.closed[sessionID]; ok && h.now().Sub(at) < tombstoneTTL {
		closePeer(p)
		h.mu.Unlock()
		h.log.Debug("status peer refused, live session closed",
			zap.String("live_session_id", sessionID.String()),
			zap.String("user_id", userID.String()))
		return p, func() { h.unregister(p) }
	}
	if h.peers[sessionID] == nil {
		h.peers[sessionID] = make(map[*Peer]struct{})
	}
	h.peers[sessionID][p] = struct{}{}
	h.mu.Unlock()

	h.log.Debug("status peer registered",
		zap.String("live_session_id", sessionID.String()),
		zap.String("user_id", userID.String()))

	return p, func() { h.unregister(p) }
}

// closePeer must be called with h.mu held for writing.
func closePeer(p *Peer) {
	if !p.closed {
		p.closed = true
		close(p.send)
	}
}

func (h *StatusHub) unregister(p *Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.peers[p.SessionID]; ok {
		delete(m, p)
		if len(m) == 0 {
			delete(h.peers, p.SessionID)
		}
	}
	closePeer(p)
}

// Broadcast queues data for every subscriber of the session. Slow peers drop
// the message rather than block the caller.
func (h *StatusHub) Broadcast(sessionID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for p := range h.peers[sessionID] {
		select {
		case p.send <- data:
		default:
			h.log.Warn("status peer buffer full", zap.String("user_id", p.UserID.String()))
		}
	}
}

// CloseSession detaches every subscriber of the session. Queued messages are
// still flushed before the connection closes.
func (h *StatusHub) CloseSession(sessionID uuid.UUID) {
	h.mu.Lock()
	now := h.now()
	for id, at := range h.closed {
		if now.Sub(at) >= tombstoneTTL {
			delete(h.closed, id)
		}
	}
	h.closed[sessionID] = now
	m := h.peers[sessionID]
	delete(h.peers, sessionID)
	for p := range m {
		closePeer(p)
	}
	h.mu.Unlock()

	if len(m) > 0 {
		h.log.Info("status feed closed",
			zap.String("live_session_id", sessionID.String()),
			zap.Int("peers", len(m)))
	}
}

func (h *StatusHub) PeerCount(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers[sessionID])
}

// OnLifecycle fans ev out to the session's subscribers and disconnects them
// when the session is over.
func (h *StatusHub) OnLifecycle(_ context.Context, ev model.LiveSessionEvent) {
	raw, err := sonic.Marshal(ev)
	if err != nil {
		h.log.Warn("marshal status event failed", zap.Error(err))
		return
	}
	h.Broadcast(ev.LiveSessionID, raw)
	if ev.Closes() {
		h.CloseSession(ev.LiveSessionID)
	}
}

// Serve pumps messages for p until either side closes. It blocks.
func (h *StatusHub) Serve(p *Peer, cleanup func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(p)
	}()
	h.readPump(p)
	cleanup()
	<-done
}

// readPump only consumes control frames; clients never send data.
func (h *StatusHub) readPump(p *Peer) {
	_ = p.Conn.SetReadDeadline(time.Now().Add(pongWait))
	p.Conn.SetPongHandler(func(string) error {
		return p.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := p.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("status peer read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *StatusHub) writePump(p *Peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = p.Conn.Close()
	}()
	for {
		select {
		case data, ok := <-p.send:
			_ = p.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "live session closed"))
				return
			}
			if err := p.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = p.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
