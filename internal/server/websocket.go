package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/klipmi/internal/hmi"
	"github.com/muurk/klipmi/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Events queued per subscriber before it is dropped as too slow
	sendBuffer = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// PageEvent is streamed on /api/events after every page switch
type PageEvent struct {
	Type string    `json:"type"`
	From *PageInfo `json:"from,omitempty"`
	To   *PageInfo `json:"to"`
	TS   string    `json:"ts"`
}

func newPageEvent(pc hmi.PageChange) PageEvent {
	ev := PageEvent{
		Type: "page_change",
		To:   pageInfo(pc.To),
		TS:   time.Now().Format(time.RFC3339),
	}
	if pc.From.Name != "" {
		ev.From = pageInfo(pc.From)
	}
	return ev
}

type subscriber struct {
	send chan PageEvent
}

// hub fans page events out to websocket subscribers. A subscriber that
// falls behind is dropped rather than stalling the engine.
type hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[*subscriber]struct{})}
}

func (h *hub) add() *subscriber {
	sub := &subscriber{send: make(chan PageEvent, sendBuffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.send)
	}
}

func (h *hub) broadcast(ev PageEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.send <- ev:
		default:
			logging.Warn("Dropping slow event subscriber")
			delete(h.subs, sub)
			close(sub.send)
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.send)
	}
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// handleEvents streams page changes until the client goes away
func (s *Server) handleEvents(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn("Event stream upgrade failed", zap.Error(err))
		return
	}
	remote := c.Request.RemoteAddr
	logging.LogConnection(remote, "events_subscribed")

	sub := s.hub.add()
	defer func() {
		s.hub.remove(sub)
		_ = conn.Close()
		logging.LogConnection(remote, "events_closed")
	}()

	// The reader only exists to notice the client closing and to
	// answer pings.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}
