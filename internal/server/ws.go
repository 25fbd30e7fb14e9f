package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/holocore/internal/gesture"
	"github.com/ayusman/holocore/internal/server/api"
	"github.com/ayusman/holocore/pkg/logger"
)

const (
	clientBuffer = 16
	writeWait    = 2 * time.Second
	handsPeriod  = 66 * time.Millisecond // ~15 FPS
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local UI
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// hub fans messages out to websocket clients. A client whose buffer is
// full misses the message instead of stalling the publisher.
type hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	log     logger.Logger
}

func newHub(log logger.Logger) *hub {
	return &hub{clients: make(map[*client]struct{}), log: log}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Debug("websocket client lagging, message dropped")
		}
	}
}

// serve upgrades the request and pumps messages until the peer goes away.
func (h *hub) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", logger.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// EventsHandler streams accepted gesture events over a websocket.
type EventsHandler struct {
	hub *hub
}

// NewEventsHandler creates an EventsHandler. Register Publish as a
// recognizer subscriber to feed it.
func NewEventsHandler() *EventsHandler {
	return &EventsHandler{hub: newHub(logger.Named("ws.events"))}
}

// Publish forwards one event to every connected client without blocking.
func (h *EventsHandler) Publish(ev gesture.Event) error {
	if h.hub.count() == 0 {
		return nil
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.hub.broadcast(msg)
	return nil
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.hub.serve(w, r)
}

// HandsHandler streams the tracked hands at a fixed rate while at least one
// client is connected.
type HandsHandler struct {
	hub        *hub
	recognizer api.Recognizer
	stop       chan struct{}
	once       sync.Once
}

// NewHandsHandler creates a HandsHandler and starts its broadcast loop.
func NewHandsHandler(rec api.Recognizer) *HandsHandler {
	h := &HandsHandler{
		hub:        newHub(logger.Named("ws.hands")),
		recognizer: rec,
		stop:       make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *HandsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.hub.serve(w, r)
}

// Close stops the broadcast loop.
func (h *HandsHandler) Close() {
	h.once.Do(func() { close(h.stop) })
}

func (h *HandsHandler) loop() {
	ticker := time.NewTicker(handsPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
		}
		if h.hub.count() == 0 {
			continue
		}

		st := h.recognizer.Status()
		hands := st.Hands
		if hands == nil {
			hands = []gesture.HandSnapshot{}
		}
		msg, err := json.Marshal(map[string]any{
			"hands":  hands,
			"frames": st.Frames,
			"phases": st.Phases,
		})
		if err != nil {
			continue
		}
		h.hub.broadcast(msg)
	}
}
