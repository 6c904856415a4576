// Package hub fans controller events out to websocket subscribers such as
// the terminal monitor.
package hub

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/recera/vecremote/internal/robot"
	"github.com/recera/vecremote/pkg/bridge"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
	readLimit  = 512
)

// Event types.
const (
	EventHello   = "hello"
	EventKeyDown = "keydown"
	EventKeyUp   = "keyup"
	EventState   = "state"
)

// Event is one message on the feed.
type Event struct {
	Type  string             `json:"type"`
	Time  time.Time          `json:"time"`
	ID    string             `json:"id,omitempty"`
	Key   *bridge.KeyPayload `json:"key,omitempty"`
	State *robot.State       `json:"state,omitempty"`
}

// Hub tracks websocket subscribers.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	subs     map[string]*subscriber
	log      *zap.Logger
	onCount  func(n int)
	snapshot func() *robot.State
}

type subscriber struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.log = l
		}
	}
}

// OnCountChange is called with the subscriber count after every change.
func OnCountChange(fn func(n int)) Option {
	return func(h *Hub) { h.onCount = fn }
}

// WithSnapshot supplies the state sent to new subscribers in the hello.
func WithSnapshot(fn func() *robot.State) Option {
	return func(h *Hub) { h.snapshot = fn }
}

// New creates a hub.
func New(opts ...Option) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		subs: make(map[string]*subscriber),
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP upgrades the connection and streams events until the peer
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := &subscriber{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	h.register(sub)
	defer h.unregister(sub)

	hello := Event{Type: EventHello, Time: time.Now(), ID: sub.id}
	if h.snapshot != nil {
		hello.State = h.snapshot()
	}
	if data, err := json.Marshal(hello); err == nil {
		sub.send <- data
	}

	go sub.writer(h.log)
	sub.reader(h.log)
}

// Broadcast queues ev for every subscriber. Subscribers whose buffer is
// full miss the event rather than stall the caller.
func (h *Hub) Broadcast(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encode event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		select {
		case sub.send <- data:
		default:
			h.log.Debug("subscriber lagging, event dropped", zap.String("id", sub.id))
		}
	}
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		sub.close()
	}
}

func (h *Hub) register(sub *subscriber) {
	h.mu.Lock()
	h.subs[sub.id] = sub
	n := len(h.subs)
	h.mu.Unlock()

	h.log.Info("subscriber connected", zap.String("id", sub.id), zap.Int("subscribers", n))
	if h.onCount != nil {
		h.onCount(n)
	}
}

func (h *Hub) unregister(sub *subscriber) {
	sub.close()

	h.mu.Lock()
	delete(h.subs, sub.id)
	n := len(h.subs)
	h.mu.Unlock()

	h.log.Info("subscriber disconnected", zap.String("id", sub.id), zap.Int("subscribers", n))
	if h.onCount != nil {
		h.onCount(n)
	}
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// reader drains control frames so pongs and close messages are seen.
func (s *subscriber) reader(log *zap.Logger) {
	s.conn.SetReadLimit(readLimit)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("subscriber read error", zap.String("id", s.id), zap.Error(err))
			}
			return
		}
	}
}

func (s *subscriber) writer(log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug("subscriber write failed", zap.String("id", s.id), zap.Error(err))
				s.close()
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}

		case <-s.done:
			return
		}
	}
}
