// Package realtime pushes JSON frames to users connected over websockets.
package realtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"mutual_aid/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	queueDepth = 100
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type frame struct {
	userID  uint
	payload interface{}
}

// Hub tracks open connections per user and fans frames out to them.
// A single goroutine performs every write.
type Hub struct {
	clients   map[uint]map[Conn]bool
	broadcast chan frame
	done      chan struct{}
	mu        sync.Mutex
	closeOnce sync.Once
}

// NewHub creates a Hub and starts its delivery goroutine.
func NewHub() *Hub {
	hub := &Hub{
		clients:   make(map[uint]map[Conn]bool),
		broadcast: make(chan frame, queueDepth),
		done:      make(chan struct{}),
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return
		case f := <-h.broadcast:
			for _, conn := range h.connections(f.userID) {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(f.payload); err != nil {
					logrus.WithError(err).WithFields(logrus.Fields{
						"user_id":  f.userID,
						"conn_ptr": fmt.Sprintf("%p", conn),
					}).Info("realtime write failed, dropping client")
					h.Unregister(f.userID, conn)
					conn.Close()
				}
			}
		}
	}
}

func (h *Hub) connections(userID uint) []Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Conn, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		out = append(out, c)
	}
	return out
}

// Register adds conn to userID's connection set.
func (h *Hub) Register(userID uint, conn Conn) {
	h.mu.Lock()
	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[Conn]bool)
	}
	h.clients[userID][conn] = true
	n := h.countLocked()
	h.mu.Unlock()

	metrics.SetRealtimeClients(n)
	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"conn_ptr": fmt.Sprintf("%p", conn),
	}).Debug("realtime client registered")
}

// Unregister removes conn. Unknown connections are ignored.
func (h *Hub) Unregister(userID uint, conn Conn) {
	h.mu.Lock()
	if clients, ok := h.clients[userID]; ok {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.clients, userID)
		}
	}
	n := h.countLocked()
	h.mu.Unlock()

	metrics.SetRealtimeClients(n)
	logrus.WithField("user_id", userID).Debug("realtime client unregistered")
}

// Connected reports how many connections userID currently has.
func (h *Hub) Connected(userID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

func (h *Hub) countLocked() int {
	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

// Publish queues payload for every connection of userID. It never blocks:
// when the queue is full the frame is dropped.
func (h *Hub) Publish(userID uint, payload interface{}) {
	select {
	case h.broadcast <- frame{userID: userID, payload: payload}:
	default:
		metrics.RecordRealtimeDrop()
		logrus.WithField("user_id", userID).Warn("realtime queue full, dropping frame")
	}
}

// Serve registers conn for userID and blocks reading until the peer goes
// away. Inbound frames are ignored.
func (h *Hub) Serve(userID uint, conn *websocket.Conn) {
	h.Register(userID, conn)
	defer h.Unregister(userID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).WithField("user_id", userID).Debug("realtime read ended")
			}
			return
		}
	}
}

// Close stops delivery. Registered connections are left to their readers.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
