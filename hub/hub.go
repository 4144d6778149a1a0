// Package hub is the broadcast dispatcher: one subscriber set per room,
// joined and left by protocol events rather than per-connection routing.
package hub

import (
	"log/slog"
	"sync"

	"github.com/sevenrishi/TypingAI-backend/domain"
)

type room struct {
	subs map[string]domain.Connection
	mu   sync.RWMutex
}

type Hub struct {
	rooms map[string]*room
	mu    sync.RWMutex
}

func New() *Hub {
	return &Hub{
		rooms: make(map[string]*room),
	}
}

func (h *Hub) Subscribe(roomID string, conn domain.Connection) {
	h.mu.Lock()
	r, exists := h.rooms[roomID]
	if !exists {
		r = &room{subs: make(map[string]domain.Connection)}
		h.rooms[roomID] = r
	}
	h.mu.Unlock()

	r.mu.Lock()
	r.subs[conn.ID()] = conn
	count := len(r.subs)
	r.mu.Unlock()

	slog.Info("subscribed to room", "room", roomID, "clientId", conn.ID(), "subscribers", count)
}

func (h *Hub) Unsubscribe(roomID, connID string) {
	h.mu.RLock()
	r, exists := h.rooms[roomID]
	h.mu.RUnlock()

	if !exists {
		return
	}

	r.mu.Lock()
	delete(r.subs, connID)
	count := len(r.subs)
	r.mu.Unlock()

	slog.Info("unsubscribed from room", "room", roomID, "clientId", connID, "subscribers", count)

	if count == 0 {
		h.mu.Lock()
		delete(h.rooms, roomID)
		h.mu.Unlock()
		slog.Info("room channel removed", "room", roomID)
	}
}

// Broadcast delivers to every subscriber, the originator included.
// Fire-and-forget: a failed send is left to the transport layer, whose
// disconnect signal tears the membership down.
func (h *Hub) Broadcast(roomID string, data []byte) {
	h.mu.RLock()
	r, exists := h.rooms[roomID]
	h.mu.RUnlock()

	if !exists {
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, conn := range r.subs {
		if err := conn.Send(data); err != nil {
			slog.Warn("send failed", "room", roomID, "clientId", id, "error", err)
		}
	}
}

// Drop delivers a final message to every subscriber and removes the room's
// channel.
func (h *Hub) Drop(roomID string, data []byte) {
	h.mu.Lock()
	r, exists := h.rooms[roomID]
	delete(h.rooms, roomID)
	h.mu.Unlock()

	if !exists {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, conn := range r.subs {
		if err := conn.Send(data); err != nil {
			slog.Warn("send failed", "room", roomID, "clientId", id, "error", err)
		}
	}
	slog.Info("room channel dropped", "room", roomID, "subscribers", len(r.subs))
}

func (h *Hub) Stats() (rooms, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms = len(h.rooms)
	for _, r := range h.rooms {
		r.mu.RLock()
		clients += len(r.subs)
		r.mu.RUnlock()
	}
	return rooms, clients
}
