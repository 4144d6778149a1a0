// Package registry owns the mapping from room identifier to Room. It is the
// only place rooms are created and deleted.
package registry

import (
	"sort"

	"github.com/sevenrishi/TypingAI-backend/domain"
)

// Registry carries no locking of its own: the protocol handler processes
// events one at a time, so at most one transition touches the map at once.
type Registry struct {
	rooms map[string]*domain.Room
}

func New() *Registry {
	return &Registry{rooms: make(map[string]*domain.Room)}
}

// Create inserts the room, replacing any prior room under the same id.
func (r *Registry) Create(id string, room *domain.Room) {
	r.rooms[id] = room
}

func (r *Registry) Get(id string) (*domain.Room, bool) {
	room, ok := r.rooms[id]
	return room, ok
}

func (r *Registry) Delete(id string) {
	delete(r.rooms, id)
}

// RoomsWithMember returns the identifiers of every room the identity is a
// member of, sorted for deterministic disconnect handling.
func (r *Registry) RoomsWithMember(connID string) []string {
	var ids []string
	for id, room := range r.rooms {
		if _, ok := room.Players[connID]; ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
