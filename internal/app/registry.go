package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/syncpad/syncpad/internal/core"
	"github.com/syncpad/syncpad/internal/domain"
)

type connEntry struct {
	Link        core.PeerLink
	DisplayName string
	Rooms       map[domain.RoomID]struct{}
	Cancel      context.CancelFunc
}

// Registry is the owned, lifecycle-managed store of live connections:
// transport link, registered display name and the set of joined rooms.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ConnID]*connEntry)}
}

// Bind registers a freshly upgraded connection. Cancel tears down the
// connection's pumps and is invoked on Unbind.
func (r *Registry) Bind(id domain.ConnID, link core.PeerLink, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{
		Link:   link,
		Rooms:  make(map[domain.RoomID]struct{}),
		Cancel: cancel,
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("connection bound")
}

func (r *Registry) Link(id domain.ConnID) (core.PeerLink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.Link, true
	}
	return nil, false
}

func (r *Registry) SetDisplayName(id domain.ConnID, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	e.DisplayName = name
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("name", name).Msg("display name set")
	return true
}

func (r *Registry) DisplayName(id domain.ConnID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.DisplayName
	}
	return ""
}

func (r *Registry) AddRoom(id domain.ConnID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.Rooms[room] = struct{}{}
	}
}

func (r *Registry) RemoveRoom(id domain.ConnID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		delete(e.Rooms, room)
	}
}

// RoomsOf returns the explicit connection -> room-set relation. The client
// in practice joins a single room, but the coordinator never assumes it.
func (r *Registry) RoomsOf(id domain.ConnID) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return nil
	}
	out := make([]domain.RoomID, 0, len(e.Rooms))
	for room := range e.Rooms {
		out = append(out, room)
	}
	return out
}

// Unbind removes the connection from the registry and cancels its pumps.
// Always succeeds regardless of room state.
func (r *Registry) Unbind(id domain.ConnID) {
	r.mu.Lock()
	e, ok := r.conns[id]
	delete(r.conns, id)
	r.mu.Unlock()
	if ok && e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("connection unbound")
}

// Cancel stops the connection's pumps without touching registry state; the
// transport teardown path then unwinds presence and calls as usual.
func (r *Registry) Cancel(id domain.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	return true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
