package app

import (
	"sync"

	"github.com/syncpad/syncpad/internal/core"
	"github.com/syncpad/syncpad/internal/domain"
)

type roomDirectory struct {
	historyCap int

	mu    sync.RWMutex
	rooms map[domain.RoomID]core.RoomState
}

// NewRoomDirectory builds the directory backing the coordinator. historyCap
// bounds each room's chat history.
func NewRoomDirectory(historyCap int) core.RoomDirectory {
	return &roomDirectory{
		historyCap: historyCap,
		rooms:      make(map[domain.RoomID]core.RoomState),
	}
}

func (d *roomDirectory) GetOrCreate(id domain.RoomID) core.RoomState {
	d.mu.RLock()
	room, ok := d.rooms[id]
	d.mu.RUnlock()
	if ok {
		return room
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if room, ok = d.rooms[id]; ok {
		return room
	}
	room = core.NewRoomState(id, d.historyCap)
	d.rooms[id] = room
	return room
}

func (d *roomDirectory) Get(id domain.RoomID) (core.RoomState, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[id]
	return room, ok
}

func (d *roomDirectory) List() []core.RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(d.rooms))
	for id, r := range d.rooms {
		out = append(out, core.RoomInfo{ID: id, MemberCount: r.MemberCount()})
	}
	return out
}

// Remove forgets a room only if it is still empty at the moment of removal.
// Retiring under the directory write lock closes the window where a join
// could land its member in a room object the directory no longer holds.
func (d *roomDirectory) Remove(id domain.RoomID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[id]
	if !ok {
		return
	}
	if !room.Retire() {
		return
	}
	delete(d.rooms, id)
}
