package app

import (
	"github.com/rs/zerolog/log"

	"github.com/syncpad/syncpad/internal/domain"
	"github.com/syncpad/syncpad/internal/protocol"
)

// RequestSync answers with the stored snapshot, or an empty document when
// the room holds none. It always answers; a sync request never creates a
// room and is never dropped silently.
func (o *Coordinator) RequestSync(id domain.ConnID, roomID domain.RoomID) {
	code := ""
	if room, ok := o.Rooms.Get(roomID); ok {
		if snapshot, set := room.Snapshot(); set {
			code = snapshot
		}
	}
	o.sendTo(id, protocol.EventSyncCode, protocol.SyncCode{Code: code, IsInitialSync: true})
}

// SubmitUpdate overwrites the room's snapshot, last write wins, and pushes
// the new document to every other member. The sender is excluded so its
// in-progress edit is never clobbered by its own echo. Concurrent edits are
// not merged; one overwrites the other.
func (o *Coordinator) SubmitUpdate(id domain.ConnID, roomID domain.RoomID, code string) {
	if err := domain.ValidateRoomID(roomID); err != nil {
		log.Warn().Str("module", "app.coordinator").Str("conn", string(id)).Err(err).Msg("code update dropped")
		return
	}
	room := o.Rooms.GetOrCreate(roomID)
	room.SetSnapshot(code)
	o.broadcastExcept(room, id, protocol.EventSyncCode, protocol.SyncCode{Code: code})
	log.Debug().Str("module", "app.coordinator").Str("room", string(roomID)).Int("bytes", len(code)).Msg("snapshot updated")
}
