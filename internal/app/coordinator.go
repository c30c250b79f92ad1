// Package app hosts the session coordinator: the single owner of all
// connection and room state mutations. Inbound events are validated here,
// applied to the registry and room directory, then fanned out through the
// members' transport links.
package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/syncpad/syncpad/internal/core"
	"github.com/syncpad/syncpad/internal/domain"
	"github.com/syncpad/syncpad/internal/protocol"
)

// Coordinator wires the registry, the room directory and the backpressure
// policy. CleanupThreshold is the membership size at or below which a room's
// mutable state (snapshot, history, call set) is cleared after a leave.
type Coordinator struct {
	Registry         *Registry
	Rooms            core.RoomDirectory
	Policy           Policy
	CleanupThreshold int
}

func NewCoordinator(reg *Registry, rooms core.RoomDirectory, policy Policy, cleanupThreshold int) *Coordinator {
	return &Coordinator{
		Registry:         reg,
		Rooms:            rooms,
		Policy:           policy,
		CleanupThreshold: cleanupThreshold,
	}
}

// Register binds a freshly accepted connection before any event is handled.
func (o *Coordinator) Register(id domain.ConnID, link core.PeerLink, cancel context.CancelFunc) {
	o.Registry.Bind(id, link, cancel)
}

// Join registers the display name, adds the connection to the room and
// brings the newcomer up to date: existing snapshot and chat history go to
// the joiner alone, then the full roster goes to every member, joiner
// included. A join without a usable room id or display name mutates nothing.
func (o *Coordinator) Join(id domain.ConnID, roomID domain.RoomID, displayName string) {
	if err := domain.ValidateRoomID(roomID); err != nil {
		log.Warn().Str("module", "app.coordinator").Str("conn", string(id)).Err(err).Msg("join dropped")
		return
	}
	p, err := domain.NewParticipant(id, displayName)
	if err != nil {
		log.Warn().Str("module", "app.coordinator").Str("conn", string(id)).Err(err).Msg("join dropped")
		return
	}
	link, ok := o.Registry.Link(id)
	if !ok {
		log.Warn().Str("module", "app.coordinator").Str("conn", string(id)).Msg("join from unknown connection")
		return
	}

	o.Registry.SetDisplayName(id, p.DisplayName)

	// A room fetched here can lose its last member and be retired before
	// we land in it; in that case the directory hands out a fresh one.
	session := core.NewMemberSession(p, link)
	var room core.RoomState
	for {
		room = o.Rooms.GetOrCreate(roomID)
		if room.AddMember(session) {
			break
		}
	}
	o.Registry.AddRoom(id, roomID)

	if code, ok := room.Snapshot(); ok && code != "" {
		o.unicast(room, id, protocol.EventSyncCode, protocol.SyncCode{Code: code})
	}
	if history := room.History(); len(history) > 0 {
		o.unicast(room, id, protocol.EventMessagesHistory, history)
	}

	o.broadcast(room, protocol.EventJoined, protocol.RosterNotice{
		Members:     room.MembersSnapshot(),
		DisplayName: p.DisplayName,
		ConnID:      id,
	})
	log.Info().Str("module", "app.coordinator").Str("conn", string(id)).Str("room", string(roomID)).Str("name", p.DisplayName).Msg("joined room")
}

// Leave unwinds the connection's presence in every room it joined: call
// participation first, then membership, state cleanup at the threshold, and
// a departure notice to whoever remains.
func (o *Coordinator) Leave(id domain.ConnID) {
	displayName := o.Registry.DisplayName(id)
	for _, roomID := range o.Registry.RoomsOf(id) {
		room, ok := o.Rooms.Get(roomID)
		if !ok {
			o.Registry.RemoveRoom(id, roomID)
			continue
		}
		o.endCallIfParticipant(room, id, displayName)
		o.removeFromRoom(room, id, displayName)
	}
}

// OnDisconnect is the transport teardown hook: full presence unwind, then
// unconditional removal from the registry.
func (o *Coordinator) OnDisconnect(id domain.ConnID) {
	o.Leave(id)
	o.Registry.Unbind(id)
	log.Info().Str("module", "app.coordinator").Str("conn", string(id)).Msg("disconnected")
}

func (o *Coordinator) removeFromRoom(room core.RoomState, id domain.ConnID, displayName string) {
	room.RemoveMember(id)
	o.Registry.RemoveRoom(id, room.ID())

	if room.MemberCount() <= o.CleanupThreshold {
		room.ClearState()
	}

	o.broadcast(room, protocol.EventDisconnected, protocol.DepartureNotice{
		ConnID:      id,
		DisplayName: displayName,
	})

	if room.MemberCount() == 0 {
		o.Rooms.Remove(room.ID())
		log.Info().Str("module", "app.coordinator").Str("room", string(room.ID())).Msg("room forgotten")
	}
}

func (o *Coordinator) encode(event string, v any) (core.Frame, bool) {
	frame, err := protocol.Encode(event, v)
	if err != nil {
		log.Error().Str("module", "app.coordinator").Str("event", event).Err(err).Msg("encode failed")
		return nil, false
	}
	return frame, true
}

func (o *Coordinator) unicast(room core.RoomState, to domain.ConnID, event string, v any) {
	frame, ok := o.encode(event, v)
	if !ok {
		return
	}
	room.Unicast(to, frame)
}

// sendTo delivers to a connection through the registry, independent of any
// room membership.
func (o *Coordinator) sendTo(id domain.ConnID, event string, v any) {
	frame, ok := o.encode(event, v)
	if !ok {
		return
	}
	link, bound := o.Registry.Link(id)
	if !bound {
		return
	}
	if err := link.TrySend(frame); err != nil {
		log.Debug().Str("module", "app.coordinator").Str("conn", string(id)).Str("event", event).Msg("send dropped")
	}
}

func (o *Coordinator) broadcast(room core.RoomState, event string, v any) {
	frame, ok := o.encode(event, v)
	if !ok {
		return
	}
	o.applyPolicy(room, room.Broadcast(frame))
}

func (o *Coordinator) broadcastExcept(room core.RoomState, from domain.ConnID, event string, v any) {
	frame, ok := o.encode(event, v)
	if !ok {
		return
	}
	o.applyPolicy(room, room.BroadcastExcept(from, frame))
}

func (o *Coordinator) applyPolicy(room core.RoomState, res core.PublishResult) {
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackpressure(room, slow) {
		case KickMember:
			o.Registry.Cancel(slow.Meta().ConnID)
		case DropFrame, NoAction:
		}
	}
}
