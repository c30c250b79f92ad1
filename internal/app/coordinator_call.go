package app

import (
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/syncpad/syncpad/internal/core"
	"github.com/syncpad/syncpad/internal/domain"
	"github.com/syncpad/syncpad/internal/protocol"
)

// The voice-call relay is a pure pass-through: offers, answers and ICE
// candidates are forwarded untouched. Call participation is tracked
// best-effort; it says nothing authoritative about actual media state.

// Offer marks the sender as a call participant and relays the offer to
// every other room member.
func (o *Coordinator) Offer(id domain.ConnID, roomID domain.RoomID, offer webrtc.SessionDescription, displayName string) {
	room, ok := o.callRoom(id, roomID, "offer")
	if !ok {
		return
	}
	room.AddCallParticipant(id)
	o.broadcastExcept(room, id, protocol.EventVoiceCallOffer, protocol.CallOfferNotice{
		Offer:       offer,
		DisplayName: displayName,
		ConnID:      id,
	})
}

// Answer marks the sender as a call participant and relays the answer to
// the offering connection only, never broadcast.
func (o *Coordinator) Answer(id domain.ConnID, roomID domain.RoomID, answer webrtc.SessionDescription, target domain.ConnID) {
	room, ok := o.callRoom(id, roomID, "answer")
	if !ok {
		return
	}
	room.AddCallParticipant(id)
	o.unicast(room, target, protocol.EventVoiceCallAnswer, protocol.CallAnswerNotice{
		Answer: answer,
		ConnID: id,
	})
}

// ICECandidate relays a candidate to every other room member. Candidates are
// not targeted; the two-party call assumption makes that sufficient.
func (o *Coordinator) ICECandidate(id domain.ConnID, roomID domain.RoomID, candidate webrtc.ICECandidateInit) {
	room, ok := o.callRoom(id, roomID, "candidate")
	if !ok {
		return
	}
	o.broadcastExcept(room, id, protocol.EventVoiceCallICE, protocol.CallCandidateNotice{
		Candidate: candidate,
		ConnID:    id,
	})
}

// EndCall removes the sender from the call and notifies the other members.
func (o *Coordinator) EndCall(id domain.ConnID, roomID domain.RoomID, displayName string) {
	room, ok := o.callRoom(id, roomID, "end")
	if !ok {
		return
	}
	room.RemoveCallParticipant(id)
	o.broadcastExcept(room, id, protocol.EventVoiceCallEnd, protocol.CallEndNotice{
		ConnID:      id,
		DisplayName: displayName,
	})
}

// endCallIfParticipant ends the call on behalf of a leaving connection that
// never sent an explicit end. Exactly one end notice reaches the remaining
// members, from here or from EndCall, never both.
func (o *Coordinator) endCallIfParticipant(room core.RoomState, id domain.ConnID, displayName string) {
	if !room.RemoveCallParticipant(id) {
		return
	}
	o.broadcastExcept(room, id, protocol.EventVoiceCallEnd, protocol.CallEndNotice{
		ConnID:      id,
		DisplayName: displayName,
	})
	log.Info().Str("module", "app.coordinator").Str("conn", string(id)).Str("room", string(room.ID())).Msg("call ended on disconnect")
}

func (o *Coordinator) callRoom(id domain.ConnID, roomID domain.RoomID, op string) (core.RoomState, bool) {
	if err := domain.ValidateRoomID(roomID); err != nil {
		log.Warn().Str("module", "app.coordinator").Str("conn", string(id)).Str("op", op).Err(err).Msg("call signal dropped")
		return nil, false
	}
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		log.Warn().Str("module", "app.coordinator").Str("conn", string(id)).Str("op", op).Str("room", string(roomID)).Msg("call signal for unknown room dropped")
		return nil, false
	}
	return room, ok
}
