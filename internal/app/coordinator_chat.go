package app

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/syncpad/syncpad/internal/domain"
	"github.com/syncpad/syncpad/internal/protocol"
)

// SendMessage validates, stores and fans out a chat or audio message. The
// sender receives its own message through the same broadcast as everyone
// else, so all clients render an identical ordering. Invalid payloads are
// dropped with no broadcast and no history mutation.
func (o *Coordinator) SendMessage(id domain.ConnID, roomID domain.RoomID, displayName, msgType, body, audioPayload string, duration float64) {
	if err := domain.ValidateRoomID(roomID); err != nil {
		log.Warn().Str("module", "app.coordinator").Str("conn", string(id)).Err(err).Msg("message dropped")
		return
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		log.Warn().Str("module", "app.coordinator").Str("conn", string(id)).Err(domain.ErrDisplayNameEmpty).Msg("message dropped")
		return
	}
	if msgType == "" {
		msgType = string(domain.MessageText)
	}

	var (
		msg domain.Message
		err error
	)
	switch domain.MessageType(msgType) {
	case domain.MessageText:
		msg, err = domain.NewTextMessage(id, displayName, body)
	case domain.MessageAudio:
		msg, err = domain.NewAudioMessage(id, displayName, audioPayload, duration)
	default:
		err = domain.ErrUnknownMessageType
	}
	if err != nil {
		log.Warn().Str("module", "app.coordinator").Str("conn", string(id)).Str("type", msgType).Err(err).Msg("message dropped")
		return
	}

	room, ok := o.Rooms.Get(roomID)
	if !ok {
		log.Warn().Str("module", "app.coordinator").Str("conn", string(id)).Str("room", string(roomID)).Msg("message for unknown room dropped")
		return
	}

	room.AppendMessage(msg)
	o.broadcast(room, protocol.EventMessageReceive, msg)
}
