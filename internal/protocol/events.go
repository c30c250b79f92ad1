// Package protocol defines the wire contract of the coordinator: event
// names, the message envelope and the payload shapes travelling in it.
//
// Every message on the socket is one JSON envelope: an event name plus a raw
// payload. All server-to-room fan-out is at-most-once, best-effort delivery;
// there are no acknowledgements and no retries at this layer.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/syncpad/syncpad/internal/core"
)

const (
	// client -> server
	EventJoin        = "join"
	EventRequestSync = "request-sync"
	EventMessageSend = "message-send"

	// server -> client / room
	EventJoined          = "joined"
	EventDisconnected    = "disconnected"
	EventMessageReceive  = "message-receive"
	EventMessagesHistory = "messages-history"

	// bidirectional
	EventSyncCode        = "sync-code"
	EventVoiceCallOffer  = "voice-call-offer"
	EventVoiceCallAnswer = "voice-call-answer"
	EventVoiceCallICE    = "voice-call-ice-candidate"
	EventVoiceCallEnd    = "voice-call-end"
)

// Envelope frames every message on the socket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode marshals a payload into a framed outbound event.
func Encode(event string, v any) (core.Frame, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", event, err)
	}
	return frame, nil
}
