package protocol

import (
	"github.com/pion/webrtc/v4"

	"github.com/syncpad/syncpad/internal/domain"
)

// Inbound payloads. Validation tags mirror the coordinator's error model:
// a payload failing them is dropped with a diagnostic log, never answered.

type JoinPayload struct {
	RoomID      string `json:"roomId" validate:"required"`
	DisplayName string `json:"displayName" validate:"required"`
}

type RequestSyncPayload struct {
	RoomID string `json:"roomId" validate:"required"`
}

// SubmitCodePayload carries a full document snapshot. Code is a pointer so a
// present-but-empty document is distinguishable from a missing field.
type SubmitCodePayload struct {
	RoomID string  `json:"roomId" validate:"required"`
	Code   *string `json:"code" validate:"required"`
}

type SendMessagePayload struct {
	RoomID       string  `json:"roomId" validate:"required"`
	DisplayName  string  `json:"displayName" validate:"required"`
	Type         string  `json:"type"`
	Body         string  `json:"body"`
	AudioPayload string  `json:"audioPayload"`
	Duration     float64 `json:"duration"`
}

// Offer/answer and candidate payloads use pion's session-description and
// candidate types for wire shape only; the relay never inspects the SDP.

type OfferPayload struct {
	RoomID      string                    `json:"roomId" validate:"required"`
	Offer       webrtc.SessionDescription `json:"offer" validate:"required"`
	DisplayName string                    `json:"displayName" validate:"required"`
}

type AnswerPayload struct {
	RoomID       string                    `json:"roomId" validate:"required"`
	Answer       webrtc.SessionDescription `json:"answer" validate:"required"`
	TargetConnID string                    `json:"targetConnId" validate:"required"`
}

type ICECandidatePayload struct {
	RoomID    string                  `json:"roomId" validate:"required"`
	Candidate webrtc.ICECandidateInit `json:"candidate" validate:"required"`
}

type EndCallPayload struct {
	RoomID      string `json:"roomId" validate:"required"`
	DisplayName string `json:"displayName"`
}

// Outbound payloads.

// RosterNotice announces a join to every room member, the joiner included.
type RosterNotice struct {
	Members     []domain.Participant `json:"members"`
	DisplayName string               `json:"displayName"`
	ConnID      domain.ConnID        `json:"connId"`
}

type DepartureNotice struct {
	ConnID      domain.ConnID `json:"connId"`
	DisplayName string        `json:"displayName"`
}

type SyncCode struct {
	Code          string `json:"code"`
	IsInitialSync bool   `json:"isInitialSync,omitempty"`
}

type CallOfferNotice struct {
	Offer       webrtc.SessionDescription `json:"offer"`
	DisplayName string                    `json:"displayName"`
	ConnID      domain.ConnID             `json:"connId"`
}

type CallAnswerNotice struct {
	Answer webrtc.SessionDescription `json:"answer"`
	ConnID domain.ConnID             `json:"connId"`
}

type CallCandidateNotice struct {
	Candidate webrtc.ICECandidateInit `json:"candidate"`
	ConnID    domain.ConnID           `json:"connId"`
}

type CallEndNotice struct {
	ConnID      domain.ConnID `json:"connId"`
	DisplayName string        `json:"displayName"`
}

// DefaultICEServers is the STUN set advertised to clients for establishing
// their peer connections. The relay itself never dials them.
var DefaultICEServers = []webrtc.ICEServer{
	{
		URLs: []string{
			"stun:stun1.l.google.com:19302",
			"stun:stun2.l.google.com:19302",
		},
	},
}
