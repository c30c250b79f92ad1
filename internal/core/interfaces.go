package core

import "github.com/syncpad/syncpad/internal/domain"

// Frame is a marshaled outbound event.
type Frame []byte

// PeerLink abstracts the messaging transport of one connection.
// Owned by the adapter; the adapter must Close() it.
type PeerLink interface {
	TrySend(Frame) error
	Close()
}

// MemberSession binds a domain.Participant and its transport endpoint.
// This is what a room stores and fans out to. Meta is immutable after
// construction, so snapshot reads need no extra synchronization.
type MemberSession interface {
	Meta() *domain.Participant
	Link() PeerLink
}

// PublishResult reports delivery stats/backpressure to the coordinator.
// Delivery is at-most-once: a frame refused by a full peer buffer is gone.
type PublishResult struct {
	SentTo  int
	Dropped []MemberSession
}

// RoomState owns all mutable state of one room: the membership set, the
// latest document snapshot, the bounded chat history and the call-participant
// set. Implementations must serialize mutations per room; no ordering is
// guaranteed across rooms.
type RoomState interface {
	ID() domain.RoomID
	MemberCount() int
	MembersSnapshot() []domain.Participant

	// AddMember reports false when the room has been retired; the caller
	// must fetch a live room from the directory and try again.
	AddMember(ms MemberSession) bool
	RemoveMember(id domain.ConnID) bool

	// Retire marks an empty room dead so no member can land in it after
	// the directory forgets it. Reports false while members remain.
	Retire() bool

	Broadcast(f Frame) PublishResult
	BroadcastExcept(from domain.ConnID, f Frame) PublishResult
	Unicast(to domain.ConnID, f Frame) bool

	Snapshot() (string, bool)
	SetSnapshot(code string)

	History() []domain.Message
	AppendMessage(m domain.Message)

	AddCallParticipant(id domain.ConnID)
	RemoveCallParticipant(id domain.ConnID) bool
	InCall(id domain.ConnID) bool
	CallParticipantCount() int

	ClearState()
}

// RoomInfo is a read-only view for APIs (no transport fields).
type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"memberCount"`
}

// RoomDirectory creates rooms lazily on first reference and forgets them
// once the coordinator decides nothing references them anymore.
type RoomDirectory interface {
	GetOrCreate(id domain.RoomID) RoomState
	Get(id domain.RoomID) (RoomState, bool)
	List() []RoomInfo
	Remove(id domain.RoomID)
}
