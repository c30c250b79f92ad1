package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/syncpad/syncpad/internal/domain"
)

// roomState is a threadsafe in-memory room. One RWMutex guards membership,
// the document snapshot, the chat history and the call-participant set, so
// every mutation of a room is serialized. It never closes adapter-owned
// transport resources.
type roomState struct {
	id         domain.RoomID
	historyCap int

	mu          sync.RWMutex
	members     map[domain.ConnID]MemberSession
	retired     bool
	snapshot    string
	hasSnapshot bool
	history     []domain.Message
	calls       map[domain.ConnID]struct{}
}

func NewRoomState(id domain.RoomID, historyCap int) RoomState {
	return &roomState{
		id:         id,
		historyCap: historyCap,
		members:    make(map[domain.ConnID]MemberSession),
		calls:      make(map[domain.ConnID]struct{}),
	}
}

func (r *roomState) ID() domain.RoomID { return r.id }

func (r *roomState) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *roomState) MembersSnapshot() []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Participant, 0, len(r.members))
	for _, ms := range r.members {
		out = append(out, *ms.Meta())
	}
	return out
}

func (r *roomState) AddMember(ms MemberSession) bool {
	id := ms.Meta().ConnID
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.retired {
		return false
	}
	r.members[id] = ms
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("conn", string(id)).Msg("member added")
	return true
}

// Retire and AddMember serialize on the room mutex: whichever wins, a member
// either blocks the retirement or lands in a room the directory still holds.
func (r *roomState) Retire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.members) > 0 {
		return false
	}
	r.retired = true
	return true
}

func (r *roomState) RemoveMember(id domain.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; !ok {
		return false
	}
	delete(r.members, id)
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("conn", string(id)).Msg("member removed")
	return true
}

func (r *roomState) Broadcast(f Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fanOut("", false, f)
}

func (r *roomState) BroadcastExcept(from domain.ConnID, f Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fanOut(from, true, f)
}

// fanOut must be called with at least the read lock held.
func (r *roomState) fanOut(skip domain.ConnID, exclude bool, f Frame) PublishResult {
	res := PublishResult{}
	for id, ms := range r.members {
		if exclude && id == skip {
			continue
		}
		if err := ms.Link().TrySend(f); err != nil {
			res.Dropped = append(res.Dropped, ms)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.id)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("fan-out")
	return res
}

func (r *roomState) Unicast(to domain.ConnID, f Frame) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ms, ok := r.members[to]
	if !ok {
		return false
	}
	if err := ms.Link().TrySend(f); err != nil {
		log.Debug().Str("module", "core.room").Str("room", string(r.id)).Str("conn", string(to)).Msg("unicast dropped")
		return false
	}
	return true
}

func (r *roomState) Snapshot() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot, r.hasSnapshot
}

// SetSnapshot is last-write-wins: the previous snapshot is discarded whole.
func (r *roomState) SetSnapshot(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot = code
	r.hasSnapshot = true
}

func (r *roomState) History() []domain.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Message, len(r.history))
	copy(out, r.history)
	return out
}

// AppendMessage keeps insertion order and evicts the oldest entry once the
// history exceeds its capacity.
func (r *roomState) AppendMessage(m domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, m)
	if len(r.history) > r.historyCap {
		r.history = r.history[len(r.history)-r.historyCap:]
	}
}

func (r *roomState) AddCallParticipant(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[id] = struct{}{}
}

func (r *roomState) RemoveCallParticipant(id domain.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calls[id]; !ok {
		return false
	}
	delete(r.calls, id)
	return true
}

func (r *roomState) InCall(id domain.ConnID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.calls[id]
	return ok
}

func (r *roomState) CallParticipantCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.calls)
}

// ClearState drops the snapshot, the chat history and the call-participant
// set. Membership is untouched; the room keeps existing while referenced.
func (r *roomState) ClearState() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot = ""
	r.hasSnapshot = false
	r.history = nil
	r.calls = make(map[domain.ConnID]struct{})
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Msg("room state cleared")
}
