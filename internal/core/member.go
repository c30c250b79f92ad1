package core

import "github.com/syncpad/syncpad/internal/domain"

// memberSession implements MemberSession by pairing meta + transport.
type memberSession struct {
	meta *domain.Participant
	link PeerLink
}

func NewMemberSession(meta *domain.Participant, link PeerLink) MemberSession {
	return &memberSession{meta: meta, link: link}
}

func (m *memberSession) Meta() *domain.Participant { return m.meta }
func (m *memberSession) Link() PeerLink            { return m.link }
