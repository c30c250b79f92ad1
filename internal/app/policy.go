package app

import "github.com/syncpad/syncpad/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what happens to a member whose send buffer refused a frame.
type Policy interface {
	OnBackpressure(room core.RoomState, member core.MemberSession) BackpressureAction
}

// LossyPolicy accepts the loss: delivery is at-most-once and a slow receiver
// simply misses frames until its buffer drains.
type LossyPolicy struct{}

func (LossyPolicy) OnBackpressure(room core.RoomState, member core.MemberSession) BackpressureAction {
	return DropFrame
}
