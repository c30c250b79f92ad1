package domain

import (
	"errors"
	"strings"
)

const MaxDisplayNameLen = 64

var (
	ErrDisplayNameEmpty   = errors.New("display name empty")
	ErrDisplayNameTooLong = errors.New("display name too long")
)

// Participant is a connection's identity inside a room roster.
type Participant struct {
	ConnID      ConnID `json:"connId"`
	DisplayName string `json:"displayName"`
}

// NewParticipant avoids raw literals in adapters and keeps construction obvious.
func NewParticipant(id ConnID, displayName string) (*Participant, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrDisplayNameEmpty
	}
	if len(displayName) > MaxDisplayNameLen {
		return nil, ErrDisplayNameTooLong
	}
	return &Participant{ConnID: id, DisplayName: displayName}, nil
}
