// Package domain contains entities without logic, just meta-data.
package domain

import (
	"errors"
	"strings"
)

type (
	// RoomID is the client-chosen room identifier.
	RoomID string
	// ConnID is the transport-assigned identifier of a live connection.
	ConnID string
)

var ErrRoomIDEmpty = errors.New("room id empty")

// ValidateRoomID rejects ids that are empty after trimming. A room id has no
// existence of its own; it is only meaningful while live state references it.
func ValidateRoomID(id RoomID) error {
	if strings.TrimSpace(string(id)) == "" {
		return ErrRoomIDEmpty
	}
	return nil
}
