package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageAudio MessageType = "audio"
)

var (
	ErrEmptyBody          = errors.New("empty message body")
	ErrMissingAudio       = errors.New("audio message without payload")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// Message is a single chat entry. Audio messages carry a base64 payload and a
// duration; their body is always empty. Timestamps are ISO-8601 in UTC.
type Message struct {
	ID           string      `json:"id"`
	Author       string      `json:"author"`
	Body         string      `json:"body"`
	Type         MessageType `json:"type"`
	AudioPayload string      `json:"audioPayload,omitempty"`
	Duration     float64     `json:"duration,omitempty"`
	Timestamp    string      `json:"timestamp"`
	OriginConnID ConnID      `json:"originConnId"`
}

func NewTextMessage(origin ConnID, author, body string) (Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Message{}, ErrEmptyBody
	}
	return Message{
		ID:           uuid.NewString(),
		Author:       author,
		Body:         body,
		Type:         MessageText,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		OriginConnID: origin,
	}, nil
}

func NewAudioMessage(origin ConnID, author, audioPayload string, duration float64) (Message, error) {
	if audioPayload == "" {
		return Message{}, ErrMissingAudio
	}
	return Message{
		ID:           uuid.NewString(),
		Author:       author,
		Type:         MessageAudio,
		AudioPayload: audioPayload,
		Duration:     duration,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		OriginConnID: origin,
	}, nil
}
