package ticketing

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// EventSummary is the non-sensitive part of an event embedded in a ticket.
type EventSummary struct {
	ID   uuid.UUID
	Name string
}

// ParticipantSummary is what the participant chose to print on the ticket.
type ParticipantSummary struct {
	ID         uuid.UUID
	Name       string
	Email      string
	Profession string
}

// Payload is the text carried inside the QR image. It is a display and
// debugging aid only: check-in always re-reads the stored ticket by token.
type Payload struct {
	Token       string        `json:"token"`
	EventID     uuid.UUID     `json:"eventId"`
	UserID      uuid.UUID     `json:"userId"`
	EventName   string        `json:"eventName"`
	Participant PayloadPerson `json:"participant"`
}

type PayloadPerson struct {
	Name       string `json:"nom"`
	Email      string `json:"email"`
	Profession string `json:"profession"`
}

// NewPayload assembles the payload for a token and its context.
func NewPayload(token string, event EventSummary, participant ParticipantSummary) Payload {
	return Payload{
		Token:     token,
		EventID:   event.ID,
		UserID:    participant.ID,
		EventName: event.Name,
		Participant: PayloadPerson{
			Name:       participant.Name,
			Email:      participant.Email,
			Profession: participant.Profession,
		},
	}
}

// EncodePayload serializes p. Field order is fixed by the struct so equal
// payloads always produce identical text.
func EncodePayload(p Payload) (string, error) {
	if p.Token == "" {
		return "", errors.New("payload token is required")
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(raw), nil
}

// DecodePayload parses text produced by EncodePayload.
func DecodePayload(text string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return Payload{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	if p.Token == "" {
		return Payload{}, errors.New("payload has no token")
	}
	return p, nil
}
