package chat

import (
	"time"

	"github.com/google/uuid"
)

type Sender string

const (
	SenderVisitor Sender = "visitor"
	SenderAgent   Sender = "agent"
)

// Message is immutable once ingested. Timestamps are always assigned by the
// server, never taken from the client payload.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	RoomID    string    `json:"roomId"`
	AgentID   string    `json:"agentId,omitempty"`
}

func newMessage(roomID, text string, sender Sender, agentID string, at time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		Timestamp: at,
		RoomID:    roomID,
		AgentID:   agentID,
	}
}
