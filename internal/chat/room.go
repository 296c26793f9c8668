package chat

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusInactive Status = "inactive"
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusClosed   Status = "closed"
)

// MaxRoomMessages bounds the per-room history. The oldest message is evicted
// first once the cap is reached.
const MaxRoomMessages = 100

// Room is a point-in-time copy of a room's state. Handlers only ever see
// copies; the mutable state stays inside the Store so the state machine
// invariants are enforced in one place.
type Room struct {
	ID                 string    `json:"id"`
	CustomerID         string    `json:"customerId"`
	Status             Status    `json:"status"`
	CreatedAt          time.Time `json:"createdAt"`
	LastActivity       time.Time `json:"lastActivity"`
	Messages           []Message `json:"messages"`
	AssignedAgent      string    `json:"assignedAgent,omitempty"`
	HasCustomerMessage bool      `json:"hasCustomerMessage"`
	VisitorOnline      bool      `json:"visitorOnline"`
}

type room struct {
	id                 string
	customerID         string
	status             Status
	createdAt          time.Time
	lastActivity       time.Time
	messages           []Message
	assignedAgent      string
	hasCustomerMessage bool
	visitorOnline      bool
}

func roomID(customerID string, at time.Time) string {
	return fmt.Sprintf("%s-%d", customerID, at.UnixNano())
}

func (r *room) append(msg Message) {
	if len(r.messages) >= MaxRoomMessages {
		r.messages = r.messages[1:]
	}
	r.messages = append(r.messages, msg)
}

func (r *room) snapshot() Room {
	messages := make([]Message, len(r.messages))
	copy(messages, r.messages)
	return Room{
		ID:                 r.id,
		CustomerID:         r.customerID,
		Status:             r.status,
		CreatedAt:          r.createdAt,
		LastActivity:       r.lastActivity,
		Messages:           messages,
		AssignedAgent:      r.assignedAgent,
		HasCustomerMessage: r.hasCustomerMessage,
		VisitorOnline:      r.visitorOnline,
	}
}
