package chat

// Conn is the push side of one live connection. The transport layer owns the
// implementation; the core only ever fans events out through this interface.
type Conn interface {
	Send(event Event)
}

// Event is the closed set of server-to-client frames. Every variant carries
// its wire name so the codec never needs a name-to-type lookup table.
type Event interface {
	EventName() string
}

// ChatHistoryEvent replays a room's full message log. Room is populated on
// the agent side so dashboards get assignment state along with the history;
// visitor replays carry messages only.
type ChatHistoryEvent struct {
	RoomID   string    `json:"roomId"`
	Messages []Message `json:"messages"`
	Room     *Room     `json:"room,omitempty"`
}

type AdminStatusEvent struct {
	IsOnline bool `json:"isOnline"`
}

// NewCustomerEvent announces a room that just became visible to agents,
// i.e. the first visitor message arrived.
type NewCustomerEvent struct {
	Room    Room    `json:"room"`
	Message Message `json:"message"`
}

// CustomerMessageEvent carries follow-up visitor messages to agents.
type CustomerMessageEvent struct {
	Room    Room    `json:"room"`
	Message Message `json:"message"`
}

type ChatMessageEvent struct {
	Message Message `json:"message"`
}

type CustomerTypingEvent struct {
	RoomID string `json:"roomId"`
	Typing bool   `json:"typing"`
}

type AgentTypingEvent struct {
	Typing bool `json:"typing"`
}

type AgentJoinedEvent struct {
	AgentName string `json:"agentName"`
	Message   string `json:"message"`
}

type RoomAssignedEvent struct {
	RoomID    string `json:"roomId"`
	AgentID   string `json:"agentId"`
	AgentName string `json:"agentName"`
}

type ChatEndedEvent struct {
	Message string `json:"message"`
}

type ChatClosedEvent struct {
	RoomID string `json:"roomId"`
}

type RoomUnassignedEvent struct {
	RoomID string `json:"roomId"`
}

type RoomCreatedEvent struct {
	RoomID string `json:"roomId"`
}

func (ChatHistoryEvent) EventName() string     { return "chat_history" }
func (AdminStatusEvent) EventName() string     { return "admin_status" }
func (NewCustomerEvent) EventName() string     { return "new_customer" }
func (CustomerMessageEvent) EventName() string { return "customer_message" }
func (ChatMessageEvent) EventName() string     { return "chat_message" }
func (CustomerTypingEvent) EventName() string  { return "customer_typing" }
func (AgentTypingEvent) EventName() string     { return "agent_typing" }
func (AgentJoinedEvent) EventName() string     { return "agent_joined" }
func (RoomAssignedEvent) EventName() string    { return "room_assigned" }
func (ChatEndedEvent) EventName() string       { return "chat_ended" }
func (ChatClosedEvent) EventName() string      { return "chat_closed" }
func (RoomUnassignedEvent) EventName() string  { return "room_unassigned" }
func (RoomCreatedEvent) EventName() string     { return "room_created" }
