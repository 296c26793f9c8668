package chat

// Delivery pairs one outbound event with the connection it goes to.
type Delivery struct {
	To    Conn
	Event Event
}

// Router computes fan-out sets. It holds no state of its own; every decision
// is made from the room snapshot and the current presence/visitor registries.
type Router struct {
	presence *Presence
	visitors *Visitors
}

func NewRouter(presence *Presence, visitors *Visitors) *Router {
	return &Router{presence: presence, visitors: visitors}
}

// VisitorMessage routes a freshly ingested visitor message: one echo to the
// originating visitor connection, then either the assigned agent alone or,
// while the room is unassigned, every online agent. firstMessage selects the
// new_customer announcement over the plain customer_message relay.
func (rt *Router) VisitorMessage(room Room, msg Message, origin Conn, firstMessage bool) []Delivery {
	deliveries := []Delivery{}
	if origin != nil {
		deliveries = append(deliveries, Delivery{To: origin, Event: ChatMessageEvent{Message: msg}})
	}

	var toAgents Event
	if firstMessage {
		toAgents = NewCustomerEvent{Room: room, Message: msg}
	} else {
		toAgents = CustomerMessageEvent{Room: room, Message: msg}
	}

	if room.AssignedAgent != "" {
		if conn, ok := rt.presence.AgentConn(room.AssignedAgent); ok {
			deliveries = append(deliveries, Delivery{To: conn, Event: toAgents})
		}
		return deliveries
	}
	for _, conn := range rt.presence.AgentConns() {
		deliveries = append(deliveries, Delivery{To: conn, Event: toAgents})
	}
	return deliveries
}

// AgentMessage routes an agent message: one copy to the owning visitor and
// one copy to each online agent. The sender is an online agent like any
// other, so it receives exactly one echo and never a duplicate.
func (rt *Router) AgentMessage(room Room, msg Message) []Delivery {
	deliveries := []Delivery{}
	if conn, ok := rt.visitors.Conn(room.CustomerID); ok {
		deliveries = append(deliveries, Delivery{To: conn, Event: ChatMessageEvent{Message: msg}})
	}
	for _, conn := range rt.presence.AgentConns() {
		deliveries = append(deliveries, Delivery{To: conn, Event: ChatMessageEvent{Message: msg}})
	}
	return deliveries
}

// VisitorTyping relays the ephemeral typing flag with the same targeting as
// visitor messages, minus the echo.
func (rt *Router) VisitorTyping(room Room, typing bool) []Delivery {
	event := CustomerTypingEvent{RoomID: room.ID, Typing: typing}
	if room.AssignedAgent != "" {
		if conn, ok := rt.presence.AgentConn(room.AssignedAgent); ok {
			return []Delivery{{To: conn, Event: event}}
		}
		return nil
	}
	deliveries := []Delivery{}
	for _, conn := range rt.presence.AgentConns() {
		deliveries = append(deliveries, Delivery{To: conn, Event: event})
	}
	return deliveries
}

// AgentTyping relays agent typing to the room's visitor only.
func (rt *Router) AgentTyping(room Room, typing bool) []Delivery {
	if conn, ok := rt.visitors.Conn(room.CustomerID); ok {
		return []Delivery{{To: conn, Event: AgentTypingEvent{Typing: typing}}}
	}
	return nil
}

// PresenceChanged broadcasts the support online/offline flip to every
// connected visitor.
func (rt *Router) PresenceChanged(online bool) []Delivery {
	deliveries := []Delivery{}
	for _, conn := range rt.visitors.Conns() {
		deliveries = append(deliveries, Delivery{To: conn, Event: AdminStatusEvent{IsOnline: online}})
	}
	return deliveries
}

// RoomAssigned notifies the visitor that an agent joined and tells every
// agent dashboard the room is taken.
func (rt *Router) RoomAssigned(room Room, agent AgentInfo, joinText string) []Delivery {
	deliveries := []Delivery{}
	if conn, ok := rt.visitors.Conn(room.CustomerID); ok {
		deliveries = append(deliveries, Delivery{To: conn, Event: AgentJoinedEvent{AgentName: agent.Name, Message: joinText}})
	}
	for _, conn := range rt.presence.AgentConns() {
		deliveries = append(deliveries, Delivery{To: conn, Event: RoomAssignedEvent{RoomID: room.ID, AgentID: agent.ID, AgentName: agent.Name}})
	}
	return deliveries
}

// RoomClosed notifies the visitor the chat ended and tells every agent the
// room left the active set.
func (rt *Router) RoomClosed(room Room, endText string) []Delivery {
	deliveries := []Delivery{}
	if conn, ok := rt.visitors.Conn(room.CustomerID); ok {
		deliveries = append(deliveries, Delivery{To: conn, Event: ChatEndedEvent{Message: endText}})
	}
	for _, conn := range rt.presence.AgentConns() {
		deliveries = append(deliveries, Delivery{To: conn, Event: ChatClosedEvent{RoomID: room.ID}})
	}
	return deliveries
}

// RoomUnassigned tells every agent a room fell back to waiting after its
// holder disconnected.
func (rt *Router) RoomUnassigned(room Room) []Delivery {
	deliveries := []Delivery{}
	for _, conn := range rt.presence.AgentConns() {
		deliveries = append(deliveries, Delivery{To: conn, Event: RoomUnassignedEvent{RoomID: room.ID}})
	}
	return deliveries
}
