package websocket

import (
	"fmt"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"livechat-backend/internal/chat"
)

const chatEndedText = "This chat has been closed by the support agent."

func agentJoinedText(name string) string {
	return fmt.Sprintf("%s has joined the chat", name)
}

// agentSession handles one agent connection: presence registration, the
// active-room snapshot push on connect, and the claim/message/close commands.
type agentSession struct {
	g         *Gateway
	conn      chat.Conn
	agentID   string
	agentName string
}

func (g *Gateway) startAgent(conn *websocket.Conn, agentID, agentName string) {
	cl := newClient(conn, agentID, "agent", g.log)
	s := g.attachAgent(cl, agentID, agentName)

	go cl.keepAlive()
	go cl.writePump()
	go cl.readPump(s.handle, s.close)
}

// attachAgent performs the agent-side connect handshake: presence upsert,
// snapshot push and, when this is the first agent online, the global
// "support online" broadcast.
func (g *Gateway) attachAgent(conn chat.Conn, agentID, agentName string) *agentSession {
	s := &agentSession{g: g, conn: conn, agentID: agentID, agentName: agentName}

	firstOnline := g.presence.RegisterAgent(agentID, agentName, conn)
	incConnections("agent")

	for _, room := range g.store.ActiveRooms() {
		conn.Send(chat.ChatHistoryEvent{RoomID: room.ID, Messages: room.Messages, Room: &room})
	}
	if firstOnline {
		g.deliver(g.router.PresenceChanged(true))
	}

	g.log.Info("agent connected",
		zap.String("agentId", agentID),
		zap.String("agentName", agentName),
		zap.Bool("firstOnline", firstOnline))
	return s
}

func (s *agentSession) handle(in Inbound) {
	g := s.g
	switch in := in.(type) {
	case AssignRequest:
		room, alreadyHeld, err := g.store.AssignAgent(in.RoomID, s.agentID)
		if err != nil {
			g.log.Debug("assign rejected",
				zap.String("roomId", in.RoomID),
				zap.String("agentId", s.agentID),
				zap.Error(err))
			return
		}
		s.conn.Send(chat.ChatHistoryEvent{RoomID: room.ID, Messages: room.Messages, Room: &room})
		if alreadyHeld {
			return
		}
		agent, ok := g.presence.Agent(s.agentID)
		if !ok {
			return
		}
		g.deliver(g.router.RoomAssigned(room, agent, agentJoinedText(agent.Name)))
		g.mirrorEvent(room.ID, chat.RoomAssignedEvent{RoomID: room.ID, AgentID: agent.ID, AgentName: agent.Name})

	case SendMessageRequest:
		if in.RoomID == "" {
			return
		}
		msg, err := g.store.AgentMessage(in.RoomID, s.agentID, in.Text)
		if err != nil {
			g.log.Debug("agent message rejected",
				zap.String("roomId", in.RoomID),
				zap.String("agentId", s.agentID),
				zap.Error(err))
			return
		}
		room, ok := g.store.Get(in.RoomID)
		if !ok {
			return
		}
		g.deliver(g.router.AgentMessage(room, msg))
		g.mirrorEvent(room.ID, chat.ChatMessageEvent{Message: msg})

	case TypingSignal:
		room, ok := g.store.Get(in.RoomID)
		if !ok || room.AssignedAgent != s.agentID {
			return
		}
		g.deliver(g.router.AgentTyping(room, in.Typing))

	case CloseRequest:
		room, err := g.store.CloseRoom(in.RoomID, s.agentID)
		if err != nil {
			g.log.Debug("close rejected",
				zap.String("roomId", in.RoomID),
				zap.String("agentId", s.agentID),
				zap.Error(err))
			return
		}
		g.deliver(g.router.RoomClosed(room, chatEndedText))
		g.mirrorEvent(room.ID, chat.ChatClosedEvent{RoomID: room.ID})

	case StartNewChatRequest:
		// Visitor-only operation.
	}
}

func (s *agentSession) close() {
	g := s.g
	becameEmpty, removed := g.presence.UnregisterAgent(s.agentID, s.conn)
	if removed {
		for _, room := range g.store.UnassignAgent(s.agentID) {
			g.deliver(g.router.RoomUnassigned(room))
			g.mirrorEvent(room.ID, chat.RoomUnassignedEvent{RoomID: room.ID})
		}
	}
	if becameEmpty {
		g.deliver(g.router.PresenceChanged(false))
	}

	decConnections("agent")
	g.log.Info("agent disconnected",
		zap.String("agentId", s.agentID),
		zap.Bool("lastOnline", becameEmpty))
}
