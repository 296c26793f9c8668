package websocket

import (
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"livechat-backend/internal/chat"
)

// visitorSession handles one visitor connection for its whole lifetime. The
// session owns exactly one live room at a time; "start new chat" swaps it.
type visitorSession struct {
	g          *Gateway
	conn       chat.Conn
	customerID string
	roomID     string
}

func (g *Gateway) startVisitor(conn *websocket.Conn, customerID, resumeRoomID string) {
	cl := newClient(conn, customerID, "visitor", g.log)
	s := g.attachVisitor(cl, customerID, resumeRoomID)

	go cl.keepAlive()
	go cl.writePump()
	go cl.readPump(s.handle, s.close)
}

// attachVisitor performs the connect handshake: register the connection,
// create or resume the room, replay history and report presence.
func (g *Gateway) attachVisitor(conn chat.Conn, customerID, resumeRoomID string) *visitorSession {
	s := &visitorSession{g: g, conn: conn, customerID: customerID}

	g.visitors.Register(customerID, conn)
	incConnections("visitor")

	room, resumed := g.resumeRoom(customerID, resumeRoomID)
	if !resumed {
		room = g.store.CreateRoom(customerID)
		conn.Send(chat.RoomCreatedEvent{RoomID: room.ID})
	}
	s.roomID = room.ID

	conn.Send(chat.ChatHistoryEvent{RoomID: room.ID, Messages: room.Messages})
	conn.Send(chat.AdminStatusEvent{IsOnline: g.presence.AnyAgentOnline()})
	setRooms(g.store.Len())

	g.log.Info("visitor connected",
		zap.String("customerId", customerID),
		zap.String("roomId", room.ID),
		zap.Bool("resumed", resumed))
	return s
}

// resumeRoom reattaches a reconnecting visitor to its previous room when it
// still exists, still belongs to them and has not been closed.
func (g *Gateway) resumeRoom(customerID, roomID string) (chat.Room, bool) {
	if roomID == "" {
		return chat.Room{}, false
	}
	room, ok := g.store.Get(roomID)
	if !ok || room.CustomerID != customerID || room.Status == chat.StatusClosed {
		return chat.Room{}, false
	}
	return g.store.VisitorOnline(roomID)
}

func (s *visitorSession) handle(in Inbound) {
	g := s.g
	switch in := in.(type) {
	case SendMessageRequest:
		msg, firstMessage, err := g.store.VisitorMessage(s.roomID, in.Text)
		if err != nil {
			g.log.Debug("visitor message rejected", zap.String("roomId", s.roomID), zap.Error(err))
			return
		}
		room, ok := g.store.Get(s.roomID)
		if !ok {
			return
		}
		g.deliver(g.router.VisitorMessage(room, msg, s.conn, firstMessage))
		g.mirrorEvent(room.ID, chat.ChatMessageEvent{Message: msg})

	case TypingSignal:
		room, ok := g.store.Get(s.roomID)
		if !ok {
			return
		}
		g.deliver(g.router.VisitorTyping(room, in.Typing))

	case StartNewChatRequest:
		// Only an uncommitted room may be discarded; a conversation the
		// visitor already wrote into stays available to agents.
		g.store.DiscardIfUncommitted(s.roomID)
		room := g.store.CreateRoom(s.customerID)
		s.roomID = room.ID
		s.conn.Send(chat.RoomCreatedEvent{RoomID: room.ID})
		s.conn.Send(chat.ChatHistoryEvent{RoomID: room.ID, Messages: room.Messages})
		setRooms(g.store.Len())

	case AssignRequest, CloseRequest:
		// Agent-only operations; visitors cannot claim or close rooms.
	}
}

func (s *visitorSession) close() {
	g := s.g
	g.visitors.Unregister(s.customerID, s.conn)

	// Skip the offline mark when the visitor already reconnected on a fresh
	// connection; the new session owns the room now.
	if _, stillConnected := g.visitors.Conn(s.customerID); !stillConnected {
		g.store.VisitorOffline(s.roomID)
	}

	decConnections("visitor")
	setRooms(g.store.Len())
	g.log.Info("visitor disconnected",
		zap.String("customerId", s.customerID),
		zap.String("roomId", s.roomID))
}
