package websocket

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"livechat-backend/internal/agenttoken"
	"livechat-backend/internal/chat"
)

// EventMirror receives a copy of room-scoped outbound events, best effort.
type EventMirror interface {
	Publish(roomID string, event chat.Event)
}

// Gateway owns the websocket endpoint. It upgrades connections, decides the
// visitor vs agent handling path from the handshake and runs one session per
// connection. All room and presence state lives in the injected stores.
type Gateway struct {
	store    *chat.Store
	presence *chat.Presence
	visitors *chat.Visitors
	router   *chat.Router
	tokens   *agenttoken.Parser
	mirror   EventMirror
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewGateway(
	store *chat.Store,
	presence *chat.Presence,
	visitors *chat.Visitors,
	router *chat.Router,
	tokens *agenttoken.Parser,
	mirror EventMirror,
	log *zap.Logger,
) *Gateway {
	return &Gateway{
		store:    store,
		presence: presence,
		visitors: visitors,
		router:   router,
		tokens:   tokens,
		mirror:   mirror,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeWS is the connect handshake. Query parameters select the path:
// role=agent with an optional identity token (or agentId/agentName fallback),
// anything else is a visitor, optionally resuming visitorId/roomId.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()
	isAdmin := query.Get("role") == "agent" || query.Get("isAdmin") == "true"

	var agentID, agentName string
	if isAdmin {
		agentID, agentName = g.agentIdentity(query.Get("token"), query.Get("agentId"), query.Get("agentName"))
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}

	if isAdmin {
		g.startAgent(conn, agentID, agentName)
		return nil
	}

	customerID := query.Get("visitorId")
	if customerID == "" {
		customerID = uuid.NewString()
	}
	g.startVisitor(conn, customerID, query.Get("roomId"))
	return nil
}

// agentIdentity resolves who the agent is. A signed token from the external
// auth system wins; otherwise the explicit query parameters are trusted, and
// with neither the connection id stands in.
func (g *Gateway) agentIdentity(token, fallbackID, fallbackName string) (string, string) {
	if token != "" && g.tokens != nil {
		identity, err := g.tokens.Parse(token)
		if err == nil {
			return identity.ID, identity.Name
		}
		g.log.Warn("invalid agent token, falling back to query identity", zap.Error(err))
	}

	id := fallbackID
	if id == "" {
		id = uuid.NewString()
	}
	name := fallbackName
	if name == "" {
		name = "Support"
	}
	return id, name
}

func (g *Gateway) deliver(deliveries []chat.Delivery) {
	for _, d := range deliveries {
		d.To.Send(d.Event)
	}
}

func (g *Gateway) mirrorEvent(roomID string, event chat.Event) {
	if g.mirror != nil {
		g.mirror.Publish(roomID, event)
	}
}
