package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"livechat-backend/internal/chat"
)

// client wraps one websocket connection with a buffered outbound channel, a
// keepalive pinger and a single writer goroutine. It implements chat.Conn, so
// the core can push events without knowing about the transport.
type client struct {
	conn     *websocket.Conn
	outbound chan []byte
	id       string
	role     string
	log      *zap.Logger
	done     chan struct{} // Signal for coordinating goroutine shutdown
	mu       sync.Mutex    // Mutex for connection access
	isClosed bool
}

func newClient(conn *websocket.Conn, id, role string, log *zap.Logger) *client {
	return &client{
		conn:     conn,
		outbound: make(chan []byte, 32),
		id:       id,
		role:     role,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Send queues one event for delivery. Delivery is best effort: a client that
// cannot drain its buffer loses the frame rather than stalling the router.
func (cl *client) Send(event chat.Event) {
	data, err := encodeEvent(event)
	if err != nil {
		cl.log.Error("encode outbound event", zap.String("client", cl.id), zap.Error(err))
		return
	}

	select {
	case <-cl.done:
	case cl.outbound <- data:
		addDelivered(event.EventName())
	default:
		cl.log.Warn("outbound buffer full, dropping frame",
			zap.String("client", cl.id),
			zap.String("event", event.EventName()))
		addDropped(event.EventName())
	}
}

func (cl *client) keepAlive() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case <-ticker.C:
			cl.mu.Lock()
			if cl.isClosed {
				cl.mu.Unlock()
				return
			}
			err := cl.conn.WriteMessage(websocket.PingMessage, nil)
			cl.mu.Unlock()

			if err != nil {
				cl.log.Debug("ping failed", zap.String("client", cl.id), zap.Error(err))
				return
			}
		}
	}
}

func (cl *client) writePump() {
	defer func() {
		cl.mu.Lock()
		cl.isClosed = true
		cl.conn.Close()
		cl.mu.Unlock()
	}()

	for {
		select {
		case <-cl.done:
			return
		case data, ok := <-cl.outbound:
			if !ok {
				return
			}

			cl.mu.Lock()
			if cl.isClosed {
				cl.mu.Unlock()
				return
			}
			err := cl.conn.WriteMessage(websocket.TextMessage, data)
			cl.mu.Unlock()

			if err != nil {
				cl.log.Debug("write failed", zap.String("client", cl.id), zap.Error(err))
				return
			}
		}
	}
}

// readPump drives the session: every decoded frame goes through handle, and
// onClose runs exactly once when the connection dies for any reason.
func (cl *client) readPump(handle func(Inbound), onClose func()) {
	defer func() {
		if r := recover(); r != nil {
			cl.log.Error("recovered from panic in readPump", zap.String("client", cl.id), zap.Any("panic", r))
		}

		close(cl.done)
		onClose()
	}()

	cl.conn.SetReadLimit(64 * 1024)

	for {
		_, raw, err := cl.conn.ReadMessage()
		if err != nil {
			if closeErr, ok := err.(*websocket.CloseError); ok {
				if closeErr.Code == websocket.CloseNormalClosure ||
					closeErr.Code == websocket.CloseGoingAway ||
					closeErr.Code == websocket.CloseNoStatusReceived {
					break
				}
			}
			cl.log.Debug("read failed", zap.String("client", cl.id), zap.Error(err))
			break
		}

		in, err := decodeInbound(raw)
		if err != nil {
			// Unknown or malformed frames are dropped, not answered.
			cl.log.Debug("dropping inbound frame", zap.String("client", cl.id), zap.Error(err))
			continue
		}
		handle(in)
	}
}
