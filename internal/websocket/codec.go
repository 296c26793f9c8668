package websocket

import (
	"encoding/json"
	"errors"
	"fmt"

	"livechat-backend/internal/chat"
)

// Wire format: {"type": "...", "data": {...}}. Inbound frames decode into the
// closed Inbound union below so every handler switch is checked at compile
// time; there is no string-keyed handler table to drift out of sync.

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	inSendMessage  = "send_message"
	inTypingStart  = "typing_start"
	inTypingStop   = "typing_stop"
	inAssignToMe   = "assign_to_me"
	inCloseChat    = "close_chat"
	inStartNewChat = "start_new_chat"
)

var errUnknownEvent = errors.New("websocket: unknown event type")

type Inbound interface {
	isInbound()
}

// SendMessageRequest carries {text} from visitors and {roomId, text} from
// agents.
type SendMessageRequest struct {
	RoomID string `json:"roomId,omitempty"`
	Text   string `json:"text"`
}

// TypingSignal is decoded from both typing_start and typing_stop.
type TypingSignal struct {
	RoomID string `json:"roomId,omitempty"`
	Typing bool   `json:"-"`
}

type AssignRequest struct {
	RoomID string `json:"roomId"`
}

type CloseRequest struct {
	RoomID string `json:"roomId"`
}

type StartNewChatRequest struct{}

func (SendMessageRequest) isInbound()  {}
func (TypingSignal) isInbound()        {}
func (AssignRequest) isInbound()       {}
func (CloseRequest) isInbound()        {}
func (StartNewChatRequest) isInbound() {}

func decodeInbound(raw []byte) (Inbound, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("websocket: decode frame: %w", err)
	}

	switch f.Type {
	case inSendMessage:
		var req SendMessageRequest
		if err := unmarshalData(f.Data, &req); err != nil {
			return nil, err
		}
		return req, nil
	case inTypingStart, inTypingStop:
		var sig TypingSignal
		if err := unmarshalData(f.Data, &sig); err != nil {
			return nil, err
		}
		sig.Typing = f.Type == inTypingStart
		return sig, nil
	case inAssignToMe:
		var req AssignRequest
		if err := unmarshalData(f.Data, &req); err != nil {
			return nil, err
		}
		return req, nil
	case inCloseChat:
		var req CloseRequest
		if err := unmarshalData(f.Data, &req); err != nil {
			return nil, err
		}
		return req, nil
	case inStartNewChat:
		return StartNewChatRequest{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownEvent, f.Type)
	}
}

func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("websocket: decode payload: %w", err)
	}
	return nil
}

func encodeEvent(event chat.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("websocket: encode %s: %w", event.EventName(), err)
	}
	return json.Marshal(frame{Type: event.EventName(), Data: data})
}
