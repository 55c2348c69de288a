package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ent0n29/convo/internal/chat"
	"github.com/ent0n29/convo/internal/enrich"
	"github.com/ent0n29/convo/internal/nlu"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeUserMessage MessageType = "user_message"
	TypeBotTurn     MessageType = "bot_turn"
	TypeSystemEvent MessageType = "system_event"
	TypeErrorEvent  MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// UserMessage is a chat line typed by the user.
type UserMessage struct {
	Type        MessageType         `json:"type"`
	Text        string              `json:"text"`
	Sender      string              `json:"sender,omitempty"`
	Preferences *enrich.Preferences `json:"preferences,omitempty"`
}

// BotTurn carries everything the UI renders for one reply.
type BotTurn struct {
	Type        MessageType    `json:"type"`
	SessionID   string         `json:"session_id"`
	TurnID      string         `json:"turn_id"`
	Intent      string         `json:"intent"`
	Confidence  float64        `json:"confidence"`
	Sentiment   chat.Sentiment `json:"sentiment"`
	Responses   []nlu.Response `json:"responses"`
	Suggestions []string       `json:"suggestions"`
}

type SystemEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail"`
}

func NewBotTurn(sessionID, turnID string, r chat.TurnResult) BotTurn {
	return BotTurn{
		Type:        TypeBotTurn,
		SessionID:   sessionID,
		TurnID:      turnID,
		Intent:      r.Intent.Name,
		Confidence:  r.Intent.Confidence,
		Sentiment:   r.Sentiment,
		Responses:   r.Responses,
		Suggestions: r.Suggestions,
	}
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeUserMessage:
		var msg UserMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.Text) == "" {
			return nil, errors.New("invalid user_message: empty text")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}

func MessageTypeOf(v any) (MessageType, bool) {
	switch m := v.(type) {
	case UserMessage:
		return m.Type, true
	case BotTurn:
		return m.Type, true
	case SystemEvent:
		return m.Type, true
	case ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
