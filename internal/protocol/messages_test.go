package protocol

import (
	"errors"
	"testing"

	"github.com/ent0n29/convo/internal/chat"
	"github.com/ent0n29/convo/internal/nlu"
)

func TestParseClientMessageUserMessage(t *testing.T) {
	raw := []byte(`{"type":"user_message","text":"hi there","preferences":{"industry":"retail"}}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}

	um, ok := msg.(UserMessage)
	if !ok {
		t.Fatalf("message type = %T, want UserMessage", msg)
	}
	if um.Text != "hi there" || um.Preferences == nil || um.Preferences.Industry != "retail" {
		t.Fatalf("unexpected user message: %+v", um)
	}
}

func TestParseClientMessageRejectsEmptyText(t *testing.T) {
	if _, err := ParseClientMessage([]byte(`{"type":"user_message","text":"   "}`)); err == nil {
		t.Fatalf("ParseClientMessage() expected error for blank text")
	}
}

func TestParseClientMessageRejectsUnknownType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"wat"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseClientMessageRejectsGarbage(t *testing.T) {
	if _, err := ParseClientMessage([]byte(`not json`)); err == nil {
		t.Fatalf("ParseClientMessage() expected error for invalid JSON")
	}
}

func TestNewBotTurn(t *testing.T) {
	turn := NewBotTurn("s1", "t1", chat.TurnResult{
		Intent:      nlu.Intent{Name: "greet", Confidence: 0.8},
		Sentiment:   chat.SentimentNeutral,
		Responses:   []nlu.Response{{RecipientID: "user", Text: "Hello!"}},
		Suggestions: []string{},
	})
	if turn.Type != TypeBotTurn || turn.Intent != "greet" || turn.Confidence != 0.8 {
		t.Fatalf("unexpected bot turn: %+v", turn)
	}
	if got, ok := MessageTypeOf(turn); !ok || got != TypeBotTurn {
		t.Fatalf("MessageTypeOf() = %q, %v", got, ok)
	}
	if _, ok := MessageTypeOf(42); ok {
		t.Fatalf("MessageTypeOf(int) should be false")
	}
}
