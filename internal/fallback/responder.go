package fallback

import (
	"context"

	"github.com/ent0n29/convo/internal/nlu"
)

// Responder is the local stand-in for the NLU backend. It is stateless and
// never fails.
type Responder struct{}

func NewResponder() *Responder { return &Responder{} }

// Respond returns exactly one reply addressed to sender.
func (Responder) Respond(_ context.Context, text, sender string) ([]nlu.Response, error) {
	if sender == "" {
		sender = "user"
	}
	r := Match(text)
	resp := nlu.Response{
		RecipientID: sender,
		Text:        r.Reply,
	}
	if len(r.Buttons) > 0 {
		resp.Buttons = append([]nlu.Button(nil), r.Buttons...)
	}
	return []nlu.Response{resp}, nil
}

// Classify infers the intent with the same rules Respond uses.
func Classify(text string) nlu.Intent {
	r := Match(text)
	return nlu.Intent{Name: r.Intent, Confidence: r.Confidence}
}
