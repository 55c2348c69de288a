package chat

import (
	"context"

	"github.com/ent0n29/convo/internal/enrich"
	"github.com/ent0n29/convo/internal/nlu"
)

// TurnRequest is one user message plus the context the UI holds for it.
type TurnRequest struct {
	Text        string              `json:"text"`
	History     []enrich.Turn       `json:"history,omitempty"`
	Preferences *enrich.Preferences `json:"preferences,omitempty"`
}

// TurnResult bundles everything the UI renders for one bot turn.
type TurnResult struct {
	Intent      nlu.Intent     `json:"intent"`
	Sentiment   Sentiment      `json:"sentiment"`
	Responses   []nlu.Response `json:"responses"`
	Suggestions []string       `json:"suggestions"`
}

// ProcessTurn classifies the message, scores its sentiment, gets a contextual
// reply and picks follow-up suggestions for the detected intent.
func (c *Client) ProcessTurn(ctx context.Context, req TurnRequest) (TurnResult, error) {
	intent := c.IntentConfidence(ctx, req.Text)
	responses, err := c.ContextualResponse(ctx, req.Text, req.History, req.Preferences)
	if err != nil {
		return TurnResult{}, err
	}
	return TurnResult{
		Intent:      intent,
		Sentiment:   AnalyzeSentiment(req.Text),
		Responses:   responses,
		Suggestions: SuggestedResponses(intent.Name, intent.Confidence),
	}, nil
}
