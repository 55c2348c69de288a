// Package chat is the entry point the UI layer talks to. It forwards chat
// messages to the NLU gateway and substitutes the local fallback responder
// whenever the gateway cannot answer.
package chat

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ent0n29/convo/internal/enrich"
	"github.com/ent0n29/convo/internal/fallback"
	"github.com/ent0n29/convo/internal/nlu"
	"github.com/ent0n29/convo/internal/observability"
	"github.com/ent0n29/convo/internal/policy"
	"github.com/ent0n29/convo/internal/session"
)

const defaultSender = "user"

// Gateway is the remote NLU backend as seen by Client.
type Gateway interface {
	Send(ctx context.Context, msg nlu.Message) ([]nlu.Response, error)
	Status(ctx context.Context, sessionID string) bool
	Train(ctx context.Context, sessionID string, req nlu.TrainRequest) bool
	Parse(ctx context.Context, sessionID, text string) (nlu.ParseResult, error)
}

// Responder produces replies for a message. The fallback tier implements it.
type Responder interface {
	Respond(ctx context.Context, text, sender string) ([]nlu.Response, error)
}

// Options configures a Client. Gateway is required.
type Options struct {
	Gateway   Gateway
	Fallback  Responder
	Training  nlu.TrainRequest
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	// SessionID overrides the generated id. Used by tests.
	SessionID string
	Now       func() time.Time
}

// Client owns one session for its whole lifetime. It is safe for concurrent
// use; calls share nothing but the immutable session id. Whether a call is
// served by the gateway or the fallback is decided per call.
type Client struct {
	sessionID string
	gateway   Gateway
	fallback  Responder
	training  nlu.TrainRequest
	logger    *zap.Logger
	metrics   *observability.Metrics
	now       func() time.Time
}

func New(opts Options) *Client {
	id := opts.SessionID
	if id == "" {
		id = session.NewID()
	}
	fb := opts.Fallback
	if fb == nil {
		fb = fallback.NewResponder()
	}
	train := opts.Training
	if train.Domain == "" && train.Config == "" && len(train.TrainingFiles) == 0 {
		train = nlu.DefaultTrainRequest()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		sessionID: id,
		gateway:   opts.Gateway,
		fallback:  fb,
		training:  train,
		logger:    logger.Named("chat").With(zap.String("session_id", id)),
		metrics:   opts.Metrics,
		now:       now,
	}
}

func (c *Client) SessionID() string { return c.sessionID }

// SendMessage returns the gateway's replies for text, or the fallback
// responder's reply when the gateway is unavailable. The only error returned
// is the caller's own context being done.
func (c *Client) SendMessage(ctx context.Context, text, sender string) ([]nlu.Response, error) {
	return c.send(ctx, text, text, sender)
}

// ContextualResponse enriches text with the trailing history and preferences
// before sending it. A fallback reply is computed from the original text.
func (c *Client) ContextualResponse(ctx context.Context, text string, history []enrich.Turn, prefs *enrich.Preferences) ([]nlu.Response, error) {
	return c.send(ctx, enrich.Message(text, history, prefs), text, defaultSender)
}

func (c *Client) send(ctx context.Context, outbound, original, sender string) ([]nlu.Response, error) {
	if sender == "" {
		sender = defaultSender
	}
	msg := nlu.NewMessage(outbound, sender, c.sessionID, c.now())
	resp, err := c.gateway.Send(ctx, msg)
	if err == nil {
		return resp, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if !errors.Is(err, nlu.ErrGatewayUnavailable) {
		c.logger.Warn("unexpected gateway error, treating as unavailable", zap.Error(err))
	}

	intent := fallback.Classify(original)
	c.metrics.ObserveFallback(intent.Name)
	c.logger.Info("serving fallback reply",
		zap.String("intent", intent.Name),
		zap.String("text", policy.LogText(original)),
	)
	return c.fallback.Respond(ctx, original, sender)
}

// IntentConfidence asks the gateway to classify text and falls back to the
// local keyword rules on failure.
func (c *Client) IntentConfidence(ctx context.Context, text string) nlu.Intent {
	parsed, err := c.gateway.Parse(ctx, c.sessionID, text)
	if err != nil {
		return fallback.Classify(text)
	}
	out := nlu.Intent{Name: fallback.IntentOutOfScope}
	if parsed.Intent != nil {
		if parsed.Intent.Name != "" {
			out.Name = parsed.Intent.Name
		}
		out.Confidence = clamp01(parsed.Intent.Confidence)
	}
	return out
}

// Entities returns the entities the gateway extracts from text, or none on failure.
func (c *Client) Entities(ctx context.Context, text string) []nlu.Entity {
	parsed, err := c.gateway.Parse(ctx, c.sessionID, text)
	if err != nil || parsed.Entities == nil {
		return []nlu.Entity{}
	}
	return parsed.Entities
}

func (c *Client) ModelStatus(ctx context.Context) bool {
	return c.gateway.Status(ctx, c.sessionID)
}

func (c *Client) TrainModel(ctx context.Context) bool {
	return c.gateway.Train(ctx, c.sessionID, c.training)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || v != v:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
