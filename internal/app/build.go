package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ent0n29/convo/internal/chat"
	"github.com/ent0n29/convo/internal/config"
	"github.com/ent0n29/convo/internal/fallback"
	"github.com/ent0n29/convo/internal/httpapi"
	"github.com/ent0n29/convo/internal/nlu"
	"github.com/ent0n29/convo/internal/observability"
	"github.com/ent0n29/convo/internal/session"
)

type BuildResult struct {
	Config   config.Config
	API      *httpapi.Server
	Gateway  *nlu.Client
	Sessions *httpapi.Sessions
	Metrics  *observability.Metrics
	Registry *prometheus.Registry

	// Cleanup should be called on shutdown.
	Cleanup func() error
}

// Build wires the chat service from cfg. The gateway client and fallback
// responder are shared by every session; each session gets its own chat client.
func Build(_ context.Context, cfg config.Config, logger *zap.Logger) (*BuildResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(cfg.MetricsNamespace, reg)

	gateway := nlu.NewClient(nlu.Options{
		BaseURL: cfg.NLUBaseURL,
		Timeout: cfg.NLUTimeout,
		Logger:  logger,
		Metrics: metrics,
	})
	responder := fallback.NewResponder()

	sessions := session.NewManager[*chat.Client](cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(s *session.Session[*chat.Client]) {
		metrics.ObserveSessionEvent("expired", sessions.ActiveCount())
		logger.Debug("chat session expired", zap.String("session_id", s.ID))
	})

	newClient := func() *chat.Client {
		return chat.New(chat.Options{
			Gateway:   gateway,
			Fallback:  responder,
			Training:  cfg.Training,
			Logger:    logger,
			Metrics:   metrics,
		})
	}

	api := httpapi.New(cfg, httpapi.Deps{
		Sessions:  sessions,
		NewClient: newClient,
		Metrics:   metrics,
		Gatherer:  reg,
		Logger:    logger,
	})

	return &BuildResult{
		Config:   cfg,
		API:      api,
		Gateway:  gateway,
		Sessions: sessions,
		Metrics:  metrics,
		Registry: reg,
		Cleanup: func() error {
			_ = logger.Sync()
			return nil
		},
	}, nil
}

// NewClient builds a standalone chat client against cfg, for one-shot CLI use.
func NewClient(cfg config.Config, logger *zap.Logger) *chat.Client {
	return chat.New(chat.Options{
		Gateway: nlu.NewClient(nlu.Options{
			BaseURL: cfg.NLUBaseURL,
			Timeout: cfg.NLUTimeout,
			Logger:  logger,
		}),
		Training: cfg.Training,
		Logger:   logger,
	})
}
