package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ent0n29/convo/internal/chat"
	"github.com/ent0n29/convo/internal/config"
	"github.com/ent0n29/convo/internal/enrich"
	"github.com/ent0n29/convo/internal/observability"
	"github.com/ent0n29/convo/internal/session"
)

// Sessions is the registry of live chat clients.
type Sessions = session.Manager[*chat.Client]

// Deps groups what the server needs beyond its config.
type Deps struct {
	Sessions *Sessions
	// NewClient builds a chat client with a fresh session id.
	NewClient func() *chat.Client
	Metrics   *observability.Metrics
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger
}

type Server struct {
	cfg       config.Config
	sessions  *Sessions
	newClient func() *chat.Client
	metrics   *observability.Metrics
	gatherer  prometheus.Gatherer
	logger    *zap.Logger
	upgrader  websocket.Upgrader
}

func New(cfg config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:       cfg,
		sessions:  deps.Sessions,
		newClient: deps.NewClient,
		metrics:   deps.Metrics,
		gatherer:  deps.Gatherer,
		logger:    logger.Named("httpapi"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler(s.gatherer).ServeHTTP(w, r)
	})

	r.Route("/v1/chat", func(r chi.Router) {
		r.Post("/session", s.handleCreateSession)
		r.Route("/session/{id}", func(r chi.Router) {
			r.Post("/end", s.handleEndSession)
			r.Post("/message", s.handleMessage)
			r.Post("/contextual", s.handleContextual)
			r.Post("/turn", s.handleTurn)
			r.Post("/intent", s.handleIntent)
			r.Post("/entities", s.handleEntities)
		})
		r.Post("/sentiment", s.handleSentiment)
		r.Get("/suggestions", s.handleSuggestions)
		r.Get("/ws", s.handleChatWS)
	})
	r.Get("/v1/nlu/status", s.handleModelStatus)
	r.Post("/v1/nlu/train", s.handleTrain)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"active_sessions": s.sessions.ActiveCount(),
		"nlu_base_url":    s.cfg.NLUBaseURL,
	})
}

// handleReady stays 200 when the backend is down; the service still answers
// from the fallback responder.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	probe := s.newClient()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":           "ready",
		"nlu_model_loaded": probe.ModelStatus(r.Context()),
	})
}

type createSessionResponse struct {
	SessionID       string         `json:"session_id"`
	Status          session.Status `json:"status"`
	StartedAt       string         `json:"started_at"`
	InactivityTTLMS int64          `json:"inactivity_ttl_ms"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	client := s.newClient()
	sess := s.sessions.Add(client.SessionID(), client)
	s.metrics.ObserveSessionEvent("created", s.sessions.ActiveCount())

	respondJSON(w, http.StatusCreated, createSessionResponse{
		SessionID:       sess.ID,
		Status:          sess.Status,
		StartedAt:       sess.StartedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		InactivityTTLMS: s.cfg.SessionInactivityTimeout.Milliseconds(),
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.End(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	s.metrics.ObserveSessionEvent("ended", s.sessions.ActiveCount())
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"status":     sess.Status,
	})
}

type textRequest struct {
	Text   string `json:"text"`
	Sender string `json:"sender,omitempty"`
}

type contextualRequest struct {
	Text        string              `json:"text"`
	History     []enrich.Turn       `json:"history,omitempty"`
	Preferences *enrich.Preferences `json:"preferences,omitempty"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	client, ok := s.clientFor(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req textRequest
	if !decodeText(w, r, &req, &req.Text) {
		return
	}
	resp, err := client.SendMessage(r.Context(), req.Text, req.Sender)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "request_aborted", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"responses": resp})
}

func (s *Server) handleContextual(w http.ResponseWriter, r *http.Request) {
	client, ok := s.clientFor(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req contextualRequest
	if !decodeText(w, r, &req, &req.Text) {
		return
	}
	resp, err := client.ContextualResponse(r.Context(), req.Text, req.History, req.Preferences)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "request_aborted", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"responses": resp})
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	client, ok := s.clientFor(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req chat.TurnRequest
	if !decodeText(w, r, &req, &req.Text) {
		return
	}
	result, err := client.ProcessTurn(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "request_aborted", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	client, ok := s.clientFor(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req textRequest
	if !decodeText(w, r, &req, &req.Text) {
		return
	}
	respondJSON(w, http.StatusOK, client.IntentConfidence(r.Context(), req.Text))
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	client, ok := s.clientFor(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req textRequest
	if !decodeText(w, r, &req, &req.Text) {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"entities": client.Entities(r.Context(), req.Text)})
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"sentiment": chat.AnalyzeSentiment(req.Text)})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	confidence := 0.0
	if raw := strings.TrimSpace(q.Get("confidence")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_confidence", err.Error())
			return
		}
		confidence = v
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"suggestions": chat.SuggestedResponses(q.Get("intent"), confidence),
	})
}

func (s *Server) handleModelStatus(w http.ResponseWriter, r *http.Request) {
	client, ok := s.clientFor(w, r, r.URL.Query().Get("session_id"))
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"model_loaded": client.ModelStatus(r.Context())})
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	client, ok := s.clientFor(w, r, r.URL.Query().Get("session_id"))
	if !ok {
		return
	}
	accepted := client.TrainModel(r.Context())
	status := http.StatusAccepted
	if !accepted {
		status = http.StatusBadGateway
	}
	respondJSON(w, status, map[string]any{"accepted": accepted})
}

func (s *Server) clientFor(w http.ResponseWriter, r *http.Request, id string) (*chat.Client, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "session id is required")
		return nil, false
	}
	sess, err := s.sessions.Touch(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return nil, false
	}
	return sess.Client, true
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

// decodeText decodes the body into out and requires *text to be non-blank.
func decodeText(w http.ResponseWriter, r *http.Request, out any, text *string) bool {
	if err := decodeJSON(r, out); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return false
	}
	if strings.TrimSpace(*text) == "" {
		respondError(w, http.StatusBadRequest, "missing_text", "text is required")
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
