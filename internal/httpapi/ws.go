package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ent0n29/convo/internal/chat"
	"github.com/ent0n29/convo/internal/enrich"
	"github.com/ent0n29/convo/internal/protocol"
)

const (
	wsReadLimit     = 1 << 20
	wsReadDeadline  = 120 * time.Second
	wsWriteDeadline = 10 * time.Second
)

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.ObserveSessionEvent("ws_connected", s.sessions.ActiveCount())

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan protocol.UserMessage, 64)
	outbound := make(chan any, 64)
	runDone := make(chan struct{})

	go func() {
		defer close(runDone)
		s.runTurns(ctx, sess.Client, inbound, outbound)
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-outbound:
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
				if err := conn.WriteJSON(msg); err != nil {
					s.logger.Debug("websocket write failed", zap.String("session_id", sessionID), zap.Error(err))
					cancel()
					return
				}
				if t, ok := protocol.MessageTypeOf(msg); ok {
					s.metrics.ObserveWSMessage("outbound", string(t))
				}
			}
		}
	}()

	outbound <- protocol.SystemEvent{
		Type:      protocol.TypeSystemEvent,
		SessionID: sessionID,
		Code:      "session_ready",
	}

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			errEvent := protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      "invalid_client_message",
				Detail:    err.Error(),
			}
			select {
			case outbound <- errEvent:
			default:
				// Drop rather than write from the reader; the writer owns the conn.
				s.logger.Debug("outbound queue full, dropping error event", zap.String("session_id", sessionID))
			}
			continue
		}
		msg := parsed.(protocol.UserMessage)
		s.metrics.ObserveWSMessage("inbound", string(msg.Type))
		if _, err := s.sessions.Touch(sessionID); err != nil {
			break
		}

		select {
		case <-ctx.Done():
			break readLoop
		case inbound <- msg:
		}
	}

	cancel()
	close(inbound)
	<-runDone
	<-writerDone
	s.metrics.ObserveSessionEvent("ws_disconnected", s.sessions.ActiveCount())
}

// runTurns answers user messages in arrival order. History is kept per
// connection so each turn is enriched with the ones before it.
func (s *Server) runTurns(ctx context.Context, client *chat.Client, inbound <-chan protocol.UserMessage, outbound chan<- any) {
	var history []enrich.Turn
	var prefs *enrich.Preferences

	for msg := range inbound {
		if msg.Preferences != nil {
			prefs = msg.Preferences
		}
		sender := msg.Sender
		if sender == "" {
			sender = "user"
		}

		result, err := client.ProcessTurn(ctx, chat.TurnRequest{
			Text:        msg.Text,
			History:     history,
			Preferences: prefs,
		})
		if err != nil {
			// The connection is going away.
			return
		}

		turn := protocol.NewBotTurn(client.SessionID(), uuid.NewString(), result)
		select {
		case <-ctx.Done():
			return
		case outbound <- turn:
		}

		history = append(history, enrich.Turn{Text: msg.Text, Sender: sender})
		if len(history) > enrich.HistoryWindow {
			history = history[len(history)-enrich.HistoryWindow:]
		}
	}
}
