// Package server exposes the chat page and the streaming chat endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	nats "github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/velkovn/agentchat/internal/agent"
	"github.com/velkovn/agentchat/internal/jetstream"
	"github.com/velkovn/agentchat/internal/storage"
	"github.com/velkovn/agentchat/web"
)

// Publisher is the JetStream surface the handler needs. Satisfied by
// nats.JetStreamContext; nil disables analytics capture.
type Publisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

type Handler struct {
	responder agent.Responder
	queue     storage.JobQueue
	js        Publisher
}

func New(responder agent.Responder, queue storage.JobQueue, js Publisher) *Handler {
	return &Handler{responder: responder, queue: queue, js: js}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("POST /api/chat", h.handleChat)
	return mux
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(web.ChatPage)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	sessionID := r.PostFormValue("session_id")
	userMessage := r.PostFormValue("user_message")
	if sessionID == "" {
		writeJSONError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if userMessage == "" {
		writeJSONError(w, http.StatusBadRequest, "user_message is required")
		return
	}

	exchangeID := uuid.New()
	ts := time.Now()

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	var mirror func([]byte)
	if h.js != nil {
		subject := jetstream.FrameSubject(exchangeID.String())
		mirror = func(frame []byte) {
			h.js.Publish(subject, frame)
		}
	}
	out := newSSEWriter(w, mirror)

	result, err := h.responder.Respond(r.Context(), agent.Request{SessionID: sessionID, Message: userMessage},
		func(fragment string) error {
			return out.Send(streamingEvent{Type: "streaming", Message: fragment})
		})

	switch {
	case errors.Is(err, context.Canceled):
		// Client stopped the stream; nothing left to tell it.
	case err != nil:
		log.Error().Err(err).Str("session_id", sessionID).Msg("agent failed")
		out.Send(errorEvent{Type: "error", Message: err.Error()})
	default:
		out.Send(usageEvent{
			Type:         "usage",
			InputTokens:  result.Usage.InputTokens,
			OutputTokens: result.Usage.OutputTokens,
			TotalTokens:  result.Usage.Total(),
		})
	}

	if h.js != nil {
		done, _ := json.Marshal(jetstream.DoneMarker{Ts: ts.UnixNano(), SessionID: sessionID, Model: result.Model})
		h.js.Publish(jetstream.DoneSubject(exchangeID.String()), done)
	}

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	h.queue.Enqueue(storage.InsertExchangeJob(&storage.ExchangeRecord{
		ID:             exchangeID,
		Timestamp:      ts,
		SessionID:      sessionID,
		Intent:         string(result.Intent),
		Success:        err == nil,
		ErrorMessage:   errMsg,
		ResponseTimeMs: int(time.Since(ts).Milliseconds()),
		Model:          result.Model,
	}))

	log.Info().
		Str("exchange_id", exchangeID.String()).
		Str("session_id", sessionID).
		Str("intent", string(result.Intent)).
		Bool("success", err == nil).
		Dur("duration", time.Since(ts)).
		Msg("chat exchange")
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
