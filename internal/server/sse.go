package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Event envelopes written to the chat stream, one JSON object per data:
// line. These mirror what the widget's decoder expects.
type streamingEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type usageEvent struct {
	Type         string `json:"type"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	TotalTokens  int    `json:"total_tokens"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// sseWriter frames events for the client and mirrors each frame to the
// analytics publisher. Every frame is flushed immediately so fragments
// render as they arrive.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	mirror  func(frame []byte)
}

func newSSEWriter(w http.ResponseWriter, mirror func(frame []byte)) *sseWriter {
	flusher, _ := w.(http.Flusher)
	return &sseWriter{w: w, flusher: flusher, mirror: mirror}
}

func (s *sseWriter) Send(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	frame := make([]byte, 0, len(payload)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, payload...)
	frame = append(frame, "\n\n"...)

	if s.mirror != nil {
		s.mirror(frame)
	}
	if _, err := s.w.Write(frame); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
