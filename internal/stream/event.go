package stream

import (
	"encoding/json"
	"fmt"
)

// Event types carried on the chat stream. Anything else is forwarded as-is
// for the caller to interpret.
const (
	TypeStreaming = "streaming"
	TypeUsage     = "usage"
	TypeError     = "error"

	// TypeMessage is assumed when a payload carries no type field.
	TypeMessage = "message"
)

// Event is one parsed payload line. Data holds the JSON object verbatim;
// the decoder does no validation beyond a successful parse.
type Event struct {
	Index int    // ordinal within the stream
	Type  string // value of the payload's "type" field
	Data  json.RawMessage
}

// Decode unmarshals the full payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Streaming is the payload of a TypeStreaming event: one incremental
// fragment of the assistant reply.
type Streaming struct {
	Message string `json:"message"`
}

// Usage is the payload of a TypeUsage event, emitted once at the end of a
// reply.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens,omitempty"`
}

// Total returns TotalTokens when present, otherwise the sum of the parts.
func (u Usage) Total() int {
	if u.TotalTokens > 0 {
		return u.TotalTokens
	}
	return u.InputTokens + u.OutputTokens
}

// Error is the payload of a TypeError event.
type Error struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func parseEvent(payload string) (Event, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(payload), &probe); err != nil {
		return Event{}, fmt.Errorf("parse payload: %w", err)
	}
	if probe.Type == "" {
		probe.Type = TypeMessage
	}
	return Event{Type: probe.Type, Data: json.RawMessage(payload)}, nil
}
