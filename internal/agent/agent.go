// Package agent produces streamed assistant replies for chat requests.
package agent

import (
	"context"

	"github.com/velkovn/agentchat/internal/stream"
)

// Request is one user turn.
type Request struct {
	SessionID string
	Message   string
}

// Result summarizes a completed reply.
type Result struct {
	Intent Intent
	Model  string
	Usage  stream.Usage
}

// Responder streams a reply for a request. emit is called once per reply
// fragment, in order, and must not be called after Respond returns. A
// non-nil error means no complete reply was produced; fragments already
// emitted stand.
type Responder interface {
	Respond(ctx context.Context, req Request, emit func(fragment string) error) (Result, error)
}
