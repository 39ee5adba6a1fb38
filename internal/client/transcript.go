package client

import (
	"strings"

	"github.com/velkovn/agentchat/internal/stream"
)

// Transcript accumulates a streamed reply: fragments are appended as they
// arrive, usage and error payloads are kept from the last one seen. This is
// the widget's bubble-and-usage-display logic with the rendering removed.
type Transcript struct {
	reply strings.Builder

	Usage    stream.Usage
	HasUsage bool
	ErrMsg   string
}

// Apply folds one event into the transcript. Unrecognized event types are
// ignored. Apply satisfies stream.Handler.
func (t *Transcript) Apply(ev stream.Event) error {
	switch ev.Type {
	case stream.TypeStreaming:
		var s stream.Streaming
		if err := ev.Decode(&s); err == nil {
			t.reply.WriteString(s.Message)
		}
	case stream.TypeUsage:
		var u stream.Usage
		if err := ev.Decode(&u); err == nil {
			t.Usage = u
			t.HasUsage = true
		}
	case stream.TypeError:
		var e stream.Error
		if err := ev.Decode(&e); err == nil {
			t.ErrMsg = e.Message
		}
	}
	return nil
}

// Reply returns the fragments assembled so far.
func (t *Transcript) Reply() string {
	return t.reply.String()
}
