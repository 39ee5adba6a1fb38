package jetstream

import (
	"strings"
	"time"

	nats "github.com/nats-io/nats.go"
)

const (
	StreamName    = "AGENTCHAT"
	SubjectPrefix = "agentchat.exchange."
)

// EnsureStream creates the work-queue stream that carries captured chat
// frames from the HTTP handler to the usage processor.
func EnsureStream(js nats.JetStreamContext) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"agentchat.>"},
		Storage:   nats.FileStorage,
		MaxAge:    24 * time.Hour,
		Retention: nats.WorkQueuePolicy,
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}
	return nil
}

// FrameSubject carries raw SSE frames for one exchange.
func FrameSubject(exchangeID string) string {
	return SubjectPrefix + exchangeID
}

// DoneSubject marks the end of an exchange's frames.
func DoneSubject(exchangeID string) string {
	return SubjectPrefix + exchangeID + ".done"
}

// DoneMarker is the payload published on the done subject.
type DoneMarker struct {
	Ts        int64  `json:"ts"`
	SessionID string `json:"session_id"`
	Model     string `json:"model"`
}
