// Package processor derives usage analytics from captured chat frames.
package processor

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	nats "github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/velkovn/agentchat/internal/jetstream"
	"github.com/velkovn/agentchat/internal/pricing"
	"github.com/velkovn/agentchat/internal/storage"
	"github.com/velkovn/agentchat/internal/stream"
)

// Processor consumes the frames mirrored by the chat handler, re-decodes
// them off the hot path, and writes usage analytics. One decoder instance
// per in-flight exchange.
type Processor struct {
	queue     storage.JobQueue
	exchanges map[string]*exchangeState
}

type exchangeState struct {
	decoder *stream.Decoder
	events  []stream.Event
}

func New(queue storage.JobQueue) *Processor {
	return &Processor{
		queue:     queue,
		exchanges: make(map[string]*exchangeState),
	}
}

// StartConsumer subscribes to the exchange subjects and blocks until ctx is
// done. Messages are dispatched sequentially by the subscription, so no
// locking is needed around the exchange map.
func (p *Processor) StartConsumer(ctx context.Context, js nats.JetStreamContext) error {
	sub, err := js.Subscribe(jetstream.SubjectPrefix+">", p.Handle)
	if err != nil {
		return err
	}
	<-ctx.Done()
	return sub.Unsubscribe()
}

// Handle processes one captured message: either a raw frame chunk for an
// exchange or its done marker.
func (p *Processor) Handle(msg *nats.Msg) {
	rest, ok := strings.CutPrefix(msg.Subject, jetstream.SubjectPrefix)
	if !ok {
		return
	}

	if id, found := strings.CutSuffix(rest, ".done"); found {
		p.finish(id, msg.Data)
		return
	}

	st, ok := p.exchanges[rest]
	if !ok {
		st = &exchangeState{decoder: stream.NewDecoder()}
		p.exchanges[rest] = st
	}
	st.events = append(st.events, st.decoder.Feed(msg.Data)...)
}

func (p *Processor) finish(id string, data []byte) {
	st, ok := p.exchanges[id]
	if !ok {
		// Done marker with no frames: nothing to record.
		return
	}
	delete(p.exchanges, id)
	st.events = append(st.events, st.decoder.Flush()...)

	var done jetstream.DoneMarker
	if err := json.Unmarshal(data, &done); err != nil {
		log.Warn().Err(err).Str("exchange_id", id).Msg("bad done marker")
		return
	}
	exchangeID, err := uuid.Parse(id)
	if err != nil {
		log.Warn().Err(err).Str("exchange_id", id).Msg("bad exchange id")
		return
	}
	ts := time.Unix(0, done.Ts)

	usage, hasUsage := Summarize(st.events)
	if len(st.events) > 0 {
		p.queue.Enqueue(storage.InsertStreamEventsJob(exchangeID, ts, st.events))
	}
	if hasUsage {
		cost := pricing.Estimate(done.Model, usage)
		p.queue.Enqueue(storage.UpdateExchangeUsageJob(
			exchangeID, ts, done.Model,
			usage.InputTokens, usage.OutputTokens, usage.Total(),
			cost, len(st.events),
		))
	}

	log.Debug().
		Str("exchange_id", id).
		Int("events", len(st.events)).
		Bool("usage", hasUsage).
		Msg("exchange analytics complete")
}

// Summarize extracts the final token usage from a decoded event sequence.
// The last usage event wins.
func Summarize(events []stream.Event) (stream.Usage, bool) {
	var usage stream.Usage
	var found bool
	for _, ev := range events {
		if ev.Type != stream.TypeUsage {
			continue
		}
		var u stream.Usage
		if err := ev.Decode(&u); err != nil {
			continue
		}
		usage = u
		found = true
	}
	return usage, found
}
