package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/velkovn/agentchat/internal/stream"
)

// InsertStreamEventsJob batch-inserts event metadata rows using the COPY
// protocol. Only the event type and payload size are kept.
func InsertStreamEventsJob(exchangeID uuid.UUID, ts time.Time, events []stream.Event) WriteJob {
	return WriteJobFunc(func(ctx context.Context, pool *pgxpool.Pool) error {
		rows := make([][]interface{}, len(events))
		for i, ev := range events {
			rows[i] = []interface{}{
				ts,
				exchangeID,
				ev.Index,
				ev.Type,
				len(ev.Data),
			}
		}

		_, err := pool.CopyFrom(ctx,
			pgx.Identifier{"stream_events"},
			[]string{"ts", "exchange_id", "event_index", "event_type", "payload_bytes"},
			pgx.CopyFromRows(rows),
		)
		return err
	})
}
