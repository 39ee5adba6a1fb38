package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExchangeRecord is one chat request/response round trip. It carries usage
// and timing metadata only; message content is never written.
type ExchangeRecord struct {
	ID             uuid.UUID
	Timestamp      time.Time
	SessionID      string
	Intent         string
	Success        bool
	ErrorMessage   string
	ResponseTimeMs int
	Model          string
	InputTokens    int
	OutputTokens   int
	TotalTokens    int
	CostUSD        float64
	EventCount     int
}

func InsertExchangeJob(r *ExchangeRecord) WriteJob {
	return WriteJobFunc(func(ctx context.Context, pool *pgxpool.Pool) error {
		_, err := pool.Exec(ctx, `
			INSERT INTO exchanges (
				id, ts, session_id, intent, success, error_message,
				response_time_ms, model, input_tokens, output_tokens,
				total_tokens, cost_usd, event_count
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			r.ID, r.Timestamp, r.SessionID, nilIfEmpty(r.Intent),
			r.Success, nilIfEmpty(r.ErrorMessage), r.ResponseTimeMs,
			nilIfEmpty(r.Model), r.InputTokens, r.OutputTokens,
			r.TotalTokens, r.CostUSD, r.EventCount,
		)
		return err
	})
}

func UpdateExchangeUsageJob(exchangeID uuid.UUID, ts time.Time, model string, inputTokens, outputTokens, totalTokens int, costUSD float64, eventCount int) WriteJob {
	return WriteJobFunc(func(ctx context.Context, pool *pgxpool.Pool) error {
		_, err := pool.Exec(ctx, `
			UPDATE exchanges SET
				model = COALESCE($1, model),
				input_tokens = $2,
				output_tokens = $3,
				total_tokens = $4,
				cost_usd = $5,
				event_count = $6,
				success = TRUE
			WHERE id = $7 AND ts = $8`,
			nilIfEmpty(model), inputTokens, outputTokens, totalTokens,
			costUSD, eventCount, exchangeID, ts,
		)
		return err
	})
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
