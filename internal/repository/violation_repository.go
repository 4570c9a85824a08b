package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hireflow/assess-backend/internal/model"
)

// ViolationRepository handles the append-only proctoring event log. Writes
// arrive in batches from the violation worker; the hot path only pushes to
// the Redis queue.
type ViolationRepository struct {
	pool *pgxpool.Pool
}

// NewViolationRepository creates a new ViolationRepository.
func NewViolationRepository(pool *pgxpool.Pool) *ViolationRepository {
	return &ViolationRepository{pool: pool}
}

// BulkInsert writes a batch of events via COPY.
func (r *ViolationRepository) BulkInsert(ctx context.Context, events []*model.ViolationEvent) error {
	rows := make([][]any, 0, len(events))
	for _, e := range events {
		rows = append(rows, []any{
			e.SessionID, e.Type, e.Severity, e.Detail, e.OccurredAt,
		})
	}
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"violation_events"},
		[]string{"session_id", "violation_type", "severity", "detail", "occurred_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// Insert writes a single event, the row-by-row fallback when a COPY batch
// fails.
func (r *ViolationRepository) Insert(ctx context.Context, e *model.ViolationEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO violation_events (session_id, violation_type, severity, detail, occurred_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.SessionID, e.Type, e.Severity, e.Detail, e.OccurredAt,
	)
	return err
}

// ListBySession retrieves a session's full violation log in event order.
func (r *ViolationRepository) ListBySession(ctx context.Context, sessionID string) ([]model.ViolationEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, violation_type, severity, detail, occurred_at
		 FROM violation_events
		 WHERE session_id = $1
		 ORDER BY occurred_at`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.ViolationEvent
	for rows.Next() {
		var e model.ViolationEvent
		var detail *string
		if err := rows.Scan(&e.SessionID, &e.Type, &e.Severity, &detail, &e.OccurredAt); err != nil {
			return nil, err
		}
		if detail != nil {
			e.Detail = *detail
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
