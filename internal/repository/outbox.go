package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// OutboxEvent is a pending domain event written in the same transaction as
// the row change it describes. The poller ships unprocessed events to Kafka.
type OutboxEvent struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
}

func (r *Postgres) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload
	          FROM outbox_events
	          WHERE processed = FALSE
	          ORDER BY created_at
	          LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *Postgres) MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET processed = TRUE, processed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark outbox event processed: %w", err)
	}
	return nil
}
