package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"pickem-service/internal/domain"
)

// EventLoader loads event JSONB contents from Postgres.
type EventLoader struct {
	pool *pgxpool.Pool
}

func NewEventLoader(pool *pgxpool.Pool) *EventLoader {
	return &EventLoader{pool: pool}
}

func (l *EventLoader) Events(ctx context.Context, chapterID int) ([]domain.Event, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, book_id, chapter_id, contents FROM events WHERE chapter_id=$1 ORDER BY id`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			event domain.Event
			raw   []byte
		)
		if err := rows.Scan(&event.ID, &event.BookID, &event.ChapterID, &raw); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.Contents, err = domain.UnmarshalContents(raw)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", event.ID, err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return events, nil
}
