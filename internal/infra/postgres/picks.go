package postgres

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"pickem-service/internal/domain"
)

// PickStore persists picks with one upsert per batch.
type PickStore struct {
	pool *pgxpool.Pool
}

func NewPickStore(pool *pgxpool.Pool) *PickStore {
	return &PickStore{pool: pool}
}

// upsertPicksSQL writes the whole batch in a single statement.
const upsertPicksSQL = `
INSERT INTO picks (book_id, chapter_id, user_id, event_id, choice, wager)
SELECT $1::INT, $2::INT, $3::INT, p.event_id, p.choice::jsonb, p.wager::jsonb
FROM UNNEST($4::INT[], $5::TEXT[], $6::TEXT[]) AS p (event_id, choice, wager)
ON CONFLICT (book_id, chapter_id, event_id, user_id)
DO UPDATE SET choice = EXCLUDED.choice, wager = EXCLUDED.wager`

func (s *PickStore) UpsertPicks(ctx context.Context, batch domain.PickBatch) error {
	eventIDs := make([]int, 0, len(batch.Picks))
	choices := make([]string, 0, len(batch.Picks))
	wagers := make([]string, 0, len(batch.Picks))
	for _, pick := range batch.Picks {
		choice, wager, err := domain.EncodeChoice(pick.Choice)
		if err != nil {
			return fmt.Errorf("encode pick for event %d: %w", pick.EventID, err)
		}
		eventIDs = append(eventIDs, pick.EventID)
		choices = append(choices, string(choice))
		wagers = append(wagers, string(wager))
	}

	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, upsertPicksSQL, batch.BookID, batch.ChapterID, batch.UserID, eventIDs, choices, wagers)
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert picks: %w", err)
	}
	return nil
}

// ChapterPicks loads every stored pick of a chapter. Rows whose choice cannot be decoded are
// returned with a nil Choice so scoring can flag them per user.
func (s *PickStore) ChapterPicks(ctx context.Context, chapterID int) (map[domain.PickKey]domain.Pick, error) {
	rows, err := s.pool.Query(ctx, `SELECT event_id, user_id, choice, wager FROM picks WHERE chapter_id=$1`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("load picks: %w", err)
	}
	defer rows.Close()

	picks := make(map[domain.PickKey]domain.Pick)
	for rows.Next() {
		var (
			key           domain.PickKey
			choice, wager []byte
		)
		if err := rows.Scan(&key.EventID, &key.UserID, &choice, &wager); err != nil {
			return nil, fmt.Errorf("scan pick: %w", err)
		}
		decoded, err := domain.DecodeChoice(choice, wager)
		if err != nil {
			log.Printf("decode pick chapter=%d event=%d user=%d: %v", chapterID, key.EventID, key.UserID, err)
		}
		picks[key] = domain.Pick{EventID: key.EventID, Choice: decoded}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load picks: %w", err)
	}
	return picks, nil
}
