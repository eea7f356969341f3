package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"pickem-service/internal/domain"
)

// ChapterRepository reads chapters and their gates from Postgres.
type ChapterRepository struct {
	pool *pgxpool.Pool
}

func NewChapterRepository(pool *pgxpool.Pool) *ChapterRepository {
	return &ChapterRepository{pool: pool}
}

const chapterColumns = `id, book_id, title, is_open, is_visible, created_at`

func (r *ChapterRepository) Chapter(ctx context.Context, chapterID int) (domain.Chapter, error) {
	var ch domain.Chapter
	err := r.pool.QueryRow(ctx, `SELECT `+chapterColumns+` FROM chapters WHERE id=$1`, chapterID).
		Scan(&ch.ID, &ch.BookID, &ch.Title, &ch.IsOpen, &ch.IsVisible, &ch.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Chapter{}, domain.ErrChapterNotFound
	}
	if err != nil {
		return domain.Chapter{}, fmt.Errorf("load chapter: %w", err)
	}
	return ch, nil
}

// Chapters lists a book's chapters, newest first.
func (r *ChapterRepository) Chapters(ctx context.Context, bookID int) ([]domain.Chapter, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+chapterColumns+` FROM chapters WHERE book_id=$1 ORDER BY created_at DESC, id DESC`, bookID)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []domain.Chapter
	for rows.Next() {
		var ch domain.Chapter
		if err := rows.Scan(&ch.ID, &ch.BookID, &ch.Title, &ch.IsOpen, &ch.IsVisible, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		chapters = append(chapters, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	return chapters, nil
}
