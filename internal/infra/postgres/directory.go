package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"pickem-service/internal/domain"
)

// MemberDirectory reads book subscriptions joined with usernames.
type MemberDirectory struct {
	pool *pgxpool.Pool
}

func NewMemberDirectory(pool *pgxpool.Pool) *MemberDirectory {
	return &MemberDirectory{pool: pool}
}

func (d *MemberDirectory) Members(ctx context.Context, bookID int) ([]domain.Member, error) {
	rows, err := d.pool.Query(ctx, `
SELECT u.id, u.username, s.role
FROM subscriptions s JOIN users u ON u.id = s.user_id
WHERE s.book_id=$1
ORDER BY u.id`, bookID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var (
			member domain.Member
			role   []byte
		)
		if err := rows.Scan(&member.UserID, &member.Username, &role); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		if err := json.Unmarshal(role, &member.Role); err != nil {
			return nil, fmt.Errorf("member %d role: %w", member.UserID, err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

func (d *MemberDirectory) Member(ctx context.Context, bookID, userID int) (domain.Member, bool, error) {
	var (
		member domain.Member
		role   []byte
	)
	err := d.pool.QueryRow(ctx, `
SELECT u.id, u.username, s.role
FROM subscriptions s JOIN users u ON u.id = s.user_id
WHERE s.book_id=$1 AND s.user_id=$2`, bookID, userID).Scan(&member.UserID, &member.Username, &role)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Member{}, false, nil
	}
	if err != nil {
		return domain.Member{}, false, fmt.Errorf("load member: %w", err)
	}
	if err := json.Unmarshal(role, &member.Role); err != nil {
		return domain.Member{}, false, fmt.Errorf("member %d role: %w", member.UserID, err)
	}
	return member, true, nil
}

// AddedPoints reads manual adjustments.
type AddedPoints struct {
	pool *pgxpool.Pool
}

func NewAddedPoints(pool *pgxpool.Pool) *AddedPoints {
	return &AddedPoints{pool: pool}
}

func (a *AddedPoints) Adjustments(ctx context.Context, bookID int) ([]domain.Adjustment, error) {
	rows, err := a.pool.Query(ctx, `SELECT user_id, book_id, chapter_id, points FROM added_points WHERE book_id=$1 ORDER BY id`, bookID)
	if err != nil {
		return nil, fmt.Errorf("list added points: %w", err)
	}
	defer rows.Close()

	var adjustments []domain.Adjustment
	for rows.Next() {
		var adj domain.Adjustment
		if err := rows.Scan(&adj.UserID, &adj.BookID, &adj.ChapterID, &adj.Points); err != nil {
			return nil, fmt.Errorf("scan added points: %w", err)
		}
		adjustments = append(adjustments, adj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list added points: %w", err)
	}
	return adjustments, nil
}

// TeamDirectory resolves teams by id.
type TeamDirectory struct {
	pool *pgxpool.Pool
}

func NewTeamDirectory(pool *pgxpool.Pool) *TeamDirectory {
	return &TeamDirectory{pool: pool}
}

func (d *TeamDirectory) Teams(ctx context.Context, ids []int) (map[int]domain.Team, error) {
	teams := make(map[int]domain.Team, len(ids))
	if len(ids) == 0 {
		return teams, nil
	}
	rows, err := d.pool.Query(ctx, `SELECT id, name, logo FROM teams WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.Logo); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams[team.ID] = team
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	return teams, nil
}
