package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"pickem-service/internal/domain"
)

// ChapterRepository loads chapters and their gates. Missing chapters yield domain.ErrChapterNotFound.
type ChapterRepository interface {
	Chapter(ctx context.Context, chapterID int) (domain.Chapter, error)
	Chapters(ctx context.Context, bookID int) ([]domain.Chapter, error)
}

// EventCatalog exposes a chapter's events (read-only).
type EventCatalog interface {
	Events(ctx context.Context, chapterID int) ([]domain.Event, error)
}

// EventInvalidator is implemented by catalogs that cache events and can drop a chapter on demand.
type EventInvalidator interface {
	Invalidate(ctx context.Context, chapterID int) error
}

// PickStore persists picks keyed by (book, chapter, user, event).
// UpsertPicks must apply the whole batch or nothing.
type PickStore interface {
	UpsertPicks(ctx context.Context, batch domain.PickBatch) error
	ChapterPicks(ctx context.Context, chapterID int) (map[domain.PickKey]domain.Pick, error)
}

// MemberDirectory resolves book subscriptions.
type MemberDirectory interface {
	Members(ctx context.Context, bookID int) ([]domain.Member, error)
	Member(ctx context.Context, bookID, userID int) (domain.Member, bool, error)
}

// PickService accepts pick submissions for open chapters.
type PickService struct {
	chapters     ChapterRepository
	events       EventCatalog
	members      MemberDirectory
	picks        PickStore
	writeTimeout time.Duration
}

func NewPickService(chapters ChapterRepository, events EventCatalog, members MemberDirectory, picks PickStore, writeTimeout time.Duration) *PickService {
	return &PickService{
		chapters:     chapters,
		events:       events,
		members:      members,
		picks:        picks,
		writeTimeout: writeTimeout,
	}
}

// Submit validates a raw submission body and stores it as the user's picks for the chapter.
// A closed chapter is rejected before the body is read.
func (s *PickService) Submit(ctx context.Context, bookID, chapterID, userID int, body io.Reader) (domain.PickBatch, error) {
	chapter, _, err := authorize(ctx, s.chapters, s.members, bookID, chapterID, userID)
	if err != nil {
		return domain.PickBatch{}, err
	}
	if !chapter.IsOpen {
		return domain.PickBatch{}, domain.ErrChapterClosed
	}

	submission, err := domain.DecodeSubmission(body)
	if err != nil {
		return domain.PickBatch{}, err
	}

	events, err := s.events.Events(ctx, chapterID)
	if err != nil {
		return domain.PickBatch{}, storageErr("load events", err)
	}
	picks, err := ValidateSubmission(submission, NewKnownEvents(events))
	if err != nil {
		return domain.PickBatch{}, err
	}

	batch := domain.PickBatch{
		BookID:    chapter.BookID,
		ChapterID: chapter.ID,
		UserID:    userID,
		Picks:     picks,
	}
	if len(batch.Picks) == 0 {
		return batch, nil
	}

	writeCtx := ctx
	if s.writeTimeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, s.writeTimeout)
		defer cancel()
	}
	if err := s.picks.UpsertPicks(writeCtx, batch); err != nil {
		log.Printf("upsert picks book=%d chapter=%d user=%d: %v", bookID, chapterID, userID, err)
		return domain.PickBatch{}, storageErr("upsert picks", err)
	}
	return batch, nil
}

// UserPicks returns the caller's current picks for a chapter, keyed by event id.
func (s *PickService) UserPicks(ctx context.Context, bookID, chapterID, userID int) (map[int]domain.Pick, error) {
	if _, _, err := authorize(ctx, s.chapters, s.members, bookID, chapterID, userID); err != nil {
		return nil, err
	}
	all, err := s.picks.ChapterPicks(ctx, chapterID)
	if err != nil {
		return nil, storageErr("load picks", err)
	}
	mine := make(map[int]domain.Pick)
	for key, pick := range all {
		if key.UserID == userID {
			mine[key.EventID] = pick
		}
	}
	return mine, nil
}

// RefreshEvents drops any cached copy of the chapter's events so new or edited events are
// accepted on the next submission. Only book owners and admins may ask.
func (s *PickService) RefreshEvents(ctx context.Context, bookID, chapterID, viewerID int) error {
	_, viewer, err := authorize(ctx, s.chapters, s.members, bookID, chapterID, viewerID)
	if err != nil {
		return err
	}
	if !viewer.Role.IsAdmin() {
		return domain.ErrForbidden
	}
	inv, ok := s.events.(EventInvalidator)
	if !ok {
		return nil
	}
	if err := inv.Invalidate(ctx, chapterID); err != nil {
		log.Printf("invalidate events chapter=%d: %v", chapterID, err)
		return storageErr("invalidate events", err)
	}
	return nil
}

// authorize loads the chapter and the caller's membership, then applies the visibility gate.
func authorize(ctx context.Context, chapters ChapterRepository, members MemberDirectory, bookID, chapterID, userID int) (domain.Chapter, domain.Member, error) {
	chapter, err := chapters.Chapter(ctx, chapterID)
	if err != nil {
		if errors.Is(err, domain.ErrChapterNotFound) {
			return domain.Chapter{}, domain.Member{}, err
		}
		return domain.Chapter{}, domain.Member{}, storageErr("load chapter", err)
	}
	if chapter.BookID != bookID {
		return domain.Chapter{}, domain.Member{}, domain.ErrChapterNotFound
	}
	member, err := bookMember(ctx, members, bookID, userID)
	if err != nil {
		return domain.Chapter{}, domain.Member{}, err
	}
	if !member.Role.CanView(chapter) {
		return domain.Chapter{}, domain.Member{}, domain.ErrForbidden
	}
	return chapter, member, nil
}

func bookMember(ctx context.Context, members MemberDirectory, bookID, userID int) (domain.Member, error) {
	member, ok, err := members.Member(ctx, bookID, userID)
	if err != nil {
		return domain.Member{}, storageErr("load member", err)
	}
	if !ok || member.Role.Kind == domain.RoleUnauthorized {
		return domain.Member{}, domain.ErrForbidden
	}
	return member, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
}
