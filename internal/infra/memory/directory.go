package memory

import (
	"context"
	"sort"
	"sync"

	"pickem-service/internal/domain"
)

// ChapterStore holds chapters and their open/visible gates.
type ChapterStore struct {
	mu       sync.RWMutex
	chapters map[int]domain.Chapter
}

func NewChapterStore(chapters []domain.Chapter) *ChapterStore {
	s := &ChapterStore{chapters: make(map[int]domain.Chapter, len(chapters))}
	for _, ch := range chapters {
		s.chapters[ch.ID] = ch
	}
	return s
}

func (s *ChapterStore) Chapter(_ context.Context, chapterID int) (domain.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.chapters[chapterID]
	if !ok {
		return domain.Chapter{}, domain.ErrChapterNotFound
	}
	return ch, nil
}

// Chapters lists a book's chapters, newest first.
func (s *ChapterStore) Chapters(_ context.Context, bookID int) ([]domain.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Chapter
	for _, ch := range s.chapters {
		if ch.BookID == bookID {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// SetGates flips a chapter's open and visible flags.
func (s *ChapterStore) SetGates(chapterID int, open, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.chapters[chapterID]
	if !ok {
		return domain.ErrChapterNotFound
	}
	ch.IsOpen = open
	ch.IsVisible = visible
	s.chapters[chapterID] = ch
	return nil
}

// MemberDirectory maps books to their subscribed members.
type MemberDirectory struct {
	byBook map[int][]domain.Member
}

func NewMemberDirectory(byBook map[int][]domain.Member) *MemberDirectory {
	d := &MemberDirectory{byBook: make(map[int][]domain.Member, len(byBook))}
	for bookID, members := range byBook {
		sorted := append([]domain.Member(nil), members...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].UserID < sorted[j].UserID })
		d.byBook[bookID] = sorted
	}
	return d
}

func (d *MemberDirectory) Members(_ context.Context, bookID int) ([]domain.Member, error) {
	return append([]domain.Member(nil), d.byBook[bookID]...), nil
}

func (d *MemberDirectory) Member(_ context.Context, bookID, userID int) (domain.Member, bool, error) {
	for _, member := range d.byBook[bookID] {
		if member.UserID == userID {
			return member, true, nil
		}
	}
	return domain.Member{}, false, nil
}

// AddedPoints is an in-memory implementation of app.AddedPointsStore.
type AddedPoints struct {
	mu          sync.RWMutex
	adjustments []domain.Adjustment
}

func NewAddedPoints(adjustments []domain.Adjustment) *AddedPoints {
	return &AddedPoints{adjustments: append([]domain.Adjustment(nil), adjustments...)}
}

func (a *AddedPoints) Adjustments(_ context.Context, bookID int) ([]domain.Adjustment, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []domain.Adjustment
	for _, adj := range a.adjustments {
		if adj.BookID == bookID {
			out = append(out, adj)
		}
	}
	return out, nil
}

// Add records a manual adjustment.
func (a *AddedPoints) Add(adj domain.Adjustment) {
	a.mu.Lock()
	a.adjustments = append(a.adjustments, adj)
	a.mu.Unlock()
}

// TeamDirectory is an in-memory implementation of app.TeamDirectory.
type TeamDirectory struct {
	teams map[int]domain.Team
}

func NewTeamDirectory(teams []domain.Team) *TeamDirectory {
	d := &TeamDirectory{teams: make(map[int]domain.Team, len(teams))}
	for _, team := range teams {
		d.teams[team.ID] = team
	}
	return d
}

// Teams returns the known subset of ids; callers decide how to treat gaps.
func (d *TeamDirectory) Teams(_ context.Context, ids []int) (map[int]domain.Team, error) {
	out := make(map[int]domain.Team, len(ids))
	for _, id := range ids {
		if team, ok := d.teams[id]; ok {
			out[id] = team
		}
	}
	return out, nil
}
