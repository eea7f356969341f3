package memory

import (
	"context"
	"sync"

	"pickem-service/internal/domain"
)

// PickStore is an in-memory implementation of app.PickStore.
type PickStore struct {
	mu    sync.RWMutex
	picks map[int]map[domain.PickKey]domain.Pick
}

func NewPickStore() *PickStore {
	return &PickStore{
		picks: make(map[int]map[domain.PickKey]domain.Pick),
	}
}

// UpsertPicks replaces the user's pick for every event in the batch under a single lock.
func (s *PickStore) UpsertPicks(ctx context.Context, batch domain.PickBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	chapter, ok := s.picks[batch.ChapterID]
	if !ok {
		chapter = make(map[domain.PickKey]domain.Pick)
		s.picks[batch.ChapterID] = chapter
	}
	for _, pick := range batch.Picks {
		chapter[domain.PickKey{EventID: pick.EventID, UserID: batch.UserID}] = clonePick(pick)
	}
	return nil
}

func (s *PickStore) ChapterPicks(_ context.Context, chapterID int) (map[domain.PickKey]domain.Pick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.PickKey]domain.Pick, len(s.picks[chapterID]))
	for key, pick := range s.picks[chapterID] {
		out[key] = clonePick(pick)
	}
	return out, nil
}

func clonePick(pick domain.Pick) domain.Pick {
	if c, ok := pick.Choice.(domain.SpreadChoices); ok {
		pick.Choice = domain.SpreadChoices{
			Sides:  append([]domain.Side(nil), c.Sides...),
			Wagers: append([]int(nil), c.Wagers...),
		}
	}
	return pick
}
