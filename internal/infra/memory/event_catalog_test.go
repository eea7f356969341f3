package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pickem-service/internal/domain"
)

func TestCachedEventCatalogCaches(t *testing.T) {
	loader := &countingLoader{EventLoader: NewStaticEventLoader(sampleEvents())}
	catalog := NewCachedEventCatalog(loader, time.Minute)

	events, err := catalog.Events(context.Background(), 7)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 2 || events[0].ID != 10 || events[1].ID != 11 {
		t.Fatalf("expected events 10,11 in id order, got %+v", events)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader once, got %d", loader.count())
	}

	if _, err := catalog.Events(context.Background(), 7); err != nil {
		t.Fatalf("events 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.count())
	}
}

func TestCachedEventCatalogExpires(t *testing.T) {
	loader := &countingLoader{EventLoader: NewStaticEventLoader(sampleEvents())}
	catalog := NewCachedEventCatalog(loader, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	catalog.clock = func() time.Time { return now }

	_, _ = catalog.Events(context.Background(), 7)
	now = now.Add(2 * time.Minute)
	_, _ = catalog.Events(context.Background(), 7)
	if loader.count() != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.count())
	}

	if err := catalog.Invalidate(context.Background(), 7); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = catalog.Events(context.Background(), 7)
	if loader.count() != 3 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.count())
	}
}

func TestCachedEventCatalogDoesNotCacheErrors(t *testing.T) {
	loader := &failingLoader{err: errors.New("db down")}
	catalog := NewCachedEventCatalog(loader, time.Minute)

	if _, err := catalog.Events(context.Background(), 1); !errors.Is(err, loader.err) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if _, err := catalog.Events(context.Background(), 1); !errors.Is(err, loader.err) {
		t.Fatalf("expected loader error again, got %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected two loader calls, got %d", loader.calls)
	}
}

type countingLoader struct {
	EventLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) Events(ctx context.Context, chapterID int) ([]domain.Event, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.EventLoader.Events(ctx, chapterID)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

type failingLoader struct {
	err   error
	calls int
}

func (l *failingLoader) Events(context.Context, int) ([]domain.Event, error) {
	l.calls++
	return nil, l.err
}

func sampleEvents() []domain.Event {
	return []domain.Event{
		{ID: 11, BookID: 1, ChapterID: 7, Contents: domain.UserInput{Title: "MVP?", Points: 2}},
		{ID: 10, BookID: 1, ChapterID: 7, Contents: domain.SpreadGroup{Spreads: []domain.Spread{
			{HomeID: 1, AwayID: 2, HomeSpread: -3.5},
		}}},
		{ID: 12, BookID: 1, ChapterID: 8, Contents: domain.UserInput{Title: "Other", Points: 1}},
	}
}
