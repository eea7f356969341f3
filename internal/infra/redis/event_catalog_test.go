package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"pickem-service/internal/domain"
	"pickem-service/internal/infra/memory"
)

func TestEventCatalogCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	loader := &countingLoader{EventLoader: memory.NewStaticEventLoader(sampleEvents())}
	catalog := NewEventCatalog(client, loader, time.Minute)

	events, err := catalog.Events(context.Background(), 7)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("chapter:7:events") {
		t.Fatalf("expected redis hash to be set")
	}
	if ttl := mr.TTL("chapter:7:events"); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("expected ttl with jitter, got %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	cached, err := catalog.Events(context.Background(), 7)
	if err != nil {
		t.Fatalf("cached events: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if len(cached) != len(events) || cached[0].ID != 10 || cached[1].ID != 11 {
		t.Fatalf("expected cached events in id order, got %+v", cached)
	}
	group, ok := cached[0].Contents.(domain.SpreadGroup)
	if !ok || group.Spreads[0].HomeSpread != -3.5 {
		t.Fatalf("unexpected cached contents: %+v", cached[0].Contents)
	}
	if input := cached[1].Contents.(domain.UserInput); input.Graded() {
		t.Fatalf("ungraded user input must stay ungraded through the cache")
	}
}

func TestEventCatalogInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{EventLoader: memory.NewStaticEventLoader(sampleEvents())}
	catalog := NewEventCatalog(newClient(mr), loader, time.Minute)

	_, _ = catalog.Events(context.Background(), 7)
	if err := catalog.Invalidate(context.Background(), 7); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = catalog.Events(context.Background(), 7)
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestEventCatalogCorruptEntryIsMiss(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	mr.HSet("chapter:7:events", "10", "{not json")
	loader := &countingLoader{EventLoader: memory.NewStaticEventLoader(sampleEvents())}
	catalog := NewEventCatalog(newClient(mr), loader, time.Minute)

	events, err := catalog.Events(context.Background(), 7)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if loader.calls != 1 || len(events) != 2 {
		t.Fatalf("expected fallback to loader, calls=%d events=%d", loader.calls, len(events))
	}
}

func TestEventCatalogCachesEmptyChapter(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{EventLoader: memory.NewStaticEventLoader(sampleEvents())}
	catalog := NewEventCatalog(newClient(mr), loader, time.Minute)

	for i := 0; i < 2; i++ {
		events, err := catalog.Events(context.Background(), 99)
		if err != nil {
			t.Fatalf("events: %v", err)
		}
		if len(events) != 0 {
			t.Fatalf("expected no events, got %+v", events)
		}
	}
	if loader.calls != 1 {
		t.Fatalf("expected empty chapter to be cached, loader calls=%d", loader.calls)
	}
	if mr.TTL("chapter:99:events") <= 0 {
		t.Fatalf("expected empty marker to expire")
	}
}

func TestEventCatalogFillReplacesStaleKey(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	// A key of the wrong type reads as a miss and must be replaced wholesale.
	if err := mr.Set("chapter:7:events", "stale"); err != nil {
		t.Fatalf("seed stale key: %v", err)
	}
	loader := &countingLoader{EventLoader: memory.NewStaticEventLoader(sampleEvents())}
	catalog := NewEventCatalog(newClient(mr), loader, time.Minute)

	if _, err := catalog.Events(context.Background(), 7); err != nil {
		t.Fatalf("events: %v", err)
	}
	keys, err := mr.HKeys("chapter:7:events")
	if err != nil {
		t.Fatalf("hkeys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected both events in the hash, got %v", keys)
	}
	if _, err := catalog.Events(context.Background(), 7); err != nil || loader.calls != 1 {
		t.Fatalf("expected cache hit after fill, calls=%d err=%v", loader.calls, err)
	}
}

type countingLoader struct {
	memory.EventLoader
	calls int
}

func (l *countingLoader) Events(ctx context.Context, chapterID int) ([]domain.Event, error) {
	l.calls++
	return l.EventLoader.Events(ctx, chapterID)
}

func sampleEvents() []domain.Event {
	return []domain.Event{
		{ID: 11, BookID: 1, ChapterID: 7, Contents: domain.UserInput{Title: "MVP?", Points: 2}},
		{ID: 10, BookID: 1, ChapterID: 7, Contents: domain.SpreadGroup{Spreads: []domain.Spread{
			{HomeID: 1, AwayID: 2, HomeSpread: -3.5, Answer: domain.AnswerHome},
		}}},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
