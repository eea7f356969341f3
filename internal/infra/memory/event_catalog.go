package memory

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"pickem-service/internal/domain"
)

// EventLoader fetches a chapter's events from a backing store (e.g., postgres).
type EventLoader interface {
	Events(ctx context.Context, chapterID int) ([]domain.Event, error)
}

// CachedEventCatalog caches chapter events with TTL to avoid repeated DB hits.
type CachedEventCatalog struct {
	loader EventLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[int]cachedEvents
}

type cachedEvents struct {
	events    []domain.Event
	expiresAt time.Time
}

func NewCachedEventCatalog(loader EventLoader, ttl time.Duration) *CachedEventCatalog {
	return &CachedEventCatalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int]cachedEvents),
	}
}

func (c *CachedEventCatalog) Events(ctx context.Context, chapterID int) ([]domain.Event, error) {
	if events, ok := c.lookup(chapterID); ok {
		return events, nil
	}

	result, err, _ := c.sf.Do(strconv.Itoa(chapterID), func() (interface{}, error) {
		if events, ok := c.lookup(chapterID); ok {
			return events, nil
		}
		now := c.clock()
		events, err := c.loader.Events(ctx, chapterID)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[chapterID] = cachedEvents{
			events:    events,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return events, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Event), nil
}

// Invalidate drops a chapter so the next read reloads it, e.g. after events are added or edited.
func (c *CachedEventCatalog) Invalidate(ctx context.Context, chapterID int) error {
	c.mu.Lock()
	delete(c.cache, chapterID)
	c.mu.Unlock()
	return nil
}

func (c *CachedEventCatalog) lookup(chapterID int) ([]domain.Event, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[chapterID]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return entry.events, true
}

func (c *CachedEventCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticEventLoader serves events from memory (useful for tests/demos).
type StaticEventLoader struct {
	byChapter map[int][]domain.Event
}

func NewStaticEventLoader(events []domain.Event) *StaticEventLoader {
	byChapter := make(map[int][]domain.Event)
	for _, event := range events {
		byChapter[event.ChapterID] = append(byChapter[event.ChapterID], event)
	}
	for _, list := range byChapter {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
	return &StaticEventLoader{byChapter: byChapter}
}

// Events returns an empty catalog for unknown chapters.
func (l *StaticEventLoader) Events(_ context.Context, chapterID int) ([]domain.Event, error) {
	events := l.byChapter[chapterID]
	out := make([]domain.Event, len(events))
	copy(out, events)
	return out, nil
}
