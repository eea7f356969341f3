package redis

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"pickem-service/internal/domain"
	"pickem-service/internal/infra/memory"
)

// EventCatalog caches chapter events in Redis and falls back to a loader on cache miss.
// Events are stored as: HSET chapter:{chapterID}:events {eventID} {event JSON}
// A chapter without events is stored as: HSET chapter:{chapterID}:events empty ""
type EventCatalog struct {
	client *redis.Client
	loader memory.EventLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewEventCatalog(client *redis.Client, loader memory.EventLoader, ttl time.Duration) *EventCatalog {
	return &EventCatalog{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *EventCatalog) Events(ctx context.Context, chapterID int) ([]domain.Event, error) {
	key := eventsKey(chapterID)
	if events, ok := c.cached(ctx, key); ok {
		return events, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if events, ok := c.cached(ctx, key); ok {
			return events, nil
		}

		events, err := c.loader.Events(ctx, chapterID)
		if err != nil {
			return nil, err
		}
		if err := c.store(ctx, key, events); err != nil {
			log.Printf("cache events chapter=%d: %v", chapterID, err)
			// A half-written hash would be served as the whole chapter.
			_ = c.client.Del(ctx, key).Err()
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Event), nil
}

// store replaces the chapter hash in one MULTI/EXEC. An empty chapter is kept as a lone marker field.
func (c *EventCatalog) store(ctx context.Context, key string, events []domain.Event) error {
	values := make([]interface{}, 0, 2*len(events)+2)
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		values = append(values, strconv.Itoa(event.ID), data)
	}
	if len(values) == 0 {
		values = append(values, emptyField, "")
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values...)
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	return err
}

// Invalidate drops the cached chapter, e.g. after events are added or edited.
func (c *EventCatalog) Invalidate(ctx context.Context, chapterID int) error {
	return c.client.Del(ctx, eventsKey(chapterID)).Err()
}

// cached reports a hit only when every field decodes; anything else is treated as a miss.
func (c *EventCatalog) cached(ctx context.Context, key string) ([]domain.Event, bool) {
	fields, err := c.client.HGetAll(ctx, key).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}
	events := make([]domain.Event, 0, len(fields))
	for field, raw := range fields {
		if field == emptyField {
			continue
		}
		var event domain.Event
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			log.Printf("decode cached event %s/%s: %v", key, field, err)
			return nil, false
		}
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, true
}

// emptyField cannot collide with an event id field, which is always numeric.
const emptyField = "empty"

func eventsKey(chapterID int) string {
	return "chapter:" + strconv.Itoa(chapterID) + ":events"
}

func (c *EventCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
