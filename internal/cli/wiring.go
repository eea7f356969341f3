package cli

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"pickem-service/internal/app"
	"pickem-service/internal/config"
	"pickem-service/internal/infra/memory"
	pgstore "pickem-service/internal/infra/postgres"
	rediscache "pickem-service/internal/infra/redis"
)

type services struct {
	picks        *app.PickService
	leaderboards *app.LeaderboardService
	close        func()
}

type stores struct {
	chapters app.ChapterRepository
	loader   memory.EventLoader
	members  app.MemberDirectory
	picks    app.PickStore
	added    app.AddedPointsStore
	teams    app.TeamDirectory
}

// buildServices wires Postgres when configured, otherwise the in-memory sample book.
// The submission-side event catalog is cached in Redis when an address is set, in process memory otherwise.
func buildServices(ctx context.Context, cfg config.Config) (*services, error) {
	var (
		st      stores
		closers []func()
	)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		closers = append(closers, pool.Close)
		st = stores{
			chapters: pgstore.NewChapterRepository(pool),
			loader:   pgstore.NewEventLoader(pool),
			members:  pgstore.NewMemberDirectory(pool),
			picks:    pgstore.NewPickStore(pool),
			added:    pgstore.NewAddedPoints(pool),
			teams:    pgstore.NewTeamDirectory(pool),
		}
	} else {
		log.Printf("postgres url not configured, serving the in-memory sample book")
		sample := memory.SampleBook()
		st = stores{
			chapters: memory.NewChapterStore(sample.Chapters),
			loader:   memory.NewStaticEventLoader(sample.Events),
			members:  memory.NewMemberDirectory(sample.Members),
			picks:    memory.NewPickStore(),
			added:    memory.NewAddedPoints(sample.Adjustments),
			teams:    memory.NewTeamDirectory(sample.Teams),
		}
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	var events app.EventCatalog
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = client.Close() })
		events = rediscache.NewEventCatalog(client, st.loader, catalogTTL)
	} else {
		events = memory.NewCachedEventCatalog(st.loader, catalogTTL)
	}

	writeTimeout := config.TTLDuration(cfg.Storage.WriteTimeout, 5*time.Second)
	svc := newServices(st, events, writeTimeout)
	svc.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return svc, nil
}

// newServices hands the cached catalog to submissions, which only need event ids and shapes.
// Leaderboards read events straight from the loader so answers graded in storage score immediately.
func newServices(st stores, events app.EventCatalog, writeTimeout time.Duration) *services {
	return &services{
		picks:        app.NewPickService(st.chapters, events, st.members, st.picks, writeTimeout),
		leaderboards: app.NewLeaderboardService(st.chapters, st.loader, st.picks, st.members, st.added, st.teams),
		close:        func() {},
	}
}
