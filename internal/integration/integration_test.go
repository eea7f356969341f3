package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"pickem-service/internal/app"
	"pickem-service/internal/domain"
	pgstore "pickem-service/internal/infra/postgres"
	pgmigrations "pickem-service/internal/infra/postgres/migrations"
	infraredis "pickem-service/internal/infra/redis"
)

const picksBody = `{"events":[
	{"type":"spread-group","event-id":"1","spreads":[
		{"num-points":"2","selection":"home"},
		{"num-points":"1","selection":"home"}]},
	{"type":"user-input","event-id":"2","user-input":"Kelce"}]}`

func TestSubmitAndRankEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedBook(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	chapters := pgstore.NewChapterRepository(pool)
	loader := pgstore.NewEventLoader(pool)
	events := infraredis.NewEventCatalog(redisClient, loader, 5*time.Minute)
	members := pgstore.NewMemberDirectory(pool)
	picks := pgstore.NewPickStore(pool)
	pickService := app.NewPickService(chapters, events, members, picks, 5*time.Second)
	leaderboards := app.NewLeaderboardService(chapters, loader, picks, members, pgstore.NewAddedPoints(pool), pgstore.NewTeamDirectory(pool))

	// Resubmission must overwrite rather than duplicate.
	for i := 0; i < 2; i++ {
		if _, err := pickService.Submit(ctx, 1, 1, 2, strings.NewReader(picksBody)); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	var stored int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM picks WHERE user_id=2`).Scan(&stored); err != nil {
		t.Fatalf("count picks: %v", err)
	}
	if stored != 2 {
		t.Fatalf("expected 2 stored picks, got %d", stored)
	}

	if _, err := pickService.Submit(ctx, 1, 2, 2, strings.NewReader("{")); !errors.Is(err, domain.ErrChapterClosed) {
		t.Fatalf("expected closed chapter, got %v", err)
	}

	board, err := leaderboards.ChapterLeaderboard(ctx, 1, 1, 2)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %+v", board.Rows)
	}
	// alice: 2 on the home spread plus 3 for the answer; bob: nothing earned, 1 added.
	if board.Rows[0].Username != "alice" || board.Rows[0].Total != 5 || board.Rows[1].Total != 1 || board.Rows[1].Rank != 2 {
		t.Fatalf("unexpected leaderboard: %+v", board.Rows)
	}

	results, err := leaderboards.ChapterResults(ctx, 1, 1, 1)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if name := results.Users[0].Events[0].Spreads[0].TeamName; name != "Chiefs" {
		t.Fatalf("expected team name from postgres, got %q", name)
	}

	book, err := leaderboards.BookLeaderboard(ctx, 1, 3)
	if err != nil {
		t.Fatalf("book leaderboard: %v", err)
	}
	if len(book.Rows) != 4 {
		t.Fatalf("expected alice, guests, bob, olive, got %+v", book.Rows)
	}
	if guests := book.Rows[1]; guests.UserID != domain.GuestsUserID || guests.Total != 4 || guests.Rank != 2 {
		t.Fatalf("expected guests row with 4 added points, got %+v", book.Rows)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "pool", "POSTGRES_PASSWORD": "poolpass", "POSTGRES_DB": "pool"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://pool:poolpass@%s:%s/pool?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

// seedBook creates book 1 with an open chapter 1 (one two-spread group, one graded question)
// and a closed chapter 2. Members: 1 owner, 2 alice, 3 bob, 4 guest of chapter 2.
func seedBook(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	spreads, err := domain.MarshalContents(domain.SpreadGroup{Spreads: []domain.Spread{
		{HomeID: 1, AwayID: 2, HomeSpread: -3.5, Answer: domain.AnswerHome},
		{HomeID: 3, AwayID: 4, HomeSpread: 1, Answer: domain.AnswerAway},
	}})
	if err != nil {
		t.Fatalf("marshal spreads: %v", err)
	}
	question, err := domain.MarshalContents(domain.UserInput{Title: "Who scores first?", Points: 3, AcceptableAnswers: []string{"Kelce"}})
	if err != nil {
		t.Fatalf("marshal question: %v", err)
	}

	statements := []struct {
		query string
		args  []interface{}
	}{
		{`INSERT INTO users (id, username) VALUES (1, 'olive'), (2, 'alice'), (3, 'bob'), (4, 'gus')`, nil},
		{`INSERT INTO books (id, name) VALUES (1, 'NFL 2024')`, nil},
		{`INSERT INTO subscriptions (book_id, user_id, role) VALUES
			(1, 1, '"owner"'), (1, 2, '"participant"'), (1, 3, '"participant"'), (1, 4, '{"guest":{"chapter_ids":[2]}}')`, nil},
		{`INSERT INTO chapters (id, book_id, title, is_open, is_visible) VALUES
			(1, 1, 'Week 1', TRUE, TRUE), (2, 1, 'Week 2', FALSE, TRUE)`, nil},
		{`INSERT INTO teams (id, name) VALUES (1, 'Chiefs'), (2, 'Ravens'), (3, 'Eagles'), (4, 'Packers')`, nil},
		{`INSERT INTO events (id, book_id, chapter_id, contents) VALUES (1, 1, 1, ?::jsonb), (2, 1, 1, ?::jsonb)`, []interface{}{string(spreads), string(question)}},
		{`INSERT INTO added_points (book_id, chapter_id, user_id, points) VALUES (1, 1, 3, 1), (1, NULL, 4, 4)`, nil},
	}
	for _, st := range statements {
		if _, err := db.ExecContext(ctx, st.query, st.args...); err != nil {
			t.Fatalf("seed %q: %v", st.query, err)
		}
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
