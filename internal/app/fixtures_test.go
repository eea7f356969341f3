package app_test

import (
	"context"
	"errors"
	"strings"
	"time"

	"pickem-service/internal/app"
	"pickem-service/internal/domain"
	"pickem-service/internal/infra/memory"
)

const (
	bookID         = 1
	openChapter    = 1
	closedChapter  = 2
	hiddenChapter  = 3
	otherBookChap  = 4
	ownerID        = 1
	aliceID        = 2
	bobID          = 3
	ginaID         = 4
	ursulaID       = 5
	gusID          = 6
	strangerUserID = 42
)

var errBackend = errors.New("backend unavailable")

type world struct {
	chapters *memory.ChapterStore
	events   *memory.StaticEventLoader
	members  *memory.MemberDirectory
	picks    *memory.PickStore
	added    *memory.AddedPoints
	teams    *memory.TeamDirectory
}

func newWorld() *world {
	base := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	week1 := openChapter
	return &world{
		chapters: memory.NewChapterStore([]domain.Chapter{
			{ID: openChapter, BookID: bookID, Title: "Week 1", IsOpen: true, IsVisible: true, CreatedAt: base},
			{ID: closedChapter, BookID: bookID, Title: "Week 2", IsOpen: false, IsVisible: true, CreatedAt: base.Add(24 * time.Hour)},
			{ID: hiddenChapter, BookID: bookID, Title: "Week 3", IsOpen: true, IsVisible: false, CreatedAt: base.Add(48 * time.Hour)},
			{ID: otherBookChap, BookID: 2, Title: "Elsewhere", IsOpen: true, IsVisible: true, CreatedAt: base},
		}),
		events: memory.NewStaticEventLoader(append(testEvents(),
			domain.Event{ID: 3, BookID: bookID, ChapterID: closedChapter, Contents: domain.UserInput{Title: "Total touchdowns?", Points: 3}},
		)),
		members: memory.NewMemberDirectory(map[int][]domain.Member{
			bookID: {
				{UserID: ownerID, Username: "olive", Role: domain.Role{Kind: domain.RoleOwner}},
				{UserID: aliceID, Username: "alice", Role: domain.Role{Kind: domain.RoleParticipant}},
				{UserID: bobID, Username: "bob", Role: domain.Role{Kind: domain.RoleParticipant}},
				{UserID: ginaID, Username: "gina", Role: domain.Role{Kind: domain.RoleGuest, GuestChapters: []int{openChapter}}},
				{UserID: ursulaID, Username: "ursula", Role: domain.Role{Kind: domain.RoleUnauthorized}},
				{UserID: gusID, Username: "gus", Role: domain.Role{Kind: domain.RoleGuest, GuestChapters: []int{closedChapter}}},
			},
		}),
		picks: memory.NewPickStore(),
		added: memory.NewAddedPoints([]domain.Adjustment{
			{UserID: bobID, BookID: bookID, ChapterID: &week1, Points: 3},
			{UserID: ginaID, BookID: bookID, Points: 4},
		}),
		teams: memory.NewTeamDirectory([]domain.Team{
			{ID: 1, Name: "Chiefs"}, {ID: 2, Name: "Ravens"}, {ID: 3, Name: "Eagles"},
			{ID: 4, Name: "Packers"}, {ID: 5, Name: "Bills"}, {ID: 6, Name: "Jets"},
		}),
	}
}

func (w *world) pickService() *app.PickService {
	return app.NewPickService(w.chapters, w.events, w.members, w.picks, time.Second)
}

func (w *world) leaderboards() *app.LeaderboardService {
	return app.NewLeaderboardService(w.chapters, w.events, w.picks, w.members, w.added, w.teams)
}

// testEvents is chapter 1: three graded spreads (home, away, push) and a graded user input worth 2.
func testEvents() []domain.Event {
	return []domain.Event{
		{ID: 1, BookID: bookID, ChapterID: openChapter, Contents: domain.SpreadGroup{Spreads: []domain.Spread{
			{HomeID: 1, AwayID: 2, HomeSpread: -3.5, Answer: domain.AnswerHome},
			{HomeID: 3, AwayID: 4, HomeSpread: 1.5, Answer: domain.AnswerAway},
			{HomeID: 5, AwayID: 6, HomeSpread: 0, Answer: domain.AnswerPush},
		}}},
		{ID: 2, BookID: bookID, ChapterID: openChapter, Contents: domain.UserInput{
			Title: "Who scores first?", Points: 2, AcceptableAnswers: []string{"Kelce"},
		}},
	}
}

// spreadEntry builds a spread group entry from "points:selection" pairs.
func spreadEntry(eventID string, rows ...string) domain.SpreadGroupEntry {
	entry := domain.SpreadGroupEntry{EventID: eventID}
	for _, row := range rows {
		points, selection, _ := strings.Cut(row, ":")
		entry.Spreads = append(entry.Spreads, domain.SpreadSelection{NumPoints: points, Selection: selection})
	}
	return entry
}

// alice earns 3 on the first spread and 2 on the user input.
const aliceBody = `{"events":[
	{"type":"spread-group","event-id":"1","spreads":[
		{"num-points":"3","selection":"home"},
		{"num-points":"1","selection":"home"},
		{"num-points":"2","selection":"away"}]},
	{"type":"user-input","event-id":"2","user-input":"Kelce"}]}`

// bob earns 2 on the second spread and nothing on the user input.
const bobBody = `{"events":[
	{"type":"spread-group","event-id":"1","spreads":[
		{"num-points":"1","selection":"away"},
		{"num-points":"2","selection":"away"},
		{"num-points":"3","selection":"home"}]},
	{"type":"user-input","event-id":"2","user-input":"Travis"}]}`

func submit(w *world, userID int, body string) error {
	_, err := w.pickService().Submit(context.Background(), bookID, openChapter, userID, strings.NewReader(body))
	return err
}

type failingPickStore struct{}

func (failingPickStore) UpsertPicks(context.Context, domain.PickBatch) error {
	return errBackend
}

func (failingPickStore) ChapterPicks(context.Context, int) (map[domain.PickKey]domain.Pick, error) {
	return nil, errBackend
}

type blockingPickStore struct{}

func (blockingPickStore) UpsertPicks(ctx context.Context, _ domain.PickBatch) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingPickStore) ChapterPicks(context.Context, int) (map[domain.PickKey]domain.Pick, error) {
	return nil, nil
}
