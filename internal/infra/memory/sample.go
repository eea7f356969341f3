package memory

import (
	"time"

	"pickem-service/internal/domain"
)

// Sample is a small demo book used when no database is configured.
type Sample struct {
	Chapters    []domain.Chapter
	Events      []domain.Event
	Members     map[int][]domain.Member
	Teams       []domain.Team
	Adjustments []domain.Adjustment
}

func SampleBook() Sample {
	created := time.Date(2024, time.September, 1, 12, 0, 0, 0, time.UTC)
	week1 := 1
	return Sample{
		Chapters: []domain.Chapter{
			{ID: 1, BookID: 1, Title: "Week 1", IsOpen: false, IsVisible: true, CreatedAt: created},
			{ID: 2, BookID: 1, Title: "Week 2", IsOpen: true, IsVisible: true, CreatedAt: created.AddDate(0, 0, 7)},
		},
		Events: []domain.Event{
			{ID: 1, BookID: 1, ChapterID: 1, Contents: domain.SpreadGroup{Spreads: []domain.Spread{
				{HomeID: 1, AwayID: 2, HomeSpread: -3.5, Answer: domain.AnswerHome},
				{HomeID: 3, AwayID: 4, HomeSpread: 1.5, Answer: domain.AnswerAway},
				{HomeID: 5, AwayID: 6, HomeSpread: 0, Answer: domain.AnswerPush},
			}}},
			{ID: 2, BookID: 1, ChapterID: 1, Contents: domain.UserInput{
				Title: "Who scores first?", Points: 2, AcceptableAnswers: []string{"Kelce"},
			}},
			{ID: 3, BookID: 1, ChapterID: 2, Contents: domain.SpreadGroup{Spreads: []domain.Spread{
				{HomeID: 2, AwayID: 5, HomeSpread: -7},
				{HomeID: 6, AwayID: 1, HomeSpread: 2.5},
			}}},
			{ID: 4, BookID: 1, ChapterID: 2, Contents: domain.UserInput{Title: "Total touchdowns?", Points: 3}},
		},
		Members: map[int][]domain.Member{
			1: {
				{UserID: 1, Username: "commissioner", Role: domain.Role{Kind: domain.RoleOwner}},
				{UserID: 2, Username: "alice", Role: domain.Role{Kind: domain.RoleParticipant}},
				{UserID: 3, Username: "bob", Role: domain.Role{Kind: domain.RoleParticipant}},
				{UserID: 4, Username: "visitor", Role: domain.Role{Kind: domain.RoleGuest, GuestChapters: []int{2}}},
			},
		},
		Teams: []domain.Team{
			{ID: 1, Name: "Chiefs"},
			{ID: 2, Name: "Ravens"},
			{ID: 3, Name: "Eagles"},
			{ID: 4, Name: "Packers"},
			{ID: 5, Name: "Bills"},
			{ID: 6, Name: "Jets"},
		},
		Adjustments: []domain.Adjustment{
			{UserID: 3, BookID: 1, ChapterID: &week1, Points: 1},
		},
	}
}
