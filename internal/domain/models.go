package domain

import "time"

// Chapter is a time-boxed round of events inside a book.
// IsOpen and IsVisible are independent: a closed chapter may stay visible for review.
type Chapter struct {
	ID        int       `json:"id"`
	BookID    int       `json:"bookId"`
	Title     string    `json:"title"`
	IsOpen    bool      `json:"isOpen"`
	IsVisible bool      `json:"isVisible"`
	CreatedAt time.Time `json:"createdAt"`
}

// Member is a user subscribed to a book.
type Member struct {
	UserID   int    `json:"userId"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Team is referenced by spreads through HomeID and AwayID.
type Team struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	Logo *string `json:"logo,omitempty"`
}

// Adjustment is a manually authored point change. A nil ChapterID applies to the book as a whole.
type Adjustment struct {
	UserID    int  `json:"userId"`
	BookID    int  `json:"bookId"`
	ChapterID *int `json:"chapterId,omitempty"`
	Points    int  `json:"points"`
}

// GuestsUserID identifies the pseudo-row that combines every guest member.
const GuestsUserID = -1

// GuestsUsername is the display name of the combined guest row.
const GuestsUsername = "Guests"

// LeaderboardRow is a ranked line of a chapter or book leaderboard.
type LeaderboardRow struct {
	UserID   int    `json:"userId"`
	Username string `json:"username"`
	Earned   int    `json:"earnedPoints"`
	Added    int    `json:"addedPoints"`
	Total    int    `json:"totalPoints"`
	Rank     int    `json:"rank"`
	Correct  int    `json:"correct"`
	Graded   int    `json:"graded"`
	// Error is set when the member's picks could not be scored.
	Error string `json:"error,omitempty"`
}

// Leaderboard is an ordered set of rows; ChapterID is nil for book-wide boards.
type Leaderboard struct {
	BookID    int              `json:"bookId"`
	ChapterID *int             `json:"chapterId,omitempty"`
	Rows      []LeaderboardRow `json:"rows"`
}

// SpreadOutcome is how one spread resolved for one participant.
type SpreadOutcome struct {
	Side     Side   `json:"side,omitempty"`
	TeamID   int    `json:"teamId,omitempty"`
	TeamName string `json:"teamName,omitempty"`
	Wager    int    `json:"wager"`
	Answer   Answer `json:"answer,omitempty"`
	Decided  bool   `json:"decided"`
	Correct  bool   `json:"correct"`
	Awarded  int    `json:"awarded"`
}

// EventOutcome is how one event resolved for one participant.
type EventOutcome struct {
	EventID   int             `json:"eventId"`
	Kind      EventKind       `json:"kind"`
	Submitted bool            `json:"submitted"`
	Correct   int             `json:"correct"`
	Graded    int             `json:"graded"`
	Awarded   int             `json:"awarded"`
	Pending   bool            `json:"pending"`
	Text      string          `json:"text,omitempty"`
	Spreads   []SpreadOutcome `json:"spreads,omitempty"`
}

// UserResults collects a participant's outcomes across a chapter.
type UserResults struct {
	UserID   int            `json:"userId"`
	Username string         `json:"username"`
	Correct  int            `json:"correct"`
	Graded   int            `json:"graded"`
	Earned   int            `json:"earned"`
	Events   []EventOutcome `json:"events"`
	Error    string         `json:"error,omitempty"`
}

// SpreadTally totals wagers and awards on one spread across participants.
type SpreadTally struct {
	EventID int `json:"eventId"`
	Index   int `json:"index"`
	Wagered int `json:"wagered"`
	Awarded int `json:"awarded"`
}

// ChapterResults is the per-user, per-event view of a chapter.
type ChapterResults struct {
	Chapter Chapter       `json:"chapter"`
	Users   []UserResults `json:"users"`
	Tallies []SpreadTally `json:"tallies"`
	Teams   map[int]Team  `json:"teams"`
}

// ChapterStats summarizes one chapter for one participant.
type ChapterStats struct {
	ChapterID  int    `json:"chapterId"`
	Title      string `json:"title"`
	IsOpen     bool   `json:"isOpen"`
	IsVisible  bool   `json:"isVisible"`
	MaxPoints  int    `json:"maxPoints"`
	UserPoints int    `json:"userPoints"`
	UserRank   int    `json:"userRank"`
}
