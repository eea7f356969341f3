package domain

import (
	"encoding/json"
	"fmt"
)

// Side is the team a participant backs on a spread.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// ParseSide accepts only the two pickable sides.
func ParseSide(raw string) (Side, bool) {
	switch Side(raw) {
	case SideHome, SideAway:
		return Side(raw), true
	}
	return "", false
}

// Answer is the graded outcome of a spread. The zero value means not graded yet.
type Answer string

const (
	AnswerUnset    Answer = ""
	AnswerHome     Answer = "home"
	AnswerAway     Answer = "away"
	AnswerPush     Answer = "push"
	AnswerUnpicked Answer = "unpicked"
)

// Decided reports whether the answer names a winning side.
// Push and unpicked are non-outcomes and count the same as unset.
func (a Answer) Decided() bool {
	return a == AnswerHome || a == AnswerAway
}

// Spread is a single binary-outcome game inside a spread group.
type Spread struct {
	HomeID     int     `json:"home_id"`
	AwayID     int     `json:"away_id"`
	HomeSpread float64 `json:"home_spread"`
	Answer     Answer  `json:"answer,omitempty"`
}

// AwaySpread is the handicap seen from the away side.
func (s Spread) AwaySpread() float64 {
	return -s.HomeSpread
}

// TeamFor returns the team id backing the given side.
func (s Spread) TeamFor(side Side) (int, bool) {
	switch side {
	case SideHome:
		return s.HomeID, true
	case SideAway:
		return s.AwayID, true
	}
	return 0, false
}

// EventKind names the variant of an event or pick.
type EventKind string

const (
	KindSpreadGroup EventKind = "spread_group"
	KindUserInput   EventKind = "user_input"
)

// EventContents is implemented by SpreadGroup and UserInput only.
type EventContents interface {
	Kind() EventKind
	// MaxPoints is the most a single participant can earn from the event.
	MaxPoints() int
	isEventContents()
}

// SpreadGroup is an ordered list of spreads; participants rank them with point values 1..N.
type SpreadGroup struct {
	Spreads []Spread
}

func (SpreadGroup) Kind() EventKind { return KindSpreadGroup }
func (SpreadGroup) isEventContents() {}

func (g SpreadGroup) MaxPoints() int {
	n := len(g.Spreads)
	return n * (n + 1) / 2
}

// UserInput is a free-text question worth a fixed number of points.
// A nil AcceptableAnswers means the event must be graded by hand.
type UserInput struct {
	Title             string   `json:"title"`
	Description       *string  `json:"description,omitempty"`
	Points            int      `json:"points"`
	AcceptableAnswers []string `json:"acceptable_answers"`
}

func (UserInput) Kind() EventKind  { return KindUserInput }
func (UserInput) isEventContents() {}

func (u UserInput) MaxPoints() int { return u.Points }

// Graded reports whether the engine can decide correctness on its own.
func (u UserInput) Graded() bool {
	return u.AcceptableAnswers != nil
}

// Accepts is exact string membership; no trimming or case folding.
func (u UserInput) Accepts(text string) bool {
	for _, answer := range u.AcceptableAnswers {
		if answer == text {
			return true
		}
	}
	return false
}

// Event is a gradable item inside a chapter.
type Event struct {
	ID        int
	BookID    int
	ChapterID int
	Contents  EventContents
}

type contentsEnvelope struct {
	SpreadGroup *[]Spread  `json:"spread_group,omitempty"`
	UserInput   *UserInput `json:"user_input,omitempty"`
}

// MarshalContents encodes contents in their stored, externally tagged form.
func MarshalContents(contents EventContents) ([]byte, error) {
	switch c := contents.(type) {
	case SpreadGroup:
		spreads := c.Spreads
		if spreads == nil {
			spreads = []Spread{}
		}
		return json.Marshal(contentsEnvelope{SpreadGroup: &spreads})
	case UserInput:
		return json.Marshal(contentsEnvelope{UserInput: &c})
	default:
		return nil, fmt.Errorf("marshal contents %T: %w", contents, ErrUnknownEventKind)
	}
}

// UnmarshalContents decodes the stored form produced by MarshalContents.
func UnmarshalContents(data []byte) (EventContents, error) {
	var env contentsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal contents: %w", err)
	}
	switch {
	case env.SpreadGroup != nil && env.UserInput == nil:
		return SpreadGroup{Spreads: *env.SpreadGroup}, nil
	case env.UserInput != nil && env.SpreadGroup == nil:
		return *env.UserInput, nil
	}
	return nil, ErrUnknownEventKind
}

type eventJSON struct {
	ID        int             `json:"id"`
	BookID    int             `json:"book_id"`
	ChapterID int             `json:"chapter_id"`
	Contents  json.RawMessage `json:"contents"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	contents, err := MarshalContents(e.Contents)
	if err != nil {
		return nil, err
	}
	return json.Marshal(eventJSON{ID: e.ID, BookID: e.BookID, ChapterID: e.ChapterID, Contents: contents})
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	contents, err := UnmarshalContents(raw.Contents)
	if err != nil {
		return err
	}
	*e = Event{ID: raw.ID, BookID: raw.BookID, ChapterID: raw.ChapterID, Contents: contents}
	return nil
}

// MaxPoints sums the best possible score across events.
func MaxPoints(events []Event) int {
	total := 0
	for _, event := range events {
		if event.Contents != nil {
			total += event.Contents.MaxPoints()
		}
	}
	return total
}
