package domain

import (
	"encoding/json"
	"fmt"
	"io"
)

// SubmissionEntry is implemented by SpreadGroupEntry and UserInputEntry only.
type SubmissionEntry interface {
	RawEventID() string
	isSubmissionEntry()
}

// SpreadSelection is one spread row as submitted: a point value and a side, both unparsed.
type SpreadSelection struct {
	NumPoints string `json:"num-points"`
	Selection string `json:"selection"`
}

// SpreadGroupEntry answers a spread group event.
type SpreadGroupEntry struct {
	EventID string            `json:"event-id"`
	Spreads []SpreadSelection `json:"spreads"`
}

func (e SpreadGroupEntry) RawEventID() string { return e.EventID }
func (SpreadGroupEntry) isSubmissionEntry()    {}

// UserInputEntry answers a free-text event.
type UserInputEntry struct {
	EventID   string `json:"event-id"`
	UserInput string `json:"user-input"`
}

func (e UserInputEntry) RawEventID() string { return e.EventID }
func (UserInputEntry) isSubmissionEntry()    {}

// Submission is the ordered list of entries a participant sends for one chapter.
type Submission struct {
	Entries []SubmissionEntry
}

const (
	entryTypeSpreadGroup = "spread-group"
	entryTypeUserInput   = "user-input"
)

type rawSpread struct {
	NumPoints *string `json:"num-points"`
	Selection *string `json:"selection"`
}

type rawEntry struct {
	Type      string       `json:"type"`
	EventID   *string      `json:"event-id"`
	Spreads   *[]rawSpread `json:"spreads"`
	UserInput *string      `json:"user-input"`
}

// DecodeSubmission reads a request body of the form {"events": [...]}.
// Every field is required; anything else is ErrMalformedRequest.
func DecodeSubmission(r io.Reader) (Submission, error) {
	var body struct {
		Events *[]rawEntry `json:"events"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return Submission{}, malformed(fmt.Sprintf("could not decode picks: %v", err))
	}
	if body.Events == nil {
		return Submission{}, malformed("missing events")
	}

	entries := make([]SubmissionEntry, 0, len(*body.Events))
	for i, raw := range *body.Events {
		entry, err := raw.toEntry()
		if err != nil {
			return Submission{}, malformed(fmt.Sprintf("event %d: %v", i, err))
		}
		entries = append(entries, entry)
	}
	return Submission{Entries: entries}, nil
}

func (r rawEntry) toEntry() (SubmissionEntry, error) {
	if r.EventID == nil {
		return nil, fmt.Errorf("missing event-id")
	}
	switch r.Type {
	case entryTypeSpreadGroup:
		if r.Spreads == nil {
			return nil, fmt.Errorf("missing spreads")
		}
		spreads := make([]SpreadSelection, 0, len(*r.Spreads))
		for _, s := range *r.Spreads {
			if s.NumPoints == nil || s.Selection == nil {
				return nil, fmt.Errorf("spread requires num-points and selection")
			}
			spreads = append(spreads, SpreadSelection{NumPoints: *s.NumPoints, Selection: *s.Selection})
		}
		return SpreadGroupEntry{EventID: *r.EventID, Spreads: spreads}, nil
	case entryTypeUserInput:
		if r.UserInput == nil {
			return nil, fmt.Errorf("missing user-input")
		}
		return UserInputEntry{EventID: *r.EventID, UserInput: *r.UserInput}, nil
	}
	return nil, fmt.Errorf("unsupported type %q", r.Type)
}

func malformed(detail string) error {
	return &ValidationError{
		Err: ErrMalformedRequest,
		Msg: "Can't process picks. Are they all the way filled out? (" + detail + ")",
	}
}
