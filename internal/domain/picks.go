package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Choice is implemented by SpreadChoices and TextChoice only.
type Choice interface {
	Kind() EventKind
	isChoice()
}

// SpreadChoices holds one side and one wager per spread, in spread order.
type SpreadChoices struct {
	Sides  []Side
	Wagers []int
}

func (SpreadChoices) Kind() EventKind { return KindSpreadGroup }
func (SpreadChoices) isChoice()       {}

// TextChoice is a free-text answer; its wager is always 1.
type TextChoice struct {
	Text string
}

func (TextChoice) Kind() EventKind { return KindUserInput }
func (TextChoice) isChoice()       {}

// Pick is one participant's answer to one event.
type Pick struct {
	EventID int
	Choice  Choice
}

// PickKey addresses a pick inside a chapter.
type PickKey struct {
	EventID int
	UserID  int
}

// PickBatch is a validated, storage-ready submission.
type PickBatch struct {
	BookID    int
	ChapterID int
	UserID    int
	Picks     []Pick
}

// EncodeChoice produces the stored choice and wager JSON for a pick.
func EncodeChoice(choice Choice) (choiceJSON, wagerJSON []byte, err error) {
	switch c := choice.(type) {
	case SpreadChoices:
		if choiceJSON, err = json.Marshal(c.Sides); err != nil {
			return nil, nil, err
		}
		if wagerJSON, err = json.Marshal(c.Wagers); err != nil {
			return nil, nil, err
		}
		return choiceJSON, wagerJSON, nil
	case TextChoice:
		if choiceJSON, err = json.Marshal(c.Text); err != nil {
			return nil, nil, err
		}
		return choiceJSON, []byte("1"), nil
	default:
		return nil, nil, fmt.Errorf("encode choice %T: %w", choice, ErrUnknownEventKind)
	}
}

// DecodeChoice reverses EncodeChoice. The variant is chosen by the JSON shape of the choice:
// an array for spread groups, a string for user input.
func DecodeChoice(choiceJSON, wagerJSON []byte) (Choice, error) {
	trimmed := bytes.TrimSpace(choiceJSON)
	if len(trimmed) == 0 {
		return nil, ErrUnknownEventKind
	}
	switch trimmed[0] {
	case '[':
		var c SpreadChoices
		if err := json.Unmarshal(trimmed, &c.Sides); err != nil {
			return nil, fmt.Errorf("decode spread choice: %w", err)
		}
		if err := json.Unmarshal(wagerJSON, &c.Wagers); err != nil {
			return nil, fmt.Errorf("decode spread wager: %w", err)
		}
		return c, nil
	case '"':
		var c TextChoice
		if err := json.Unmarshal(trimmed, &c.Text); err != nil {
			return nil, fmt.Errorf("decode text choice: %w", err)
		}
		return c, nil
	}
	return nil, ErrUnknownEventKind
}
