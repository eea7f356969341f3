package app

import (
	"fmt"
	"strconv"
	"strings"

	"pickem-service/internal/domain"
)

// KnownEvents indexes a chapter's catalog by event id.
type KnownEvents map[int]domain.Event

func NewKnownEvents(events []domain.Event) KnownEvents {
	known := make(KnownEvents, len(events))
	for _, event := range events {
		known[event.ID] = event
	}
	return known
}

// ValidateSubmission checks every entry against the catalog and returns storage-ready picks.
// The first failing entry rejects the whole submission.
func ValidateSubmission(sub domain.Submission, known KnownEvents) ([]domain.Pick, error) {
	picks := make([]domain.Pick, 0, len(sub.Entries))
	seen := make(map[int]struct{}, len(sub.Entries))

	for _, entry := range sub.Entries {
		raw := entry.RawEventID()
		eventID, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &domain.ValidationError{Err: domain.ErrInvalidEventID, EventID: raw, Msg: "Could not parse event id"}
		}
		event, ok := known[eventID]
		if !ok {
			return nil, &domain.ValidationError{Err: domain.ErrUnknownEvent, EventID: raw, Msg: "Event not found"}
		}
		if _, dup := seen[eventID]; dup {
			return nil, &domain.ValidationError{Err: domain.ErrDuplicateEvent, EventID: raw, Msg: fmt.Sprintf("Event %d submitted more than once", eventID)}
		}
		seen[eventID] = struct{}{}

		var pick domain.Pick
		switch e := entry.(type) {
		case domain.SpreadGroupEntry:
			group, ok := event.Contents.(domain.SpreadGroup)
			if !ok {
				return nil, mismatch(raw, "is not a spread group")
			}
			pick, err = validateSpreadGroup(eventID, raw, e, group)
		case domain.UserInputEntry:
			if _, ok := event.Contents.(domain.UserInput); !ok {
				return nil, mismatch(raw, "is not a user input question")
			}
			pick = domain.Pick{EventID: eventID, Choice: domain.TextChoice{Text: e.UserInput}}
		default:
			return nil, &domain.ValidationError{Err: domain.ErrMalformedRequest, EventID: raw, Msg: fmt.Sprintf("Unsupported entry %T", entry)}
		}
		if err != nil {
			return nil, err
		}
		picks = append(picks, pick)
	}
	return picks, nil
}

func validateSpreadGroup(eventID int, raw string, entry domain.SpreadGroupEntry, group domain.SpreadGroup) (domain.Pick, error) {
	n := len(entry.Spreads)
	if n == 0 || n != len(group.Spreads) {
		return domain.Pick{}, mismatch(raw, fmt.Sprintf("has %d spreads, got %d", len(group.Spreads), n))
	}

	used := make([]int, n)
	choices := domain.SpreadChoices{
		Sides:  make([]domain.Side, 0, n),
		Wagers: make([]int, 0, n),
	}
	for _, spread := range entry.Spreads {
		points, err := strconv.Atoi(spread.NumPoints)
		if err != nil {
			return domain.Pick{}, &domain.ValidationError{
				Err:     domain.ErrInvalidPoints,
				EventID: raw,
				Msg:     fmt.Sprintf("Could not parse spread group points for event %s", raw),
			}
		}
		if points < 1 || points > n {
			return domain.Pick{}, &domain.ValidationError{
				Err:     domain.ErrPointsOutOfRange,
				EventID: raw,
				Msg:     fmt.Sprintf("Points must be in range 1-%d", n),
			}
		}
		side, ok := domain.ParseSide(spread.Selection)
		if !ok {
			return domain.Pick{}, &domain.ValidationError{
				Err:     domain.ErrInvalidSelection,
				EventID: raw,
				Msg:     fmt.Sprintf("Selection %q must be home or away", spread.Selection),
			}
		}
		used[points-1]++
		choices.Sides = append(choices.Sides, side)
		choices.Wagers = append(choices.Wagers, points)
	}

	var multiple, unused []int
	for i, count := range used {
		switch {
		case count > 1:
			multiple = append(multiple, i+1)
		case count == 0:
			unused = append(unused, i+1)
		}
	}
	if len(multiple) > 0 || len(unused) > 0 {
		return domain.Pick{}, &domain.ValidationError{
			Err:     domain.ErrPointsPermutation,
			EventID: raw,
			Msg:     fmt.Sprintf("Points used multiple times: %s. Points available: %s", joinInts(multiple), joinInts(unused)),
		}
	}
	return domain.Pick{EventID: eventID, Choice: choices}, nil
}

func mismatch(raw, detail string) error {
	return &domain.ValidationError{
		Err:     domain.ErrEventMismatch,
		EventID: raw,
		Msg:     fmt.Sprintf("Event %s %s", raw, detail),
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
