package app

import (
	"fmt"

	"pickem-service/internal/domain"
)

// ScoreEvent resolves one participant's pick against an event. pick is nil when nothing was submitted.
//
// Spreads count toward Graded only once answered home or away; push and unpicked award nothing
// and are left out of both Correct and Graded. User input events without an acceptable answer
// set are Pending and never scored automatically.
func ScoreEvent(event domain.Event, pick *domain.Pick) (domain.EventOutcome, error) {
	switch contents := event.Contents.(type) {
	case domain.SpreadGroup:
		return scoreSpreadGroup(event.ID, contents, pick)
	case domain.UserInput:
		return scoreUserInput(event.ID, contents, pick)
	default:
		return domain.EventOutcome{}, fmt.Errorf("event %d: %w", event.ID, domain.ErrUnknownEventKind)
	}
}

func scoreSpreadGroup(eventID int, group domain.SpreadGroup, pick *domain.Pick) (domain.EventOutcome, error) {
	outcome := domain.EventOutcome{
		EventID: eventID,
		Kind:    domain.KindSpreadGroup,
		Spreads: make([]domain.SpreadOutcome, len(group.Spreads)),
	}

	var choices domain.SpreadChoices
	if pick != nil {
		c, ok := pick.Choice.(domain.SpreadChoices)
		if !ok {
			return domain.EventOutcome{}, fmt.Errorf("event %d: spread group scored against %s pick: %w", eventID, choiceKind(pick), domain.ErrDataIntegrity)
		}
		if len(c.Sides) != len(group.Spreads) || len(c.Wagers) != len(group.Spreads) {
			return domain.EventOutcome{}, fmt.Errorf("event %d: %d spreads, %d sides, %d wagers: %w",
				eventID, len(group.Spreads), len(c.Sides), len(c.Wagers), domain.ErrDataIntegrity)
		}
		choices = c
		outcome.Submitted = true
	}

	for i, spread := range group.Spreads {
		so := domain.SpreadOutcome{Answer: spread.Answer, Decided: spread.Answer.Decided()}
		if so.Decided {
			outcome.Graded++
		}
		if outcome.Submitted {
			side := choices.Sides[i]
			teamID, ok := spread.TeamFor(side)
			if !ok {
				return domain.EventOutcome{}, fmt.Errorf("event %d spread %d: side %q: %w", eventID, i, side, domain.ErrDataIntegrity)
			}
			so.Side = side
			so.TeamID = teamID
			so.Wager = choices.Wagers[i]
			if so.Decided && domain.Answer(side) == spread.Answer {
				so.Correct = true
				so.Awarded = so.Wager
				outcome.Correct++
				outcome.Awarded += so.Awarded
			}
		}
		outcome.Spreads[i] = so
	}
	return outcome, nil
}

func scoreUserInput(eventID int, input domain.UserInput, pick *domain.Pick) (domain.EventOutcome, error) {
	outcome := domain.EventOutcome{
		EventID: eventID,
		Kind:    domain.KindUserInput,
		Pending: !input.Graded(),
	}
	if input.Graded() {
		outcome.Graded = 1
	}
	if pick == nil {
		return outcome, nil
	}

	text, ok := pick.Choice.(domain.TextChoice)
	if !ok {
		return domain.EventOutcome{}, fmt.Errorf("event %d: user input scored against %s pick: %w", eventID, choiceKind(pick), domain.ErrDataIntegrity)
	}
	outcome.Submitted = true
	outcome.Text = text.Text
	if input.Graded() && input.Accepts(text.Text) {
		outcome.Correct = 1
		outcome.Awarded = input.Points
	}
	return outcome, nil
}

// choiceKind names a pick's variant; stores leave Choice nil when the stored form could not be decoded.
func choiceKind(pick *domain.Pick) string {
	if pick.Choice == nil {
		return "undecodable"
	}
	return string(pick.Choice.Kind())
}

// ScoreUser resolves every event of a chapter for one participant.
// The first integrity error aborts the user's row.
func ScoreUser(member domain.Member, events []domain.Event, picks map[domain.PickKey]domain.Pick) (domain.UserResults, error) {
	results := domain.UserResults{
		UserID:   member.UserID,
		Username: member.Username,
		Events:   make([]domain.EventOutcome, 0, len(events)),
	}
	for _, event := range events {
		var pick *domain.Pick
		if p, ok := picks[domain.PickKey{EventID: event.ID, UserID: member.UserID}]; ok {
			pick = &p
		}
		outcome, err := ScoreEvent(event, pick)
		if err != nil {
			return domain.UserResults{UserID: member.UserID, Username: member.Username}, fmt.Errorf("user %d: %w", member.UserID, err)
		}
		results.Correct += outcome.Correct
		results.Graded += outcome.Graded
		results.Earned += outcome.Awarded
		results.Events = append(results.Events, outcome)
	}
	return results, nil
}

// ScoreChapter scores each member independently; a corrupt record only marks its own row.
func ScoreChapter(events []domain.Event, members []domain.Member, picks map[domain.PickKey]domain.Pick) []domain.UserResults {
	all := make([]domain.UserResults, 0, len(members))
	for _, member := range members {
		results, err := ScoreUser(member, events, picks)
		if err != nil {
			results.Error = err.Error()
		}
		all = append(all, results)
	}
	return all
}

// TallySpreads sums wagers and awards per spread across participants whose rows scored cleanly.
func TallySpreads(events []domain.Event, results []domain.UserResults) []domain.SpreadTally {
	var tallies []domain.SpreadTally
	index := make(map[[2]int]int)
	for _, event := range events {
		group, ok := event.Contents.(domain.SpreadGroup)
		if !ok {
			continue
		}
		for i := range group.Spreads {
			index[[2]int{event.ID, i}] = len(tallies)
			tallies = append(tallies, domain.SpreadTally{EventID: event.ID, Index: i})
		}
	}
	for _, user := range results {
		if user.Error != "" {
			continue
		}
		for _, outcome := range user.Events {
			if !outcome.Submitted || outcome.Kind != domain.KindSpreadGroup {
				continue
			}
			for i, spread := range outcome.Spreads {
				pos, ok := index[[2]int{outcome.EventID, i}]
				if !ok {
					continue
				}
				tallies[pos].Wagered += spread.Wager
				tallies[pos].Awarded += spread.Awarded
			}
		}
	}
	return tallies
}

// chapterMembers filters book members down to those scored in a chapter.
func chapterMembers(members []domain.Member, chapterID int) []domain.Member {
	out := make([]domain.Member, 0, len(members))
	for _, member := range members {
		if member.Role.InChapter(chapterID) {
			out = append(out, member)
		}
	}
	return out
}
