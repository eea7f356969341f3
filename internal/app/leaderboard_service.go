package app

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
	"pickem-service/internal/domain"
)

// AddedPointsStore lists the manual point adjustments authored for a book.
type AddedPointsStore interface {
	Adjustments(ctx context.Context, bookID int) ([]domain.Adjustment, error)
}

// TeamDirectory resolves the teams referenced by spreads.
type TeamDirectory interface {
	Teams(ctx context.Context, ids []int) (map[int]domain.Team, error)
}

// chapterFanout bounds concurrent per-chapter loads for book-wide views.
const chapterFanout = 4

// LeaderboardService recomputes standings on demand from stored picks; nothing it returns is persisted.
type LeaderboardService struct {
	chapters ChapterRepository
	events   EventCatalog
	picks    PickStore
	members  MemberDirectory
	added    AddedPointsStore
	teams    TeamDirectory
}

func NewLeaderboardService(chapters ChapterRepository, events EventCatalog, picks PickStore, members MemberDirectory, added AddedPointsStore, teams TeamDirectory) *LeaderboardService {
	return &LeaderboardService{
		chapters: chapters,
		events:   events,
		picks:    picks,
		members:  members,
		added:    added,
		teams:    teams,
	}
}

type chapterData struct {
	events      []domain.Event
	picks       map[domain.PickKey]domain.Pick
	members     []domain.Member
	adjustments []domain.Adjustment
}

// ChapterLeaderboard ranks the chapter's members using chapter-tagged adjustments.
func (s *LeaderboardService) ChapterLeaderboard(ctx context.Context, bookID, chapterID, viewerID int) (domain.Leaderboard, error) {
	chapter, _, err := authorize(ctx, s.chapters, s.members, bookID, chapterID, viewerID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	data, err := s.loadChapter(ctx, bookID, chapter.ID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return chapterBoard(chapter, data), nil
}

// ChapterResults is the per-user, per-event outcome view of a chapter.
func (s *LeaderboardService) ChapterResults(ctx context.Context, bookID, chapterID, viewerID int) (domain.ChapterResults, error) {
	chapter, _, err := authorize(ctx, s.chapters, s.members, bookID, chapterID, viewerID)
	if err != nil {
		return domain.ChapterResults{}, err
	}
	data, err := s.loadChapter(ctx, bookID, chapter.ID)
	if err != nil {
		return domain.ChapterResults{}, err
	}
	teams, err := s.teams.Teams(ctx, teamIDs(data.events))
	if err != nil {
		return domain.ChapterResults{}, storageErr("load teams", err)
	}

	members := chapterMembers(data.members, chapter.ID)
	sort.SliceStable(members, func(i, j int) bool { return members[i].Username < members[j].Username })
	results := ScoreChapter(data.events, members, data.picks)
	for i := range results {
		if results[i].Error != "" {
			continue
		}
		if err := nameTeams(&results[i], teams); err != nil {
			results[i] = domain.UserResults{UserID: results[i].UserID, Username: results[i].Username, Error: err.Error()}
		}
	}

	return domain.ChapterResults{
		Chapter: chapter,
		Users:   results,
		Tallies: TallySpreads(data.events, results),
		Teams:   teams,
	}, nil
}

// BookLeaderboard ranks every member across all chapters of a book, with guests combined.
func (s *LeaderboardService) BookLeaderboard(ctx context.Context, bookID, viewerID int) (domain.Leaderboard, error) {
	if _, err := bookMember(ctx, s.members, bookID, viewerID); err != nil {
		return domain.Leaderboard{}, err
	}

	var (
		chapters    []domain.Chapter
		members     []domain.Member
		adjustments []domain.Adjustment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		chapters, err = s.chapters.Chapters(gctx, bookID)
		return wrapStorage("load chapters", err)
	})
	g.Go(func() (err error) {
		members, err = s.members.Members(gctx, bookID)
		return wrapStorage("load members", err)
	})
	g.Go(func() (err error) {
		adjustments, err = s.added.Adjustments(gctx, bookID)
		return wrapStorage("load added points", err)
	})
	if err := g.Wait(); err != nil {
		return domain.Leaderboard{}, err
	}

	perChapter := make([][]domain.UserResults, len(chapters))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(chapterFanout)
	for i, chapter := range chapters {
		g.Go(func() error {
			events, picks, err := s.loadScoring(gctx, chapter.ID)
			if err != nil {
				return err
			}
			perChapter[i] = ScoreChapter(events, chapterMembers(members, chapter.ID), picks)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Leaderboard{}, err
	}

	ranked := bookMembers(members)
	merged := mergeResults(ranked, perChapter)
	rows := RankRows(BuildRows(merged, rolesOf(ranked), SumAdjustments(adjustments, nil), true))
	return domain.Leaderboard{BookID: bookID, Rows: rows}, nil
}

// ChapterStats summarizes every chapter the user may view: max points, the user's points and rank.
func (s *LeaderboardService) ChapterStats(ctx context.Context, bookID, userID int) ([]domain.ChapterStats, error) {
	member, err := bookMember(ctx, s.members, bookID, userID)
	if err != nil {
		return nil, err
	}

	var (
		chapters    []domain.Chapter
		members     []domain.Member
		adjustments []domain.Adjustment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		chapters, err = s.chapters.Chapters(gctx, bookID)
		return wrapStorage("load chapters", err)
	})
	g.Go(func() (err error) {
		members, err = s.members.Members(gctx, bookID)
		return wrapStorage("load members", err)
	})
	g.Go(func() (err error) {
		adjustments, err = s.added.Adjustments(gctx, bookID)
		return wrapStorage("load added points", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	visible := make([]domain.Chapter, 0, len(chapters))
	for _, chapter := range chapters {
		if member.Role.CanView(chapter) {
			visible = append(visible, chapter)
		}
	}

	stats := make([]domain.ChapterStats, len(visible))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(chapterFanout)
	for i, chapter := range visible {
		g.Go(func() error {
			events, picks, err := s.loadScoring(gctx, chapter.ID)
			if err != nil {
				return err
			}
			board := chapterBoard(chapter, chapterData{events: events, picks: picks, members: members, adjustments: adjustments})
			st := domain.ChapterStats{
				ChapterID: chapter.ID,
				Title:     chapter.Title,
				IsOpen:    chapter.IsOpen,
				IsVisible: chapter.IsVisible,
				MaxPoints: domain.MaxPoints(events),
			}
			for _, row := range board.Rows {
				if row.UserID == userID {
					st.UserPoints = row.Total
					st.UserRank = row.Rank
					break
				}
			}
			stats[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// Unsubmitted lists chapter members with no stored pick. Only book owners and admins may ask.
func (s *LeaderboardService) Unsubmitted(ctx context.Context, bookID, chapterID, viewerID int) ([]domain.Member, error) {
	chapter, viewer, err := authorize(ctx, s.chapters, s.members, bookID, chapterID, viewerID)
	if err != nil {
		return nil, err
	}
	if !viewer.Role.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	data, err := s.loadChapter(ctx, bookID, chapter.ID)
	if err != nil {
		return nil, err
	}

	submitted := make(map[int]struct{})
	for key := range data.picks {
		submitted[key.UserID] = struct{}{}
	}
	var missing []domain.Member
	for _, member := range chapterMembers(data.members, chapter.ID) {
		if _, ok := submitted[member.UserID]; !ok {
			missing = append(missing, member)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].Username < missing[j].Username })
	return missing, nil
}

func (s *LeaderboardService) loadChapter(ctx context.Context, bookID, chapterID int) (chapterData, error) {
	var data chapterData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		data.events, data.picks, err = s.loadScoring(gctx, chapterID)
		return err
	})
	g.Go(func() (err error) {
		data.members, err = s.members.Members(gctx, bookID)
		return wrapStorage("load members", err)
	})
	g.Go(func() (err error) {
		data.adjustments, err = s.added.Adjustments(gctx, bookID)
		return wrapStorage("load added points", err)
	})
	if err := g.Wait(); err != nil {
		return chapterData{}, err
	}
	return data, nil
}

func (s *LeaderboardService) loadScoring(ctx context.Context, chapterID int) ([]domain.Event, map[domain.PickKey]domain.Pick, error) {
	events, err := s.events.Events(ctx, chapterID)
	if err != nil {
		return nil, nil, storageErr("load events", err)
	}
	picks, err := s.picks.ChapterPicks(ctx, chapterID)
	if err != nil {
		return nil, nil, storageErr("load picks", err)
	}
	return events, picks, nil
}

func chapterBoard(chapter domain.Chapter, data chapterData) domain.Leaderboard {
	members := chapterMembers(data.members, chapter.ID)
	results := ScoreChapter(data.events, members, data.picks)
	chapterID := chapter.ID
	added := SumAdjustments(data.adjustments, &chapterID)
	rows := RankRows(BuildRows(results, rolesOf(members), added, false))
	return domain.Leaderboard{BookID: chapter.BookID, ChapterID: &chapterID, Rows: rows}
}

// bookMembers drops members without standing in the book.
func bookMembers(members []domain.Member) []domain.Member {
	out := make([]domain.Member, 0, len(members))
	for _, member := range members {
		if member.Role.Kind != domain.RoleUnauthorized {
			out = append(out, member)
		}
	}
	return out
}

// mergeResults sums per-chapter results per member. Any chapter error marks the member's book row.
func mergeResults(members []domain.Member, perChapter [][]domain.UserResults) []domain.UserResults {
	byUser := make(map[int]*domain.UserResults, len(members))
	merged := make([]domain.UserResults, len(members))
	for i, member := range members {
		merged[i] = domain.UserResults{UserID: member.UserID, Username: member.Username}
		byUser[member.UserID] = &merged[i]
	}
	for _, chapter := range perChapter {
		for _, res := range chapter {
			total, ok := byUser[res.UserID]
			if !ok {
				continue
			}
			if res.Error != "" {
				if total.Error == "" {
					total.Error = res.Error
				}
				continue
			}
			total.Correct += res.Correct
			total.Graded += res.Graded
			total.Earned += res.Earned
		}
	}
	return merged
}

func rolesOf(members []domain.Member) map[int]domain.Role {
	roles := make(map[int]domain.Role, len(members))
	for _, member := range members {
		roles[member.UserID] = member.Role
	}
	return roles
}

func teamIDs(events []domain.Event) []int {
	seen := make(map[int]struct{})
	var ids []int
	for _, event := range events {
		group, ok := event.Contents.(domain.SpreadGroup)
		if !ok {
			continue
		}
		for _, spread := range group.Spreads {
			for _, id := range []int{spread.HomeID, spread.AwayID} {
				if _, dup := seen[id]; !dup {
					seen[id] = struct{}{}
					ids = append(ids, id)
				}
			}
		}
	}
	sort.Ints(ids)
	return ids
}

func nameTeams(results *domain.UserResults, teams map[int]domain.Team) error {
	for i := range results.Events {
		outcome := &results.Events[i]
		for j := range outcome.Spreads {
			spread := &outcome.Spreads[j]
			if spread.Side == "" {
				continue
			}
			team, ok := teams[spread.TeamID]
			if !ok {
				return fmt.Errorf("user %d event %d: team %d: %w", results.UserID, outcome.EventID, spread.TeamID, domain.ErrTeamNotFound)
			}
			spread.TeamName = team.Name
		}
	}
	return nil
}

func wrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	return storageErr(op, err)
}
