package app

import (
	"sort"
	"strings"

	"pickem-service/internal/domain"
)

// SumAdjustments totals added points per user. A nil chapterID keeps every adjustment in the book;
// otherwise only adjustments tagged with that chapter count.
func SumAdjustments(adjustments []domain.Adjustment, chapterID *int) map[int]int {
	totals := make(map[int]int)
	for _, adj := range adjustments {
		if chapterID != nil && (adj.ChapterID == nil || *adj.ChapterID != *chapterID) {
			continue
		}
		totals[adj.UserID] += adj.Points
	}
	return totals
}

// BuildRows turns scored results into unranked leaderboard rows. With combineGuests, guest members
// are summed into a single Guests row that is kept only when its total is strictly positive.
func BuildRows(results []domain.UserResults, roles map[int]domain.Role, added map[int]int, combineGuests bool) []domain.LeaderboardRow {
	rows := make([]domain.LeaderboardRow, 0, len(results)+1)
	guests := domain.LeaderboardRow{UserID: domain.GuestsUserID, Username: domain.GuestsUsername}
	var guestErrs []string
	haveGuests := false

	for _, res := range results {
		row := domain.LeaderboardRow{
			UserID:   res.UserID,
			Username: res.Username,
			Added:    added[res.UserID],
			Error:    res.Error,
		}
		if res.Error == "" {
			row.Earned = res.Earned
			row.Correct = res.Correct
			row.Graded = res.Graded
		}
		row.Total = row.Earned + row.Added

		if combineGuests && roles[res.UserID].IsGuest() {
			haveGuests = true
			if res.Error != "" {
				guestErrs = append(guestErrs, res.Error)
			}
			guests.Earned += row.Earned
			guests.Added += row.Added
			guests.Total += row.Total
			guests.Correct += row.Correct
			guests.Graded += row.Graded
			continue
		}
		rows = append(rows, row)
	}

	if haveGuests {
		guests.Error = strings.Join(guestErrs, "; ")
		if guests.Total > 0 || guests.Error != "" {
			rows = append(rows, guests)
		}
	}
	return rows
}

// RankRows orders rows by total descending, username ascending within a tie, and assigns
// competition ranks: 1 plus the number of rows with a strictly greater total.
// Rows carrying an Error are listed last with rank 0 and do not affect other ranks.
func RankRows(rows []domain.LeaderboardRow) []domain.LeaderboardRow {
	sort.SliceStable(rows, func(i, j int) bool {
		ei, ej := rows[i].Error != "", rows[j].Error != ""
		if ei != ej {
			return !ei
		}
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].Username < rows[j].Username
	})

	for i := range rows {
		switch {
		case rows[i].Error != "":
			rows[i].Rank = 0
		case i > 0 && rows[i-1].Error == "" && rows[i].Total == rows[i-1].Total:
			rows[i].Rank = rows[i-1].Rank
		default:
			rows[i].Rank = i + 1
		}
	}
	return rows
}
