package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"pickem-service/internal/config"
	"pickem-service/internal/domain"
)

// NewLeaderboardCmd prints a book or chapter leaderboard as seen by a member.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var bookID, chapterID, viewerID int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print a ranked leaderboard for a book or chapter",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			svc, err := buildServices(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer svc.close()

			var board domain.Leaderboard
			if chapterID > 0 {
				board, err = svc.leaderboards.ChapterLeaderboard(cmd.Context(), bookID, chapterID, viewerID)
			} else {
				board, err = svc.leaderboards.BookLeaderboard(cmd.Context(), bookID, viewerID)
			}
			if err != nil {
				return err
			}
			return printLeaderboard(cmd.OutOrStdout(), board)
		},
	}
	cmd.Flags().IntVar(&bookID, "book", 0, "book id")
	cmd.Flags().IntVar(&chapterID, "chapter", 0, "chapter id (book-wide when omitted)")
	cmd.Flags().IntVar(&viewerID, "as", 0, "user id of the viewing member")
	_ = cmd.MarkFlagRequired("book")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func printLeaderboard(out io.Writer, board domain.Leaderboard) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tUSER\tEARNED\tADDED\tTOTAL\tCORRECT")
	for _, row := range board.Rows {
		rank := fmt.Sprint(row.Rank)
		if row.Error != "" {
			rank = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d/%d\n", rank, row.Username, row.Earned, row.Added, row.Total, row.Correct, row.Graded)
	}
	return tw.Flush()
}
