package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizmind/internal/app"
	"github.com/abhisek/quizmind/internal/quiz"
	"github.com/abhisek/quizmind/internal/ui/report"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show a topic leaderboard, the global leaderboard or user standings",
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		search, _ := cmd.Flags().GetString("search")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		standings, _ := cmd.Flags().GetBool("standings")
		quarantined, _ := cmd.Flags().GetBool("quarantined")

		return withApp(cmd, func(a *app.App) error {
			ctx := cmd.Context()
			switch {
			case quarantined:
				recs, err := a.Board.Quarantined(ctx, limit)
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					fmt.Println("No quarantined entries.")
					return nil
				}
				for _, r := range recs {
					fmt.Printf("%-5d  %s  session=%s  user=%s  %s\n",
						r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.QuizSessionID, r.UserID, r.Reason)
				}
				return nil

			case standings:
				rows, err := a.Service.Standings(ctx, limit)
				if err != nil {
					return err
				}
				fmt.Println(report.Standings(rows))
				return nil
			}

			page, err := a.Service.Leaderboard(ctx, quiz.LeaderboardRequest{
				Topic:  topic,
				Search: search,
				Limit:  limit,
				Offset: offset,
			})
			if err != nil {
				return err
			}
			title := "Global leaderboard"
			if topic != "" {
				title = "Leaderboard: " + topic
			}
			fmt.Println(report.Leaderboard(title, page))
			return nil
		})
	},
}

func init() {
	leaderboardCmd.Flags().StringP("topic", "t", "", "Topic scope (empty for global)")
	leaderboardCmd.Flags().StringP("search", "s", "", "Filter by username substring")
	leaderboardCmd.Flags().IntP("limit", "n", quiz.DefaultLeaderboardLimit, "Number of rows to show")
	leaderboardCmd.Flags().Int("offset", 0, "Rows to skip")
	leaderboardCmd.Flags().Bool("standings", false, "Show per-user standings across all topics")
	leaderboardCmd.Flags().Bool("quarantined", false, "List entries withheld for failing score checks")
}
