package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizmind/internal/app"
	"github.com/abhisek/quizmind/internal/model"
	"github.com/abhisek/quizmind/internal/quiz"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage learners",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Register a learner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		skill, _ := cmd.Flags().GetString("skill")
		role, _ := cmd.Flags().GetString("role")
		return withApp(cmd, func(a *app.App) error {
			u, err := a.Service.RegisterUser(cmd.Context(), quiz.RegisterUserRequest{
				Username: args[0],
				Skill:    skill,
				Role:     role,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created %s (%s, %s): %s\n", u.Username, u.Skill, u.Role, u.ID)
			return nil
		})
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a learner's adaptive profile and results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			ctx := cmd.Context()
			u, err := a.Service.GetUser(ctx, args[0])
			if err != nil {
				return err
			}
			an, err := a.Service.UserAnalytics(ctx, u.ID)
			if err != nil {
				return err
			}
			sum, err := a.Service.UserSummary(ctx, u.ID)
			if err != nil {
				return err
			}

			fmt.Printf("User:        %s (%s)\n", u.Username, u.ID)
			fmt.Printf("Skill:       %s\n", u.Skill)
			fmt.Printf("Difficulty:  %s\n", an.CurrentDifficulty)
			fmt.Printf("Answers:     %d (%.0f%% correct)\n", an.TotalAnswers, 100*an.OverallAccuracy)
			for _, d := range model.Levels {
				if acc, ok := an.PerDifficultyAccuracy[d]; ok {
					fmt.Printf("  %-9s  %.0f%%\n", d, 100*acc)
				}
			}
			fmt.Printf("Trend:       %s\n", an.Trend)
			fmt.Printf("Quizzes:     %d (best %.0f%%, average %.0f%%)\n", sum.TotalQuizzes, sum.BestScore, sum.AverageScore)
			return nil
		})
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a learner and all their data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			if err := a.Service.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted", args[0])
			return nil
		})
	},
}

// withApp wires the engine against the configured database for one
// command and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	a, err := app.New(cmd.Context(), cfg, dbPath, log, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func init() {
	userCreateCmd.Flags().String("skill", "Beginner", "Declared skill: Beginner, Intermediate or Advanced")
	userCreateCmd.Flags().String("role", "", "Role: student or admin")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userShowCmd)
	userCmd.AddCommand(userDeleteCmd)
}
