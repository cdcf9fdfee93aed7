// Package report renders quiz content and rankings for the terminal.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/abhisek/quizmind/internal/leaderboard"
	"github.com/abhisek/quizmind/internal/model"
	"github.com/abhisek/quizmind/internal/ui/theme"
)

// Difficulty renders a difficulty label in its badge color.
func Difficulty(d model.Difficulty) string {
	switch d {
	case model.DifficultyEasy:
		return theme.Easy.Render(string(d))
	case model.DifficultyHard:
		return theme.Hard.Render(string(d))
	default:
		return theme.Medium.Render(string(d))
	}
}

// Question renders a question card. The answer and explanation are shown
// only when reveal is set.
func Question(q *model.Question, n, total int, reveal bool) string {
	var b strings.Builder
	header := fmt.Sprintf("Question %d/%d", n, total)
	b.WriteString(theme.Title.Render(header))
	b.WriteString("  ")
	b.WriteString(Difficulty(q.Difficulty))
	if q.Fallback {
		b.WriteString("  ")
		b.WriteString(theme.Warning.Render("fallback"))
	}
	b.WriteString("\n")
	b.WriteString(theme.Body.Render(q.Text))
	for _, opt := range q.Options {
		b.WriteString("\n  ")
		b.WriteString(opt)
	}
	if q.Type == model.TypeTrueFalse {
		b.WriteString("\n  ")
		b.WriteString(theme.Hint.Render("True / False"))
	}
	if reveal {
		b.WriteString("\n\n")
		b.WriteString(theme.Subtitle.Render("Answer: "))
		b.WriteString(q.CorrectAnswer)
		if q.Explanation != "" {
			b.WriteString("\n")
			b.WriteString(theme.Hint.Render(q.Explanation))
		}
		if c := q.Classification; c != nil {
			b.WriteString("\n")
			b.WriteString(theme.Hint.Render(fmt.Sprintf("classified %s (confidence %.2f, flesch %.1f)",
				c.Label, c.Confidence, c.TextMetrics.Flesch)))
		}
	}
	return theme.Card.Render(b.String())
}

// Verdict renders the outcome of one answer.
func Verdict(correct bool, confidence float64, message string) string {
	if correct {
		return theme.Correct.Render("✓ Correct") + theme.Hint.Render(fmt.Sprintf(" (%.2f) ", confidence)) + message
	}
	return theme.Incorrect.Render("✗ Wrong") + theme.Hint.Render(fmt.Sprintf(" (%.2f) ", confidence)) + message
}

// Leaderboard renders one page of entries as a table.
func Leaderboard(title string, page *leaderboard.Page) string {
	if page == nil || len(page.Entries) == 0 {
		return theme.Title.Render(title) + "\n" + theme.Hint.Render("No entries yet.")
	}
	rows := make([][]string, 0, len(page.Entries))
	for _, e := range page.Entries {
		rank := "-"
		if e.Rank != nil {
			rank = strconv.Itoa(*e.Rank)
		}
		rows = append(rows, []string{
			rank,
			e.Username,
			e.Topic,
			fmt.Sprintf("%.2f", e.Score),
			fmt.Sprintf("%d/%d", e.CorrectCount, e.TotalQuestions),
			fmt.Sprintf("%.0fs", e.TimeTakenSeconds),
			e.CompletedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	t := newTable("Rank", "User", "Topic", "Score", "Correct", "Time", "Completed").Rows(rows...)
	footer := theme.Hint.Render(fmt.Sprintf("%d of %d entries", len(page.Entries), page.Total))
	return lipgloss.JoinVertical(lipgloss.Left, theme.Title.Render(title), t.String(), footer)
}

// Standings renders the cross-topic user ranking.
func Standings(rows []leaderboard.Standing) string {
	if len(rows) == 0 {
		return theme.Title.Render("Standings") + "\n" + theme.Hint.Render("No completed quizzes yet.")
	}
	data := make([][]string, 0, len(rows))
	for _, s := range rows {
		data = append(data, []string{
			strconv.Itoa(s.Rank),
			s.Username,
			strconv.Itoa(s.TotalQuizzes),
			fmt.Sprintf("%.1f%%", s.AverageScore),
			fmt.Sprintf("%.1f%%", s.BestScore),
			fmt.Sprintf("%.0fs", s.AverageTime),
		})
	}
	t := newTable("Rank", "User", "Quizzes", "Avg", "Best", "Avg Time").Rows(data...)
	return lipgloss.JoinVertical(lipgloss.Left, theme.Title.Render("Standings"), t.String())
}

// Table renders rows under headers in the CLI table style.
func Table(headers []string, rows [][]string) string {
	return newTable(headers...).Rows(rows...).String()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeader
			}
			return theme.TableCell
		})
}
