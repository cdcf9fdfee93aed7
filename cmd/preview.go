package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizmind/internal/evaluate"
	"github.com/abhisek/quizmind/internal/llm"
	"github.com/abhisek/quizmind/internal/model"
	"github.com/abhisek/quizmind/internal/questiongen"
	"github.com/abhisek/quizmind/internal/ui/report"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Generate and answer a quiz in the terminal (no database)",
	Long: `Generate a quiz for a topic and answer it interactively.

This is a stateless developer tool: nothing is stored, nothing is ranked.
Useful for evaluating question quality, grading and difficulty labels.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("topic", "", "Quiz topic (required)")
	previewCmd.Flags().String("skill", "Intermediate", "Skill level: Beginner, Intermediate or Advanced")
	previewCmd.Flags().Int("count", 5, "Number of questions to generate")
	previewCmd.Flags().String("context", "", "Custom topic text to ground the questions")
	previewCmd.Flags().Bool("reveal", false, "Show answers, explanations and classifier output up front")
	_ = previewCmd.MarkFlagRequired("topic")
}

// noHistory is an empty question history. Questions within one batch are
// still deduplicated by the generator.
type noHistory struct{}

func (noHistory) History(context.Context, string, string, model.Skill, int) ([]string, error) {
	return nil, nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	skillVal, _ := cmd.Flags().GetString("skill")
	count, _ := cmd.Flags().GetInt("count")
	custom, _ := cmd.Flags().GetString("context")
	reveal, _ := cmd.Flags().GetBool("reveal")

	skill, err := model.ParseSkill(skillVal)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, true)
	if err != nil {
		return err
	}

	// No EventRepo: request recording is skipped.
	ctx := llm.WithPurpose(cmd.Context(), llm.PurposePreview)
	provider, err := llm.NewProvider(ctx, cfg.LLM, nil, log)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}

	gen := questiongen.New(llm.NewCompleter(provider, questiongen.SystemPrompt), noHistory{}, nil, questiongen.DefaultConfig(), log)
	eval := evaluate.New(evaluate.Config{NegationAware: cfg.NegationAware})

	fmt.Printf("Topic: %s (%s, %s)\n", questiongen.CanonicalTopic(topic), skill, provider.ModelID())
	fmt.Printf("Generating %d questions...\n\n", count)

	res, err := gen.Generate(ctx, questiongen.Request{
		UserID:          "preview",
		Topic:           topic,
		Skill:           skill,
		NumQuestions:    count,
		CustomTopicText: custom,
	})
	if err != nil {
		return err
	}
	if res.Degraded {
		fmt.Println("Some questions are fallbacks: the LLM was unavailable or kept failing validation.")
	}
	if res.Truncated {
		fmt.Println("The topic context was truncated to fit the prompt budget.")
	}

	scanner := bufio.NewScanner(os.Stdin)
	var correct int
	for i, q := range res.Questions {
		fmt.Println(report.Question(q, i+1, len(res.Questions), reveal))

		fmt.Print("\nYour answer: ")
		if !scanner.Scan() {
			fmt.Println("\n(input closed)")
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			fmt.Print("(skipped)\n\n")
			continue
		}

		r := eval.Evaluate(q, answer)
		if r.IsCorrect {
			correct++
		}
		fmt.Println(report.Verdict(r.IsCorrect, r.Confidence, r.Feedback.ResultMessage))
		if !r.IsCorrect {
			fmt.Printf("Answer: %s\n", q.CorrectAnswer)
		}
		if r.Feedback.Explanation != "" {
			fmt.Printf("Explanation: %s\n", r.Feedback.Explanation)
		}
		if r.Feedback.LearningTip != "" {
			fmt.Printf("Tip: %s\n", r.Feedback.LearningTip)
		}
		fmt.Println()
	}

	fmt.Printf("── Summary: %d/%d correct ──\n", correct, len(res.Questions))
	return nil
}
