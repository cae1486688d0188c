package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/knoweval/internal/audit"
	"github.com/ziadkadry99/knoweval/internal/evaluator"
	"github.com/ziadkadry99/knoweval/internal/progress"
	"github.com/ziadkadry99/knoweval/internal/session"
)

var (
	evalFocus string
	evalModel string
	evalJSON  bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <file>",
	Short: "Ask the model to critique a knowledge file",
	Long: `Sends the saved text of a knowledge file to the configured model and prints
what is right, what is wrong, and recommendations. The result is archived
under <knowledge_dir>/evaluations/.

Focus is one of: general, conceptual, academic.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVarP(&evalFocus, "focus", "f", "general", "evaluation focus (general, conceptual, academic)")
	evaluateCmd.Flags().StringVarP(&evalModel, "model", "m", "", "model to use (default: the configured model)")
	evaluateCmd.Flags().BoolVar(&evalJSON, "json", false, "print the archived JSON document instead of formatted text")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	focus, err := evaluator.ParseFocus(evalFocus)
	if err != nil {
		return err
	}

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	model := resolveModel(a.cfg, evalModel)
	s := a.newSession(audit.SourceCLI)

	var report session.ProgressFunc
	if !evalJSON {
		report = progress.Stages(progress.NewReporter("Evaluating " + args[0]))
	}

	out, err := s.EvaluateFile(cmd.Context(), args[0], focus, model, report)
	if err != nil {
		return err
	}

	if evalJSON {
		rec, err := s.Record(args[0], out.Record)
		if err != nil {
			return err
		}
		os.Stdout.Write(rec.Raw)
		fmt.Println()
		return nil
	}

	printSections(out.Sections())
	ev := out.Evaluation
	fmt.Printf("\nModel: %s  Focus: %s  Tokens: %d in / %d out", ev.Model, ev.Focus, ev.InputTokens, ev.OutputTokens)
	if ev.CostUSD > 0 {
		fmt.Printf("  Cost: ~$%.4f", ev.CostUSD)
	}
	fmt.Printf("\nSaved to %s\n", out.Path)
	return nil
}

// printSections writes feedback sections as plain text with underlined
// headings.
func printSections(sections []session.Section) {
	for i, sec := range sections {
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(sec.Title)
		fmt.Println(strings.Repeat("=", len(sec.Title)))
		fmt.Println(strings.TrimSpace(sec.Body))
	}
}

// printJSON pretty-prints v to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
