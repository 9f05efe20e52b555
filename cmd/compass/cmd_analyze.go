package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"compass/internal/analyzer"
	"compass/internal/evaluator"
	"compass/internal/llm"
	"compass/internal/report"
	"compass/internal/tutor"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var analyzeUseModel bool

// analyzeCmd evaluates a single student file.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [file.py]",
	Short: "Analyze a student Python file and generate prompts",
	Long: `Parses the file, detects misconceptions, and generates pedagogical
prompts from the analysis.

By default the rule-based generator is used; --model asks the configured
model endpoint instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeUseModel, "model", false, "generate prompts with the configured model endpoint")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	gen, err := buildGenerator(analyzeUseModel)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	eval := evaluator.New(analyzer.New(), gen)
	rep, err := eval.Evaluate(ctx, string(code))
	if err != nil {
		return err
	}

	logger.Debug("analysis complete",
		zap.Int("findings", rep.Analysis.TotalFindings()),
		zap.Int("prompts", len(rep.Prompts)))

	fmt.Println(report.RenderReport(filepath.Base(path), rep))
	return nil
}

// buildGenerator returns the rule generator, or a model generator when
// requested and configured.
func buildGenerator(useModel bool) (tutor.Generator, error) {
	if !useModel {
		if cfg.Eval.RulesPath != "" {
			return tutor.NewRuleGeneratorFromDir(cfg.Eval.RulesPath)
		}
		return tutor.NewRuleGenerator()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := llm.New(cfg.LLM, cfg.GetLLMTimeout())
	if err != nil {
		return nil, err
	}
	return tutor.NewModelGenerator(client), nil
}
