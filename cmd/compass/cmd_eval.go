package main

import (
	"context"
	"fmt"
	"os"

	"compass/internal/dataset"
	"compass/internal/evaluator"
	"compass/internal/report"
	"compass/internal/store"
	"compass/internal/tutor"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	evalDatasetPath string
	evalGenerator   string
	evalMarkdown    string
	evalPretty      bool
	evalNoSave      bool
)

// evalCmd runs the evaluation harness over a labeled dataset.
var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate prompt generators over a labeled dataset",
	Long: `Runs generators over a dataset of labeled student code samples and
reports detection metrics (accuracy, precision, recall, F1) plus prompt
alignment. Runs are persisted to the result store.

--generator selects rule, model, or both (the research-plan comparison
of the baseline against the configured model endpoint).`,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalDatasetPath, "dataset", "", "dataset file or directory (default from config, 'builtin' for demo samples)")
	evalCmd.Flags().StringVar(&evalGenerator, "generator", "rule", "generator to evaluate: rule, model, or both")
	evalCmd.Flags().StringVar(&evalMarkdown, "markdown", "", "write a markdown report to this file")
	evalCmd.Flags().BoolVar(&evalPretty, "pretty", false, "render the markdown report in the terminal")
	evalCmd.Flags().BoolVar(&evalNoSave, "no-save", false, "skip persisting the run")
}

func runEval(cmd *cobra.Command, args []string) error {
	samples, name, err := loadEvalDataset()
	if err != nil {
		return err
	}

	gens, err := selectGenerators(evalGenerator)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	harness := evaluator.NewHarness(cfg.Eval.Workers)
	cmpResult, err := harness.Compare(ctx, name, samples, gens...)
	if err != nil {
		return err
	}

	for _, run := range cmpResult.Runs {
		fmt.Println(report.RenderMetrics(run))

		if !evalNoSave {
			if err := persistRun(run); err != nil {
				logger.Warn("failed to persist run", zap.String("run", run.ID), zap.Error(err))
			}
		}

		if evalMarkdown != "" || evalPretty {
			md := report.Markdown(run)
			if evalMarkdown != "" {
				if err := os.WriteFile(evalMarkdown, []byte(md), 0644); err != nil {
					return fmt.Errorf("failed to write markdown report: %w", err)
				}
			}
			if evalPretty {
				fmt.Println(report.RenderMarkdown(md))
			}
		}
	}

	if len(cmpResult.Runs) > 1 {
		fmt.Println(report.RenderComparison(cmpResult))
	}

	return nil
}

// loadEvalDataset resolves the dataset flag/config into samples.
func loadEvalDataset() ([]dataset.Sample, string, error) {
	path := evalDatasetPath
	if path == "" {
		path = cfg.Eval.DatasetPath
	}
	if path == "" || path == "builtin" {
		return dataset.Builtin(), "builtin", nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("dataset not found: %w", err)
	}

	var samples []dataset.Sample
	if info.IsDir() {
		samples, err = dataset.LoadDir(path)
	} else {
		samples, err = dataset.LoadFile(path)
	}
	if err != nil {
		return nil, "", err
	}
	return samples, path, nil
}

// selectGenerators builds the generator list for the requested mode.
func selectGenerators(mode string) ([]tutor.Generator, error) {
	switch mode {
	case "rule":
		g, err := buildGenerator(false)
		if err != nil {
			return nil, err
		}
		return []tutor.Generator{g}, nil

	case "model":
		g, err := buildGenerator(true)
		if err != nil {
			return nil, err
		}
		return []tutor.Generator{g}, nil

	case "both":
		rule, err := buildGenerator(false)
		if err != nil {
			return nil, err
		}
		model, err := buildGenerator(true)
		if err != nil {
			return nil, err
		}
		return []tutor.Generator{rule, model}, nil

	default:
		return nil, fmt.Errorf("unknown generator %q (valid: rule, model, both)", mode)
	}
}

// persistRun saves a run to the configured result store.
func persistRun(run *evaluator.RunResult) error {
	s, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.SaveRun(run)
}
