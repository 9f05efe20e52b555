package main

import (
	"context"
	"fmt"

	"compass/internal/analyzer"
	"compass/internal/dataset"
	"compass/internal/evaluator"
	"compass/internal/report"
	"compass/internal/tutor"

	"github.com/spf13/cobra"
)

// demoCmd runs the canonical demonstration over the builtin samples.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the demonstration over the builtin student samples",
	Long: `Evaluates the three builtin student programs (assignment in a
condition, missing return, recursive fibonacci) with the rule-based
generator and prints each report.`,
	RunE: runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	gen, err := tutor.NewRuleGenerator()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	eval := evaluator.New(analyzer.New(), gen)

	fmt.Println("Python Student Competence Analysis - Demonstration")
	fmt.Println("==================================================")

	for i, sample := range dataset.Builtin() {
		fmt.Printf("\nExample %d: %s\n", i+1, sample.Name)
		fmt.Println("--------------------------------------------------")
		fmt.Println(sample.Code)
		fmt.Println()

		rep, err := eval.Evaluate(ctx, sample.Code)
		if err != nil {
			fmt.Printf("Error analyzing code: %v\n", err)
			continue
		}

		fmt.Println(report.RenderReport(sample.Name, rep))
	}

	return nil
}
