// Package evaluator combines analysis and prompt generation, and runs
// generators against labeled datasets to measure them, per the research
// plan: a rule-based baseline compared with open model endpoints.
package evaluator

import (
	"context"
	"fmt"

	"compass/internal/analyzer"
	"compass/internal/tutor"
)

// Report is the complete evaluation of one piece of student code.
type Report struct {
	Code     string             `json:"code"`
	Analysis *analyzer.Analysis `json:"analysis"`
	Prompts  []tutor.Prompt     `json:"generated_prompts"`
	Summary  tutor.Summary      `json:"summary"`
}

// CompetenceEvaluator pairs an analyzer with a prompt generator.
type CompetenceEvaluator struct {
	Analyzer  *analyzer.PythonAnalyzer
	Generator tutor.Generator
}

// New creates an evaluator.
func New(a *analyzer.PythonAnalyzer, g tutor.Generator) *CompetenceEvaluator {
	return &CompetenceEvaluator{Analyzer: a, Generator: g}
}

// Evaluate analyzes the code and generates prompts from the result.
func (e *CompetenceEvaluator) Evaluate(ctx context.Context, code string) (*Report, error) {
	analysis, err := e.Analyzer.Analyze(ctx, []byte(code))
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	prompts, err := e.Generator.Generate(ctx, code, analysis)
	if err != nil {
		return nil, fmt.Errorf("prompt generation failed: %w", err)
	}

	return &Report{
		Code:     code,
		Analysis: analysis,
		Prompts:  prompts,
		Summary:  tutor.Summarize(prompts),
	}, nil
}
