package report

import (
	"strings"
	"testing"
	"time"

	"compass/internal/analyzer"
	"compass/internal/dataset"
	"compass/internal/evaluator"
	"compass/internal/tutor"

	"github.com/stretchr/testify/require"
)

func sampleReport() *evaluator.Report {
	prompts := []tutor.Prompt{
		{
			Text:       "What value does calculate_sum hand back to its caller?",
			Category:   tutor.CategoryConceptual,
			Difficulty: 3,
			Objective:  "Understanding function return values",
		},
	}
	return &evaluator.Report{
		Code: "def calculate_sum(numbers): ...",
		Analysis: &analyzer.Analysis{
			Misconceptions: []analyzer.Finding{
				{Code: analyzer.CodeMissingReturn, Message: "function computes a value but never returns it", Line: 1},
			},
			Complexity: 0.3,
			Confidence: 0.8,
		},
		Prompts: prompts,
		Summary: tutor.Summarize(prompts),
	}
}

func sampleRun() *evaluator.RunResult {
	return &evaluator.RunResult{
		ID:        "run-1",
		Generator: "rule-based",
		Dataset:   "builtin",
		Duration:  42 * time.Millisecond,
		Results: []evaluator.SampleResult{
			{
				Sample:   dataset.Sample{ID: "s1", Name: "calculate_sum", Expected: []string{"missing-return"}},
				Detected: []string{"missing-return"},
			},
		},
		Metrics: evaluator.Metrics{
			Samples:  1,
			Accuracy: 1.0, Precision: 1.0, Recall: 1.0, F1: 1.0,
			PerCode: map[string]evaluator.Tally{
				"missing-return": {TruePositives: 1},
			},
		},
	}
}

func TestRenderReport(t *testing.T) {
	out := RenderReport("calculate_sum.py", sampleReport())

	require.Contains(t, out, "calculate_sum.py")
	require.Contains(t, out, "never returns")
	require.Contains(t, out, "Generated Prompts (1)")
	require.Contains(t, out, "Conceptual")
	require.Contains(t, out, "difficulty 3/5")
}

func TestRenderReport_CleanCode(t *testing.T) {
	rep := &evaluator.Report{
		Analysis: &analyzer.Analysis{Complexity: 0.3, Confidence: 0.8},
	}
	out := RenderReport("fib.py", rep)
	require.Contains(t, out, "No issues detected")
}

func TestRenderMetrics(t *testing.T) {
	out := RenderMetrics(sampleRun())

	require.Contains(t, out, "rule-based")
	require.Contains(t, out, "accuracy 1.00")
	require.Contains(t, out, "missing-return")
}

func TestRenderComparison(t *testing.T) {
	cmp := &evaluator.Comparison{
		Dataset: "builtin",
		Runs:    []*evaluator.RunResult{sampleRun(), sampleRun()},
	}
	out := RenderComparison(cmp)

	require.Contains(t, out, "Generator Comparison: builtin")
	require.Equal(t, 2, strings.Count(out, "rule-based"))
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleRun())

	require.Contains(t, md, "# Evaluation run run-1")
	require.Contains(t, md, "| accuracy | precision | recall | f1 | alignment |")
	require.Contains(t, md, "| missing-return | 1 | 0 | 0 | 1.00 | 1.00 |")
	require.Contains(t, md, "### calculate_sum")
}

func TestRenderMarkdown_FallsBackOnRaw(t *testing.T) {
	md := "# title\n\nbody\n"
	out := RenderMarkdown(md)
	require.NotEmpty(t, out)
	require.Contains(t, out, "title")
}

func TestPromptsOnly(t *testing.T) {
	out := PromptsOnly([]tutor.Prompt{
		{Text: "Why a loop?", Category: tutor.CategoryConceptual},
		{Text: "Trace the bug.", Category: tutor.CategoryDebugging},
	})
	require.Contains(t, out, "1. [conceptual] Why a loop?")
	require.Contains(t, out, "2. [debugging] Trace the bug.")
}

func TestCapitalize(t *testing.T) {
	require.Equal(t, "Conceptual", capitalize("conceptual"))
	require.Equal(t, "", capitalize(""))
}
