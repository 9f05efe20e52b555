// Package report renders analyses, prompts and harness metrics for the
// terminal and as markdown.
package report

import (
	"fmt"
	"strings"

	"compass/internal/analyzer"
	"compass/internal/evaluator"
	"compass/internal/tutor"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	findingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	codeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	promptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	okStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

// RenderReport renders one evaluation report for the terminal.
func RenderReport(name string, r *evaluator.Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Competence Analysis: "+name) + "\n\n")

	b.WriteString(sectionStyle.Render("Analysis") + "\n")
	fmt.Fprintf(&b, "  Complexity: %.2f   Confidence: %.2f\n", r.Analysis.Complexity, r.Analysis.Confidence)
	fmt.Fprintf(&b, "  Functions: %d   Branches: %d   Loops: %d\n",
		r.Analysis.FunctionCount, r.Analysis.BranchCount, r.Analysis.LoopCount)

	b.WriteString(renderFindings("Syntax issues", r.Analysis.SyntaxIssues))
	b.WriteString(renderFindings("Logical issues", r.Analysis.LogicalIssues))
	b.WriteString(renderFindings("Misconceptions", r.Analysis.Misconceptions))

	if r.Analysis.TotalFindings() == 0 {
		b.WriteString(okStyle.Render("  No issues detected.") + "\n")
	}

	b.WriteString("\n" + sectionStyle.Render(fmt.Sprintf("Generated Prompts (%d)", len(r.Prompts))) + "\n")
	for i, p := range r.Prompts {
		card := fmt.Sprintf("%d. [%s] difficulty %d/5\n%s\n%s",
			i+1, capitalize(p.Category), p.Difficulty, p.Text,
			codeStyle.Render("objective: "+p.Objective))
		b.WriteString(promptStyle.Render(card) + "\n")
	}

	if len(r.Prompts) > 0 {
		fmt.Fprintf(&b, "\nCategories: %s   Avg difficulty: %.1f\n",
			strings.Join(r.Summary.Categories, ", "), r.Summary.AvgDifficulty)
	}

	return b.String()
}

func renderFindings(header string, findings []analyzer.Finding) string {
	if len(findings) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s:\n", header)
	for _, f := range findings {
		b.WriteString("    " + findingStyle.Render("• "+f.Message))
		if f.Snippet != "" {
			b.WriteString(codeStyle.Render("  (" + f.Snippet + ")"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderMetrics renders harness metrics as an aligned table.
func RenderMetrics(run *evaluator.RunResult) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Evaluation Run") + "\n")
	fmt.Fprintf(&b, "  Generator: %s\n  Dataset:   %s\n  Samples:   %d (failures: %d)\n  Duration:  %v\n\n",
		run.Generator, run.Dataset, run.Metrics.Samples, run.Metrics.Failures, run.Duration.Round(1e6))

	m := run.Metrics
	b.WriteString(sectionStyle.Render("Detection") + "\n")
	fmt.Fprintf(&b, "  accuracy %.2f   precision %.2f   recall %.2f   f1 %.2f\n", m.Accuracy, m.Precision, m.Recall, m.F1)
	fmt.Fprintf(&b, "  prompt alignment %.2f   avg latency %.0fms\n", m.PromptAlignment, m.AvgLatencyMs)

	if len(m.PerCode) > 0 {
		b.WriteString("\n" + sectionStyle.Render("Per finding code") + "\n")
		fmt.Fprintf(&b, "  %-28s %4s %4s %4s %9s %7s\n", "code", "tp", "fp", "fn", "precision", "recall")
		for _, code := range m.SortedCodes() {
			t := m.PerCode[code]
			fmt.Fprintf(&b, "  %-28s %4d %4d %4d %9.2f %7.2f\n",
				code, t.TruePositives, t.FalsePositives, t.FalseNegatives, t.Precision(), t.Recall())
		}
	}

	return b.String()
}

// RenderComparison renders a side-by-side summary of generator runs.
func RenderComparison(cmp *evaluator.Comparison) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Generator Comparison: "+cmp.Dataset) + "\n\n")
	fmt.Fprintf(&b, "  %-28s %8s %9s %7s %6s %9s %9s\n",
		"generator", "accuracy", "precision", "recall", "f1", "alignment", "avg ms")
	for _, run := range cmp.Runs {
		m := run.Metrics
		fmt.Fprintf(&b, "  %-28s %8.2f %9.2f %7.2f %6.2f %9.2f %9.0f\n",
			run.Generator, m.Accuracy, m.Precision, m.Recall, m.F1, m.PromptAlignment, m.AvgLatencyMs)
	}
	return b.String()
}

// Markdown renders a run as a markdown report.
func Markdown(run *evaluator.RunResult) string {
	var b strings.Builder
	m := run.Metrics

	fmt.Fprintf(&b, "# Evaluation run %s\n\n", run.ID)
	fmt.Fprintf(&b, "- Generator: `%s`\n- Dataset: `%s`\n- Samples: %d\n- Duration: %v\n\n",
		run.Generator, run.Dataset, m.Samples, run.Duration.Round(1e6))

	b.WriteString("## Metrics\n\n")
	b.WriteString("| accuracy | precision | recall | f1 | alignment |\n")
	b.WriteString("|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %.2f | %.2f | %.2f | %.2f | %.2f |\n\n", m.Accuracy, m.Precision, m.Recall, m.F1, m.PromptAlignment)

	if len(m.PerCode) > 0 {
		b.WriteString("## Per finding code\n\n")
		b.WriteString("| code | tp | fp | fn | precision | recall |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, code := range m.SortedCodes() {
			t := m.PerCode[code]
			fmt.Fprintf(&b, "| %s | %d | %d | %d | %.2f | %.2f |\n",
				code, t.TruePositives, t.FalsePositives, t.FalseNegatives, t.Precision(), t.Recall())
		}
		b.WriteString("\n")
	}

	b.WriteString("## Samples\n\n")
	for _, r := range run.Results {
		fmt.Fprintf(&b, "### %s\n\n", sampleTitle(r))
		fmt.Fprintf(&b, "- expected: `%s`\n- detected: `%s`\n- prompts: %d (aligned %d)\n",
			strings.Join(r.Sample.Expected, ", "), strings.Join(r.Detected, ", "),
			len(r.Prompts), r.Aligned)
		if r.Err != "" {
			fmt.Fprintf(&b, "- error: %s\n", r.Err)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func sampleTitle(r evaluator.SampleResult) string {
	if r.Sample.Name != "" {
		return r.Sample.Name
	}
	return r.Sample.ID
}

// RenderMarkdown pretty-prints markdown for the terminal via glamour.
// Falls back to the raw markdown if rendering fails.
func RenderMarkdown(md string) string {
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return out
}

// PromptsOnly renders a compact prompt list (used by watch mode).
func PromptsOnly(prompts []tutor.Prompt) string {
	var b strings.Builder
	for i, p := range prompts {
		fmt.Fprintf(&b, "  %d. [%s] %s\n", i+1, p.Category, p.Text)
	}
	return b.String()
}
