package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"compass/internal/analyzer"
	"compass/internal/llm"
	"compass/internal/logging"
)

// systemPrompt instructs the model to emit prompts as strict JSON. The
// closed category vocabulary and difficulty range are restated because
// small code models drift without them.
const systemPrompt = `You are a programming tutor generating assessment prompts from student Python code.
Given the code and an analysis of its issues, produce probing questions that help the student discover the problem themselves. Never reveal the fix.

Respond with ONLY a JSON array. Each element:
{"text": "...", "category": "conceptual|debugging|extension", "difficulty": 1-5, "objective": "..."}

Generate between 1 and 5 prompts.`

// ModelGenerator asks a model endpoint to generate prompts.
type ModelGenerator struct {
	client llm.Client
}

// NewModelGenerator wraps a model client as a Generator.
func NewModelGenerator(client llm.Client) *ModelGenerator {
	return &ModelGenerator{client: client}
}

// Name identifies the generator and its model in reports and stored runs.
func (g *ModelGenerator) Name() string {
	return "model:" + g.client.Model()
}

// Generate builds the user prompt from code plus findings, calls the
// model, and parses the response. Prompts that fail validation are
// dropped rather than failing the whole generation.
func (g *ModelGenerator) Generate(ctx context.Context, code string, a *analyzer.Analysis) ([]Prompt, error) {
	if a == nil {
		return nil, fmt.Errorf("nil analysis")
	}

	timer := logging.StartTimer(logging.CategoryTutor, "model generation")
	defer timer.Stop()

	userPrompt := buildUserPrompt(code, a)

	raw, err := g.client.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("model generation failed: %w", err)
	}

	prompts, err := parsePrompts(raw)
	if err != nil {
		// Unparseable output counts as zero prompts, recorded as a
		// generation failure by the caller, not a crash.
		logging.Get(logging.CategoryTutor).Warn("unparseable model output: %v", err)
		return nil, fmt.Errorf("unparseable model output: %w", err)
	}

	return prompts, nil
}

// buildUserPrompt renders the code and analysis for the model.
func buildUserPrompt(code string, a *analyzer.Analysis) string {
	var b strings.Builder
	b.WriteString("Student code:\n```python\n")
	b.WriteString(code)
	b.WriteString("\n```\n\nAnalysis findings:\n")

	if a.TotalFindings() == 0 {
		b.WriteString("- none; the code appears correct\n")
	}
	for _, bucket := range [][]analyzer.Finding{a.SyntaxIssues, a.LogicalIssues, a.Misconceptions} {
		for _, f := range bucket {
			fmt.Fprintf(&b, "- [%s] %s\n", f.Code, f.Message)
		}
	}
	fmt.Fprintf(&b, "\nComplexity score: %.2f\n", a.Complexity)

	return b.String()
}

// parsePrompts extracts a JSON array from model output, tolerating code
// fences and surrounding prose, and drops invalid entries.
func parsePrompts(raw string) ([]Prompt, error) {
	payload := extractJSONArray(raw)
	if payload == "" {
		return nil, fmt.Errorf("no JSON array found in output")
	}

	var candidates []Prompt
	if err := json.Unmarshal([]byte(payload), &candidates); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	prompts := make([]Prompt, 0, len(candidates))
	for _, p := range candidates {
		if err := p.Validate(); err != nil {
			logging.TutorDebug("dropping invalid model prompt: %v", err)
			continue
		}
		prompts = append(prompts, p)
	}

	return prompts, nil
}

// extractJSONArray returns the outermost [...] region of the text, after
// stripping markdown code fences.
func extractJSONArray(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}
