// Package tutor generates pedagogical prompts from code analysis. Prompts
// never hand the student a fix; they point at the concept the findings
// suggest is shaky.
package tutor

import (
	"context"
	"fmt"

	"compass/internal/analyzer"
)

// Prompt categories. Anything else coming back from a model is rejected.
const (
	CategoryConceptual = "conceptual"
	CategoryDebugging  = "debugging"
	CategoryExtension  = "extension"
)

// Prompt is a generated competence-assessment prompt.
type Prompt struct {
	Text       string `json:"text" yaml:"text"`
	Category   string `json:"category" yaml:"category"`
	Difficulty int    `json:"difficulty" yaml:"difficulty"` // 1-5
	Objective  string `json:"objective" yaml:"objective"`
}

// Validate checks the closed vocabulary and difficulty range.
func (p Prompt) Validate() error {
	switch p.Category {
	case CategoryConceptual, CategoryDebugging, CategoryExtension:
	default:
		return fmt.Errorf("unknown category %q", p.Category)
	}
	if p.Difficulty < 1 || p.Difficulty > 5 {
		return fmt.Errorf("difficulty %d out of range [1,5]", p.Difficulty)
	}
	if p.Text == "" {
		return fmt.Errorf("empty prompt text")
	}
	return nil
}

// Generator produces prompts from student code and its analysis.
type Generator interface {
	Generate(ctx context.Context, code string, a *analyzer.Analysis) ([]Prompt, error)
	Name() string
}

// Summary aggregates a prompt set the way reports present it.
type Summary struct {
	TotalPrompts  int      `json:"total_prompts"`
	Categories    []string `json:"categories"`
	AvgDifficulty float64  `json:"avg_difficulty"`
}

// Summarize computes the summary for a prompt set. Category order follows
// first appearance so output is deterministic.
func Summarize(prompts []Prompt) Summary {
	s := Summary{TotalPrompts: len(prompts)}
	if len(prompts) == 0 {
		return s
	}

	seen := make(map[string]bool)
	total := 0
	for _, p := range prompts {
		if !seen[p.Category] {
			seen[p.Category] = true
			s.Categories = append(s.Categories, p.Category)
		}
		total += p.Difficulty
	}
	s.AvgDifficulty = float64(total) / float64(len(prompts))
	return s
}
