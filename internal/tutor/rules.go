package tutor

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"compass/internal/analyzer"
	"compass/internal/logging"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultCorpus []byte

// Rule binds analysis conditions to a prompt template.
type Rule struct {
	ID string `yaml:"id"`

	// Conditions: a rule fires when any listed code is present, or when
	// the complexity threshold is met. A rule with neither never fires.
	Codes         []string `yaml:"codes,omitempty"`
	MinComplexity float64  `yaml:"min_complexity,omitempty"`

	Prompt Prompt `yaml:"prompt"`
}

// corpusFile is the YAML document shape.
type corpusFile struct {
	Rules []Rule `yaml:"rules"`
}

// RuleGenerator produces prompts from a rule corpus. It is the baseline
// generator the research plan compares models against.
type RuleGenerator struct {
	rules []Rule
}

// NewRuleGenerator creates a generator from the embedded default corpus.
func NewRuleGenerator() (*RuleGenerator, error) {
	return newFromCorpus(defaultCorpus)
}

// NewRuleGeneratorFromDir loads the embedded corpus, then overlays every
// YAML file found under dir. Rules with a duplicate ID replace earlier
// ones, so projects can override individual defaults.
func NewRuleGeneratorFromDir(dir string) (*RuleGenerator, error) {
	g, err := newFromCorpus(defaultCorpus)
	if err != nil {
		return nil, err
	}

	err = filepath.Walk(dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("failed to read rule file %s: %w", path, readErr)
		}
		var cf corpusFile
		if err := yaml.Unmarshal(data, &cf); err != nil {
			return fmt.Errorf("failed to parse rule file %s: %w", path, err)
		}
		for _, r := range cf.Rules {
			g.upsert(r)
		}
		logging.Tutor("loaded %d rules from %s", len(cf.Rules), filepath.Base(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk rules directory %s: %w", dir, err)
	}

	return g, nil
}

func newFromCorpus(data []byte) (*RuleGenerator, error) {
	var cf corpusFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse rule corpus: %w", err)
	}

	for _, r := range cf.Rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rule with empty id in corpus")
		}
		if err := r.Prompt.Validate(); err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.ID, err)
		}
	}

	return &RuleGenerator{rules: cf.Rules}, nil
}

// upsert replaces a rule by ID or appends it.
func (g *RuleGenerator) upsert(r Rule) {
	for i, existing := range g.rules {
		if existing.ID == r.ID {
			g.rules[i] = r
			return
		}
	}
	g.rules = append(g.rules, r)
}

// Rules returns the loaded rule set.
func (g *RuleGenerator) Rules() []Rule {
	return g.rules
}

// Name identifies the generator in reports and stored runs.
func (g *RuleGenerator) Name() string {
	return "rule-based"
}

// Generate evaluates every rule against the analysis, in corpus order.
func (g *RuleGenerator) Generate(ctx context.Context, code string, a *analyzer.Analysis) ([]Prompt, error) {
	if a == nil {
		return nil, fmt.Errorf("nil analysis")
	}

	var prompts []Prompt
	for _, rule := range g.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !rule.matches(a) {
			continue
		}
		prompts = append(prompts, rule.Prompt)
		logging.TutorDebug("rule %s fired", rule.ID)
	}

	return prompts, nil
}

// matches reports whether the rule's conditions hold for the analysis.
func (r *Rule) matches(a *analyzer.Analysis) bool {
	for _, code := range r.Codes {
		if a.HasCode(code) {
			return true
		}
	}
	if r.MinComplexity > 0 && a.Complexity > r.MinComplexity {
		return true
	}
	return false
}
