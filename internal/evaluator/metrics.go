package evaluator

import (
	"sort"
	"strings"

	"compass/internal/analyzer"
	"compass/internal/tutor"
)

// Tally holds detection counts for one finding code.
type Tally struct {
	TruePositives  int `json:"tp"`
	FalsePositives int `json:"fp"`
	FalseNegatives int `json:"fn"`
}

// Precision for this code; 0 when undefined.
func (t Tally) Precision() float64 {
	d := t.TruePositives + t.FalsePositives
	if d == 0 {
		return 0
	}
	return float64(t.TruePositives) / float64(d)
}

// Recall for this code; 0 when undefined.
func (t Tally) Recall() float64 {
	d := t.TruePositives + t.FalseNegatives
	if d == 0 {
		return 0
	}
	return float64(t.TruePositives) / float64(d)
}

// Metrics aggregates a harness run.
type Metrics struct {
	Samples  int     `json:"samples"`
	Failures int     `json:"failures"` // generation errors

	// Detection quality: expected finding codes vs detected ones.
	Accuracy  float64 `json:"accuracy"` // exact label-set matches / samples
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`

	PerCode map[string]Tally `json:"per_code"`

	// Prompt quality proxy: share of generated prompts whose objective
	// relates to a detected finding.
	PromptAlignment float64 `json:"prompt_alignment"`

	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// computeMetrics scores sample results against their labels. Labeled
// samples (non-nil Expected) contribute to detection metrics; every
// sample with prompts contributes to alignment.
func computeMetrics(results []SampleResult) Metrics {
	m := Metrics{
		Samples: len(results),
		PerCode: make(map[string]Tally),
	}
	if len(results) == 0 {
		return m
	}

	exactMatches := 0
	labeled := 0
	tp, fp, fn := 0, 0, 0
	totalPrompts, alignedPrompts := 0, 0
	var totalLatency float64

	for _, r := range results {
		totalLatency += float64(r.LatencyMs)
		if r.Err != "" {
			m.Failures++
		}

		totalPrompts += len(r.Prompts)
		alignedPrompts += r.Aligned

		if r.Sample.Expected == nil {
			continue
		}
		labeled++

		expected := toSet(r.Sample.Expected)
		detected := toSet(r.Detected)

		if equalSets(expected, detected) {
			exactMatches++
		}

		for code := range detected {
			t := m.PerCode[code]
			if expected[code] {
				t.TruePositives++
				tp++
			} else {
				t.FalsePositives++
				fp++
			}
			m.PerCode[code] = t
		}
		for code := range expected {
			if !detected[code] {
				t := m.PerCode[code]
				t.FalseNegatives++
				fn++
				m.PerCode[code] = t
			}
		}
	}

	if labeled > 0 {
		m.Accuracy = float64(exactMatches) / float64(labeled)
	}
	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	if totalPrompts > 0 {
		m.PromptAlignment = float64(alignedPrompts) / float64(totalPrompts)
	}
	m.AvgLatencyMs = totalLatency / float64(len(results))

	return m
}

// alignmentKeywords maps finding codes to terms an aligned prompt's
// objective or text should touch. The research plan gives no formula;
// keyword overlap is the recorded decision.
var alignmentKeywords = map[string][]string{
	analyzer.CodeSyntaxError:           {"syntax"},
	analyzer.CodeAssignmentInCondition: {"assignment", "equality", "comparison"},
	analyzer.CodeMissingReturn:         {"return"},
	analyzer.CodeMutableDefaultArg:     {"default", "mutable", "shared"},
	analyzer.CodeIsLiteralComparison:   {"identity", "equality", "is"},
	analyzer.CodeRangeLenIteration:     {"iterat", "index", "sequence"},
	analyzer.CodeBareExcept:            {"except", "exception", "error"},
	analyzer.CodeShadowedBuiltin:       {"builtin", "shadow", "name"},
	analyzer.CodeUnreachableCode:       {"unreachable", "return", "control flow", "execute"},
	analyzer.CodeRecursionNoBaseCase:   {"recursion", "base case", "stop", "terminat"},
}

// countAligned counts prompts that relate to a detected finding. On a
// clean sample, extension prompts are the expected output and count as
// aligned.
func countAligned(prompts []tutor.Prompt, detected []string) int {
	aligned := 0
	for _, p := range prompts {
		if isAligned(p, detected) {
			aligned++
		}
	}
	return aligned
}

func isAligned(p tutor.Prompt, detected []string) bool {
	if len(detected) == 0 {
		return p.Category == tutor.CategoryExtension
	}

	haystack := strings.ToLower(p.Objective + " " + p.Text)
	for _, code := range detected {
		for _, kw := range alignmentKeywords[code] {
			if strings.Contains(haystack, kw) {
				return true
			}
		}
	}

	// Extension prompts triggered by complexity are valid alongside
	// findings too.
	return p.Category == tutor.CategoryExtension
}

func toSet(codes []string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return set
}

func equalSets(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// SortedCodes returns the per-code keys in stable order for rendering
// and persistence.
func (m Metrics) SortedCodes() []string {
	codes := make([]string, 0, len(m.PerCode))
	for c := range m.PerCode {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
