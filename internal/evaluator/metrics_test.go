package evaluator

import (
	"testing"

	"compass/internal/analyzer"
	"compass/internal/dataset"
	"compass/internal/tutor"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func labeled(expected, detected []string) SampleResult {
	return SampleResult{
		Sample:   dataset.Sample{Expected: expected},
		Detected: detected,
	}
}

func TestComputeMetrics_PerfectDetection(t *testing.T) {
	results := []SampleResult{
		labeled([]string{"missing-return"}, []string{"missing-return"}),
		labeled([]string{}, nil),
	}

	m := computeMetrics(results)
	require.Equal(t, 2, m.Samples)
	require.Equal(t, 1.0, m.Accuracy)
	require.Equal(t, 1.0, m.Precision)
	require.Equal(t, 1.0, m.Recall)
	require.Equal(t, 1.0, m.F1)
}

func TestComputeMetrics_MixedDetection(t *testing.T) {
	results := []SampleResult{
		// hit
		labeled([]string{"missing-return"}, []string{"missing-return"}),
		// false positive
		labeled([]string{}, []string{"bare-except"}),
		// miss
		labeled([]string{"syntax-error"}, nil),
	}

	m := computeMetrics(results)
	require.InDelta(t, 1.0/3.0, m.Accuracy, 0.001)
	require.InDelta(t, 0.5, m.Precision, 0.001) // tp=1 fp=1
	require.InDelta(t, 0.5, m.Recall, 0.001)    // tp=1 fn=1
	require.InDelta(t, 0.5, m.F1, 0.001)

	want := map[string]Tally{
		"missing-return": {TruePositives: 1},
		"bare-except":    {FalsePositives: 1},
		"syntax-error":   {FalseNegatives: 1},
	}
	if diff := cmp.Diff(want, m.PerCode); diff != "" {
		t.Errorf("per-code tallies mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeMetrics_UnlabeledSkipped(t *testing.T) {
	results := []SampleResult{
		// nil Expected marks an unlabeled sample
		{Sample: dataset.Sample{}, Detected: []string{"bare-except"}},
	}

	m := computeMetrics(results)
	require.Equal(t, 1, m.Samples)
	require.Zero(t, m.Accuracy)
	require.Zero(t, m.Precision)
	require.Empty(t, m.PerCode)
}

func TestComputeMetrics_GuardedDenominators(t *testing.T) {
	m := computeMetrics(nil)
	require.Zero(t, m.Accuracy)
	require.Zero(t, m.Precision)
	require.Zero(t, m.Recall)
	require.Zero(t, m.F1)
	require.Zero(t, m.PromptAlignment)
	require.Zero(t, m.AvgLatencyMs)
}

func TestComputeMetrics_Failures(t *testing.T) {
	results := []SampleResult{
		{Sample: dataset.Sample{Expected: []string{}}, Err: "model timeout"},
		labeled([]string{}, nil),
	}

	m := computeMetrics(results)
	require.Equal(t, 1, m.Failures)
}

func TestComputeMetrics_PromptAlignment(t *testing.T) {
	results := []SampleResult{
		{
			Sample:   dataset.Sample{Expected: []string{"missing-return"}},
			Detected: []string{"missing-return"},
			Prompts: []tutor.Prompt{
				{Text: "a", Category: tutor.CategoryConceptual, Difficulty: 3},
				{Text: "b", Category: tutor.CategoryConceptual, Difficulty: 3},
			},
			Aligned: 1,
		},
	}

	m := computeMetrics(results)
	require.InDelta(t, 0.5, m.PromptAlignment, 0.001)
}

func TestIsAligned_KeywordMatch(t *testing.T) {
	p := tutor.Prompt{
		Text:      "What does your function give back to the caller?",
		Category:  tutor.CategoryConceptual,
		Objective: "Understanding function return values",
	}
	require.True(t, isAligned(p, []string{analyzer.CodeMissingReturn}))

	unrelated := tutor.Prompt{
		Text:      "Name three Python keywords.",
		Category:  tutor.CategoryConceptual,
		Objective: "Vocabulary",
	}
	require.False(t, isAligned(unrelated, []string{analyzer.CodeMissingReturn}))
}

func TestIsAligned_CleanSampleExtension(t *testing.T) {
	ext := tutor.Prompt{Text: "Extend it", Category: tutor.CategoryExtension}
	require.True(t, isAligned(ext, nil))

	conceptual := tutor.Prompt{Text: "Why?", Category: tutor.CategoryConceptual}
	require.False(t, isAligned(conceptual, nil))
}

func TestIsAligned_ExtensionAlwaysCounts(t *testing.T) {
	ext := tutor.Prompt{Text: "Add memoization", Category: tutor.CategoryExtension, Objective: "Scaling"}
	require.True(t, isAligned(ext, []string{analyzer.CodeMissingReturn}))
}

func TestMetrics_SortedCodes(t *testing.T) {
	m := Metrics{PerCode: map[string]Tally{
		"syntax-error":   {},
		"bare-except":    {},
		"missing-return": {},
	}}
	require.Equal(t, []string{"bare-except", "missing-return", "syntax-error"}, m.SortedCodes())
}

func TestTally_Ratios(t *testing.T) {
	tl := Tally{TruePositives: 3, FalsePositives: 1, FalseNegatives: 2}
	require.InDelta(t, 0.75, tl.Precision(), 0.001)
	require.InDelta(t, 0.6, tl.Recall(), 0.001)

	var zero Tally
	require.Zero(t, zero.Precision())
	require.Zero(t, zero.Recall())
}
