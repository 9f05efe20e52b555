package evaluator

import (
	"context"
	"time"

	"compass/internal/analyzer"
	"compass/internal/dataset"
	"compass/internal/logging"
	"compass/internal/tutor"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SampleResult is the outcome of running one sample through a generator.
type SampleResult struct {
	Sample    dataset.Sample     `json:"sample"`
	Analysis  *analyzer.Analysis `json:"analysis"`
	Detected  []string           `json:"detected"`
	Prompts   []tutor.Prompt     `json:"prompts"`
	Aligned   int                `json:"aligned"`
	LatencyMs int64              `json:"latency_ms"`
	Err       string             `json:"error,omitempty"`
}

// RunResult is a complete harness run over a dataset.
type RunResult struct {
	ID        string         `json:"id"`
	Generator string         `json:"generator"`
	Dataset   string         `json:"dataset"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
	Results   []SampleResult `json:"results"`
	Metrics   Metrics        `json:"metrics"`
}

// Harness runs generators over datasets with bounded concurrency.
type Harness struct {
	Workers int
}

// NewHarness creates a harness. Workers <= 0 means serial execution.
func NewHarness(workers int) *Harness {
	if workers <= 0 {
		workers = 1
	}
	return &Harness{Workers: workers}
}

// Run evaluates every sample with the generator. Results keep dataset
// order regardless of worker scheduling, so metrics and persisted rows
// are deterministic for deterministic generators.
func (h *Harness) Run(ctx context.Context, datasetName string, samples []dataset.Sample, gen tutor.Generator) (*RunResult, error) {
	timer := logging.StartTimer(logging.CategoryEval, "harness run")
	defer timer.Stop()

	run := &RunResult{
		ID:        uuid.NewString(),
		Generator: gen.Name(),
		Dataset:   datasetName,
		StartedAt: time.Now(),
		Results:   make([]SampleResult, len(samples)),
	}

	logging.Eval("run %s: %d samples, generator %s, %d workers",
		run.ID, len(samples), gen.Name(), h.Workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.Workers)

	for i, sample := range samples {
		g.Go(func() error {
			// One parser per task: tree-sitter parsers are not safe
			// for concurrent use.
			run.Results[i] = evaluateSample(gctx, analyzer.New(), gen, sample)
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	run.Duration = time.Since(run.StartedAt)
	run.Metrics = computeMetrics(run.Results)

	logging.Eval("run %s: accuracy %.2f precision %.2f recall %.2f f1 %.2f in %v",
		run.ID, run.Metrics.Accuracy, run.Metrics.Precision, run.Metrics.Recall,
		run.Metrics.F1, run.Duration)

	return run, nil
}

// evaluateSample analyzes and prompts one sample. Generation errors are
// recorded on the result; analysis never fails short of a parser fault.
func evaluateSample(ctx context.Context, a *analyzer.PythonAnalyzer, gen tutor.Generator, sample dataset.Sample) SampleResult {
	start := time.Now()
	result := SampleResult{Sample: sample}

	analysis, err := a.Analyze(ctx, []byte(sample.Code))
	if err != nil {
		result.Err = err.Error()
		result.LatencyMs = time.Since(start).Milliseconds()
		return result
	}
	result.Analysis = analysis
	result.Detected = analysis.Codes()

	prompts, err := gen.Generate(ctx, sample.Code, analysis)
	if err != nil {
		result.Err = err.Error()
	} else {
		result.Prompts = prompts
		result.Aligned = countAligned(prompts, result.Detected)
	}

	result.LatencyMs = time.Since(start).Milliseconds()
	return result
}

// Comparison holds runs of multiple generators over the same dataset.
type Comparison struct {
	Dataset string       `json:"dataset"`
	Runs    []*RunResult `json:"runs"`
}

// Compare runs each generator over the dataset in turn. Generators run
// sequentially so endpoint rate limits apply per provider, while samples
// within a run still fan out across workers.
func (h *Harness) Compare(ctx context.Context, datasetName string, samples []dataset.Sample, gens ...tutor.Generator) (*Comparison, error) {
	cmp := &Comparison{Dataset: datasetName}
	for _, gen := range gens {
		run, err := h.Run(ctx, datasetName, samples, gen)
		if err != nil {
			return nil, err
		}
		cmp.Runs = append(cmp.Runs, run)
	}
	return cmp, nil
}
