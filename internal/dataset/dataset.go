// Package dataset loads labeled student code samples for evaluation.
// Samples carry the finding codes a grader expects the analyzer to
// detect, which is what harness metrics are computed against.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"compass/internal/logging"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Sample is one labeled piece of student code.
type Sample struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Code     string   `yaml:"code"`
	Expected []string `yaml:"expected"` // finding codes
	Notes    string   `yaml:"notes,omitempty"`
}

// datasetFile is the YAML document shape.
type datasetFile struct {
	Samples []Sample `yaml:"samples"`
}

// LoadFile loads samples from a single YAML file. Samples without an ID
// get a generated one.
func LoadFile(path string) ([]Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	var df datasetFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return nil, fmt.Errorf("failed to parse dataset file %s: %w", path, err)
	}

	for i := range df.Samples {
		if df.Samples[i].ID == "" {
			df.Samples[i].ID = uuid.NewString()
		}
		if df.Samples[i].Code == "" {
			return nil, fmt.Errorf("sample %s in %s has no code", df.Samples[i].ID, path)
		}
	}

	logging.Dataset("loaded %d samples from %s", len(df.Samples), filepath.Base(path))
	return df.Samples, nil
}

// LoadDir loads every YAML dataset file under dir. Standalone .py files
// are loaded as unlabeled samples (useful for smoke-running a generator
// over a class submission folder).
func LoadDir(dir string) ([]Sample, error) {
	var samples []Sample

	err := filepath.Walk(dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			loaded, err := LoadFile(path)
			if err != nil {
				return err
			}
			samples = append(samples, loaded...)

		case ".py":
			code, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			samples = append(samples, Sample{
				ID:   uuid.NewString(),
				Name: strings.TrimSuffix(filepath.Base(path), ".py"),
				Code: string(code),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk dataset directory %s: %w", dir, err)
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples found under %s", dir)
	}

	logging.Dataset("loaded %d samples from directory %s", len(samples), dir)
	return samples, nil
}

// Builtin returns the demonstration samples: the three student programs
// the project has always used to show the analyze-then-prompt loop.
func Builtin() []Sample {
	return []Sample{
		{
			ID:   "demo-assignment-in-condition",
			Name: "check_number",
			Code: `def check_number(x):
    if x = 5:
        return "equal"
    else:
        return "not equal"`,
			Expected: []string{"syntax-error", "assignment-in-condition"},
			Notes:    "assignment where a comparison was intended",
		},
		{
			ID:   "demo-missing-return",
			Name: "calculate_sum",
			Code: `def calculate_sum(numbers):
    total = 0
    for num in numbers:
        total += num`,
			Expected: []string{"missing-return"},
			Notes:    "accumulates a total but never returns it",
		},
		{
			ID:   "demo-fibonacci",
			Name: "fibonacci",
			Code: `def fibonacci(n):
    if n <= 1:
        return n
    else:
        return fibonacci(n-1) + fibonacci(n-2)`,
			Expected: []string{},
			Notes:    "correct recursive solution; should yield extension prompts only",
		},
	}
}
