package main

import (
	"fmt"

	"compass/internal/store"

	"github.com/spf13/cobra"
)

var runsLimit int

// runsCmd lists past evaluation runs from the result store.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past evaluation runs",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
}

func runRuns(cmd *cobra.Command, args []string) error {
	s, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.ListRuns(runsLimit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet. Run 'compass eval' first.")
		return nil
	}

	fmt.Printf("%-36s %-19s %-24s %8s %6s %9s\n",
		"id", "started", "generator", "samples", "f1", "accuracy")
	for _, r := range runs {
		fmt.Printf("%-36s %-19s %-24s %8d %6.2f %9.2f\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Generator,
			r.Samples, r.F1, r.Accuracy)
	}

	return nil
}
