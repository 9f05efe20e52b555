package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"compass/internal/analyzer"
	"compass/internal/evaluator"
	"compass/internal/report"
	"compass/internal/watch"

	"github.com/spf13/cobra"
)

// watchCmd runs tutor mode over a directory of student files.
var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Re-analyze student .py files on save (tutor mode)",
	Long: `Watches a directory and re-runs analysis plus rule-based prompt
generation whenever a .py file is saved. Ctrl-C stops the watcher.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	gen, err := buildGenerator(false)
	if err != nil {
		return err
	}
	eval := evaluator.New(analyzer.New(), gen)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Compact output: watch mode fires on every save, so a full report
	// per keystroke-burst would drown the terminal.
	watcher, err := watch.New(dir, eval, func(path string, rep *evaluator.Report) {
		fmt.Printf("\n%s: %d findings, %d prompts\n",
			filepath.Base(path), rep.Analysis.TotalFindings(), len(rep.Prompts))
		fmt.Print(report.PromptsOnly(rep.Prompts))
	})
	if err != nil {
		return err
	}

	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	fmt.Printf("Watching %s for changes to .py files (Ctrl-C to stop)\n", dir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		fmt.Println("\nStopping watcher")
	case <-ctx.Done():
	}

	return nil
}
