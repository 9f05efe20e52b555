package main

import (
	"fmt"

	"compass/internal/config"

	"github.com/spf13/cobra"
)

// configCmd manages compass configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config to .compass/config.yaml",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Printf("Wrote default config to %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	fmt.Printf("provider:  %s\n", cfg.LLM.Provider)
	fmt.Printf("model:     %s\n", cfg.LLM.Model)
	fmt.Printf("workers:   %d\n", cfg.Eval.Workers)
	fmt.Printf("dataset:   %s\n", cfg.Eval.DatasetPath)
	fmt.Printf("database:  %s\n", cfg.Store.DatabasePath)
	if cfg.LLM.APIKey == "" {
		fmt.Println("api key:   (not set)")
	} else {
		fmt.Println("api key:   (set)")
	}
	return nil
}
