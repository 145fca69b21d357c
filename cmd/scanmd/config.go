package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/scanmd/internal/config"
	"github.com/jackzampolin/scanmd/internal/home"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage scanmd configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file to the scanmd home directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}
		if h.ConfigExists() {
			return fmt.Errorf("config already exists at %s", h.ConfigPath())
		}

		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", h.ConfigPath())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}

		cfg := mgr.Get()
		fmt.Printf("engine: %s\n", cfg.Engine)
		fmt.Printf("pipeline:\n")
		fmt.Printf("  batch_size: %d\n", cfg.Pipeline.BatchSize)
		fmt.Printf("  dpi: %d\n", cfg.Pipeline.DPI)
		fmt.Printf("  ocr_concurrency: %d\n", cfg.Pipeline.OCRConcurrency)
		fmt.Printf("  workers: %d\n", cfg.Pipeline.Workers)
		fmt.Printf("  vertical_threshold: %.1f\n", cfg.Pipeline.VerticalThreshold)
		fmt.Printf("monitor:\n")
		fmt.Printf("  backoff_threshold_percent: %.1f\n", cfg.Monitor.BackoffThresholdPercent)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
