package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/scanmd/version"
)

var (
	cfgFile string
	homeDir string
)

var rootCmd = &cobra.Command{
	Use:   "scanmd",
	Short: "Extract scanned documents to markdown with OCR",
	Long: `Scanmd turns scanned PDFs and images into markdown text using OCR.

The pipeline includes:
  - Local tesseract or OpenAI vision OCR engines
  - Resumable per-page checkpointing for large documents
  - Adaptive batch sizing under memory pressure
  - Layout-aware paragraph reconstruction`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.scanmd/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "scanmd home directory (default: ~/.scanmd)",
	)

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
