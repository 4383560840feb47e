package cmd

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"docextract/internal/config"
	"docextract/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "docextract",
	Short: "Extract structured data from passports, Emirates IDs and UAE trade licenses",
	Long: `docextract reads scanned identity and business documents, classifies them
and extracts their fields.

Supported documents:
  Passport          ICAO TD3 machine readable zone
  EmiratesID        UAE resident identity card
  UAETradeLicense   UAE commercial / professional license

Text comes from an OCR engine (Google Cloud Vision, Document AI, tesseract
or the text layer of digital PDFs) and can optionally be cleaned up by a
language model before parsing.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	cfgOnce sync.Once
	cfg     *config.Config
	cfgErr  error
)

// appConfig loads the environment configuration once per process.
func appConfig() (*config.Config, error) {
	cfgOnce.Do(func() {
		cfg, cfgErr = config.Load()
	})
	return cfg, cfgErr
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
}
