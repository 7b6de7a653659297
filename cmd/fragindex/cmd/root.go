// Package cmd provides CLI command implementations
package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/FragIndex/pkg/config"
	"github.com/ChrisMcGann/FragIndex/pkg/logger"
)

var (
	// Persistent flags
	configFile string
	envFile    string
	logLevel   string
	logFormat  string
	workers    int

	// Shared by subcommands that digest a protein database
	fastaFile string

	// Loaded in PersistentPreRunE
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fragindex",
	Short: "FragIndex - fragment-ion index peptide search",
	Long: `FragIndex digests a protein FASTA database, builds an in-memory fragment-ion
index over the resulting peptides and searches MS/MS spectra against it.

Supports:
- Closed search with isotope error correction
- Open (mass-tolerant) search for unknown modifications
- MGF, MSP and SPTXT query spectra, optionally gzip, zstd or lz4 compressed
- Results written to a SQLite database`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(indexCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	flags.StringVar(&envFile, "env-file", ".env", "Dotenv file with FRAGINDEX_* overrides (ignored if missing)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flags.StringVar(&logFormat, "log-format", "", "Log format: text or json (overrides config)")
	flags.IntVar(&workers, "workers", 0, "Worker goroutines for index build and search (0 = config, then GOMAXPROCS)")
}

// loadConfig resolves configuration as defaults, file, environment, then
// command-line flags, and installs the logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		// A missing dotenv file is not an error
		_ = godotenv.Load(envFile)
	}

	c, err := config.Load(configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.Logging.Level = logLevel
	}
	if flags.Changed("log-format") {
		c.Logging.Format = logFormat
	}
	if flags.Changed("workers") {
		c.Workers = workers
	}
	if flags.Changed("mode") {
		c.Search.Mode = searchMode
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("after command-line overrides: %w", err)
	}

	logger.Setup(c.Logging.Level, c.Logging.Format)
	cfg = c
	return nil
}
