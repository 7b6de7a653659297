package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
	"github.com/ChrisMcGann/FragIndex/pkg/logger"
	"github.com/ChrisMcGann/FragIndex/pkg/metrics"
	"github.com/ChrisMcGann/FragIndex/pkg/reader"
	"github.com/ChrisMcGann/FragIndex/pkg/search"
	"github.com/ChrisMcGann/FragIndex/pkg/writer/sqlite"
)

// progressEvery is the number of spectra between progress log lines.
const progressEvery = 1000

var (
	// Flags for search command
	spectraFiles []string
	outputFile   string
	searchMode   string
)

func init() {
	searchCmd.Flags().StringVarP(&fastaFile, "fasta", "d", "", "Protein FASTA database (required)")
	searchCmd.Flags().StringSliceVarP(&spectraFiles, "spectra", "s", nil, "Query spectrum files: .mgf, .msp or .sptxt, optionally .gz/.zst/.lz4 (required)")
	searchCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output SQLite database (required)")
	searchCmd.Flags().StringVar(&searchMode, "mode", "", "Search mode: closed or open (overrides config)")

	searchCmd.MarkFlagRequired("fasta")
	searchCmd.MarkFlagRequired("spectra")
	searchCmd.MarkFlagRequired("out")
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search spectra against a digested protein database",
	Long: `Digest a FASTA database, build the fragment index and search every query
spectrum, writing ranked peptide-spectrum matches to a SQLite database.

Examples:
  # Closed search with default settings
  fragindex search --fasta human.fasta --spectra run1.mgf --out run1.db

  # Open search over several compressed runs
  fragindex search --fasta human.fasta.gz -s run1.mgf.zst -s run2.mgf.zst --mode open --out runs.db`,
	RunE: runSearch,
}

type searchSummary struct {
	read       int
	skipped    int
	searched   int
	identified int
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.WithComponent("search")

	params, err := cfg.SearchParams()
	if err != nil {
		return err
	}
	mode := params.Mode.String()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)
		shutdown := metrics.StartServer(cfg.Metrics.Port, reg)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(sctx)
		}()
	}

	modDB, err := loadModDatabase(cfg, log)
	if err != nil {
		return err
	}

	idx, stats, proteins, err := buildIndex(ctx, cfg, fastaFile, modDB, log)
	if err != nil {
		return err
	}
	if m != nil {
		m.ObserveBuild(stats)
	}

	writer, err := sqlite.NewWriter(outputFile, sqlite.Run{
		Mode:         mode,
		Parameters:   cfg,
		Fasta:        fastaFile,
		NumPeptides:  stats.Peptides,
		NumFragments: stats.Fragments,
	}, idx, accessions(proteins))
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}

	log.Info("searching spectra", "files", len(spectraFiles), "mode", mode, "workers", cfg.Workers, "out", outputFile)
	start := time.Now()

	var sum searchSummary
	g, gctx := errgroup.WithContext(ctx)
	spectra := make(chan *core.Spectrum, 64)

	g.Go(func() error {
		defer close(spectra)
		return readSpectra(gctx, spectraFiles, modDB, spectra, &sum)
	})

	g.Go(func() error {
		return search.Run(gctx, idx, params, cfg.Workers, spectra, func(o search.Outcome) error {
			if err := writer.WriteOutcome(o); err != nil {
				return fmt.Errorf("failed to write spectrum %s: %w", o.Spectrum.Name(), err)
			}
			if m != nil {
				m.ObserveOutcome(mode, o)
			}

			sum.searched++
			if o.Result.Identified() {
				sum.identified++
			}
			if sum.searched%progressEvery == 0 {
				log.Info("progress", "searched", sum.searched, "identified", sum.identified, "elapsed", time.Since(start))
			}
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		writer.Abort()
		return err
	}

	if err := writer.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}

	log.Info("search complete",
		"read", sum.read,
		"searched", sum.searched,
		"identified", sum.identified,
		"skipped", sum.skipped,
		"run_id", writer.RunID(),
		"duration", time.Since(start),
		"out", outputFile,
	)
	return nil
}

// readSpectra streams every file into out after peak filtering. Spectra
// that fail validation are logged and skipped.
func readSpectra(ctx context.Context, paths []string, modDB *core.ModDatabase, out chan<- *core.Spectrum, sum *searchSummary) error {
	log := logger.WithComponent("reader")
	peakFilter := cfg.PeakFilter()

	for _, path := range paths {
		f, err := reader.Open(path, modDB)
		if err != nil {
			return err
		}

		for f.Next() {
			spec := f.Spectrum()
			sum.read++

			peakFilter.Apply(spec)
			if err := spec.Validate(); err != nil {
				log.Warn("skipping invalid spectrum", "file", path, "spectrum", spec.Name(), "error", err)
				sum.skipped++
				continue
			}

			select {
			case out <- spec:
			case <-ctx.Done():
				f.Close()
				return ctx.Err()
			}
		}

		err = f.Err()
		f.Close()
		if err != nil {
			return fmt.Errorf("error reading %s: %w", path, err)
		}
		log.Debug("finished file", "file", path, "read", sum.read)
	}
	return nil
}
