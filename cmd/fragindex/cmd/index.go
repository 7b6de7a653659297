package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/FragIndex/pkg/logger"
)

func init() {
	indexCmd.AddCommand(indexStatsCmd)

	indexStatsCmd.Flags().StringVarP(&fastaFile, "fasta", "d", "", "Protein FASTA database (required)")
	indexStatsCmd.MarkFlagRequired("fasta")
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect the fragment index",
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Build the fragment index and print its shape",
	Long: `Digest a FASTA database, build the fragment index in memory and print
peptide, fragment and bucket counts. Useful for sizing bucketSize.

Examples:
  fragindex index stats --fasta human.fasta
  FRAGINDEX_BUCKET_SIZE=4096 fragindex index stats --fasta human.fasta`,
	RunE: runIndexStats,
}

func runIndexStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.WithComponent("index")

	modDB, err := loadModDatabase(cfg, log)
	if err != nil {
		return err
	}
	idx, stats, proteins, err := buildIndex(ctx, cfg, fastaFile, modDB, log)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Proteins:    %d\n", len(proteins))
	fmt.Fprintf(out, "Peptides:    %d\n", stats.Peptides)
	fmt.Fprintf(out, "Ion series:  %s\n", idx.Config().IonSeries)
	fmt.Fprintf(out, "Fragments:   %d\n", stats.Fragments)
	fmt.Fprintf(out, "Buckets:     %d (size %d)\n", stats.Buckets, stats.BucketSize)
	if stats.Fragments > 0 {
		fmt.Fprintf(out, "Fragment m/z: %.4f - %.4f\n", stats.MinMZ, stats.MaxMZ)
	}
	if stats.Peptides > 0 {
		pre := idx.Precursors()
		fmt.Fprintf(out, "Precursor MH: %.4f - %.4f\n", pre.Mass(0), pre.Mass(pre.Len()-1))
	}
	fmt.Fprintf(out, "Build time:  %s\n", stats.BuildTime)
	return nil
}
