package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/FragIndex/pkg/logger"
)

var listPeptides bool

func init() {
	digestCmd.Flags().StringVarP(&fastaFile, "fasta", "d", "", "Protein FASTA database (required)")
	digestCmd.Flags().BoolVar(&listPeptides, "list", false, "Print every peptide with its [M+H]+ mass and protein")

	digestCmd.MarkFlagRequired("fasta")
}

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Digest a protein database and report the candidate peptides",
	Long: `Digest a FASTA database with the configured enzyme and modifications and
print how many candidate peptides it yields.

Examples:
  fragindex digest --fasta human.fasta
  fragindex digest --fasta human.fasta --list --config tmt.yaml`,
	RunE: runDigest,
}

func runDigest(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("digest")

	modDB, err := loadModDatabase(cfg, log)
	if err != nil {
		return err
	}
	proteins, peptides, err := digestProteins(cfg, fastaFile, modDB, log)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if listPeptides {
		tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
		fmt.Fprintln(tw, "Peptide\tMH\tProtein")
		for _, p := range peptides {
			fmt.Fprintf(tw, "%s\t%.5f\t%s\n", p.String(), p.PrecursorMZ, proteins[p.ProteinIdx].Accession)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Proteins: %d\n", len(proteins))
	fmt.Fprintf(out, "Peptides: %d\n", len(peptides))
	return nil
}
