package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ChrisMcGann/FragIndex/pkg/config"
	"github.com/ChrisMcGann/FragIndex/pkg/core"
	"github.com/ChrisMcGann/FragIndex/pkg/digest"
	"github.com/ChrisMcGann/FragIndex/pkg/index"
	"github.com/ChrisMcGann/FragIndex/pkg/reader"
)

// customModsFile is picked up from the working directory when the
// configuration names no modifications CSV.
const customModsFile = "unimod_custom.csv"

// loadModDatabase returns the configured modification table.
func loadModDatabase(c *config.Config, log *slog.Logger) (*core.ModDatabase, error) {
	if c.Digest.ModificationsCSV == "" {
		if _, err := os.Stat(customModsFile); err == nil {
			c.Digest.ModificationsCSV = customModsFile
		}
	}
	modDB, err := c.ModDatabase()
	if err != nil {
		return nil, err
	}
	if c.Digest.ModificationsCSV != "" {
		log.Info("loaded modifications", "file", c.Digest.ModificationsCSV, "total", modDB.Len())
	}
	return modDB, nil
}

// loadProteins reads a possibly compressed FASTA file.
func loadProteins(path string) ([]digest.Protein, error) {
	rc, err := reader.OpenInput(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FASTA file: %w", err)
	}
	defer rc.Close()

	proteins, err := digest.ReadFASTA(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return proteins, nil
}

// digestProteins reads path and generates the configured peptides.
func digestProteins(c *config.Config, path string, modDB *core.ModDatabase, log *slog.Logger) ([]digest.Protein, []core.Peptide, error) {
	proteins, err := loadProteins(path)
	if err != nil {
		return nil, nil, err
	}

	peptides, err := digest.Generate(proteins, c.DigestParams(), modDB)
	if err != nil {
		return nil, nil, fmt.Errorf("digesting %s: %w", path, err)
	}

	log.Info("digested proteins",
		"fasta", path,
		"proteins", len(proteins),
		"peptides", len(peptides),
		"enzyme", c.Digest.Enzyme,
	)
	return proteins, peptides, nil
}

// buildIndex digests the FASTA file and builds the fragment index over it.
func buildIndex(ctx context.Context, c *config.Config, path string, modDB *core.ModDatabase, log *slog.Logger) (*index.Index, index.Stats, []digest.Protein, error) {
	proteins, peptides, err := digestProteins(c, path, modDB, log)
	if err != nil {
		return nil, index.Stats{}, nil, err
	}

	ic, err := c.BuildConfig()
	if err != nil {
		return nil, index.Stats{}, nil, err
	}
	idx, err := index.New(index.NewCatalog(peptides), ic)
	if err != nil {
		return nil, index.Stats{}, nil, err
	}

	stats, err := idx.Build(ctx)
	if err != nil {
		return nil, index.Stats{}, nil, err
	}
	return idx, stats, proteins, nil
}

func accessions(proteins []digest.Protein) []string {
	out := make([]string, len(proteins))
	for i, p := range proteins {
		out[i] = p.Accession
	}
	return out
}
