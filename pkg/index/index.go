// Package index implements the fragment-ion index: a catalog of peptides
// sorted by precursor mass, a sorted table of their theoretical fragments,
// bucket minima over that table, and the per-peak query engine that joins
// fragment and precursor ranges.
//
// Building is a one-shot batch step. A built index is read-only and may be
// queried from many goroutines, each with its own QueryEngine.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
)

// Index owns the catalog and every structure derived from it.
type Index struct {
	cfg     Config
	catalog *Catalog
	logger  *slog.Logger

	fragments  []Fragment
	buckets    *BucketIndex
	precursors *PrecursorIndex
	built      bool
}

// Stats summarizes a built index.
type Stats struct {
	Peptides   int
	Fragments  int
	Buckets    int
	BucketSize int
	BuildTime  time.Duration
	MinMZ      float64
	MaxMZ      float64
}

// New validates cfg and returns an unbuilt index over catalog.
func New(catalog *Catalog, cfg Config) (*Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Index{
		cfg:     cfg,
		catalog: catalog,
		logger:  slog.Default().With("component", "index"),
	}, nil
}

// Build sorts and seals the catalog, generates the fragment table and
// derives the bucket and precursor indices. On error nothing is modified
// and the index stays unbuilt. Building an already built index regenerates
// identical structures.
func (idx *Index) Build(ctx context.Context) (Stats, error) {
	start := time.Now()

	peptides, order, err := idx.catalog.sorted()
	if err != nil {
		return Stats{}, err
	}

	fragments, err := buildFragments(ctx, peptides, order, idx.cfg)
	if err != nil {
		idx.logger.Error("index build failed", "peptides", len(peptides), "error", err)
		return Stats{}, fmt.Errorf("building fragment table: %w", err)
	}

	idx.catalog.seal(peptides, order)
	idx.fragments = fragments
	idx.buckets = NewBucketIndex(fragments, idx.cfg.BucketSize)
	idx.precursors = NewPrecursorIndex(peptides)
	idx.built = true

	stats := idx.Stats()
	stats.BuildTime = time.Since(start)
	idx.logger.Info("index built",
		"peptides", stats.Peptides,
		"fragments", stats.Fragments,
		"buckets", stats.Buckets,
		"ion_series", idx.cfg.IonSeries.String(),
		"duration", stats.BuildTime,
	)
	return stats, nil
}

// Built reports whether Build has completed successfully.
func (idx *Index) Built() bool {
	return idx.built
}

// Stats describes the built index.
func (idx *Index) Stats() Stats {
	s := Stats{
		Peptides:   idx.catalog.Len(),
		Fragments:  len(idx.fragments),
		BucketSize: idx.cfg.BucketSize,
	}
	if idx.buckets != nil {
		s.Buckets = idx.buckets.NumBuckets()
	}
	if len(idx.fragments) > 0 {
		s.MinMZ = idx.fragments[0].MZ
		s.MaxMZ = idx.fragments[len(idx.fragments)-1].MZ
	}
	return s
}

// Config returns the build configuration.
func (idx *Index) Config() Config {
	return idx.cfg
}

// Catalog returns the catalog the index was built over.
func (idx *Index) Catalog() *Catalog {
	return idx.catalog
}

// Peptide returns the peptide at sorted position i.
func (idx *Index) Peptide(i int) core.Peptide {
	return idx.catalog.Peptide(i)
}

// Fragments returns the sorted fragment table. Callers must not modify it.
func (idx *Index) Fragments() []Fragment {
	return idx.fragments
}

// Buckets returns the bucket index.
func (idx *Index) Buckets() *BucketIndex {
	return idx.buckets
}

// Precursors returns the precursor range index.
func (idx *Index) Precursors() *PrecursorIndex {
	return idx.precursors
}

// mustBeBuilt panics with ErrNotBuilt on use of an unbuilt index.
func (idx *Index) mustBeBuilt() {
	if !idx.built {
		panic(ErrNotBuilt)
	}
}
