package index

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
)

// Fragment is one theoretical fragment ion. PeptideIdx is the position of
// its peptide in the sorted catalog.
type Fragment struct {
	MZ         float64
	PeptideIdx uint32
}

// fragmentChunk is the number of peptides a worker fragments at a time.
const fragmentChunk = 2048

// buildFragments materializes every fragment of every peptide for the
// configured series and returns them sorted by (MZ, PeptideIdx).
//
// Chunks are generated in parallel and concatenated in chunk order, so the
// result does not depend on scheduling.
func buildFragments(ctx context.Context, peptides []core.Peptide, order []uint32, cfg Config) ([]Fragment, error) {
	if len(peptides) == 0 {
		return []Fragment{}, nil
	}

	calc := cfg.calculator()
	series := cfg.IonSeries.Types()
	numChunks := (len(peptides) + fragmentChunk - 1) / fragmentChunk
	chunks := make([][]Fragment, numChunks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers())

	for c := 0; c < numChunks; c++ {
		g.Go(func() error {
			start := c * fragmentChunk
			end := min(start+fragmentChunk, len(peptides))

			var masses []float64
			out := make([]Fragment, 0, (end-start)*len(series)*16)
			for i := start; i < end; i++ {
				if (i-start)%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				p := peptides[i]
				for _, ion := range series {
					var err error
					masses, err = calc.Fragments(masses[:0], p, ion)
					if err != nil {
						return &BuildError{InputIndex: int(order[i]), Peptide: p.String(), Err: err}
					}
					for _, mz := range masses {
						out = append(out, Fragment{MZ: mz, PeptideIdx: uint32(i)})
					}
				}
			}
			chunks[c] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}
	fragments := make([]Fragment, 0, total)
	for _, chunk := range chunks {
		fragments = append(fragments, chunk...)
	}

	sort.Slice(fragments, func(i, j int) bool {
		if fragments[i].MZ != fragments[j].MZ {
			return fragments[i].MZ < fragments[j].MZ
		}
		return fragments[i].PeptideIdx < fragments[j].PeptideIdx
	})
	return fragments, nil
}
