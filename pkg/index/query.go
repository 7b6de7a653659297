package index

import "github.com/ChrisMcGann/FragIndex/pkg/core"

// Hit is one observed peak matched to a theoretical fragment.
type Hit struct {
	PeptideIdx uint32
	MZ         float64 // Theoretical singly-charged fragment mass
	Charge     int     // Fragment charge hypothesis that produced the hit
}

// QueryEngine runs per-peak lookups against a built index. It reuses an
// internal buffer and must not be shared between goroutines.
type QueryEngine struct {
	fragments []Fragment
	buckets   *BucketIndex
	hits      []Hit
}

// NewQueryEngine returns an engine over the built index. It panics if the
// index has not been built.
func (idx *Index) NewQueryEngine() *QueryEngine {
	idx.mustBeBuilt()
	return &QueryEngine{
		fragments: idx.fragments,
		buckets:   idx.buckets,
		hits:      make([]Hit, 0, 256),
	}
}

// Query returns every fragment within tol of the peak at mz, trying fragment
// charges 1..maxCharge, whose peptide lies in the candidate range [lo, hi).
// Hits are ordered by charge, then fragment table order. The returned slice
// is only valid until the next call.
func (e *QueryEngine) Query(mz float64, lo, hi, maxCharge int, tol core.Tolerance) []Hit {
	e.hits = e.hits[:0]
	if lo >= hi {
		return e.hits
	}
	plo, phi := uint32(lo), uint32(hi)

	for charge := 1; charge <= maxCharge; charge++ {
		q := core.MZToMH(mz, charge)
		flo, fhi := e.buckets.RangeForMZ(q, tol)
		for _, f := range e.fragments[flo:fhi] {
			if f.PeptideIdx >= plo && f.PeptideIdx < phi {
				e.hits = append(e.hits, Hit{PeptideIdx: f.PeptideIdx, MZ: f.MZ, Charge: charge})
			}
		}
	}
	return e.hits
}
