// Package search scores query spectra against a built fragment index. A
// Scorer drives the index's QueryEngine over every peak and precursor
// hypothesis of a spectrum, counts matched peaks per candidate peptide and
// keeps the best candidates in a fixed-capacity heap.
package search

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
	"github.com/ChrisMcGann/FragIndex/pkg/index"
)

// SpectrumMatch is one candidate peptide under one precursor hypothesis.
type SpectrumMatch struct {
	PeptideIdx      uint32 // Position in the built catalog
	NumMatched      int    // Peaks matching at least one fragment of the peptide
	PrecursorCharge int
	IsotopeError    int     // Always 0 in open search
	MassDiff        float64 // Observed minus theoretical [M+H]+
}

// Result is the outcome of searching one spectrum.
type Result struct {
	Matches []SpectrumMatch // Best first

	// ScoredCandidates sums the candidate range sizes of every hypothesis
	// tried. Zero means no peptide was within the precursor window.
	ScoredCandidates int
	// MatchedPeaks counts peak-to-peptide matches before filtering.
	MatchedPeaks int
}

// Identified reports whether any candidate survived filtering.
func (r Result) Identified() bool {
	return len(r.Matches) > 0
}

// betterMatch ranks by matched peaks, then lower PeptideIdx, lower charge
// and smaller isotope error.
func betterMatch(a, b SpectrumMatch) bool {
	if a.NumMatched != b.NumMatched {
		return a.NumMatched > b.NumMatched
	}
	if a.PeptideIdx != b.PeptideIdx {
		return a.PeptideIdx < b.PeptideIdx
	}
	if a.PrecursorCharge != b.PrecursorCharge {
		return a.PrecursorCharge < b.PrecursorCharge
	}
	if ai, bi := absInt(a.IsotopeError), absInt(b.IsotopeError); ai != bi {
		return ai < bi
	}
	return a.IsotopeError < b.IsotopeError
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type hypothesis struct {
	charge       int
	isotopeError int
	observed     float64 // Unshifted [M+H]+
	lo, hi       int
	fragTol      core.Tolerance
}

// Scorer searches spectra against one built index. It holds per-call
// scratch state and must not be shared between goroutines; create one per
// worker.
type Scorer struct {
	params     Params
	precursors *index.PrecursorIndex
	engine     *index.QueryEngine

	counts  []int32 // Matched peaks, indexed by PeptideIdx - lo
	stamps  []int32 // Last peak (1-based) counted for each candidate
	touched *roaring.Bitmap
	top     *TopN[SpectrumMatch]
}

// NewScorer validates params and returns a scorer over idx. It panics if
// idx has not been built.
func NewScorer(idx *index.Index, params Params) (*Scorer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{
		params:     params,
		engine:     idx.NewQueryEngine(),
		precursors: idx.Precursors(),
		touched:    roaring.New(),
		top:        NewTopN(params.MaxProcessedHits, betterMatch),
	}, nil
}

// Params returns the scorer's parameters.
func (s *Scorer) Params() Params {
	return s.params
}

// Search scores spectrum with the configured mode. A known precursor charge
// is the only hypothesis tried; otherwise every charge from
// MinPrecursorCharge to MaxPrecursorCharge is. All hypotheses compete for
// the same MaxProcessedHits slots.
func (s *Scorer) Search(spectrum *core.Spectrum) Result {
	s.top.Reset()
	var res Result

	lo, hi := s.params.MinPrecursorCharge, s.params.MaxPrecursorCharge
	if spectrum.Charge > 0 {
		lo, hi = spectrum.Charge, spectrum.Charge
	}
	for z := lo; z <= hi; z++ {
		switch m := s.params.Mode.(type) {
		case Closed:
			s.closed(spectrum.Peaks, spectrum.PrecursorMZ, z, m, &res)
		case Open:
			s.open(spectrum.Peaks, spectrum.PrecursorMZ, z, m, &res)
		}
	}

	res.Matches = s.top.Drain(nil)
	return res
}

// ClosedSearch scores spectrum at one precursor m/z and charge, trying
// each isotope error in m.
func (s *Scorer) ClosedSearch(spectrum *core.Spectrum, precursorMZ float64, charge int, m Closed) Result {
	s.top.Reset()
	var res Result
	s.closed(spectrum.Peaks, precursorMZ, charge, m, &res)
	res.Matches = s.top.Drain(nil)
	return res
}

// OpenSearch scores spectrum at one precursor m/z and charge against the
// wide window in m.
func (s *Scorer) OpenSearch(spectrum *core.Spectrum, precursorMZ float64, charge int, m Open) Result {
	s.top.Reset()
	var res Result
	s.open(spectrum.Peaks, precursorMZ, charge, m, &res)
	res.Matches = s.top.Drain(nil)
	return res
}

func (s *Scorer) closed(peaks []core.Peak, precursorMZ float64, charge int, m Closed, res *Result) {
	observed := core.MZToMH(precursorMZ, charge)
	for iso := m.MinIsotopeError; iso <= m.MaxIsotopeError; iso++ {
		mass := observed - float64(iso)*core.NeutronMass
		lo, hi := s.precursors.RangeFor(mass, index.ToleranceWindow(mass, s.params.PrecursorTolerance))
		s.score(peaks, hypothesis{
			charge:       charge,
			isotopeError: iso,
			observed:     observed,
			lo:           lo,
			hi:           hi,
			fragTol:      s.params.FragmentTolerance,
		}, res)
	}
}

func (s *Scorer) open(peaks []core.Peak, precursorMZ float64, charge int, m Open, res *Result) {
	observed := core.MZToMH(precursorMZ, charge)
	lo, hi := s.precursors.RangeFor(observed, index.Window{Below: m.FragmentWindow, Above: m.PrecursorWindow})
	s.score(peaks, hypothesis{
		charge:   charge,
		observed: observed,
		lo:       lo,
		hi:       hi,
		fragTol:  s.params.FragmentTolerance.Widen(m.FragmentWindow),
	}, res)
}

// score counts, for every candidate in [h.lo, h.hi), the peaks matching at
// least one of its fragments and offers candidates with enough matches to
// the heap.
func (s *Scorer) score(peaks []core.Peak, h hypothesis, res *Result) {
	n := h.hi - h.lo
	res.ScoredCandidates += n
	if n == 0 || len(peaks) == 0 {
		return
	}
	s.grow(n)

	for i, peak := range peaks {
		stamp := int32(i + 1)
		for _, hit := range s.engine.Query(peak.MZ, h.lo, h.hi, s.params.MaxFragmentCharge, h.fragTol) {
			j := int(hit.PeptideIdx) - h.lo
			if s.stamps[j] == stamp {
				continue
			}
			s.stamps[j] = stamp
			s.counts[j]++
			s.touched.Add(hit.PeptideIdx)
			res.MatchedPeaks++
		}
	}

	it := s.touched.Iterator()
	for it.HasNext() {
		p := it.Next()
		j := int(p) - h.lo
		if c := int(s.counts[j]); c >= s.params.MinMatchedPeaks {
			s.top.Push(SpectrumMatch{
				PeptideIdx:      p,
				NumMatched:      c,
				PrecursorCharge: h.charge,
				IsotopeError:    h.isotopeError,
				MassDiff:        h.observed - s.precursors.Mass(int(p)),
			})
		}
		s.counts[j] = 0
		s.stamps[j] = 0
	}
	s.touched.Clear()
}

// grow makes room for n candidates. Entries are zero outside score.
func (s *Scorer) grow(n int) {
	if len(s.counts) >= n {
		return
	}
	s.counts = make([]int32, n)
	s.stamps = make([]int32, n)
}
