package index

import (
	"sort"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
)

// Window is a precursor mass window around an observed mass:
// [mass - Below, mass + Above].
type Window struct {
	Below float64
	Above float64
}

// SymmetricWindow returns [mass - tol, mass + tol].
func SymmetricWindow(tol float64) Window {
	return Window{Below: tol, Above: tol}
}

// ToleranceWindow converts a precursor tolerance at mass into a window.
func ToleranceWindow(mass float64, tol core.Tolerance) Window {
	return SymmetricWindow(tol.At(mass))
}

// PrecursorIndex answers precursor-mass range queries over the sorted
// catalog.
type PrecursorIndex struct {
	masses []float64
}

// NewPrecursorIndex indexes peptides already sorted by PrecursorMZ.
func NewPrecursorIndex(peptides []core.Peptide) *PrecursorIndex {
	masses := make([]float64, len(peptides))
	for i, p := range peptides {
		masses[i] = p.PrecursorMZ
	}
	return &PrecursorIndex{masses: masses}
}

// Len returns the number of indexed peptides.
func (p *PrecursorIndex) Len() int {
	return len(p.masses)
}

// Mass returns the [M+H]+ of the peptide at position i.
func (p *PrecursorIndex) Mass(i int) float64 {
	return p.masses[i]
}

// RangeFor returns the half-open range of catalog positions whose precursor
// mass lies in [mass - w.Below, mass + w.Above]. An empty range (lo == hi)
// means no candidates.
func (p *PrecursorIndex) RangeFor(mass float64, w Window) (lo, hi int) {
	lower, upper := mass-w.Below, mass+w.Above
	if upper < lower {
		return 0, 0
	}
	lo = sort.SearchFloat64s(p.masses, lower)
	hi = lo + sort.Search(len(p.masses)-lo, func(i int) bool { return p.masses[lo+i] > upper })
	return lo, hi
}
