package index

import (
	"math"
	"sort"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
)

// Catalog owns the peptides an index is built over. Peptides are appended
// before the build; the build sorts them by precursor mass and seals the
// catalog. Every other structure refers to peptides by their position in
// the sorted catalog.
//
// A Catalog is not safe for concurrent Add and Build.
type Catalog struct {
	peptides []core.Peptide
	order    []uint32 // order[i] = insertion index of peptides[i]
	sealed   bool
}

// NewCatalog returns a catalog holding a copy of peptides.
func NewCatalog(peptides []core.Peptide) *Catalog {
	c := &Catalog{peptides: make([]core.Peptide, len(peptides))}
	copy(c.peptides, peptides)
	return c
}

// Add appends a peptide. It fails once the catalog has been built.
func (c *Catalog) Add(p core.Peptide) error {
	if c.sealed {
		return ErrSealed
	}
	c.peptides = append(c.peptides, p)
	return nil
}

// Len returns the number of peptides.
func (c *Catalog) Len() int {
	return len(c.peptides)
}

// Sealed reports whether the catalog has been built.
func (c *Catalog) Sealed() bool {
	return c.sealed
}

// Peptide returns the peptide at position i. After the build positions
// follow ascending precursor mass.
func (c *Catalog) Peptide(i int) core.Peptide {
	return c.peptides[i]
}

// InputIndex maps a sorted position back to the order peptides were added.
func (c *Catalog) InputIndex(i int) int {
	if !c.sealed {
		return i
	}
	return int(c.order[i])
}

// sorted returns the peptides stably sorted by precursor mass, plus the
// permutation back to insertion order. The catalog itself is untouched so a
// failed build leaves it as it was.
func (c *Catalog) sorted() ([]core.Peptide, []uint32, error) {
	if c.sealed {
		return c.peptides, c.order, nil
	}
	if uint64(len(c.peptides)) > math.MaxUint32 {
		return nil, nil, ErrTooManyItems
	}

	order := make([]uint32, len(c.peptides))
	for i := range order {
		order[i] = uint32(i)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return c.peptides[order[i]].PrecursorMZ < c.peptides[order[j]].PrecursorMZ
	})

	peptides := make([]core.Peptide, len(order))
	for i, o := range order {
		peptides[i] = c.peptides[o]
	}
	return peptides, order, nil
}

func (c *Catalog) seal(peptides []core.Peptide, order []uint32) {
	c.peptides = peptides
	c.order = order
	c.sealed = true
}
