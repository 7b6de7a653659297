package core

import (
	"fmt"
	"sort"
	"strings"
)

// Peptide is a candidate sequence produced by the peptide generator.
type Peptide struct {
	Sequence    string         // Plain residue letters
	Mods        []Modification // Positions: -1 N-term, len(Sequence) C-term
	ProteinIdx  uint32         // Index into the generator's protein table
	PrecursorMZ float64        // Singly-charged monoisotopic mass [M+H]+
}

// NewPeptide builds a peptide and computes its [M+H]+ mass.
func NewPeptide(sequence string, mods []Modification, proteinIdx uint32) Peptide {
	return Peptide{
		Sequence:    sequence,
		Mods:        mods,
		ProteinIdx:  proteinIdx,
		PrecursorMZ: CalculateNeutralMass(sequence, mods) + ProtonMass,
	}
}

// NeutralMass returns the uncharged monoisotopic mass.
func (p Peptide) NeutralMass() float64 {
	return p.PrecursorMZ - ProtonMass
}

// String renders the modified sequence, e.g. "n[+42.0106]PEPM[+15.9949]TIDE".
func (p Peptide) String() string {
	if len(p.Mods) == 0 {
		return p.Sequence
	}

	byPos := make(map[int]float64, len(p.Mods))
	for _, m := range p.Mods {
		byPos[m.Position] += m.Mass
	}

	var b strings.Builder
	if d, ok := byPos[-1]; ok {
		fmt.Fprintf(&b, "n[%+.4f]", d)
	}
	for i, aa := range p.Sequence {
		b.WriteRune(aa)
		if d, ok := byPos[i]; ok {
			fmt.Fprintf(&b, "[%+.4f]", d)
		}
	}
	if d, ok := byPos[len(p.Sequence)]; ok {
		fmt.Fprintf(&b, "c[%+.4f]", d)
	}
	return b.String()
}

// SortMods orders modifications by position, then mass.
func SortMods(mods []Modification) {
	sort.Slice(mods, func(i, j int) bool {
		if mods[i].Position != mods[j].Position {
			return mods[i].Position < mods[j].Position
		}
		return mods[i].Mass < mods[j].Mass
	})
}
