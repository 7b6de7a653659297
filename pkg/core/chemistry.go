// Package core provides chemistry constants, residue masses and the peptide and
// spectrum types shared by the index, the search and the readers.
package core

import "math"

// Atomic masses (monoisotopic)
const (
	MassH = 1.0078250321
	MassC = 12.0000000000
	MassN = 14.0030740052
	MassO = 15.9949146221
	MassS = 31.9720706900
	MassP = 30.9737615100

	// Proton mass for charge calculations
	ProtonMass = 1.00727646688
	// NeutronMass is the 13C - 12C spacing used for isotope error shifts.
	NeutronMass = 1.0033548378

	WaterMass   = 2*MassH + MassO
	AmmoniaMass = MassN + 3*MassH
	COMass      = MassC + MassO
)

// AminoAcidComposition stores the elemental composition of a residue
// (amino acid minus water).
type AminoAcidComposition struct {
	C, H, N, O, S int
}

// Mass returns the monoisotopic mass of the composition.
func (c AminoAcidComposition) Mass() float64 {
	return float64(c.C)*MassC +
		float64(c.H)*MassH +
		float64(c.N)*MassN +
		float64(c.O)*MassO +
		float64(c.S)*MassS
}

// AminoAcidMasses maps amino acid one-letter codes to elemental composition
var AminoAcidMasses = map[rune]AminoAcidComposition{
	'A': {C: 3, H: 5, N: 1, O: 1},
	'R': {C: 6, H: 12, N: 4, O: 1},
	'N': {C: 4, H: 6, N: 2, O: 2},
	'D': {C: 4, H: 5, N: 1, O: 3},
	'C': {C: 3, H: 5, N: 1, O: 1, S: 1},
	'E': {C: 5, H: 7, N: 1, O: 3},
	'Q': {C: 5, H: 8, N: 2, O: 2},
	'G': {C: 2, H: 3, N: 1, O: 1},
	'H': {C: 6, H: 7, N: 3, O: 1},
	'I': {C: 6, H: 11, N: 1, O: 1},
	'L': {C: 6, H: 11, N: 1, O: 1},
	'K': {C: 6, H: 12, N: 2, O: 1},
	'M': {C: 5, H: 9, N: 1, O: 1, S: 1},
	'F': {C: 9, H: 9, N: 1, O: 1},
	'P': {C: 5, H: 7, N: 1, O: 1},
	'S': {C: 3, H: 5, N: 1, O: 2},
	'T': {C: 4, H: 7, N: 1, O: 2},
	'W': {C: 11, H: 10, N: 2, O: 1},
	'Y': {C: 9, H: 9, N: 1, O: 2},
	'V': {C: 5, H: 9, N: 1, O: 1},
	// Pyrrolysine
	'O': {C: 12, H: 19, N: 3, O: 2},
}

// residueTable is AminoAcidMasses flattened for the fragment hot path.
// Zero means unknown.
var residueTable [128]float64

func init() {
	for aa, comp := range AminoAcidMasses {
		residueTable[aa] = comp.Mass()
	}
}

// ResidueMass returns the monoisotopic residue mass of an amino acid.
func ResidueMass(aa rune) (float64, bool) {
	if aa < 0 || int(aa) >= len(residueTable) {
		return 0, false
	}
	m := residueTable[aa]
	return m, m != 0
}

// CalculatePeptideMass computes monoisotopic mass of a peptide sequence
// including modifications, then returns the m/z for a given charge state.
func CalculatePeptideMass(sequence string, charge int, modifications []Modification) float64 {
	mass := CalculateNeutralMass(sequence, modifications)
	return (mass + float64(charge)*ProtonMass) / float64(charge)
}

// CalculateNeutralMass computes the neutral monoisotopic mass of a peptide.
// Unknown residues contribute nothing.
func CalculateNeutralMass(sequence string, modifications []Modification) float64 {
	mass := WaterMass
	for _, aa := range sequence {
		if m, ok := ResidueMass(aa); ok {
			mass += m
		}
	}
	for _, mod := range modifications {
		mass += mod.Mass
	}
	return mass
}

// MZToMH converts an observed m/z at the given charge into the singly-charged
// [M+H]+ mass.
func MZToMH(mz float64, charge int) float64 {
	return (mz-ProtonMass)*float64(charge) + ProtonMass
}

// MHToMZ is the inverse of MZToMH.
func MHToMZ(mh float64, charge int) float64 {
	return (mh-ProtonMass)/float64(charge) + ProtonMass
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
