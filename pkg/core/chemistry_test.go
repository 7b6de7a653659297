package core

import (
	"math"
	"testing"
)

func TestCalculatePeptideMass(t *testing.T) {
	tests := []struct {
		name          string
		sequence      string
		charge        int
		modifications []Modification
		wantMZ        float64
		tolerance     float64
	}{
		{
			name:      "simple peptide charge 1",
			sequence:  "AAA",
			charge:    1,
			wantMZ:    232.129,
			tolerance: 0.01,
		},
		{
			name:      "simple peptide charge 2",
			sequence:  "AAA",
			charge:    2,
			wantMZ:    116.568,
			tolerance: 0.01,
		},
		{
			name:     "peptide with modification",
			sequence: "PEPTIDE",
			charge:   2,
			modifications: []Modification{
				{Mass: 57.021464, Position: 0},
			},
			wantMZ:    429.2,
			tolerance: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculatePeptideMass(tt.sequence, tt.charge, tt.modifications)
			if math.Abs(got-tt.wantMZ) > tt.tolerance {
				t.Errorf("CalculatePeptideMass() = %.3f, want %.3f (within %.3f)", got, tt.wantMZ, tt.tolerance)
			}
		})
	}
}

func TestCalculateNeutralMass(t *testing.T) {
	tests := []struct {
		name          string
		sequence      string
		modifications []Modification
		wantMass      float64
		tolerance     float64
	}{
		{
			name:      "simple tripeptide",
			sequence:  "AAA",
			wantMass:  231.1219,
			tolerance: 0.001,
		},
		{
			name:     "with modification",
			sequence: "AAA",
			modifications: []Modification{
				{Mass: 57.021464, Position: 0},
			},
			wantMass:  288.1434,
			tolerance: 0.001,
		},
		{
			name:      "unknown residue ignored",
			sequence:  "AXA",
			wantMass:  160.0848,
			tolerance: 0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateNeutralMass(tt.sequence, tt.modifications)
			if math.Abs(got-tt.wantMass) > tt.tolerance {
				t.Errorf("CalculateNeutralMass() = %.4f, want %.4f (within %.4f)", got, tt.wantMass, tt.tolerance)
			}
		})
	}
}

func TestResidueMass(t *testing.T) {
	m, ok := ResidueMass('G')
	if !ok || math.Abs(m-57.02146) > 1e-4 {
		t.Errorf("ResidueMass('G') = %v, %v", m, ok)
	}
	if _, ok := ResidueMass('B'); ok {
		t.Error("expected 'B' to be unknown")
	}
	if _, ok := ResidueMass('é'); ok {
		t.Error("expected non-ASCII rune to be unknown")
	}
}

func TestMZConversionRoundTrip(t *testing.T) {
	for charge := 1; charge <= 4; charge++ {
		mh := 1234.5678
		got := MZToMH(MHToMZ(mh, charge), charge)
		if math.Abs(got-mh) > 1e-9 {
			t.Errorf("charge %d: round trip %v != %v", charge, got, mh)
		}
	}
	if MZToMH(500.0, 1) != 500.0 {
		t.Error("charge 1 m/z should equal [M+H]+")
	}
}

func TestRoundFloat(t *testing.T) {
	tests := []struct {
		name      string
		val       float64
		precision int
		want      float64
	}{
		{"round to 2 decimals", 3.14159, 2, 3.14},
		{"round to 4 decimals", 3.14159, 4, 3.1416},
		{"round to 0 decimals", 3.6, 0, 4.0},
		{"round negative", -3.14159, 2, -3.14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundFloat(tt.val, tt.precision)
			if got != tt.want {
				t.Errorf("RoundFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}
