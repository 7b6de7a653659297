package core

import (
	"math"
	"testing"
)

func TestNewPeptide(t *testing.T) {
	p := NewPeptide("AAA", nil, 3)
	if math.Abs(p.PrecursorMZ-232.129) > 0.01 {
		t.Errorf("PrecursorMZ = %v, want about 232.129", p.PrecursorMZ)
	}
	if math.Abs(p.NeutralMass()-(p.PrecursorMZ-ProtonMass)) > 1e-12 {
		t.Errorf("NeutralMass inconsistent with PrecursorMZ")
	}
	if p.ProteinIdx != 3 {
		t.Errorf("ProteinIdx = %d", p.ProteinIdx)
	}

	ox := NewPeptide("AMA", []Modification{{Mass: 15.994915, Position: 1}}, 0)
	plain := NewPeptide("AMA", nil, 0)
	if math.Abs(ox.PrecursorMZ-plain.PrecursorMZ-15.994915) > 1e-9 {
		t.Errorf("modification mass not applied: %v vs %v", ox.PrecursorMZ, plain.PrecursorMZ)
	}
}

func TestPeptideString(t *testing.T) {
	tests := []struct {
		seq  string
		mods []Modification
		want string
	}{
		{"PEPTIDE", nil, "PEPTIDE"},
		{"PEPMTIDE", []Modification{{Mass: 15.994915, Position: 3}}, "PEPM[+15.9949]TIDE"},
		{"PEPTIDE", []Modification{{Mass: 42.010565, Position: -1}}, "n[+42.0106]PEPTIDE"},
		{"PEPTIDE", []Modification{{Mass: -0.984016, Position: 7}}, "PEPTIDEc[-0.9840]"},
		{"STY", []Modification{{Mass: 79.966331, Position: 0}, {Mass: 1, Position: 0}}, "S[+80.9663]TY"},
		{"PEPMTIDEK", []Modification{
			{Mass: 42.010565, Position: -1},
			{Mass: 15.994915, Position: 3},
			{Mass: -0.984016, Position: 9},
		}, "n[+42.0106]PEPM[+15.9949]TIDEKc[-0.9840]"},
	}
	for _, tt := range tests {
		if got := NewPeptide(tt.seq, tt.mods, 0).String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestSortMods(t *testing.T) {
	mods := []Modification{
		{Mass: 2, Position: 3},
		{Mass: 1, Position: -1},
		{Mass: 5, Position: 0},
		{Mass: 1, Position: 3},
	}
	SortMods(mods)
	want := []Modification{
		{Mass: 1, Position: -1},
		{Mass: 5, Position: 0},
		{Mass: 1, Position: 3},
		{Mass: 2, Position: 3},
	}
	for i := range want {
		if mods[i] != want[i] {
			t.Fatalf("SortMods = %+v, want %+v", mods, want)
		}
	}
}
