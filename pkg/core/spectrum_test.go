package core

import (
	"math"
	"testing"
)

func TestSpectrumValidation(t *testing.T) {
	tests := []struct {
		name    string
		spec    *Spectrum
		wantErr bool
	}{
		{
			name: "valid spectrum",
			spec: &Spectrum{
				Charge:      2,
				PrecursorMZ: 400.5,
				Peaks: []Peak{
					{MZ: 100.0, Intensity: 1000.0},
					{MZ: 200.0, Intensity: 2000.0},
				},
			},
		},
		{
			name: "unknown charge",
			spec: &Spectrum{
				PrecursorMZ: 400.5,
				Peaks:       []Peak{{MZ: 100.0, Intensity: 1000.0}},
			},
		},
		{
			name: "no peaks is searchable",
			spec: &Spectrum{
				Charge:      2,
				PrecursorMZ: 400.5,
			},
		},
		{
			name: "negative charge",
			spec: &Spectrum{
				Charge:      -1,
				PrecursorMZ: 400.5,
			},
			wantErr: true,
		},
		{
			name: "missing precursor",
			spec: &Spectrum{
				Charge: 2,
				Peaks:  []Peak{{MZ: 100.0, Intensity: 1000.0}},
			},
			wantErr: true,
		},
		{
			name: "unsorted peaks",
			spec: &Spectrum{
				Charge:      2,
				PrecursorMZ: 400.5,
				Peaks: []Peak{
					{MZ: 200.0, Intensity: 2000.0},
					{MZ: 100.0, Intensity: 1000.0},
				},
			},
			wantErr: true,
		},
		{
			name: "NaN m/z",
			spec: &Spectrum{
				Charge:      2,
				PrecursorMZ: 400.5,
				Peaks: []Peak{
					{MZ: math.NaN(), Intensity: 1000.0},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSortPeaks(t *testing.T) {
	spec := &Spectrum{
		Peaks: []Peak{
			{MZ: 300.0, Intensity: 100.0},
			{MZ: 100.0, Intensity: 200.0},
			{MZ: 200.0, Intensity: 150.0},
		},
	}

	spec.SortPeaks()

	expected := []float64{100.0, 200.0, 300.0}
	for i, peak := range spec.Peaks {
		if peak.MZ != expected[i] {
			t.Errorf("Peak %d: expected m/z %.1f, got %.1f", i, expected[i], peak.MZ)
		}
	}
}

func TestPrecursorMH(t *testing.T) {
	spec := &Spectrum{PrecursorMZ: 500.5}
	want := (500.5-ProtonMass)*2 + ProtonMass
	if got := spec.PrecursorMH(2); math.Abs(got-want) > 1e-12 {
		t.Errorf("PrecursorMH(2) = %v, want %v", got, want)
	}
}

func TestSpectrumName(t *testing.T) {
	tests := []struct {
		spec *Spectrum
		want string
	}{
		{&Spectrum{Title: "run1.100.100.2"}, "run1.100.100.2"},
		{&Spectrum{Sequence: "PEPTIDE", Charge: 2}, "PEPTIDE/2"},
		{&Spectrum{Scan: 42}, "scan=42"},
	}

	for _, tt := range tests {
		if got := tt.spec.Name(); got != tt.want {
			t.Errorf("Name() = %s, want %s", got, tt.want)
		}
	}
}
