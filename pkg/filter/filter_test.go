package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
)

func spectrum() *core.Spectrum {
	return &core.Spectrum{
		PrecursorMZ: 500.0,
		Peaks: []core.Peak{
			{MZ: 90.0, Intensity: 50},
			{MZ: 150.0, Intensity: 1000},
			{MZ: 200.0, Intensity: 0},
			{MZ: 300.0, Intensity: 400},
			{MZ: 499.8, Intensity: 5000},
			{MZ: 650.0, Intensity: 400},
			{MZ: 1800.0, Intensity: 30},
		},
	}
}

func mzs(s *core.Spectrum) []float64 {
	out := make([]float64, len(s.Peaks))
	for i, p := range s.Peaks {
		out[i] = p.MZ
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []float64
	}{
		{"zero intensity only", Config{}, []float64{90, 150, 300, 499.8, 650, 1800}},
		{"mz range", Config{MinMZ: 100, MaxMZ: 1000}, []float64{150, 300, 499.8, 650}},
		{"remove precursor", Config{RemovePrecursor: 0.5}, []float64{90, 150, 300, 650, 1800}},
		{"intensity cutoff", Config{IntensityCutoff: 10}, []float64{150, 499.8}},
		{"cutoff after precursor removal", Config{RemovePrecursor: 1, IntensityCutoff: 10}, []float64{150, 300, 650}},
		{"top n sorted by mz", Config{TopN: 3}, []float64{150, 300, 499.8}},
		{"top n larger than spectrum", Config{TopN: 20}, []float64{90, 150, 300, 499.8, 650, 1800}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := spectrum()
			tt.cfg.Apply(s)
			assert.Equal(t, tt.want, mzs(s))
			assert.True(t, s.ArePeaksSorted())
		})
	}
}

func TestTopNTiesKeepLowerMZ(t *testing.T) {
	s := &core.Spectrum{Peaks: []core.Peak{
		{MZ: 400, Intensity: 10},
		{MZ: 100, Intensity: 10},
		{MZ: 300, Intensity: 10},
	}}
	cfg := Config{TopN: 2}
	cfg.Apply(s)
	assert.Equal(t, []float64{100, 300}, mzs(s))
}

func TestRemoveZeroIntensityPeaks(t *testing.T) {
	s := &core.Spectrum{Peaks: []core.Peak{{MZ: 1, Intensity: 0}, {MZ: 2, Intensity: -1}, {MZ: 3, Intensity: 2}}}
	RemoveZeroIntensityPeaks(s)
	assert.Equal(t, []float64{3}, mzs(s))

	empty := &core.Spectrum{}
	RemoveZeroIntensityPeaks(empty)
	assert.Empty(t, empty.Peaks)
}
