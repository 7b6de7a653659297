// Package filter preprocesses query spectrum peaks before search
package filter

import (
	"math"
	"sort"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
)

// Config holds filtering configuration
type Config struct {
	TopN            int     // Keep only top N most intense peaks (0 = no limit)
	IntensityCutoff float64 // Keep only peaks at or above this % of base peak (0 = no cutoff)
	MinMZ           float64 // Drop peaks below this m/z (0 = no bound)
	MaxMZ           float64 // Drop peaks above this m/z (0 = no bound)
	RemovePrecursor float64 // Drop peaks within this many Da of the precursor m/z (0 = keep)
}

// Apply applies all configured filters to a spectrum. Peaks are sorted by
// m/z afterwards.
func (c *Config) Apply(spec *core.Spectrum) {
	RemoveZeroIntensityPeaks(spec)

	if c.MinMZ > 0 || c.MaxMZ > 0 || c.RemovePrecursor > 0 {
		c.filterByRange(spec)
	}

	// Intensity cutoff is relative to the base peak that survived range filtering
	if c.IntensityCutoff > 0 {
		c.filterByIntensity(spec)
	}

	if c.TopN > 0 {
		c.filterTopN(spec)
	}

	spec.SortPeaks()
}

// filterByRange removes peaks outside [MinMZ, MaxMZ] and around the precursor
func (c *Config) filterByRange(spec *core.Spectrum) {
	filtered := spec.Peaks[:0]
	for _, peak := range spec.Peaks {
		if c.MinMZ > 0 && peak.MZ < c.MinMZ {
			continue
		}
		if c.MaxMZ > 0 && peak.MZ > c.MaxMZ {
			continue
		}
		if c.RemovePrecursor > 0 && math.Abs(peak.MZ-spec.PrecursorMZ) <= c.RemovePrecursor {
			continue
		}
		filtered = append(filtered, peak)
	}
	spec.Peaks = filtered
}

// filterByIntensity removes peaks below the intensity cutoff percentage
func (c *Config) filterByIntensity(spec *core.Spectrum) {
	if len(spec.Peaks) == 0 {
		return
	}

	maxIntensity := 0.0
	for _, peak := range spec.Peaks {
		if peak.Intensity > maxIntensity {
			maxIntensity = peak.Intensity
		}
	}

	threshold := (c.IntensityCutoff / 100.0) * maxIntensity

	filtered := spec.Peaks[:0]
	for _, peak := range spec.Peaks {
		if peak.Intensity >= threshold {
			filtered = append(filtered, peak)
		}
	}
	spec.Peaks = filtered
}

// filterTopN keeps only the N most intense peaks
func (c *Config) filterTopN(spec *core.Spectrum) {
	if len(spec.Peaks) <= c.TopN {
		return
	}

	// Ties keep the lower m/z peak
	if !spec.ArePeaksSorted() {
		spec.SortPeaks()
	}
	sort.SliceStable(spec.Peaks, func(i, j int) bool {
		return spec.Peaks[i].Intensity > spec.Peaks[j].Intensity
	})
	spec.Peaks = spec.Peaks[:c.TopN]
}

// RemoveZeroIntensityPeaks removes peaks with zero or negative intensity
func RemoveZeroIntensityPeaks(spec *core.Spectrum) {
	filtered := spec.Peaks[:0]
	for _, peak := range spec.Peaks {
		if peak.Intensity > 0 {
			filtered = append(filtered, peak)
		}
	}
	spec.Peaks = filtered
}
