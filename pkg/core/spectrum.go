package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Spectrum is a query MS/MS spectrum.
type Spectrum struct {
	Title       string
	Scan        int
	Charge      int     // Precursor charge state, 0 when unknown
	PrecursorMZ float64 // Precursor m/z
	Peaks       []Peak  // Fragment peaks

	// Optional metadata
	RetentionTime   *float64 // Seconds, or iRT for library spectra
	CollisionEnergy *float64
	// Reference annotation carried by library formats (MSP, SPTXT)
	Sequence      string
	Modifications []Modification

	// Internal tracking
	SourceFile   string
	SourceFormat string // mgf, msp, sptxt
}

// Peak represents a single m/z, intensity pair with optional metadata.
type Peak struct {
	MZ         float64
	Intensity  float64
	Annotation string // Ion annotation (e.g., "y3", "b2^2")
}

// Modification represents a peptide modification with position and mass shift.
type Modification struct {
	Mass     float64
	Position int    // 0-based position; -1 for N-term, len(seq) for C-term
	Name     string // Modification name (e.g., "Carbamidomethyl", "Oxidation")
}

// ValidationError represents an error found during spectrum validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Validate checks that a spectrum can be searched. A spectrum without peaks is
// valid; it simply yields no identification.
func (s *Spectrum) Validate() error {
	var errs []string

	if s.Charge < 0 {
		errs = append(errs, "charge must not be negative")
	}
	if math.IsNaN(s.PrecursorMZ) || math.IsInf(s.PrecursorMZ, 0) || s.PrecursorMZ <= 0 {
		errs = append(errs, "precursor m/z must be positive")
	}

	for i, peak := range s.Peaks {
		if math.IsNaN(peak.MZ) || math.IsInf(peak.MZ, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid m/z", i))
		}
		if math.IsNaN(peak.Intensity) || math.IsInf(peak.Intensity, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid intensity", i))
		}
		if peak.MZ <= 0 {
			errs = append(errs, fmt.Sprintf("peak %d m/z must be positive", i))
		}
		if peak.Intensity < 0 {
			errs = append(errs, fmt.Sprintf("peak %d intensity must be non-negative", i))
		}
	}

	if !s.ArePeaksSorted() {
		errs = append(errs, "peaks must be sorted by m/z")
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Spectrum",
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}

// ArePeaksSorted checks if peaks are sorted by m/z in ascending order.
func (s *Spectrum) ArePeaksSorted() bool {
	for i := 1; i < len(s.Peaks); i++ {
		if s.Peaks[i].MZ < s.Peaks[i-1].MZ {
			return false
		}
	}
	return true
}

// SortPeaks sorts peaks by m/z in ascending order.
func (s *Spectrum) SortPeaks() {
	sort.Slice(s.Peaks, func(i, j int) bool {
		return s.Peaks[i].MZ < s.Peaks[j].MZ
	})
}

// PrecursorMH returns the observed [M+H]+ mass for the given charge.
func (s *Spectrum) PrecursorMH(charge int) float64 {
	return MZToMH(s.PrecursorMZ, charge)
}

// Name returns a display name: the title when present, otherwise
// "Sequence/Charge" for annotated library spectra, otherwise the scan.
func (s *Spectrum) Name() string {
	switch {
	case s.Title != "":
		return s.Title
	case s.Sequence != "":
		return fmt.Sprintf("%s/%d", s.Sequence, s.Charge)
	default:
		return fmt.Sprintf("scan=%d", s.Scan)
	}
}
