package search

import (
	"fmt"
	"math"
	"strings"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
	"github.com/ChrisMcGann/FragIndex/pkg/index"
)

// Mode selects how precursor candidates are chosen for a spectrum. It is
// either Closed or Open.
type Mode interface {
	String() string
	validate() []string
}

// Closed searches a tight precursor tolerance around the observed mass,
// once per isotope error in [MinIsotopeError, MaxIsotopeError].
type Closed struct {
	MinIsotopeError int
	MaxIsotopeError int
}

func (Closed) String() string { return "closed" }

func (m Closed) validate() []string {
	if m.MinIsotopeError > m.MaxIsotopeError {
		return []string{fmt.Sprintf("min isotope error %d exceeds max isotope error %d", m.MinIsotopeError, m.MaxIsotopeError)}
	}
	return nil
}

// Open admits every peptide whose mass lies in
// [observed - FragmentWindow, observed + PrecursorWindow] and matches
// fragments with a tolerance of at least FragmentWindow Da.
type Open struct {
	PrecursorWindow float64
	FragmentWindow  float64
}

func (Open) String() string { return "open" }

func (m Open) validate() []string {
	var errs []string
	if math.IsNaN(m.PrecursorWindow) || m.PrecursorWindow < 0 {
		errs = append(errs, fmt.Sprintf("open precursor window %v must be non-negative", m.PrecursorWindow))
	}
	if math.IsNaN(m.FragmentWindow) || m.FragmentWindow < 0 {
		errs = append(errs, fmt.Sprintf("open fragment window %v must be non-negative", m.FragmentWindow))
	}
	return errs
}

// ParseMode returns the default Closed or Open mode for name.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "closed":
		return DefaultClosed(), nil
	case "open":
		return DefaultOpen(), nil
	default:
		return nil, fmt.Errorf("%w: unknown search mode %q", index.ErrInvalidConfig, name)
	}
}

// DefaultClosed tries isotope errors -1 through 2.
func DefaultClosed() Closed {
	return Closed{MinIsotopeError: -1, MaxIsotopeError: 2}
}

// DefaultOpen admits mass shifts up to 500 Da.
func DefaultOpen() Open {
	return Open{PrecursorWindow: 500, FragmentWindow: 0.05}
}

// Params configures a Scorer.
type Params struct {
	Mode               Mode
	PrecursorTolerance core.Tolerance
	FragmentTolerance  core.Tolerance
	MinPrecursorCharge int
	MaxPrecursorCharge int
	MaxFragmentCharge  int
	MaxProcessedHits   int
	MinMatchedPeaks    int
}

// DefaultParams returns a closed search at 20 ppm precursor and 0.02 Da
// fragment tolerance.
func DefaultParams() Params {
	return Params{
		Mode:               DefaultClosed(),
		PrecursorTolerance: core.PPM(20),
		FragmentTolerance:  core.Da(0.02),
		MinPrecursorCharge: 1,
		MaxPrecursorCharge: 4,
		MaxFragmentCharge:  2,
		MaxProcessedHits:   50,
		MinMatchedPeaks:    4,
	}
}

// Validate rejects nonsensical parameter combinations. Nothing is clamped.
func (p Params) Validate() error {
	var errs []string

	if p.Mode == nil {
		errs = append(errs, "search mode is required")
	} else {
		errs = append(errs, p.Mode.validate()...)
	}
	if err := p.PrecursorTolerance.Validate(); err != nil {
		errs = append(errs, "precursor "+err.Error())
	}
	if err := p.FragmentTolerance.Validate(); err != nil {
		errs = append(errs, "fragment "+err.Error())
	}
	if p.MinPrecursorCharge < 1 {
		errs = append(errs, fmt.Sprintf("min precursor charge %d must be at least 1", p.MinPrecursorCharge))
	}
	if p.MinPrecursorCharge > p.MaxPrecursorCharge {
		errs = append(errs, fmt.Sprintf("min precursor charge %d exceeds max precursor charge %d", p.MinPrecursorCharge, p.MaxPrecursorCharge))
	}
	if p.MaxFragmentCharge < 1 {
		errs = append(errs, fmt.Sprintf("max fragment charge %d must be at least 1", p.MaxFragmentCharge))
	}
	if p.MaxProcessedHits < 1 {
		errs = append(errs, fmt.Sprintf("max processed hits %d must be at least 1", p.MaxProcessedHits))
	}
	if p.MinMatchedPeaks < 1 {
		errs = append(errs, fmt.Sprintf("min matched peaks %d must be at least 1", p.MinMatchedPeaks))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", index.ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}
