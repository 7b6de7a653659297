package core

import (
	"fmt"
	"strings"
)

// IonType is a backbone fragment ion series.
type IonType uint8

const (
	IonA IonType = iota
	IonB
	IonC
	IonX
	IonY
	IonZ
)

var ionNames = [...]string{"a", "b", "c", "x", "y", "z"}

func (t IonType) String() string {
	if int(t) < len(ionNames) {
		return ionNames[t]
	}
	return fmt.Sprintf("IonType(%d)", t)
}

// NTerminal reports whether the series keeps the N-terminus (a, b, c).
func (t IonType) NTerminal() bool {
	return t <= IonC
}

// ParseIonType parses a single series letter.
func ParseIonType(s string) (IonType, error) {
	for i, n := range ionNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return IonType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown ion type '%s'", s)
}

// IonSeries is a set of ion types.
type IonSeries uint8

// Series builds a set from individual types.
func Series(types ...IonType) IonSeries {
	var s IonSeries
	for _, t := range types {
		s |= 1 << t
	}
	return s
}

// ParseIonSeries parses a comma separated list such as "b,y".
func ParseIonSeries(s string) (IonSeries, error) {
	var series IonSeries
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := ParseIonType(part)
		if err != nil {
			return 0, err
		}
		series |= 1 << t
	}
	return series, nil
}

// Has reports whether t is in the set.
func (s IonSeries) Has(t IonType) bool {
	return s&(1<<t) != 0
}

// Types lists the members in a, b, c, x, y, z order.
func (s IonSeries) Types() []IonType {
	var out []IonType
	for t := IonA; t <= IonZ; t++ {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of series in the set.
func (s IonSeries) Len() int {
	return len(s.Types())
}

func (s IonSeries) String() string {
	types := s.Types()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ",")
}

// MarshalText implements encoding.TextMarshaler.
func (s IonSeries) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *IonSeries) UnmarshalText(text []byte) error {
	parsed, err := ParseIonSeries(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SequenceError reports a peptide the fragment calculator cannot handle.
type SequenceError struct {
	Sequence string
	Position int
	Reason   string
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("sequence %s: %s at position %d", e.Sequence, e.Reason, e.Position)
}

// FragmentCalculator computes theoretical fragment masses.
type FragmentCalculator interface {
	// Fragments appends the singly-charged masses of every cleavage site of
	// the given series to dst, ordered by fragment length.
	Fragments(dst []float64, p Peptide, ion IonType) ([]float64, error)
}

// Mass offsets of each series relative to the b (prefix) or y (suffix) ion.
const (
	offsetA = -COMass
	offsetC = AmmoniaMass
	offsetX = COMass - 2*MassH
	offsetZ = -AmmoniaMass + MassH // z-dot
)

// StandardCalculator computes a/b/c/x/y/z ions from monoisotopic residue masses.
type StandardCalculator struct{}

// Fragments implements FragmentCalculator.
func (StandardCalculator) Fragments(dst []float64, p Peptide, ion IonType) ([]float64, error) {
	n := len(p.Sequence)
	if n < 2 {
		return dst, nil
	}

	var nterm, cterm float64
	var modAt [64]float64
	var residueMods []float64
	if n <= len(modAt) {
		residueMods = modAt[:n]
	} else {
		residueMods = make([]float64, n)
	}
	for _, m := range p.Mods {
		switch {
		case m.Position == -1:
			nterm += m.Mass
		case m.Position == n:
			cterm += m.Mass
		case m.Position >= 0 && m.Position < n:
			residueMods[m.Position] += m.Mass
		default:
			return dst, &SequenceError{Sequence: p.Sequence, Position: m.Position, Reason: "modification outside sequence"}
		}
	}

	residue := func(i int) (float64, error) {
		m, ok := ResidueMass(rune(p.Sequence[i]))
		if !ok {
			return 0, &SequenceError{Sequence: p.Sequence, Position: i, Reason: fmt.Sprintf("unknown residue %q", p.Sequence[i])}
		}
		return m + residueMods[i], nil
	}

	if ion.NTerminal() {
		offset := 0.0
		switch ion {
		case IonA:
			offset = offsetA
		case IonC:
			offset = offsetC
		}
		sum := nterm + ProtonMass
		for i := 0; i < n-1; i++ {
			m, err := residue(i)
			if err != nil {
				return dst, err
			}
			sum += m
			dst = append(dst, sum+offset)
		}
		if _, err := residue(n - 1); err != nil {
			return dst, err
		}
		return dst, nil
	}

	offset := 0.0
	switch ion {
	case IonX:
		offset = offsetX
	case IonZ:
		offset = offsetZ
	case IonY:
	default:
		return dst, fmt.Errorf("unknown ion type %d", ion)
	}
	sum := cterm + WaterMass + ProtonMass
	for i := n - 1; i > 0; i-- {
		m, err := residue(i)
		if err != nil {
			return dst, err
		}
		sum += m
		dst = append(dst, sum+offset)
	}
	// The residue left out of every suffix ion still has to be valid.
	if _, err := residue(0); err != nil {
		return dst, err
	}
	return dst, nil
}
