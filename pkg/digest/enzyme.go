package digest

import (
	"fmt"
	"sort"
	"strings"
)

// Enzyme describes a specific protease.
type Enzyme struct {
	Name string
	// Cleave lists the residues the enzyme cuts at.
	Cleave string
	// Restrict lists residues on the far side of the cut that block it,
	// e.g. P for trypsin.
	Restrict string
	// NTerm cuts before the residue instead of after it (Asp-N).
	NTerm bool
}

var enzymes = map[string]Enzyme{
	"trypsin":      {Name: "trypsin", Cleave: "KR", Restrict: "P"},
	"trypsin/p":    {Name: "trypsin/p", Cleave: "KR"},
	"lys-c":        {Name: "lys-c", Cleave: "K"},
	"arg-c":        {Name: "arg-c", Cleave: "R", Restrict: "P"},
	"chymotrypsin": {Name: "chymotrypsin", Cleave: "FWYL", Restrict: "P"},
	"asp-n":        {Name: "asp-n", Cleave: "D", NTerm: true},
}

// LookupEnzyme returns the enzyme registered under name, case-insensitively.
func LookupEnzyme(name string) (Enzyme, error) {
	e, ok := enzymes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Enzyme{}, fmt.Errorf("unknown enzyme %q (known: %s)", name, strings.Join(EnzymeNames(), ", "))
	}
	return e, nil
}

// EnzymeNames lists the registered enzymes.
func EnzymeNames() []string {
	names := make([]string, 0, len(enzymes))
	for n := range enzymes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Boundaries returns the sorted cut positions in seq, always including 0
// and len(seq). A boundary b splits seq into seq[:b] and seq[b:].
func (e Enzyme) Boundaries(seq string) []int {
	bounds := []int{0}
	for i := 1; i < len(seq); i++ {
		var site, next byte
		if e.NTerm {
			site, next = seq[i], seq[i-1]
		} else {
			site, next = seq[i-1], seq[i]
		}
		if strings.IndexByte(e.Cleave, site) < 0 {
			continue
		}
		if strings.IndexByte(e.Restrict, next) >= 0 {
			continue
		}
		bounds = append(bounds, i)
	}
	if len(seq) > 0 {
		bounds = append(bounds, len(seq))
	}
	return bounds
}
