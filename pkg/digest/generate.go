package digest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
)

// ErrInvalidParams is wrapped by every Params validation failure.
var ErrInvalidParams = errors.New("invalid digest parameters")

// Params controls peptide generation.
type Params struct {
	Enzyme          string
	MissedCleavages int
	MinLength       int
	MaxLength       int
	MinMass         float64 // [M+H]+ lower bound
	MaxMass         float64 // [M+H]+ upper bound
	// ClipNTermMet also emits peptides of proteins starting with M as if
	// the initiator methionine were removed.
	ClipNTermMet bool
	// FixedMods and VariableMods use "name@sites" syntax, e.g.
	// "Carbamidomethyl@C", "Oxidation@M", "Acetyl@n".
	FixedMods       []string
	VariableMods    []string
	MaxVariableMods int
}

// DefaultParams returns tryptic digestion with carbamidomethyl cysteine and
// up to two oxidized methionines.
func DefaultParams() Params {
	return Params{
		Enzyme:          "trypsin",
		MissedCleavages: 1,
		MinLength:       7,
		MaxLength:       50,
		MinMass:         500,
		MaxMass:         5000,
		ClipNTermMet:    true,
		FixedMods:       []string{"Carbamidomethyl@C"},
		VariableMods:    []string{"Oxidation@M"},
		MaxVariableMods: 2,
	}
}

// Validate reports every invalid field at once.
func (p Params) Validate() error {
	var errs []string

	if _, err := LookupEnzyme(p.Enzyme); err != nil {
		errs = append(errs, err.Error())
	}
	if p.MissedCleavages < 0 {
		errs = append(errs, fmt.Sprintf("missed cleavages %d must be non-negative", p.MissedCleavages))
	}
	if p.MinLength < 2 {
		errs = append(errs, fmt.Sprintf("min length %d must be at least 2", p.MinLength))
	}
	if p.MaxLength < p.MinLength {
		errs = append(errs, fmt.Sprintf("max length %d is below min length %d", p.MaxLength, p.MinLength))
	}
	if p.MinMass < 0 || p.MaxMass < p.MinMass {
		errs = append(errs, fmt.Sprintf("mass range [%g, %g] is invalid", p.MinMass, p.MaxMass))
	}
	if p.MaxVariableMods < 0 {
		errs = append(errs, fmt.Sprintf("max variable mods %d must be non-negative", p.MaxVariableMods))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidParams, strings.Join(errs, "; "))
	}
	return nil
}

// varSite is one place a variable modification may go.
type varSite struct {
	pos int
	mod core.ModSite
}

type generator struct {
	params   Params
	enzyme   Enzyme
	fixed    []core.ModSite
	variable []core.ModSite
	seen     map[string]struct{}
	out      []core.Peptide
}

// Generate digests proteins and returns every peptide passing the length
// and mass filters, with fixed modifications applied everywhere they fit
// and each combination of up to MaxVariableMods variable modifications.
// Output order is deterministic: protein, start, end, then modification
// combination. A modified sequence seen twice keeps its first protein.
func Generate(proteins []Protein, params Params, modDB *core.ModDatabase) ([]core.Peptide, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if modDB == nil {
		modDB = core.DefaultModDatabase()
	}

	g := &generator{params: params, seen: make(map[string]struct{})}
	g.enzyme, _ = LookupEnzyme(params.Enzyme)

	for _, spec := range params.FixedMods {
		site, err := modDB.ParseModSite(spec)
		if err != nil {
			return nil, fmt.Errorf("fixed modification: %w", err)
		}
		g.fixed = append(g.fixed, site)
	}
	for _, spec := range params.VariableMods {
		site, err := modDB.ParseModSite(spec)
		if err != nil {
			return nil, fmt.Errorf("variable modification: %w", err)
		}
		g.variable = append(g.variable, site)
	}

	for i, prot := range proteins {
		g.digest(prot.Sequence, uint32(i))
		if params.ClipNTermMet && len(prot.Sequence) > 1 && prot.Sequence[0] == 'M' {
			g.digest(prot.Sequence[1:], uint32(i))
		}
	}
	return g.out, nil
}

func (g *generator) digest(seq string, proteinIdx uint32) {
	bounds := g.enzyme.Boundaries(seq)
	for i := 0; i < len(bounds)-1; i++ {
		for j := i + 1; j < len(bounds) && j <= i+1+g.params.MissedCleavages; j++ {
			sub := seq[bounds[i]:bounds[j]]
			if len(sub) > g.params.MaxLength {
				break
			}
			if len(sub) < g.params.MinLength || !knownResidues(sub) {
				continue
			}
			g.emit(sub, proteinIdx)
		}
	}
}

func knownResidues(seq string) bool {
	for _, aa := range seq {
		if _, ok := core.ResidueMass(aa); !ok {
			return false
		}
	}
	return true
}

// emit adds sub with its fixed modifications and every allowed variable
// modification combination.
func (g *generator) emit(sub string, proteinIdx uint32) {
	var fixed []core.Modification
	taken := make(map[int]bool)
	for _, site := range g.fixed {
		for _, pos := range sitePositions(site, sub) {
			if taken[pos] {
				continue
			}
			taken[pos] = true
			fixed = append(fixed, core.Modification{Mass: site.Mass, Position: pos, Name: site.Name})
		}
	}

	var sites []varSite
	if g.params.MaxVariableMods > 0 {
		for _, site := range g.variable {
			for _, pos := range sitePositions(site, sub) {
				if !taken[pos] {
					sites = append(sites, varSite{pos: pos, mod: site})
				}
			}
		}
	}

	var chosen []varSite
	used := make(map[int]bool)
	var walk func(start int)
	walk = func(start int) {
		mods := make([]core.Modification, 0, len(fixed)+len(chosen))
		mods = append(mods, fixed...)
		for _, v := range chosen {
			mods = append(mods, core.Modification{Mass: v.mod.Mass, Position: v.pos, Name: v.mod.Name})
		}
		g.add(sub, mods, proteinIdx)

		if len(chosen) == g.params.MaxVariableMods {
			return
		}
		for k := start; k < len(sites); k++ {
			if used[sites[k].pos] {
				continue
			}
			used[sites[k].pos] = true
			chosen = append(chosen, sites[k])
			walk(k + 1)
			chosen = chosen[:len(chosen)-1]
			used[sites[k].pos] = false
		}
	}
	walk(0)
}

// sitePositions returns the modification positions of site in seq:
// -1 for the N-terminus, len(seq) for the C-terminus.
func sitePositions(site core.ModSite, seq string) []int {
	var pos []int
	if site.NTerm {
		pos = append(pos, -1)
	}
	for i := 0; i < len(seq); i++ {
		if site.Matches(seq[i]) {
			pos = append(pos, i)
		}
	}
	if site.CTerm {
		pos = append(pos, len(seq))
	}
	return pos
}

func (g *generator) add(seq string, mods []core.Modification, proteinIdx uint32) {
	if len(mods) == 0 {
		mods = nil
	} else {
		core.SortMods(mods)
	}
	p := core.NewPeptide(seq, mods, proteinIdx)
	if p.PrecursorMZ < g.params.MinMass || p.PrecursorMZ > g.params.MaxMass {
		return
	}
	key := p.String()
	if _, dup := g.seen[key]; dup {
		return
	}
	g.seen[key] = struct{}{}
	g.out = append(g.out, p)
}
