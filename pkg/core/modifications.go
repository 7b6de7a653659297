package core

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ModDatabase stores modification definitions
type ModDatabase struct {
	mods map[string]float64 // name -> mass shift
}

// NewModDatabase creates an empty modification database
func NewModDatabase() *ModDatabase {
	return &ModDatabase{
		mods: make(map[string]float64),
	}
}

// LoadFromCSV loads modifications from a CSV file (format: mod,massshift,aa).
// The first line is a header.
func (db *ModDatabase) LoadFromCSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Scan()

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return fmt.Errorf("line %d: invalid format, expected at least 2 comma-separated fields", lineNum)
		}

		massStr := strings.TrimSpace(parts[1])
		mass, err := strconv.ParseFloat(massStr, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid mass value '%s': %w", lineNum, massStr, err)
		}
		db.mods[strings.TrimSpace(parts[0])] = mass
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}
	return nil
}

// GetMass returns the mass shift for a modification name
func (db *ModDatabase) GetMass(name string) (float64, bool) {
	mass, ok := db.mods[name]
	return mass, ok
}

// Add adds or updates a modification
func (db *ModDatabase) Add(name string, mass float64) {
	db.mods[name] = mass
}

// Len returns the number of known modifications.
func (db *ModDatabase) Len() int {
	return len(db.mods)
}

// resolveMass parses a direct mass or looks a name up.
func (db *ModDatabase) resolveMass(nameOrMass string) (float64, error) {
	if mass, err := strconv.ParseFloat(nameOrMass, 64); err == nil {
		return mass, nil
	}
	mass, ok := db.GetMass(nameOrMass)
	if !ok {
		return 0, fmt.Errorf("unknown modification '%s'", nameOrMass)
	}
	return mass, nil
}

// ParseModString parses a modification string like "57.021464@2;15.994915@8" or
// "Carbamidomethyl@C2;Oxidation@M8" attached to a concrete sequence.
func (db *ModDatabase) ParseModString(modStr string, sequence string) ([]Modification, error) {
	if modStr == "" {
		return nil, nil
	}

	var mods []Modification
	for _, part := range strings.Split(modStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		atParts := strings.Split(part, "@")
		if len(atParts) != 2 {
			return nil, fmt.Errorf("invalid modification format '%s', expected 'name@position' or 'mass@position'", part)
		}

		nameOrMass := strings.TrimSpace(atParts[0])
		mass, err := db.resolveMass(nameOrMass)
		if err != nil {
			return nil, err
		}

		position, err := parsePosition(strings.TrimSpace(atParts[1]), sequence)
		if err != nil {
			return nil, fmt.Errorf("invalid position '%s': %w", atParts[1], err)
		}

		mods = append(mods, Modification{
			Mass:     mass,
			Position: position,
			Name:     nameOrMass,
		})
	}

	return mods, nil
}

// parsePosition parses a position string that may be just a number or include an amino acid
// Examples: "2", "C2", "R-1" (N-terminal), "c" (C-terminal)
func parsePosition(posStr string, sequence string) (int, error) {
	if posStr == "-1" || strings.HasSuffix(posStr, "-1") {
		return -1, nil
	}
	if posStr == "c" {
		return len(sequence), nil
	}

	posStr = strings.TrimLeft(posStr, "ACDEFGHIKLMNOPQRSTVWY")
	pos, err := strconv.Atoi(posStr)
	if err != nil {
		return 0, fmt.Errorf("invalid position number: %w", err)
	}

	// 1-based in the string
	if pos > 0 {
		pos--
	}
	if pos > len(sequence) {
		return 0, fmt.Errorf("position %d beyond sequence length %d", pos+1, len(sequence))
	}
	return pos, nil
}

// ModSite describes where a search modification may be placed, e.g.
// "Oxidation@M", "Carbamidomethyl@C", "Acetyl@n" or "79.966331@STY".
type ModSite struct {
	Name     string
	Mass     float64
	Residues string // Residue letters the mass may sit on
	NTerm    bool   // Peptide N-terminus ('n')
	CTerm    bool   // Peptide C-terminus ('c')
}

// ParseModSite resolves a "name@sites" string against the database.
func (db *ModDatabase) ParseModSite(spec string) (ModSite, error) {
	atParts := strings.Split(strings.TrimSpace(spec), "@")
	if len(atParts) != 2 || atParts[0] == "" || atParts[1] == "" {
		return ModSite{}, fmt.Errorf("invalid modification site '%s', expected 'name@residues'", spec)
	}

	mass, err := db.resolveMass(atParts[0])
	if err != nil {
		return ModSite{}, err
	}

	site := ModSite{Name: atParts[0], Mass: mass}
	for _, r := range atParts[1] {
		switch {
		case r == 'n':
			site.NTerm = true
		case r == 'c':
			site.CTerm = true
		default:
			if _, ok := ResidueMass(r); !ok {
				return ModSite{}, fmt.Errorf("modification site '%s': unknown residue %q", spec, r)
			}
			site.Residues += string(r)
		}
	}
	return site, nil
}

// Matches reports whether the site applies to residue aa.
func (s ModSite) Matches(aa byte) bool {
	return strings.IndexByte(s.Residues, aa) >= 0
}

// DefaultModDatabase returns a ModDatabase pre-loaded with common modifications
func DefaultModDatabase() *ModDatabase {
	db := NewModDatabase()

	// Common modifications from unimod
	for name, mass := range map[string]float64{
		"Acetyl":               42.010565,
		"Amidated":             -0.984016,
		"Biotin":               226.077598,
		"Carbamidomethyl":      57.021464,
		"Carbamyl":             43.005814,
		"Carboxymethyl":        58.005479,
		"Deamidated":           0.984016,
		"Met->Hse":             -29.992806,
		"Met->Hsl":             -48.003371,
		"NIPCAM":               99.068414,
		"Phospho":              79.966331,
		"Dehydrated":           -18.010565,
		"Propionamide":         71.037114,
		"Pyro-carbamidomethyl": 39.994915,
		"Glu->pyro-Glu":        -18.010565,
		"Gln->pyro-Glu":        -17.026549,
		"Cation:Na":            21.981943,
		"Methyl":               14.01565,
		"Oxidation":            15.994915,
		"Dimethyl":             28.0313,
		"Trimethyl":            42.04695,
		"Methylthio":           45.987721,
		"Sulfo":                79.956815,
		"Hex":                  162.052824,
		"Lipoyl":               188.032956,
		"HexNAc":               203.079373,
		"Farnesyl":             204.187801,
		"Myristoyl":            210.198366,
		"PyridoxalPhosphate":   229.014009,
		"Palmitoyl":            238.229666,
		"GeranylGeranyl":       272.250401,
		"Phosphopantetheine":   340.085794,
		"FAD":                  783.141486,
		"Guanidinyl":           42.021798,
		"HNE":                  156.11503,
		"Glucuronyl":           176.032088,
		"Glutathione":          305.068156,
		"Propionyl":            56.026215,
		"GG":                   114.042927,
		"TMT":                  229.162932,
		"TMTPro":               304.207146,
		"TMT6plex":             229.162932,
		"TMT10plex":            229.162932,
		"TMT11plex":            229.162932,
		"TMT16plex":            304.207146,
		"iTRAQ4plex":           144.102063,
		"iTRAQ8plex":           304.205360,
	} {
		db.Add(name, mass)
	}

	return db
}
