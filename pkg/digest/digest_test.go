package digest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
)

func TestReadFASTA(t *testing.T) {
	input := `;comment
>sp|P69905|HBA_HUMAN Hemoglobin subunit alpha OS=Homo sapiens
MVLSPADKTN VKAAWGKVGA
haghygaeal*

>empty
>tr|Q1|X
PEPTIDEK
`
	proteins, err := ReadFASTA(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, proteins, 3)

	assert.Equal(t, "sp|P69905|HBA_HUMAN", proteins[0].Accession)
	assert.Equal(t, "Hemoglobin subunit alpha OS=Homo sapiens", proteins[0].Description)
	assert.Equal(t, "MVLSPADKTNVKAAWGKVGAHAGHYGAEAL", proteins[0].Sequence)
	assert.Equal(t, "empty", proteins[1].Accession)
	assert.Empty(t, proteins[1].Sequence)
	assert.Equal(t, "PEPTIDEK", proteins[2].Sequence)
}

func TestReadFASTAErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"sequence first", "PEPTIDE\n>P1\nAAA\n"},
		{"empty accession", ">\nAAA\n"},
		{"bad character", ">P1\nPEP1IDE\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFASTA(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestEnzymeBoundaries(t *testing.T) {
	tests := []struct {
		enzyme string
		seq    string
		want   []int
	}{
		{"trypsin", "AAKBBRPCCK", []int{0, 3, 10}},
		{"trypsin/p", "AAKBBRPCCK", []int{0, 3, 6, 10}},
		{"lys-c", "AAKBBRCCK", []int{0, 3, 9}},
		{"arg-c", "AAKBBRCCK", []int{0, 6, 9}},
		{"asp-n", "AADBBDCC", []int{0, 2, 5, 8}},
		{"Trypsin", "K", []int{0, 1}},
		{"trypsin", "", []int{0}},
	}
	for _, tt := range tests {
		e, err := LookupEnzyme(tt.enzyme)
		require.NoError(t, err, tt.enzyme)
		assert.Equal(t, tt.want, e.Boundaries(tt.seq), "%s %s", tt.enzyme, tt.seq)
	}

	_, err := LookupEnzyme("pepsin")
	assert.Error(t, err)
	assert.Contains(t, EnzymeNames(), "chymotrypsin")
}

func sequences(peptides []core.Peptide) []string {
	out := make([]string, len(peptides))
	for i, p := range peptides {
		out[i] = p.String()
	}
	return out
}

func plainParams() Params {
	return Params{
		Enzyme:          "trypsin",
		MissedCleavages: 0,
		MinLength:       2,
		MaxLength:       50,
		MinMass:         0,
		MaxMass:         10000,
	}
}

func TestGenerate_Tryptic(t *testing.T) {
	proteins := []Protein{{Accession: "P1", Sequence: "AAAKPEPTIDERGGGK"}}

	p := plainParams()
	got, err := Generate(proteins, p, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAAKPEPTIDER", "GGGK"}, sequences(got))

	p.MissedCleavages = 1
	got, err = Generate(proteins, p, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAAKPEPTIDER", "AAAKPEPTIDERGGGK", "GGGK"}, sequences(got))

	p.MinLength = 5
	p.MaxLength = 12
	got, err = Generate(proteins, p, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAAKPEPTIDER"}, sequences(got))

	for _, pep := range got {
		assert.InDelta(t, core.CalculateNeutralMass(pep.Sequence, nil)+core.ProtonMass, pep.PrecursorMZ, 1e-9)
		assert.Equal(t, uint32(0), pep.ProteinIdx)
	}
}

func TestGenerate_MassFilterAndUnknownResidues(t *testing.T) {
	proteins := []Protein{{Accession: "P1", Sequence: "GKAXAKSPEPTIDEK"}}
	p := plainParams()
	p.MinMass = 300

	got, err := Generate(proteins, p, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"SPEPTIDEK"}, sequences(got))
}

func TestGenerate_Modifications(t *testing.T) {
	proteins := []Protein{{Accession: "P1", Sequence: "MCMK"}}
	p := plainParams()
	p.FixedMods = []string{"Carbamidomethyl@C"}
	p.VariableMods = []string{"Oxidation@M"}
	p.MaxVariableMods = 1
	p.ClipNTermMet = true

	got, err := Generate(proteins, p, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"MC[+57.0215]MK",
		"M[+15.9949]C[+57.0215]MK",
		"MC[+57.0215]M[+15.9949]K",
		"C[+57.0215]MK",
		"C[+57.0215]M[+15.9949]K",
	}, sequences(got))

	p.MaxVariableMods = 2
	got, err = Generate(proteins, p, nil)
	require.NoError(t, err)
	assert.Contains(t, sequences(got), "M[+15.9949]C[+57.0215]M[+15.9949]K")
	assert.Len(t, got, 6)

	p.ClipNTermMet = false
	got, err = Generate(proteins, p, nil)
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestGenerate_TerminalMods(t *testing.T) {
	proteins := []Protein{{Accession: "P1", Sequence: "PEPTIDEK"}}
	p := plainParams()
	p.VariableMods = []string{"Acetyl@n"}
	p.MaxVariableMods = 1

	got, err := Generate(proteins, p, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "n[+42.0106]PEPTIDEK", got[1].String())
	assert.InDelta(t, got[0].PrecursorMZ+42.010565, got[1].PrecursorMZ, 1e-6)
}

func TestGenerate_DeduplicatesKeepingFirstProtein(t *testing.T) {
	proteins := []Protein{
		{Accession: "P1", Sequence: "PEPTIDEKAAAAR"},
		{Accession: "P2", Sequence: "PEPTIDEKGGGGK"},
	}
	got, err := Generate(proteins, plainParams(), nil)
	require.NoError(t, err)

	byPeptide := map[string]uint32{}
	for _, p := range got {
		_, dup := byPeptide[p.String()]
		require.False(t, dup, "duplicate %s", p.String())
		byPeptide[p.String()] = p.ProteinIdx
	}
	assert.Equal(t, uint32(0), byPeptide["PEPTIDEK"])
	assert.Equal(t, uint32(1), byPeptide["GGGGK"])
}

func TestGenerate_Deterministic(t *testing.T) {
	proteins := []Protein{
		{Accession: "P1", Sequence: "MKWVTFISLLFLFSSAYSRGVFRRDTHKSEIAHRFKDLGEENFKALVLIAFAQYLQQCPFEDHVK"},
		{Accession: "P2", Sequence: "MVLSPADKTNVKAAWGKVGAHAGEYGAEALERMFLSFPTTKTYFPHFDLSHGSAQVKGHGKK"},
	}
	a, err := Generate(proteins, DefaultParams(), nil)
	require.NoError(t, err)
	b, err := Generate(proteins, DefaultParams(), nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"enzyme", func(p *Params) { p.Enzyme = "none" }},
		{"missed cleavages", func(p *Params) { p.MissedCleavages = -1 }},
		{"min length", func(p *Params) { p.MinLength = 1 }},
		{"length range", func(p *Params) { p.MaxLength = 3 }},
		{"mass range", func(p *Params) { p.MaxMass = 100 }},
		{"variable mods", func(p *Params) { p.MaxVariableMods = -1 }},
	}
	require.NoError(t, DefaultParams().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidParams)
		})
	}

	p := plainParams()
	p.FixedMods = []string{"Nonsense@C"}
	_, err := Generate([]Protein{{Sequence: "PEPTIDEK"}}, p, nil)
	assert.Error(t, err)
}
