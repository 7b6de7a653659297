package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
	"github.com/ChrisMcGann/FragIndex/pkg/search"
)

type peptideList []core.Peptide

func (l peptideList) Peptide(i int) core.Peptide { return l[i] }

func testPeptides() peptideList {
	return peptideList{
		core.NewPeptide("PEPTIDEK", nil, 0),
		core.NewPeptide("PEPMTIDEK", []core.Modification{{Mass: 15.994915, Position: 3, Name: "Oxidation"}}, 1),
	}
}

func TestWriter_WritesRunSpectraAndPsms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "psms.db")
	peptides := testPeptides()

	w, err := NewWriter(path, Run{
		Mode:         "closed",
		Parameters:   map[string]int{"bucketSize": 8192},
		Fasta:        "db.fasta",
		NumPeptides:  2,
		NumFragments: 30,
	}, peptides, []string{"P1", "P2"})
	require.NoError(t, err)
	_, err = uuid.Parse(w.RunID())
	require.NoError(t, err)

	rt := 12.5
	identified := search.Outcome{
		Spectrum: &core.Spectrum{
			Title:         "scan=1",
			Scan:          1,
			Charge:        2,
			PrecursorMZ:   465.73,
			RetentionTime: &rt,
			Peaks:         []core.Peak{{MZ: 100.5, Intensity: 10}, {MZ: 200.25, Intensity: 20}},
			SourceFile:    "run.mgf",
		},
		Result: search.Result{
			Matches: []search.SpectrumMatch{
				{PeptideIdx: 1, NumMatched: 6, PrecursorCharge: 2, IsotopeError: 1, MassDiff: 1.003},
				{PeptideIdx: 0, NumMatched: 4, PrecursorCharge: 2},
			},
			ScoredCandidates: 2,
			MatchedPeaks:     10,
		},
	}
	empty := search.Outcome{
		Spectrum: &core.Spectrum{Title: "scan=2", Scan: 2, PrecursorMZ: 900},
	}

	require.NoError(t, w.WriteOutcome(identified))
	require.NoError(t, w.WriteOutcome(empty))
	assert.Equal(t, 2, w.Count())
	require.NoError(t, w.Finalize())
	require.NoError(t, w.Close())
	assert.Error(t, w.WriteOutcome(empty))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var mode, params string
	var numPeptides int
	require.NoError(t, db.QueryRow(`SELECT Mode, Parameters, NumPeptides FROM RunTable WHERE RunId = ?`, w.RunID()).
		Scan(&mode, &params, &numPeptides))
	assert.Equal(t, "closed", mode)
	assert.Contains(t, params, "bucketSize: 8192")
	assert.Equal(t, 2, numPeptides)

	var title string
	var charge sql.NullInt64
	var identifiedFlag bool
	var mzBlob []byte
	require.NoError(t, db.QueryRow(`SELECT Title, Charge, Identified, blobMass FROM SpectrumTable WHERE SpectrumId = 1`).
		Scan(&title, &charge, &identifiedFlag, &mzBlob))
	assert.Equal(t, "scan=1", title)
	assert.Equal(t, int64(2), charge.Int64)
	assert.True(t, identifiedFlag)
	mzs, err := DecodePeaksFloat64(mzBlob)
	require.NoError(t, err)
	assert.Equal(t, []float64{100.5, 200.25}, mzs)

	require.NoError(t, db.QueryRow(`SELECT Charge, Identified FROM SpectrumTable WHERE SpectrumId = 2`).
		Scan(&charge, &identifiedFlag))
	assert.False(t, charge.Valid)
	assert.False(t, identifiedFlag)

	rows, err := db.Query(`SELECT Rank, Peptide, ModifiedPeptide, Protein, NumMatched, IsotopeError FROM PsmTable ORDER BY SpectrumId, Rank`)
	require.NoError(t, err)
	defer rows.Close()

	type psm struct {
		rank                       int
		peptide, modified, protein string
		numMatched, isotopeError   int
	}
	var got []psm
	for rows.Next() {
		var p psm
		require.NoError(t, rows.Scan(&p.rank, &p.peptide, &p.modified, &p.protein, &p.numMatched, &p.isotopeError))
		got = append(got, p)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []psm{
		{1, "PEPMTIDEK", "PEPM[+15.9949]TIDEK", "P2", 6, 1},
		{2, "PEPTIDEK", "PEPTIDEK", "P1", 4, 0},
	}, got)
}

func TestWriter_AbortDiscardsRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "psms.db")
	w, err := NewWriter(path, Run{Mode: "open"}, testPeptides(), nil)
	require.NoError(t, err)
	require.NoError(t, w.WriteOutcome(search.Outcome{Spectrum: &core.Spectrum{Title: "x"}}))
	require.NoError(t, w.Abort())
	require.NoError(t, w.Finalize())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM RunTable`).Scan(&n))
	assert.Zero(t, n)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM SpectrumTable`).Scan(&n))
	assert.Zero(t, n)
}

func TestWriter_MultipleRunsShareFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "psms.db")
	for i := 0; i < 2; i++ {
		w, err := NewWriter(path, Run{Mode: "closed"}, testPeptides(), nil)
		require.NoError(t, err)
		require.NoError(t, w.WriteOutcome(search.Outcome{Spectrum: &core.Spectrum{Title: "x"}}))
		require.NoError(t, w.Finalize())
	}

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var runs, spectra int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM RunTable`).Scan(&runs))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM SpectrumTable`).Scan(&spectra))
	assert.Equal(t, 2, runs)
	assert.Equal(t, 2, spectra)
}

func TestDecodePeaksFloat64_BadLength(t *testing.T) {
	_, err := DecodePeaksFloat64(make([]byte, 7))
	assert.Error(t, err)
}
