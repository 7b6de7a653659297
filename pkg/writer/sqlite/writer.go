// Package sqlite writes search results to a SQLite database
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
	"github.com/ChrisMcGann/FragIndex/pkg/search"
)

// Date format for RunTable (ISO 8601)
const runDateFormat = time.RFC3339

// Run describes the search a database holds results for.
type Run struct {
	Mode         string
	Parameters   any // Serialized as YAML
	Fasta        string
	NumPeptides  int
	NumFragments int
}

// PeptideLookup resolves a PeptideIdx from a search result.
type PeptideLookup interface {
	Peptide(i int) core.Peptide
}

// Writer handles writing search outcomes to SQLite database files
type Writer struct {
	db           *sql.DB
	tx           *sql.Tx
	outputPath   string
	runID        string
	peptides     PeptideLookup
	proteins     []string
	spectrumStmt *sql.Stmt
	psmStmt      *sql.Stmt
	spectrumID   int
	done         bool
}

// NewWriter creates the schema, records run and opens the transaction every
// outcome is written in. proteins maps ProteinIdx to an accession.
func NewWriter(outputPath string, run Run, peptides PeptideLookup, proteins []string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
		runID:      uuid.NewString(),
		peptides:   peptides,
		proteins:   proteins,
		spectrumID: 1,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	w.tx, err = db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := w.insertRun(run); err != nil {
		w.Abort()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		w.Abort()
		return nil, err
	}

	return w, nil
}

// RunID returns the identifier of the run row.
func (w *Writer) RunID() string {
	return w.runID
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS RunTable (
		RunId TEXT PRIMARY KEY,
		CreationDate TEXT,
		Mode TEXT,
		Parameters TEXT,
		Fasta TEXT,
		NumPeptides INTEGER,
		NumFragments INTEGER
	);

	CREATE TABLE IF NOT EXISTS SpectrumTable (
		SpectrumId INTEGER,
		RunId TEXT REFERENCES RunTable(RunId),
		Title TEXT,
		ScanNumber INTEGER,
		Charge INTEGER,
		PrecursorMz DOUBLE,
		RetentionTime DOUBLE,
		NumPeaks INTEGER,
		ScoredCandidates INTEGER,
		MatchedPeaks INTEGER,
		Identified BOOL,
		SourceFile TEXT,
		blobMass BLOB,
		blobIntensity BLOB,
		PRIMARY KEY (RunId, SpectrumId)
	);

	CREATE TABLE IF NOT EXISTS PsmTable (
		RunId TEXT REFERENCES RunTable(RunId),
		SpectrumId INTEGER,
		Rank INTEGER,
		Peptide TEXT,
		ModifiedPeptide TEXT,
		Protein TEXT,
		NumMatched INTEGER,
		Charge INTEGER,
		IsotopeError INTEGER,
		CalcMass DOUBLE,
		MassDiff DOUBLE,
		PRIMARY KEY (RunId, SpectrumId, Rank)
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

func (w *Writer) insertRun(run Run) error {
	params, err := yaml.Marshal(run.Parameters)
	if err != nil {
		return fmt.Errorf("failed to encode run parameters: %w", err)
	}

	_, err = w.tx.Exec(`
		INSERT INTO RunTable (RunId, CreationDate, Mode, Parameters, Fasta, NumPeptides, NumFragments)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, w.runID, time.Now().UTC().Format(runDateFormat), run.Mode, string(params), run.Fasta, run.NumPeptides, run.NumFragments)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	var err error

	w.spectrumStmt, err = w.tx.Prepare(`
		INSERT INTO SpectrumTable (
			SpectrumId, RunId, Title, ScanNumber, Charge, PrecursorMz,
			RetentionTime, NumPeaks, ScoredCandidates, MatchedPeaks,
			Identified, SourceFile, blobMass, blobIntensity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare spectrum statement: %w", err)
	}

	w.psmStmt, err = w.tx.Prepare(`
		INSERT INTO PsmTable (
			RunId, SpectrumId, Rank, Peptide, ModifiedPeptide, Protein,
			NumMatched, Charge, IsotopeError, CalcMass, MassDiff
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare psm statement: %w", err)
	}

	return nil
}

// WriteOutcome writes a searched spectrum and its ranked matches
func (w *Writer) WriteOutcome(o search.Outcome) error {
	if w.done {
		return fmt.Errorf("writer for %s is closed", w.outputPath)
	}
	spec := o.Spectrum

	// Handle optional retention time
	var rt interface{} = nil
	if spec.RetentionTime != nil {
		rt = *spec.RetentionTime
	}

	var charge interface{} = nil
	if spec.Charge > 0 {
		charge = spec.Charge
	}

	// Encode peaks as binary blobs (little-endian float64)
	mzBlob := encodePeaksFloat64(spec.Peaks, true)   // m/z values
	intBlob := encodePeaksFloat64(spec.Peaks, false) // intensity values

	_, err := w.spectrumStmt.Exec(
		w.spectrumID,              // SpectrumId
		w.runID,                   // RunId
		spec.Name(),               // Title
		spec.Scan,                 // ScanNumber
		charge,                    // Charge
		spec.PrecursorMZ,          // PrecursorMz
		rt,                        // RetentionTime
		len(spec.Peaks),           // NumPeaks
		o.Result.ScoredCandidates, // ScoredCandidates
		o.Result.MatchedPeaks,     // MatchedPeaks
		o.Result.Identified(),     // Identified
		spec.SourceFile,           // SourceFile
		mzBlob,                    // blobMass
		intBlob,                   // blobIntensity
	)
	if err != nil {
		return fmt.Errorf("failed to insert spectrum %d: %w", w.spectrumID, err)
	}

	for rank, m := range o.Result.Matches {
		p := w.peptides.Peptide(int(m.PeptideIdx))
		protein := ""
		if int(p.ProteinIdx) < len(w.proteins) {
			protein = w.proteins[p.ProteinIdx]
		}

		_, err := w.psmStmt.Exec(
			w.runID,           // RunId
			w.spectrumID,      // SpectrumId
			rank+1,            // Rank
			p.Sequence,        // Peptide
			p.String(),        // ModifiedPeptide
			protein,           // Protein
			m.NumMatched,      // NumMatched
			m.PrecursorCharge, // Charge
			m.IsotopeError,    // IsotopeError
			p.PrecursorMZ,     // CalcMass
			m.MassDiff,        // MassDiff
		)
		if err != nil {
			return fmt.Errorf("failed to insert psm %d/%d: %w", w.spectrumID, rank+1, err)
		}
	}

	w.spectrumID++
	return nil
}

// encodePeaksFloat64 encodes peak data as little-endian float64 blob
func encodePeaksFloat64(peaks []core.Peak, useMZ bool) []byte {
	buf := make([]byte, len(peaks)*8)
	for i, peak := range peaks {
		var value float64
		if useMZ {
			value = peak.MZ
		} else {
			value = peak.Intensity
		}
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(value))
	}
	return buf
}

// DecodePeaksFloat64 reverses the blob encoding of SpectrumTable.
func DecodePeaksFloat64(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("peak blob length %d is not a multiple of 8", len(blob))
	}
	values := make([]float64, len(blob)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return values, nil
}

func (w *Writer) closeStatements() {
	if w.spectrumStmt != nil {
		w.spectrumStmt.Close()
	}
	if w.psmStmt != nil {
		w.psmStmt.Close()
	}
}

// Finalize commits every written outcome and closes the database
func (w *Writer) Finalize() error {
	if w.done {
		return nil
	}
	w.done = true
	w.closeStatements()

	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return fmt.Errorf("failed to commit results: %w", err)
	}

	// Close database
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Abort discards everything written since NewWriter, the run row included.
func (w *Writer) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	w.closeStatements()

	rbErr := w.tx.Rollback()
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	if rbErr != nil {
		return fmt.Errorf("failed to roll back results: %w", rbErr)
	}
	return nil
}

// Close closes the database connection (alias for Finalize)
func (w *Writer) Close() error {
	return w.Finalize()
}

// Count returns the number of spectra written so far.
func (w *Writer) Count() int {
	return w.spectrumID - 1
}
