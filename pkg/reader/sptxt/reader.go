// Package sptxt provides streaming readers for SPTXT (SpectraST) format
// spectral libraries, used as query spectra.
package sptxt

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
)

// Inline modifications carry the total modified mass: "C[160]" is the
// residue plus its delta, "n[43]" is a hydrogen plus the N-terminal delta.
var inlineMod = regexp.MustCompile(`([A-Za-z])\[(\d+(?:\.\d+)?)\]`)

// Reader provides streaming access to SPTXT format files
type Reader struct {
	scanner     *bufio.Scanner
	modDB       *core.ModDatabase
	lineNum     int
	count       int
	currentSpec *core.Spectrum
	err         error
}

// NewReader creates a new SPTXT reader. A nil modDB uses the default
// modification table.
func NewReader(r io.Reader, modDB *core.ModDatabase) *Reader {
	if modDB == nil {
		modDB = core.DefaultModDatabase()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &Reader{
		scanner: scanner,
		modDB:   modDB,
	}
}

// Next advances to the next spectrum. Returns false when no more spectra or error.
func (r *Reader) Next() bool {
	r.currentSpec = nil
	if r.err != nil {
		return false
	}

	spec, err := r.readSpectrum()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.count++
	if spec.Scan == 0 {
		spec.Scan = r.count
	}
	r.currentSpec = spec
	return true
}

// Spectrum returns the current spectrum
func (r *Reader) Spectrum() *core.Spectrum {
	return r.currentSpec
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// readSpectrum reads a single spectrum entry from the SPTXT file
func (r *Reader) readSpectrum() (*core.Spectrum, error) {
	spec := &core.Spectrum{
		SourceFormat: "sptxt",
		Peaks:        []core.Peak{},
	}

	var numPeaks int
	inPeaks := false
	started := false

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "###") {
			if inPeaks && line == "" {
				return spec, nil
			}
			continue
		}
		started = true

		if inPeaks {
			peak, err := parsePeak(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			spec.Peaks = append(spec.Peaks, peak)
			if len(spec.Peaks) >= numPeaks {
				return spec, nil
			}
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("line %d: expected header field, got %q", r.lineNum, line)
		}
		value = strings.TrimSpace(value)

		switch key {
		case "Name":
			if err := r.parseName(spec, value); err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
		case "LibID":
			if id, err := strconv.Atoi(value); err == nil {
				spec.Scan = id + 1
			}
		case "PrecursorMZ":
			if mz, err := strconv.ParseFloat(value, 64); err == nil {
				spec.PrecursorMZ = mz
			}
		case "Comment":
			r.parseComment(spec, value)
		case "NumPeaks":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid num peaks: %w", r.lineNum, err)
			}
			numPeaks = n
			inPeaks = true
			if n == 0 {
				return spec, nil
			}
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// A truncated final entry is still returned
	if started {
		return spec, nil
	}
	return nil, io.EOF
}

// parseName extracts sequence, charge, and modifications from Name field
// Format: "n[43]AAAAQDEITGDGTTTVVC[160]LVGELLR/3"
func (r *Reader) parseName(spec *core.Spectrum, name string) error {
	spec.Title = name

	rawSeq, chargeStr, ok := strings.Cut(name, "/")
	if !ok {
		return fmt.Errorf("invalid name format '%s', expected 'SEQUENCE/CHARGE'", name)
	}

	charge, err := strconv.Atoi(chargeStr)
	if err != nil {
		return fmt.Errorf("invalid charge in name '%s': %w", name, err)
	}
	spec.Charge = charge

	sequence, mods, err := parseInlineModifications(rawSeq)
	if err != nil {
		return fmt.Errorf("failed to parse modifications from sequence: %w", err)
	}

	spec.Sequence = sequence
	spec.Modifications = mods
	return nil
}

// parseInlineModifications converts inline total masses into deltas
func parseInlineModifications(rawSeq string) (string, []core.Modification, error) {
	var sequence strings.Builder
	var mods []core.Modification

	lastIdx := 0
	for _, match := range inlineMod.FindAllStringSubmatchIndex(rawSeq, -1) {
		sequence.WriteString(rawSeq[lastIdx:match[0]])

		aa := rawSeq[match[2]:match[3]]
		total, err := strconv.ParseFloat(rawSeq[match[4]:match[5]], 64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid modification mass '%s': %w", rawSeq[match[4]:match[5]], err)
		}

		switch aa {
		case "n":
			mods = append(mods, core.Modification{Mass: total - core.MassH, Position: -1})
		case "c":
			mods = append(mods, core.Modification{Mass: total - core.MassO - core.MassH, Position: sequence.Len()})
		default:
			base, ok := core.ResidueMass(rune(aa[0]))
			if !ok {
				return "", nil, fmt.Errorf("unknown residue '%s' before modification", aa)
			}
			mods = append(mods, core.Modification{Mass: total - base, Position: sequence.Len()})
			sequence.WriteString(aa)
		}

		lastIdx = match[1]
	}
	sequence.WriteString(rawSeq[lastIdx:])

	return sequence.String(), mods, nil
}

// parseComment extracts metadata from Comment field
func (r *Reader) parseComment(spec *core.Spectrum, comment string) {
	for _, field := range strings.Fields(comment) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}

		switch key {
		case "Parent":
			if spec.PrecursorMZ == 0 {
				if mz, err := strconv.ParseFloat(value, 64); err == nil {
					spec.PrecursorMZ = mz
				}
			}
		case "CollisionEnergy":
			if ce, err := strconv.ParseFloat(value, 64); err == nil {
				spec.CollisionEnergy = &ce
			}
		case "RetentionTime":
			// May be comma-separated list, take first value
			first, _, _ := strings.Cut(value, ",")
			if rt, err := strconv.ParseFloat(first, 64); err == nil {
				spec.RetentionTime = &rt
			}
		case "Mods":
			r.nameMods(spec, value)
		}
	}
}

// nameMods attaches names from "count/pos,AA,Name/..." to inline
// modifications at the same position.
func (r *Reader) nameMods(spec *core.Spectrum, modsStr string) {
	parts := strings.Split(modsStr, "/")
	if len(parts) < 2 {
		return
	}

	for _, entry := range parts[1:] {
		fields := strings.Split(entry, ",")
		if len(fields) != 3 {
			continue
		}
		pos, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		name := fields[2]

		found := false
		for j := range spec.Modifications {
			if spec.Modifications[j].Position == pos {
				spec.Modifications[j].Name = name
				found = true
				break
			}
		}
		if !found {
			if mass, ok := r.modDB.GetMass(name); ok {
				spec.Modifications = append(spec.Modifications, core.Modification{Mass: mass, Position: pos, Name: name})
			}
		}
	}
	core.SortMods(spec.Modifications)
}

// parsePeak parses "mz\tintensity\tannotation\t..."
func parsePeak(line string) (core.Peak, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return core.Peak{}, fmt.Errorf("invalid peak format, expected at least 2 fields")
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid m/z value: %w", err)
	}

	intensity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid intensity value: %w", err)
	}

	peak := core.Peak{
		MZ:        mz,
		Intensity: intensity,
	}

	// Annotations may list several interpretations: "y3/0.5,b4-18/0.2"
	if len(fields) >= 3 {
		annotation, _, _ := strings.Cut(fields[2], ",")
		annotation, _, _ = strings.Cut(annotation, "/")
		if annotation != "?" {
			peak.Annotation = annotation
		}
	}

	return peak, nil
}
