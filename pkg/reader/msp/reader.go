// Package msp provides streaming readers for MSP (NIST, Prosit) format
// spectral libraries, used as query spectra.
package msp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
)

const maxLineSize = 1 << 20

// Reader provides streaming access to MSP format files
type Reader struct {
	scanner     *bufio.Scanner
	modDB       *core.ModDatabase
	lineNum     int
	count       int
	currentSpec *core.Spectrum
	err         error
}

// NewReader creates a new MSP reader. A nil modDB uses the default
// modification table.
func NewReader(r io.Reader, modDB *core.ModDatabase) *Reader {
	if modDB == nil {
		modDB = core.DefaultModDatabase()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
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
	spec.Scan = r.count
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

// readSpectrum reads one entry. Peaks end after "Num peaks" lines or at a
// blank line, whichever comes first.
func (r *Reader) readSpectrum() (*core.Spectrum, error) {
	spec := &core.Spectrum{
		SourceFormat: "msp",
		Peaks:        []core.Peak{},
	}

	var numPeaks int
	inPeaks := false
	started := false

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		if line == "" {
			if inPeaks {
				return r.finish(spec)
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
				return r.finish(spec)
			}
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("line %d: expected header field, got %q", r.lineNum, line)
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(key) {
		case "name":
			if err := parseName(spec, value); err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
		case "precursormz":
			if mz, err := strconv.ParseFloat(value, 64); err == nil {
				spec.PrecursorMZ = mz
			}
		case "comment":
			r.parseComment(spec, value)
		case "num peaks":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid num peaks: %w", r.lineNum, err)
			}
			numPeaks = n
			inPeaks = true
			if n == 0 {
				return r.finish(spec)
			}
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// A truncated final entry is still returned
	if started {
		return r.finish(spec)
	}
	return nil, io.EOF
}

// finish fills the precursor m/z from the annotation when the entry did
// not carry one.
func (r *Reader) finish(spec *core.Spectrum) (*core.Spectrum, error) {
	if spec.PrecursorMZ == 0 && spec.Sequence != "" && spec.Charge > 0 {
		spec.PrecursorMZ = core.CalculatePeptideMass(spec.Sequence, spec.Charge, spec.Modifications)
	}
	return spec, nil
}

// parseName extracts sequence and charge from Name field (format: "SEQUENCE/CHARGE")
func parseName(spec *core.Spectrum, name string) error {
	spec.Title = name

	seq, chargeStr, ok := strings.Cut(name, "/")
	if !ok {
		return fmt.Errorf("invalid name format '%s', expected 'SEQUENCE/CHARGE'", name)
	}
	// Prosit names may carry collision energy: "SEQ/2_0_35"
	chargeStr, _, _ = strings.Cut(chargeStr, "_")

	charge, err := strconv.Atoi(chargeStr)
	if err != nil {
		return fmt.Errorf("invalid charge in name '%s': %w", name, err)
	}
	spec.Sequence = seq
	spec.Charge = charge
	return nil
}

// parseComment extracts metadata from Comment field
func (r *Reader) parseComment(spec *core.Spectrum, comment string) {
	// Example: Parent=414.71 Collision_energy=35 Mods=1/-1,R,TMT_Pro iRT=61.01
	for _, field := range strings.Fields(comment) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}

		switch key {
		case "Parent":
			if mz, err := strconv.ParseFloat(value, 64); err == nil {
				spec.PrecursorMZ = mz
			}
		case "Collision_energy", "CollisionEnergy":
			if ce, err := strconv.ParseFloat(value, 64); err == nil {
				spec.CollisionEnergy = &ce
			}
		case "iRT", "RetentionTime":
			if rt, err := strconv.ParseFloat(value, 64); err == nil {
				spec.RetentionTime = &rt
			}
		case "Mods":
			if len(spec.Modifications) == 0 {
				spec.Modifications = r.parseMods(value)
			}
		case "ModString":
			if len(spec.Modifications) == 0 {
				spec.Modifications = r.parseModString(value)
			}
		}
	}
}

// parseMods parses "count/pos,AA,Name/pos,AA,Name". Unknown names are skipped.
func (r *Reader) parseMods(modsStr string) []core.Modification {
	parts := strings.Split(modsStr, "/")
	if len(parts) < 2 {
		return nil
	}

	var mods []core.Modification
	for _, entry := range parts[1:] {
		fields := strings.Split(entry, ",")
		if len(fields) != 3 {
			continue
		}
		pos, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		if mass, ok := r.modDB.GetMass(fields[2]); ok {
			mods = append(mods, core.Modification{Mass: mass, Position: pos, Name: fields[2]})
		}
	}
	core.SortMods(mods)
	return mods
}

// parseModString parses "SEQUENCE//Mod@AAPos;Mod@AAPos/Charge"
func (r *Reader) parseModString(modString string) []core.Modification {
	_, modPart, ok := strings.Cut(modString, "//")
	if !ok {
		return nil
	}
	modPart, _, _ = strings.Cut(modPart, "/")

	var mods []core.Modification
	for _, modSpec := range strings.Split(modPart, ";") {
		name, posStr, ok := strings.Cut(strings.TrimSpace(modSpec), "@")
		if !ok {
			continue
		}
		posStr = strings.TrimLeft(posStr, "ACDEFGHIKLMNOPQRSTUVWY")
		pos, err := strconv.Atoi(posStr)
		if err != nil {
			continue
		}
		if mass, ok := r.modDB.GetMass(name); ok {
			mods = append(mods, core.Modification{Mass: mass, Position: pos, Name: name})
		}
	}
	core.SortMods(mods)
	return mods
}

// parsePeak parses a single peak line (format: "mz\tintensity\t\"annotation\"")
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

	// Annotation is quoted and may carry a mass error: "y3/0.5ppm"
	if len(fields) >= 3 {
		annotation := strings.Trim(fields[2], "\"")
		if idx := strings.Index(annotation, "/"); idx > 0 {
			annotation = annotation[:idx]
		}
		peak.Annotation = annotation
	}

	return peak, nil
}
