// Package mgf provides a streaming reader for Mascot Generic Format query
// spectra.
package mgf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
)

// Reader provides streaming access to MGF files
type Reader struct {
	scanner     *bufio.Scanner
	lineNum     int
	count       int
	currentSpec *core.Spectrum
	err         error
}

// NewReader creates a new MGF reader
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &Reader{scanner: scanner}
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

// readSpectrum reads one BEGIN IONS ... END IONS block. Global parameters
// before the first block are ignored.
func (r *Reader) readSpectrum() (*core.Spectrum, error) {
	var spec *core.Spectrum

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		if line == "" || line[0] == '#' || line[0] == ';' || line[0] == '!' {
			continue
		}

		if spec == nil {
			if strings.EqualFold(line, "BEGIN IONS") {
				spec = &core.Spectrum{SourceFormat: "mgf", Peaks: []core.Peak{}}
			}
			continue
		}

		if strings.EqualFold(line, "END IONS") {
			return spec, nil
		}

		if key, value, ok := strings.Cut(line, "="); ok && isHeaderKey(key) {
			if err := parseHeader(spec, strings.ToUpper(key), strings.TrimSpace(value)); err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			continue
		}

		peak, err := parsePeak(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
		}
		spec.Peaks = append(spec.Peaks, peak)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if spec != nil {
		return nil, fmt.Errorf("line %d: unterminated BEGIN IONS block", r.lineNum)
	}
	return nil, io.EOF
}

// isHeaderKey reports whether key looks like an MGF parameter name rather
// than the start of a peak line.
func isHeaderKey(key string) bool {
	if key == "" {
		return false
	}
	c := key[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '_'
}

func parseHeader(spec *core.Spectrum, key, value string) error {
	switch key {
	case "TITLE":
		spec.Title = value

	case "PEPMASS":
		// "PEPMASS=m/z [intensity]"
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return fmt.Errorf("empty PEPMASS")
		}
		mz, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return fmt.Errorf("invalid PEPMASS '%s': %w", value, err)
		}
		spec.PrecursorMZ = mz

	case "CHARGE":
		charge, err := parseCharge(value)
		if err != nil {
			return err
		}
		spec.Charge = charge

	case "RTINSECONDS":
		first, _, _ := strings.Cut(value, "-")
		rt, err := strconv.ParseFloat(strings.TrimSpace(first), 64)
		if err != nil {
			return fmt.Errorf("invalid RTINSECONDS '%s': %w", value, err)
		}
		spec.RetentionTime = &rt

	case "SCANS":
		first, _, _ := strings.Cut(value, "-")
		scan, err := strconv.Atoi(strings.TrimSpace(first))
		if err != nil {
			return fmt.Errorf("invalid SCANS '%s': %w", value, err)
		}
		spec.Scan = scan

	case "SEQ":
		spec.Sequence = value
	}
	return nil
}

// parseCharge accepts "2", "2+", "3-" and "2+ and 3+"; only the first
// charge is kept and its sign is dropped.
func parseCharge(value string) (int, error) {
	first := strings.Fields(strings.ReplaceAll(value, ",", " "))
	if len(first) == 0 {
		return 0, nil
	}
	s := strings.TrimRight(first[0], "+-")
	s = strings.TrimLeft(s, "+-")
	charge, err := strconv.Atoi(s)
	if err != nil || charge < 0 {
		return 0, fmt.Errorf("invalid CHARGE '%s'", value)
	}
	return charge, nil
}

// parsePeak parses "mz intensity [charge]"; a missing intensity reads as 1
func parsePeak(line string) (core.Peak, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return core.Peak{}, fmt.Errorf("empty peak line")
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid m/z value: %w", err)
	}

	intensity := 1.0
	if len(fields) >= 2 {
		intensity, err = strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return core.Peak{}, fmt.Errorf("invalid intensity value: %w", err)
		}
	}

	return core.Peak{MZ: mz, Intensity: intensity}, nil
}
