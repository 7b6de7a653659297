// Package reader opens query spectrum files by format.
package reader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
	"github.com/ChrisMcGann/FragIndex/pkg/reader/mgf"
	"github.com/ChrisMcGann/FragIndex/pkg/reader/msp"
	"github.com/ChrisMcGann/FragIndex/pkg/reader/sptxt"
)

// SpectrumReader is the streaming shape shared by every format reader.
type SpectrumReader interface {
	Next() bool
	Spectrum() *core.Spectrum
	Err() error
}

// Format returns the spectrum format implied by the file extension, looking
// through a compression suffix.
func Format(path string) (string, error) {
	_, base := Compression(path)
	switch ext := strings.ToLower(filepath.Ext(base)); ext {
	case ".mgf":
		return "mgf", nil
	case ".msp":
		return "msp", nil
	case ".sptxt":
		return "sptxt", nil
	default:
		return "", fmt.Errorf("unsupported spectrum file extension %q (want .mgf, .msp or .sptxt)", ext)
	}
}

// File is an open spectrum file. Spectra it returns carry the file name.
type File struct {
	SpectrumReader
	rc   io.ReadCloser
	name string
}

// Open opens path with the reader for its format. modDB resolves named
// modifications in library formats; nil uses the defaults.
func Open(path string, modDB *core.ModDatabase) (*File, error) {
	format, err := Format(path)
	if err != nil {
		return nil, err
	}

	f, err := OpenInput(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spectrum file: %w", err)
	}

	var r SpectrumReader
	switch format {
	case "mgf":
		r = mgf.NewReader(f)
	case "msp":
		r = msp.NewReader(f, modDB)
	case "sptxt":
		r = sptxt.NewReader(f, modDB)
	}
	return &File{SpectrumReader: r, rc: f, name: filepath.Base(path)}, nil
}

// Spectrum returns the current spectrum tagged with its source file.
func (f *File) Spectrum() *core.Spectrum {
	spec := f.SpectrumReader.Spectrum()
	if spec != nil {
		spec.SourceFile = f.name
	}
	return spec
}

// Close closes the underlying file.
func (f *File) Close() error {
	return f.rc.Close()
}
