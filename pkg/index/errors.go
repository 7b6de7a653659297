package index

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig = errors.New("invalid index configuration")
	ErrNoIonSeries   = errors.New("no ion series selected")
	ErrSealed        = errors.New("catalog is sealed")
	ErrNotBuilt      = errors.New("index is not built")
	ErrTooManyItems  = errors.New("too many peptides for 32-bit indices")
)

// BuildError reports the peptide that aborted an index build.
type BuildError struct {
	InputIndex int    // Position in the order peptides were added
	Peptide    string // Modified sequence
	Err        error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("building fragments for peptide %d (%s): %v", e.InputIndex, e.Peptide, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
