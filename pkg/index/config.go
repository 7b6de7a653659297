package index

import (
	"fmt"
	"runtime"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
)

// DefaultBucketSize is the number of fragments per bucket.
const DefaultBucketSize = 8192

// Config controls how the index is built. It is fixed for the lifetime of a
// built index.
type Config struct {
	BucketSize int
	IonSeries  core.IonSeries
	// Workers bounds fragment generation parallelism; 0 uses GOMAXPROCS.
	Workers int
	// Calculator defaults to core.StandardCalculator.
	Calculator core.FragmentCalculator
}

// DefaultConfig returns b/y ions with the default bucket size.
func DefaultConfig() Config {
	return Config{
		BucketSize: DefaultBucketSize,
		IonSeries:  core.Series(core.IonB, core.IonY),
	}
}

// Validate rejects configurations that cannot produce a usable index.
func (c Config) Validate() error {
	if c.BucketSize <= 0 {
		return fmt.Errorf("%w: bucket size must be positive, got %d", ErrInvalidConfig, c.BucketSize)
	}
	if c.IonSeries.Len() == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrNoIonSeries)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (c Config) calculator() core.FragmentCalculator {
	if c.Calculator != nil {
		return c.Calculator
	}
	return core.StandardCalculator{}
}
