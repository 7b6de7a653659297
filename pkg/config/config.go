// Package config loads and validates FragIndex configuration from YAML files
// with environment-variable overrides, and converts it into the parameter
// types of the index, search, digest and filter packages.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
	"github.com/ChrisMcGann/FragIndex/pkg/digest"
	"github.com/ChrisMcGann/FragIndex/pkg/filter"
	"github.com/ChrisMcGann/FragIndex/pkg/index"
	"github.com/ChrisMcGann/FragIndex/pkg/search"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FRAGINDEX_"

// Config is the top-level configuration.
type Config struct {
	Index   IndexConfig   `yaml:"index"`
	Search  SearchConfig  `yaml:"search"`
	Digest  DigestConfig  `yaml:"digest"`
	Filter  FilterConfig  `yaml:"filter"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	// Workers bounds index build and search parallelism; 0 uses GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// IndexConfig controls the fragment index layout.
type IndexConfig struct {
	BucketSize int    `yaml:"bucketSize"`
	IonSeries  string `yaml:"ionSeries"`
}

// SearchConfig holds the scoring parameters.
type SearchConfig struct {
	Mode                      string  `yaml:"mode"`
	PrecursorTolerance        float64 `yaml:"precursorTolerance"`
	PrecursorToleranceUnitPPM bool    `yaml:"precursorToleranceUnitPPM"`
	FragmentTolerance         float64 `yaml:"fragmentTolerance"`
	FragmentToleranceUnitPPM  bool    `yaml:"fragmentToleranceUnitPPM"`
	MinIsotopeError           int     `yaml:"minIsotopeError"`
	MaxIsotopeError           int     `yaml:"maxIsotopeError"`
	MinPrecursorCharge        int     `yaml:"minPrecursorCharge"`
	MaxPrecursorCharge        int     `yaml:"maxPrecursorCharge"`
	MaxFragmentCharge         int     `yaml:"maxFragmentCharge"`
	MaxProcessedHits          int     `yaml:"maxProcessedHits"`
	MinMatchedPeaks           int     `yaml:"minMatchedPeaks"`
	OpenPrecursorWindow       float64 `yaml:"openPrecursorWindow"`
	OpenFragmentWindow        float64 `yaml:"openFragmentWindow"`
}

// DigestConfig controls in-silico digestion of the protein database.
type DigestConfig struct {
	Enzyme          string   `yaml:"enzyme"`
	MissedCleavages int      `yaml:"missedCleavages"`
	MinLength       int      `yaml:"minLength"`
	MaxLength       int      `yaml:"maxLength"`
	MinMass         float64  `yaml:"minMass"`
	MaxMass         float64  `yaml:"maxMass"`
	ClipNTermMet    bool     `yaml:"clipNTermMet"`
	FixedMods       []string `yaml:"fixedMods"`
	VariableMods    []string `yaml:"variableMods"`
	MaxVariableMods int      `yaml:"maxVariableMods"`
	// ModificationsCSV adds name,mass rows to the built-in modification table.
	ModificationsCSV string `yaml:"modificationsCsv"`
}

// FilterConfig controls query peak preprocessing.
type FilterConfig struct {
	TopN            int     `yaml:"topN"`
	IntensityCutoff float64 `yaml:"intensityCutoff"`
	MinMZ           float64 `yaml:"minMz"`
	MaxMZ           float64 `yaml:"maxMz"`
	RemovePrecursor float64 `yaml:"removePrecursor"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// ValidationError lists every invalid setting found by Validate.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Problems, "; "))
}

// Unwrap lets errors.Is match index.ErrInvalidConfig.
func (e *ValidationError) Unwrap() error {
	return index.ErrInvalidConfig
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	sp := search.DefaultParams()
	closed := search.DefaultClosed()
	open := search.DefaultOpen()
	dp := digest.DefaultParams()

	return &Config{
		Index: IndexConfig{
			BucketSize: index.DefaultBucketSize,
			IonSeries:  "b,y",
		},
		Search: SearchConfig{
			Mode:                      closed.String(),
			PrecursorTolerance:        sp.PrecursorTolerance.Value,
			PrecursorToleranceUnitPPM: sp.PrecursorTolerance.PPM,
			FragmentTolerance:         sp.FragmentTolerance.Value,
			FragmentToleranceUnitPPM:  sp.FragmentTolerance.PPM,
			MinIsotopeError:           closed.MinIsotopeError,
			MaxIsotopeError:           closed.MaxIsotopeError,
			MinPrecursorCharge:        sp.MinPrecursorCharge,
			MaxPrecursorCharge:        sp.MaxPrecursorCharge,
			MaxFragmentCharge:         sp.MaxFragmentCharge,
			MaxProcessedHits:          sp.MaxProcessedHits,
			MinMatchedPeaks:           sp.MinMatchedPeaks,
			OpenPrecursorWindow:       open.PrecursorWindow,
			OpenFragmentWindow:        open.FragmentWindow,
		},
		Digest: DigestConfig{
			Enzyme:          dp.Enzyme,
			MissedCleavages: dp.MissedCleavages,
			MinLength:       dp.MinLength,
			MaxLength:       dp.MaxLength,
			MinMass:         dp.MinMass,
			MaxMass:         dp.MaxMass,
			ClipNTermMet:    dp.ClipNTermMet,
			FixedMods:       dp.FixedMods,
			VariableMods:    dp.VariableMods,
			MaxVariableMods: dp.MaxVariableMods,
		},
		Filter: FilterConfig{
			TopN:            150,
			RemovePrecursor: 1.5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// Validate checks every section and reports all problems at once.
// Nothing is clamped.
func (c *Config) Validate() error {
	var problems []string
	add := func(section string, err error) {
		if err == nil {
			return
		}
		msg := err.Error()
		for _, prefix := range []string{index.ErrInvalidConfig.Error() + ": ", digest.ErrInvalidParams.Error() + ": "} {
			msg = strings.TrimPrefix(msg, prefix)
		}
		for _, p := range strings.Split(msg, "; ") {
			problems = append(problems, section+": "+p)
		}
	}

	ic, err := c.BuildConfig()
	if err == nil {
		err = ic.Validate()
	}
	add("index", err)

	sp, err := c.SearchParams()
	if err == nil {
		err = sp.Validate()
	}
	add("search", err)

	add("digest", c.DigestParams().Validate())

	if c.Filter.TopN < 0 {
		problems = append(problems, fmt.Sprintf("filter: topN %d must not be negative", c.Filter.TopN))
	}
	if c.Filter.IntensityCutoff < 0 || c.Filter.IntensityCutoff > 100 {
		problems = append(problems, fmt.Sprintf("filter: intensityCutoff %g must be within [0, 100]", c.Filter.IntensityCutoff))
	}
	if c.Filter.MaxMZ > 0 && c.Filter.MaxMZ < c.Filter.MinMZ {
		problems = append(problems, fmt.Sprintf("filter: maxMz %g is below minMz %g", c.Filter.MaxMZ, c.Filter.MinMZ))
	}
	if c.Filter.MinMZ < 0 || c.Filter.RemovePrecursor < 0 {
		problems = append(problems, "filter: minMz and removePrecursor must not be negative")
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		problems = append(problems, fmt.Sprintf("metrics: port %d is out of range", c.Metrics.Port))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// BuildConfig converts the index section. The ion series string must parse.
func (c *Config) BuildConfig() (index.Config, error) {
	series, err := core.ParseIonSeries(c.Index.IonSeries)
	if err != nil {
		return index.Config{}, fmt.Errorf("%w: ion series: %w", index.ErrInvalidConfig, err)
	}
	return index.Config{
		BucketSize: c.Index.BucketSize,
		IonSeries:  series,
		Workers:    c.Workers,
	}, nil
}

// SearchParams converts the search section.
func (c *Config) SearchParams() (search.Params, error) {
	s := c.Search
	var mode search.Mode
	switch strings.ToLower(strings.TrimSpace(s.Mode)) {
	case "", "closed":
		mode = search.Closed{MinIsotopeError: s.MinIsotopeError, MaxIsotopeError: s.MaxIsotopeError}
	case "open":
		mode = search.Open{PrecursorWindow: s.OpenPrecursorWindow, FragmentWindow: s.OpenFragmentWindow}
	default:
		_, err := search.ParseMode(s.Mode)
		return search.Params{}, err
	}

	return search.Params{
		Mode:               mode,
		PrecursorTolerance: core.Tolerance{Value: s.PrecursorTolerance, PPM: s.PrecursorToleranceUnitPPM},
		FragmentTolerance:  core.Tolerance{Value: s.FragmentTolerance, PPM: s.FragmentToleranceUnitPPM},
		MinPrecursorCharge: s.MinPrecursorCharge,
		MaxPrecursorCharge: s.MaxPrecursorCharge,
		MaxFragmentCharge:  s.MaxFragmentCharge,
		MaxProcessedHits:   s.MaxProcessedHits,
		MinMatchedPeaks:    s.MinMatchedPeaks,
	}, nil
}

// DigestParams converts the digest section.
func (c *Config) DigestParams() digest.Params {
	d := c.Digest
	return digest.Params{
		Enzyme:          d.Enzyme,
		MissedCleavages: d.MissedCleavages,
		MinLength:       d.MinLength,
		MaxLength:       d.MaxLength,
		MinMass:         d.MinMass,
		MaxMass:         d.MaxMass,
		ClipNTermMet:    d.ClipNTermMet,
		FixedMods:       d.FixedMods,
		VariableMods:    d.VariableMods,
		MaxVariableMods: d.MaxVariableMods,
	}
}

// PeakFilter converts the filter section.
func (c *Config) PeakFilter() *filter.Config {
	f := c.Filter
	return &filter.Config{
		TopN:            f.TopN,
		IntensityCutoff: f.IntensityCutoff,
		MinMZ:           f.MinMZ,
		MaxMZ:           f.MaxMZ,
		RemovePrecursor: f.RemovePrecursor,
	}
}

// ModDatabase returns the built-in modification table extended with
// ModificationsCSV when set.
func (c *Config) ModDatabase() (*core.ModDatabase, error) {
	db := core.DefaultModDatabase()
	if c.Digest.ModificationsCSV == "" {
		return db, nil
	}
	f, err := os.Open(c.Digest.ModificationsCSV)
	if err != nil {
		return nil, fmt.Errorf("opening modifications %s: %w", c.Digest.ModificationsCSV, err)
	}
	defer f.Close()
	if err := db.LoadFromCSV(f); err != nil {
		return nil, fmt.Errorf("loading modifications %s: %w", c.Digest.ModificationsCSV, err)
	}
	return db, nil
}

// applyEnvOverrides reads FRAGINDEX_* environment variables and overrides
// the corresponding config fields. Unparseable values are errors.
func applyEnvOverrides(cfg *Config) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = nil
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					*dst = append(*dst, part)
				}
			}
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	float := func(name string, dst *float64) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	integer("WORKERS", &cfg.Workers)

	integer("BUCKET_SIZE", &cfg.Index.BucketSize)
	str("ION_SERIES", &cfg.Index.IonSeries)

	s := &cfg.Search
	str("MODE", &s.Mode)
	float("PRECURSOR_TOLERANCE", &s.PrecursorTolerance)
	boolean("PRECURSOR_TOLERANCE_UNIT_PPM", &s.PrecursorToleranceUnitPPM)
	float("FRAGMENT_TOLERANCE", &s.FragmentTolerance)
	boolean("FRAGMENT_TOLERANCE_UNIT_PPM", &s.FragmentToleranceUnitPPM)
	integer("MIN_ISOTOPE_ERROR", &s.MinIsotopeError)
	integer("MAX_ISOTOPE_ERROR", &s.MaxIsotopeError)
	integer("MIN_PRECURSOR_CHARGE", &s.MinPrecursorCharge)
	integer("MAX_PRECURSOR_CHARGE", &s.MaxPrecursorCharge)
	integer("MAX_FRAGMENT_CHARGE", &s.MaxFragmentCharge)
	integer("MAX_PROCESSED_HITS", &s.MaxProcessedHits)
	integer("MIN_MATCHED_PEAKS", &s.MinMatchedPeaks)
	float("OPEN_PRECURSOR_WINDOW", &s.OpenPrecursorWindow)
	float("OPEN_FRAGMENT_WINDOW", &s.OpenFragmentWindow)

	d := &cfg.Digest
	str("ENZYME", &d.Enzyme)
	integer("MISSED_CLEAVAGES", &d.MissedCleavages)
	integer("MIN_LENGTH", &d.MinLength)
	integer("MAX_LENGTH", &d.MaxLength)
	float("MIN_MASS", &d.MinMass)
	float("MAX_MASS", &d.MaxMass)
	boolean("CLIP_NTERM_MET", &d.ClipNTermMet)
	list("FIXED_MODS", &d.FixedMods)
	list("VARIABLE_MODS", &d.VariableMods)
	integer("MAX_VARIABLE_MODS", &d.MaxVariableMods)
	str("MODIFICATIONS_CSV", &d.ModificationsCSV)

	integer("FILTER_TOP_N", &cfg.Filter.TopN)
	float("FILTER_INTENSITY_CUTOFF", &cfg.Filter.IntensityCutoff)
	float("FILTER_MIN_MZ", &cfg.Filter.MinMZ)
	float("FILTER_MAX_MZ", &cfg.Filter.MaxMZ)
	float("FILTER_REMOVE_PRECURSOR", &cfg.Filter.RemovePrecursor)

	str("LOGGING_LEVEL", &cfg.Logging.Level)
	str("LOGGING_FORMAT", &cfg.Logging.Format)

	boolean("METRICS_ENABLED", &cfg.Metrics.Enabled)
	integer("METRICS_PORT", &cfg.Metrics.Port)

	if len(errs) > 0 {
		return fmt.Errorf("environment overrides: %w", errors.Join(errs...))
	}
	return nil
}
