package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
	"github.com/ChrisMcGann/FragIndex/pkg/index"
	"github.com/ChrisMcGann/FragIndex/pkg/search"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fragindex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	ic, err := cfg.BuildConfig()
	require.NoError(t, err)
	assert.Equal(t, index.DefaultConfig().BucketSize, ic.BucketSize)
	assert.Equal(t, index.DefaultConfig().IonSeries, ic.IonSeries)

	sp, err := cfg.SearchParams()
	require.NoError(t, err)
	assert.Equal(t, search.DefaultParams(), sp)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
workers: 3
index:
  bucketSize: 1024
  ionSeries: b,y,a
search:
  mode: open
  precursorTolerance: 10
  fragmentTolerance: 0.5
  fragmentToleranceUnitPPM: false
  openPrecursorWindow: 300
  openFragmentWindow: 0.1
  maxProcessedHits: 5
digest:
  enzyme: lys-c
  variableMods: [Oxidation@M, Phospho@STY]
filter:
  topN: 100
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Workers)
	ic, err := cfg.BuildConfig()
	require.NoError(t, err)
	assert.Equal(t, 1024, ic.BucketSize)
	assert.Equal(t, core.Series(core.IonA, core.IonB, core.IonY), ic.IonSeries)
	assert.Equal(t, 3, ic.Workers)

	sp, err := cfg.SearchParams()
	require.NoError(t, err)
	assert.Equal(t, search.Open{PrecursorWindow: 300, FragmentWindow: 0.1}, sp.Mode)
	assert.Equal(t, core.PPM(10), sp.PrecursorTolerance)
	assert.Equal(t, core.Da(0.5), sp.FragmentTolerance)
	assert.Equal(t, 5, sp.MaxProcessedHits)
	assert.Equal(t, 4, sp.MaxPrecursorCharge)

	dp := cfg.DigestParams()
	assert.Equal(t, "lys-c", dp.Enzyme)
	assert.Equal(t, []string{"Oxidation@M", "Phospho@STY"}, dp.VariableMods)
	assert.Equal(t, []string{"Carbamidomethyl@C"}, dp.FixedMods)

	assert.Equal(t, 100, cfg.PeakFilter().TopN)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "search:\n  maxPrecursorCharge: 6\n")
	t.Setenv("FRAGINDEX_MAX_PRECURSOR_CHARGE", "3")
	t.Setenv("FRAGINDEX_MODE", "open")
	t.Setenv("FRAGINDEX_FIXED_MODS", "Carbamidomethyl@C, TMTPro@Kn")
	t.Setenv("FRAGINDEX_METRICS_ENABLED", "true")
	t.Setenv("FRAGINDEX_METRICS_PORT", "9191")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Search.MaxPrecursorCharge)
	assert.Equal(t, "open", cfg.Search.Mode)
	assert.Equal(t, []string{"Carbamidomethyl@C", "TMTPro@Kn"}, cfg.Digest.FixedMods)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9191, cfg.Metrics.Port)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("FRAGINDEX_BUCKET_SIZE", "lots")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FRAGINDEX_BUCKET_SIZE")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "index: [not, a, map]\n"))
	assert.Error(t, err)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bucket size", func(c *Config) { c.Index.BucketSize = 0 }, "index: bucket size"},
		{"empty ion series", func(c *Config) { c.Index.IonSeries = "" }, "index: no ion series"},
		{"unknown ion", func(c *Config) { c.Index.IonSeries = "b,q" }, "index: ion series"},
		{"negative workers", func(c *Config) { c.Workers = -1 }, "index: workers"},
		{"mode", func(c *Config) { c.Search.Mode = "fuzzy" }, "search: unknown search mode"},
		{"negative tolerance", func(c *Config) { c.Search.FragmentTolerance = -0.1 }, "search: fragment tolerance"},
		{"charge order", func(c *Config) { c.Search.MinPrecursorCharge = 5 }, "search: min precursor charge 5 exceeds"},
		{"charge floor", func(c *Config) { c.Search.MinPrecursorCharge = 0 }, "search: min precursor charge 0 must be at least 1"},
		{"isotope order", func(c *Config) { c.Search.MinIsotopeError = 3 }, "search: min isotope error"},
		{"open window", func(c *Config) {
			c.Search.Mode = "open"
			c.Search.OpenPrecursorWindow = -1
		}, "search: open precursor window"},
		{"fragment charge", func(c *Config) { c.Search.MaxFragmentCharge = 0 }, "search: max fragment charge"},
		{"hits", func(c *Config) { c.Search.MaxProcessedHits = 0 }, "search: max processed hits"},
		{"matched peaks", func(c *Config) { c.Search.MinMatchedPeaks = 0 }, "search: min matched peaks"},
		{"enzyme", func(c *Config) { c.Digest.Enzyme = "pepsin" }, "digest: unknown enzyme"},
		{"cutoff", func(c *Config) { c.Filter.IntensityCutoff = 150 }, "filter: intensityCutoff"},
		{"mz range", func(c *Config) {
			c.Filter.MinMZ = 500
			c.Filter.MaxMZ = 200
		}, "filter: maxMz"},
		{"metrics port", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Port = 0
		}, "metrics: port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.ErrorIs(t, err, index.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Index.BucketSize = -5
	cfg.Search.MaxProcessedHits = 0
	cfg.Search.MinMatchedPeaks = 0
	cfg.Digest.MissedCleavages = -1

	var verr *ValidationError
	require.True(t, errors.As(cfg.Validate(), &verr))
	assert.Len(t, verr.Problems, 4)
}

func TestModDatabase(t *testing.T) {
	cfg := Default()
	db, err := cfg.ModDatabase()
	require.NoError(t, err)
	_, ok := db.GetMass("Oxidation")
	assert.True(t, ok)

	path := filepath.Join(t.TempDir(), "mods.csv")
	require.NoError(t, os.WriteFile(path, []byte("mod,massshift,aa\nHeavyK,8.014199,K\n"), 0o644))
	cfg.Digest.ModificationsCSV = path
	db, err = cfg.ModDatabase()
	require.NoError(t, err)
	mass, ok := db.GetMass("HeavyK")
	assert.True(t, ok)
	assert.InDelta(t, 8.014199, mass, 1e-9)

	cfg.Digest.ModificationsCSV = filepath.Join(t.TempDir(), "missing.csv")
	_, err = cfg.ModDatabase()
	assert.Error(t, err)
}
