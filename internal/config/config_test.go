package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: all defaults should be applied
	require.NotNil(t, cfg)

	assert.Equal(t, 768, cfg.VectorIndex.Dimensions)
	assert.Equal(t, "cosine", cfg.VectorIndex.Metric)
	assert.Equal(t, 16, cfg.VectorIndex.M)
	assert.Equal(t, 128, cfg.VectorIndex.EfConstruction)
	assert.Equal(t, 64, cfg.VectorIndex.EfSearch)
	assert.Equal(t, 1000, cfg.VectorIndex.RebuildThreshold)

	assert.Equal(t, 4000, cfg.Compressor.TargetTokenBudget)
	assert.Equal(t, 0.3, cfg.Compressor.MinRelevanceThreshold)
	assert.True(t, cfg.Compressor.EnableRedundancyRemoval)
	assert.Equal(t, 0.85, cfg.Compressor.RedundancyThreshold)
	assert.False(t, cfg.Compressor.EnableSentenceCompression)
	assert.True(t, cfg.Compressor.PreserveBoundaries)

	assert.Equal(t, "720h", cfg.Consolidation.OlderThan)
	assert.Equal(t, 0.4, cfg.Consolidation.SimilarityThreshold)
	assert.Equal(t, 2, cfg.Consolidation.MinGroupSize)

	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, 64, cfg.Storage.CacheMB)
	assert.NotEmpty(t, cfg.Storage.Path)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Logging.MaxSizeMB)
	assert.Equal(t, 5, cfg.Logging.MaxFiles)
	assert.True(t, cfg.Logging.WriteToStderr)
}

func TestLoad_AppliesProjectConfigOverDefaults(t *testing.T) {
	// Given: a project-level .meridian.yaml overriding a subset of fields
	dir := t.TempDir()
	yamlContent := `
vector_index:
  dimensions: 1536
  metric: euclidean
compressor:
  target_token_budget: 8000
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".meridian.yaml"), []byte(yamlContent), 0644))

	// Clear env overrides so this test reflects file precedence only
	clearMeridianEnv(t)

	// When: loading configuration for that directory
	cfg, err := Load(dir)

	// Then: the project file wins over defaults, untouched fields keep defaults
	require.NoError(t, err)
	assert.Equal(t, 1536, cfg.VectorIndex.Dimensions)
	assert.Equal(t, "euclidean", cfg.VectorIndex.Metric)
	assert.Equal(t, 8000, cfg.Compressor.TargetTokenBudget)
	assert.Equal(t, 16, cfg.VectorIndex.M) // unset in file, default preserved
}

func TestLoad_EnvOverridesBeatProjectConfig(t *testing.T) {
	// Given: a project config setting dimensions to 1536
	dir := t.TempDir()
	yamlContent := "vector_index:\n  dimensions: 1536\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".meridian.yaml"), []byte(yamlContent), 0644))
	clearMeridianEnv(t)
	t.Setenv("MERIDIAN_VECTOR_DIMENSIONS", "384")

	// When: loading configuration with an env override set
	cfg, err := Load(dir)

	// Then: the environment variable wins, since it is the highest-precedence layer
	require.NoError(t, err)
	assert.Equal(t, 384, cfg.VectorIndex.Dimensions)
}

func TestLoad_YmlExtensionIsAlsoRecognized(t *testing.T) {
	// Given: a project config using the .yml extension instead of .yaml
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".meridian.yml"), []byte("storage:\n  backend: memory\n"), 0644))
	clearMeridianEnv(t)

	// When: loading configuration for that directory
	cfg, err := Load(dir)

	// Then: the .yml file is picked up
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Backend)
}

func TestLoad_NoProjectConfigFallsBackToDefaults(t *testing.T) {
	// Given: an empty directory with no project config file
	dir := t.TempDir()
	clearMeridianEnv(t)

	// When: loading configuration
	cfg, err := Load(dir)

	// Then: the defaults are returned unmodified
	require.NoError(t, err)
	assert.Equal(t, 768, cfg.VectorIndex.Dimensions)
}

func TestMergeWith_OnlyOverlaysNonZeroFields(t *testing.T) {
	// Given: a base config and a sparse override
	base := NewConfig()
	override := &Config{}
	override.Storage.Backend = "memory"

	// When: merging the override onto the base
	base.mergeWith(override)

	// Then: only the explicitly set field changes
	assert.Equal(t, "memory", base.Storage.Backend)
	assert.Equal(t, 768, base.VectorIndex.Dimensions)
	assert.Equal(t, 4000, base.Compressor.TargetTokenBudget)
}

func TestApplyEnvOverrides_AllRecognizedVars(t *testing.T) {
	// Given: every supported MERIDIAN_* variable set
	clearMeridianEnv(t)
	t.Setenv("MERIDIAN_VECTOR_DIMENSIONS", "1024")
	t.Setenv("MERIDIAN_VECTOR_METRIC", "dotproduct")
	t.Setenv("MERIDIAN_REBUILD_THRESHOLD", "500")
	t.Setenv("MERIDIAN_COMPRESSOR_BUDGET", "2000")
	t.Setenv("MERIDIAN_MIN_RELEVANCE", "0.5")
	t.Setenv("MERIDIAN_STORAGE_BACKEND", "sqlite-cgo")
	t.Setenv("MERIDIAN_STORAGE_PATH", "/tmp/custom.db")
	t.Setenv("MERIDIAN_LOG_LEVEL", "debug")

	cfg := NewConfig()

	// When: applying env overrides
	cfg.applyEnvOverrides()

	// Then: every field reflects its corresponding env var
	assert.Equal(t, 1024, cfg.VectorIndex.Dimensions)
	assert.Equal(t, "dotproduct", cfg.VectorIndex.Metric)
	assert.Equal(t, 500, cfg.VectorIndex.RebuildThreshold)
	assert.Equal(t, 2000, cfg.Compressor.TargetTokenBudget)
	assert.Equal(t, 0.5, cfg.Compressor.MinRelevanceThreshold)
	assert.Equal(t, "sqlite-cgo", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/custom.db", cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestApplyEnvOverrides_IgnoresInvalidNumbers(t *testing.T) {
	// Given: an env var holding a non-numeric value
	clearMeridianEnv(t)
	t.Setenv("MERIDIAN_VECTOR_DIMENSIONS", "not-a-number")

	cfg := NewConfig()

	// When: applying env overrides
	cfg.applyEnvOverrides()

	// Then: the malformed value is ignored and the default survives
	assert.Equal(t, 768, cfg.VectorIndex.Dimensions)
}

func TestValidate_RejectsNonPositiveDimensions(t *testing.T) {
	cfg := NewConfig()
	cfg.VectorIndex.Dimensions = 0

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "dimensions")
}

func TestValidate_RejectsUnknownMetric(t *testing.T) {
	cfg := NewConfig()
	cfg.VectorIndex.Metric = "manhattan"

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "metric")
}

func TestValidate_RejectsOutOfRangeRelevanceThreshold(t *testing.T) {
	cfg := NewConfig()
	cfg.Compressor.MinRelevanceThreshold = 1.5

	err := cfg.Validate()

	assert.Error(t, err)
}

func TestValidate_RejectsSmallMinGroupSize(t *testing.T) {
	cfg := NewConfig()
	cfg.Consolidation.MinGroupSize = 1

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "min_group_size")
}

func TestValidate_RejectsUnknownBackend(t *testing.T) {
	cfg := NewConfig()
	cfg.Storage.Backend = "postgres"

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "backend")
}

func TestValidate_RejectsUnknownLogLevel(t *testing.T) {
	cfg := NewConfig()
	cfg.Logging.Level = "verbose"

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.NoError(t, cfg.Validate())
}

func TestWriteYAML_RoundTrips(t *testing.T) {
	// Given: a config written to a YAML file
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")
	cfg := NewConfig()
	cfg.VectorIndex.Dimensions = 256

	require.NoError(t, cfg.WriteYAML(path))

	// When: reading it back via loadYAML
	loaded := NewConfig()
	require.NoError(t, loaded.loadYAML(path))

	// Then: the written field survives the round trip
	assert.Equal(t, 256, loaded.VectorIndex.Dimensions)
}

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/xdg")

	path := GetUserConfigPath()

	assert.Equal(t, filepath.Join("/custom/xdg", "meridian", "config.yaml"), path)
}

// clearMeridianEnv clears every MERIDIAN_* variable this package reads, so
// tests that exercise file-based precedence aren't polluted by a variable
// left set by a previous test or the outer shell.
func clearMeridianEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"MERIDIAN_VECTOR_DIMENSIONS",
		"MERIDIAN_VECTOR_METRIC",
		"MERIDIAN_REBUILD_THRESHOLD",
		"MERIDIAN_COMPRESSOR_BUDGET",
		"MERIDIAN_MIN_RELEVANCE",
		"MERIDIAN_STORAGE_BACKEND",
		"MERIDIAN_STORAGE_PATH",
		"MERIDIAN_LOG_LEVEL",
	}
	for _, v := range vars {
		t.Setenv(v, "")
		require.NoError(t, os.Unsetenv(v))
	}
}
