// Package config loads and validates Meridian's layered configuration:
// hardcoded defaults, then a user config, then a project config, then
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete Meridian engine configuration.
type Config struct {
	Version       int                 `yaml:"version" json:"version"`
	VectorIndex   VectorIndexConfig   `yaml:"vector_index" json:"vector_index"`
	Compressor    CompressorConfig    `yaml:"compressor" json:"compressor"`
	Consolidation ConsolidationConfig `yaml:"consolidation" json:"consolidation"`
	Storage       StorageConfig       `yaml:"storage" json:"storage"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
}

// VectorIndexConfig configures the HNSW-backed ANN core (internal/vectorindex).
type VectorIndexConfig struct {
	// Dimensions is the vector dimension enforced on every insert.
	Dimensions int `yaml:"dimensions" json:"dimensions"`

	// Metric is the similarity metric: "cosine", "euclidean", or "dotproduct".
	Metric string `yaml:"metric" json:"metric"`

	// M is the HNSW graph degree (default: 16).
	M int `yaml:"m" json:"m"`

	// EfConstruction is the build-time candidate width (default: 128).
	EfConstruction int `yaml:"ef_construction" json:"ef_construction"`

	// EfSearch is the query-time candidate width (default: 64).
	EfSearch int `yaml:"ef_search" json:"ef_search"`

	// RebuildThreshold is the number of inserts/removes since the last
	// rebuild that forces a graph rebuild even without an explicit dirty
	// flag check failing. Rebuild cost scales roughly linearly with index
	// size, so high-throughput call sites should raise it to amortize
	// rebuilds over more churn.
	RebuildThreshold int `yaml:"rebuild_threshold" json:"rebuild_threshold"`
}

// CompressorConfig configures the context compression pipeline
// (internal/compress).
type CompressorConfig struct {
	TargetTokenBudget         int     `yaml:"target_token_budget" json:"target_token_budget"`
	MinRelevanceThreshold     float64 `yaml:"min_relevance_threshold" json:"min_relevance_threshold"`
	EnableRedundancyRemoval   bool    `yaml:"enable_redundancy_removal" json:"enable_redundancy_removal"`
	RedundancyThreshold       float64 `yaml:"redundancy_threshold" json:"redundancy_threshold"`
	EnableSentenceCompression bool    `yaml:"enable_sentence_compression" json:"enable_sentence_compression"`
	PreserveBoundaries        bool    `yaml:"preserve_boundaries" json:"preserve_boundaries"`
}

// ConsolidationConfig holds episode-compression settings. They are loaded
// and validated here only: internal/consolidate does not read them.
// CompressEpisodes takes its age cutoff as an argument and groups with
// its own fixed Jaccard threshold (0.4) and minimum group size (2).
type ConsolidationConfig struct {
	// OlderThan is the age (e.g. "720h") beyond which completed episodes
	// become eligible for compress_episodes.
	OlderThan string `yaml:"older_than" json:"older_than"`

	// SimilarityThreshold is the Jaccard threshold for episode grouping;
	// groups form above 0.4.
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`

	// MinGroupSize is the minimum group size to emit a Summary (default: 2).
	MinGroupSize int `yaml:"min_group_size" json:"min_group_size"`
}

// StorageConfig selects and configures the KV/document storage backend
// (internal/storage).
type StorageConfig struct {
	// Backend is "sqlite" (pure Go, modernc.org/sqlite) or "sqlite-cgo"
	// (mattn/go-sqlite3, selected by build tag).
	Backend string `yaml:"backend" json:"backend"`

	// Path is the database file path.
	Path string `yaml:"path" json:"path"`

	// CacheMB is the backend page cache size in MB.
	CacheMB int `yaml:"cache_mb" json:"cache_mb"`
}

// LoggingConfig configures internal/obslog.
type LoggingConfig struct {
	Level         string `yaml:"level" json:"level"`
	FilePath      string `yaml:"file_path" json:"file_path"`
	MaxSizeMB     int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles      int    `yaml:"max_files" json:"max_files"`
	WriteToStderr bool   `yaml:"write_to_stderr" json:"write_to_stderr"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		VectorIndex: VectorIndexConfig{
			Dimensions:       768,
			Metric:           "cosine",
			M:                16,
			EfConstruction:   128,
			EfSearch:         64,
			RebuildThreshold: 1000,
		},
		Compressor: CompressorConfig{
			TargetTokenBudget:         4000,
			MinRelevanceThreshold:     0.3,
			EnableRedundancyRemoval:   true,
			RedundancyThreshold:       0.85,
			EnableSentenceCompression: false,
			PreserveBoundaries:        true,
		},
		Consolidation: ConsolidationConfig{
			OlderThan:           "720h",
			SimilarityThreshold: 0.4,
			MinGroupSize:        2,
		},
		Storage: StorageConfig{
			Backend: "sqlite",
			Path:    defaultStoragePath(),
			CacheMB: 64,
		},
		Logging: LoggingConfig{
			Level:         "info",
			FilePath:      defaultLogPath(),
			MaxSizeMB:     10,
			MaxFiles:      5,
			WriteToStderr: true,
		},
	}
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".meridian", "meridian.db")
	}
	return filepath.Join(home, ".meridian", "meridian.db")
}

func defaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".meridian", "meridian.log")
	}
	return filepath.Join(home, ".meridian", "logs", "meridian.log")
}

// GetUserConfigPath returns the path to the user/global configuration file,
// following the XDG Base Directory specification.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "meridian", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "meridian", "config.yaml")
	}
	return filepath.Join(home, ".config", "meridian", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load loads configuration from the specified directory, applying
// precedence: defaults < user config (~/.config/meridian/config.yaml) <
// project config (.meridian.yaml in dir) < environment variables
// (MERIDIAN_*).
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".meridian.yaml")
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".meridian.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero fields of other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.VectorIndex.Dimensions != 0 {
		c.VectorIndex.Dimensions = other.VectorIndex.Dimensions
	}
	if other.VectorIndex.Metric != "" {
		c.VectorIndex.Metric = other.VectorIndex.Metric
	}
	if other.VectorIndex.M != 0 {
		c.VectorIndex.M = other.VectorIndex.M
	}
	if other.VectorIndex.EfConstruction != 0 {
		c.VectorIndex.EfConstruction = other.VectorIndex.EfConstruction
	}
	if other.VectorIndex.EfSearch != 0 {
		c.VectorIndex.EfSearch = other.VectorIndex.EfSearch
	}
	if other.VectorIndex.RebuildThreshold != 0 {
		c.VectorIndex.RebuildThreshold = other.VectorIndex.RebuildThreshold
	}

	if other.Compressor.TargetTokenBudget != 0 {
		c.Compressor.TargetTokenBudget = other.Compressor.TargetTokenBudget
	}
	if other.Compressor.MinRelevanceThreshold != 0 {
		c.Compressor.MinRelevanceThreshold = other.Compressor.MinRelevanceThreshold
	}
	if other.Compressor.RedundancyThreshold != 0 {
		c.Compressor.RedundancyThreshold = other.Compressor.RedundancyThreshold
	}
	if other.Compressor.EnableRedundancyRemoval {
		c.Compressor.EnableRedundancyRemoval = true
	}
	if other.Compressor.EnableSentenceCompression {
		c.Compressor.EnableSentenceCompression = true
	}
	if other.Compressor.PreserveBoundaries {
		c.Compressor.PreserveBoundaries = true
	}

	if other.Consolidation.OlderThan != "" {
		c.Consolidation.OlderThan = other.Consolidation.OlderThan
	}
	if other.Consolidation.SimilarityThreshold != 0 {
		c.Consolidation.SimilarityThreshold = other.Consolidation.SimilarityThreshold
	}
	if other.Consolidation.MinGroupSize != 0 {
		c.Consolidation.MinGroupSize = other.Consolidation.MinGroupSize
	}

	if other.Storage.Backend != "" {
		c.Storage.Backend = other.Storage.Backend
	}
	if other.Storage.Path != "" {
		c.Storage.Path = other.Storage.Path
	}
	if other.Storage.CacheMB != 0 {
		c.Storage.CacheMB = other.Storage.CacheMB
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

// applyEnvOverrides applies MERIDIAN_* environment variable overrides, the
// highest-precedence layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MERIDIAN_VECTOR_DIMENSIONS"); v != "" {
		if d, err := strconv.Atoi(v); err == nil && d > 0 {
			c.VectorIndex.Dimensions = d
		}
	}
	if v := os.Getenv("MERIDIAN_VECTOR_METRIC"); v != "" {
		c.VectorIndex.Metric = v
	}
	if v := os.Getenv("MERIDIAN_REBUILD_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.VectorIndex.RebuildThreshold = n
		}
	}
	if v := os.Getenv("MERIDIAN_COMPRESSOR_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Compressor.TargetTokenBudget = n
		}
	}
	if v := os.Getenv("MERIDIAN_MIN_RELEVANCE"); v != "" {
		if f, err := parseFloat64(v); err == nil && f >= 0 && f <= 1 {
			c.Compressor.MinRelevanceThreshold = f
		}
	}
	if v := os.Getenv("MERIDIAN_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("MERIDIAN_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("MERIDIAN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// Validate checks the configuration for internally-consistent values.
func (c *Config) Validate() error {
	if c.VectorIndex.Dimensions <= 0 {
		return fmt.Errorf("vector_index.dimensions must be positive, got %d", c.VectorIndex.Dimensions)
	}

	validMetrics := map[string]bool{"cosine": true, "euclidean": true, "dotproduct": true}
	if !validMetrics[strings.ToLower(c.VectorIndex.Metric)] {
		return fmt.Errorf("vector_index.metric must be 'cosine', 'euclidean', or 'dotproduct', got %s", c.VectorIndex.Metric)
	}

	if c.VectorIndex.RebuildThreshold <= 0 {
		return fmt.Errorf("vector_index.rebuild_threshold must be positive, got %d", c.VectorIndex.RebuildThreshold)
	}

	if c.Compressor.MinRelevanceThreshold < 0 || c.Compressor.MinRelevanceThreshold > 1 {
		return fmt.Errorf("compressor.min_relevance_threshold must be between 0 and 1, got %f", c.Compressor.MinRelevanceThreshold)
	}
	if c.Compressor.RedundancyThreshold < 0 || c.Compressor.RedundancyThreshold > 1 {
		return fmt.Errorf("compressor.redundancy_threshold must be between 0 and 1, got %f", c.Compressor.RedundancyThreshold)
	}
	if c.Compressor.TargetTokenBudget < 0 {
		return fmt.Errorf("compressor.target_token_budget must be non-negative, got %d", c.Compressor.TargetTokenBudget)
	}

	if c.Consolidation.SimilarityThreshold < 0 || c.Consolidation.SimilarityThreshold > 1 {
		return fmt.Errorf("consolidation.similarity_threshold must be between 0 and 1, got %f", c.Consolidation.SimilarityThreshold)
	}
	if c.Consolidation.MinGroupSize < 2 {
		return fmt.Errorf("consolidation.min_group_size must be at least 2, got %d", c.Consolidation.MinGroupSize)
	}

	validBackends := map[string]bool{"sqlite": true, "sqlite-cgo": true, "memory": true}
	if !validBackends[strings.ToLower(c.Storage.Backend)] {
		return fmt.Errorf("storage.backend must be 'sqlite', 'sqlite-cgo', or 'memory', got %s", c.Storage.Backend)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
