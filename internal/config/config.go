package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the newsradar service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Cache      CacheConfig      `yaml:"cache"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	LLM        LLMConfig        `yaml:"llm"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Hotness    HotnessConfig    `yaml:"hotness"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig holds the Redis cache connection settings (embedding cache,
// source reputations).
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// PostgresConfig holds the article store connection settings.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// LLMConfig holds the draft/entity LLM collaborator settings.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai, anthropic (default: openai)
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
}

// ClusteringConfig holds deduplication engine settings.
type ClusteringConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"` // cosine, default 0.85
	RecencyWindowHours  int     `yaml:"recency_window_hours"` // default 72
	CandidateK          int     `yaml:"candidate_k"`          // centroids considered per assign
}

// HotnessConfig holds scoring settings.
type HotnessConfig struct {
	Weights           WeightsConfig      `yaml:"weights"`
	Threshold         float64            `yaml:"threshold"`            // is_hot cutoff, default 0.7
	BaselinePerHour   float64            `yaml:"baseline_per_hour"`    // expected article rate
	SpikeBucketMin    int                `yaml:"spike_bucket_minutes"` // default 10
	SourceSaturation  float64            `yaml:"source_saturation"`    // breadth divisor, default 5
	DecayRates        DecayRatesConfig   `yaml:"decay_rates"`
	SourceReputations map[string]float64 `yaml:"source_reputations"` // curated overrides
}

// WeightsConfig holds the hotness component weights (must sum to 1).
type WeightsConfig struct {
	Materiality    float64 `yaml:"materiality"`
	Velocity       float64 `yaml:"velocity"`
	Breadth        float64 `yaml:"breadth"`
	Credibility    float64 `yaml:"credibility"`
	Unexpectedness float64 `yaml:"unexpectedness"`
}

// DecayRatesConfig holds per-news-type decay rates. Zero fields fall back
// to built-in defaults.
type DecayRatesConfig struct {
	Earnings   float64 `yaml:"earnings"`
	Mergers    float64 `yaml:"mergers"`
	Regulatory float64 `yaml:"regulatory"`
	MarketMove float64 `yaml:"market_move"`
	Default    float64 `yaml:"default"`
}

// PipelineConfig holds orchestration settings.
type PipelineConfig struct {
	DefaultTopK          int `yaml:"default_top_k"`          // default 5
	ScoringParallelism   int `yaml:"scoring_parallelism"`    // default 4
	EnrichTimeoutSec     int `yaml:"enrich_timeout_sec"`     // per-call, default 30
	EnrichConcurrencyCap int `yaml:"enrich_concurrency_cap"` // default 3
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "newsradar:"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.Clustering.SimilarityThreshold <= 0 {
		c.Clustering.SimilarityThreshold = 0.85
	}
	if c.Clustering.RecencyWindowHours <= 0 {
		c.Clustering.RecencyWindowHours = 72
	}
	if c.Clustering.CandidateK <= 0 {
		c.Clustering.CandidateK = 8
	}
	if c.Hotness.Weights == (WeightsConfig{}) {
		c.Hotness.Weights = WeightsConfig{
			Materiality:    0.25,
			Velocity:       0.25,
			Breadth:        0.20,
			Credibility:    0.20,
			Unexpectedness: 0.10,
		}
	}
	if c.Hotness.Threshold <= 0 {
		c.Hotness.Threshold = 0.7
	}
	if c.Hotness.BaselinePerHour <= 0 {
		c.Hotness.BaselinePerHour = 2.0
	}
	if c.Hotness.SpikeBucketMin <= 0 {
		c.Hotness.SpikeBucketMin = 10
	}
	if c.Hotness.SourceSaturation <= 0 {
		c.Hotness.SourceSaturation = 5
	}
	if c.Pipeline.DefaultTopK <= 0 {
		c.Pipeline.DefaultTopK = 5
	}
	if c.Pipeline.ScoringParallelism <= 0 {
		c.Pipeline.ScoringParallelism = 4
	}
	if c.Pipeline.EnrichTimeoutSec <= 0 {
		c.Pipeline.EnrichTimeoutSec = 30
	}
	if c.Pipeline.EnrichConcurrencyCap <= 0 {
		c.Pipeline.EnrichConcurrencyCap = 3
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Clustering.SimilarityThreshold <= 0 || c.Clustering.SimilarityThreshold > 1 {
		return fmt.Errorf("clustering.similarity_threshold must be in (0, 1], got %g",
			c.Clustering.SimilarityThreshold)
	}
	if c.Hotness.Threshold <= 0 || c.Hotness.Threshold > 1 {
		return fmt.Errorf("hotness.threshold must be in (0, 1], got %g", c.Hotness.Threshold)
	}
	w := c.Hotness.Weights
	sum := w.Materiality + w.Velocity + w.Breadth + w.Credibility + w.Unexpectedness
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("hotness.weights must sum to 1.0, got %g", sum)
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
		// ok
	default:
		return fmt.Errorf("llm.provider must be \"openai\" or \"anthropic\", got %q", c.LLM.Provider)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
