package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the lexsearch service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Cache     CacheConfig     `yaml:"cache"`
	Guardrail GuardrailConfig `yaml:"guardrail"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds record store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig names the chunk index the record store searches. The index
// mapping itself is owned by the ingestion pipeline, not this service.
type IndexConfig struct {
	Name      string `yaml:"name"`
	KeyPrefix string `yaml:"key_prefix"`
	// MaxFetchK caps the per-leg over-fetch request size.
	MaxFetchK int `yaml:"max_fetch_k"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	CacheEnabled     bool   `yaml:"cache_enabled"`
}

// RetrievalConfig holds dispatcher and fusion tunables.
type RetrievalConfig struct {
	// RRFK is the reciprocal rank fusion smoothing constant.
	RRFK int `yaml:"rrf_k"`
	// OverfetchFactor scales each leg's request size relative to topK.
	OverfetchFactor int   `yaml:"overfetch_factor"`
	LegTimeoutMs    int   `yaml:"leg_timeout_ms"`
	LexicalEnabled  *bool `yaml:"lexical_enabled"`
	DenseEnabled    *bool `yaml:"dense_enabled"`
	SparseEnabled   *bool `yaml:"sparse_enabled"`
}

// CacheConfig holds query result cache settings.
type CacheConfig struct {
	TTLSec     int `yaml:"ttl_sec"`
	MaxEntries int `yaml:"max_entries"`
}

// GuardrailConfig holds safety gate settings.
type GuardrailConfig struct {
	// FailOpen controls the policy when classification itself fails:
	// true allows the query with a warning, false refuses it.
	FailOpen *bool `yaml:"fail_open"`
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

// LegTimeout returns the per-leg timeout as a duration.
func (c *RetrievalConfig) LegTimeout() time.Duration {
	return time.Duration(c.LegTimeoutMs) * time.Millisecond
}

// TTL returns the cache entry lifetime as a duration.
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.Name == "" {
		c.Index.Name = "lexsearch:chunks:idx"
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "lexsearch:"
	}
	if c.Index.MaxFetchK <= 0 {
		c.Index.MaxFetchK = 200
	}
	if c.Retrieval.RRFK <= 0 {
		c.Retrieval.RRFK = 60
	}
	if c.Retrieval.OverfetchFactor <= 0 {
		c.Retrieval.OverfetchFactor = 2
	}
	if c.Retrieval.LegTimeoutMs <= 0 {
		c.Retrieval.LegTimeoutMs = 1500
	}
	if c.Retrieval.LexicalEnabled == nil {
		c.Retrieval.LexicalEnabled = boolPtr(true)
	}
	if c.Retrieval.DenseEnabled == nil {
		c.Retrieval.DenseEnabled = boolPtr(true)
	}
	if c.Retrieval.SparseEnabled == nil {
		c.Retrieval.SparseEnabled = boolPtr(true)
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 3600
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = 4096
	}
	if c.Guardrail.FailOpen == nil {
		c.Guardrail.FailOpen = boolPtr(true)
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Retrieval.OverfetchFactor > 10 {
		return fmt.Errorf("retrieval.overfetch_factor must be at most 10, got %d", c.Retrieval.OverfetchFactor)
	}
	if !*c.Retrieval.LexicalEnabled && !*c.Retrieval.DenseEnabled && !*c.Retrieval.SparseEnabled {
		return fmt.Errorf("at least one retrieval strategy must be enabled")
	}
	if *c.Retrieval.DenseEnabled && c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key is required when the dense leg is enabled")
	}
	return nil
}

func boolPtr(v bool) *bool { return &v }

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
