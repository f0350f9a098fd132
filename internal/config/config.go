package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Cache drivers.
const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
	CacheDriverNone   = "none"
)

// Config holds the gifrank configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Giphy     GiphyConfig     `yaml:"giphy"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Terms     TermsConfig     `yaml:"terms"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
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
	Port              int   `yaml:"port"`
	ReadTimeoutSec    int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec   int   `yaml:"write_timeout_sec"`
	ShutdownSec       int   `yaml:"shutdown_timeout_sec"`
	RequestTimeoutSec int   `yaml:"request_timeout_sec"`
	MaxBodyBytes      int64 `yaml:"max_body_bytes"`
}

// GiphyConfig holds search provider settings.
type GiphyConfig struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Rating       string `yaml:"rating"`
	Lang         string `yaml:"lang"`
	Rendition    string `yaml:"rendition"`
	TimeoutSec   int    `yaml:"timeout_sec"`
	DefaultLimit int    `yaml:"default_limit"`
	MaxLimit     int    `yaml:"max_limit"`
	MaxAttempts  int    `yaml:"max_attempts"`
	BackoffMs    int    `yaml:"backoff_ms"`
}

// GatewayConfig holds provider cache and throttle settings.
type GatewayConfig struct {
	TTLSec        int `yaml:"ttl_sec"`
	MinIntervalMs int `yaml:"min_interval_ms"` // 0 = default, < 0 disables throttling
	MaxEntries    int `yaml:"max_entries"`
}

// EmbeddingConfig holds the shared text/media embedding model settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"`
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	MaxFrames        int    `yaml:"max_frames"`
	QueryInstruction string `yaml:"query_instruction"`
	MaxMediaBytes    int64  `yaml:"max_media_bytes"`
	MediaTimeoutSec  int    `yaml:"media_timeout_sec"`
}

// RankingConfig holds pipeline settings.
type RankingConfig struct {
	Concurrency         int   `yaml:"concurrency"`
	CandidateTimeoutSec int   `yaml:"candidate_timeout_sec"`
	QueryTimeoutSec     int   `yaml:"query_timeout_sec"`
	UnrankedFallback    *bool `yaml:"unranked_fallback"` // default true
	AggregateParallel   int   `yaml:"aggregate_parallelism"`
}

// TermsConfig holds term generation and reply drafting settings.
// APIKey and BaseURL fall back to the embedding provider's.
type TermsConfig struct {
	LLMEnabled      bool    `yaml:"llm_enabled"`
	ReplyEnabled    bool    `yaml:"reply_enabled"`
	APIKey          string  `yaml:"api_key"`
	BaseURL         string  `yaml:"base_url"`
	Model           string  `yaml:"model"`
	MaxTerms        int     `yaml:"max_terms"`
	MaxTokens       int     `yaml:"max_tokens"`
	Temperature     float32 `yaml:"temperature"`
	TimeoutSec      int     `yaml:"timeout_sec"`
	ReplyTimeoutSec int     `yaml:"reply_timeout_sec"`
}

// CacheConfig holds the embedding cache store settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // memory, redis, none (default: memory)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	TTLSec           int      `yaml:"ttl_sec"`
	MaxEntries       int      `yaml:"max_entries"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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
	if c.HTTP.RequestTimeoutSec <= 0 {
		c.HTTP.RequestTimeoutSec = 45
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 64 << 10
	}

	if c.Giphy.BaseURL == "" {
		c.Giphy.BaseURL = "https://api.giphy.com"
	}
	if c.Giphy.Rating == "" {
		c.Giphy.Rating = "pg"
	}
	if c.Giphy.Lang == "" {
		c.Giphy.Lang = "en"
	}
	if c.Giphy.Rendition == "" {
		c.Giphy.Rendition = "fixed_height_small"
	}
	if c.Giphy.TimeoutSec <= 0 {
		c.Giphy.TimeoutSec = 5
	}
	if c.Giphy.DefaultLimit <= 0 {
		c.Giphy.DefaultLimit = 10
	}
	if c.Giphy.MaxLimit <= 0 {
		c.Giphy.MaxLimit = 50
	}
	if c.Giphy.MaxAttempts <= 0 {
		c.Giphy.MaxAttempts = 2
	}
	if c.Giphy.BackoffMs <= 0 {
		c.Giphy.BackoffMs = 200
	}

	if c.Gateway.TTLSec <= 0 {
		c.Gateway.TTLSec = 300
	}
	if c.Gateway.MinIntervalMs == 0 {
		c.Gateway.MinIntervalMs = 100
	}
	if c.Gateway.MaxEntries <= 0 {
		c.Gateway.MaxEntries = 4096
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "clip-vit-base-patch32"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 512
	}
	if c.Embedding.MaxFrames <= 0 {
		c.Embedding.MaxFrames = 5
	}
	if c.Embedding.MaxMediaBytes <= 0 {
		c.Embedding.MaxMediaBytes = 8 << 20
	}
	if c.Embedding.MediaTimeoutSec <= 0 {
		c.Embedding.MediaTimeoutSec = 10
	}

	if c.Ranking.Concurrency <= 0 {
		c.Ranking.Concurrency = 6
	}
	if c.Ranking.CandidateTimeoutSec <= 0 {
		c.Ranking.CandidateTimeoutSec = 15
	}
	if c.Ranking.QueryTimeoutSec <= 0 {
		c.Ranking.QueryTimeoutSec = 10
	}
	if c.Ranking.UnrankedFallback == nil {
		enabled := true
		c.Ranking.UnrankedFallback = &enabled
	}
	if c.Ranking.AggregateParallel <= 0 {
		c.Ranking.AggregateParallel = 1
	}

	if c.Terms.APIKey == "" {
		c.Terms.APIKey = c.Embedding.APIKey
	}
	if c.Terms.BaseURL == "" {
		c.Terms.BaseURL = c.Embedding.BaseURL
	}
	if c.Terms.Model == "" {
		c.Terms.Model = "gpt-4o-mini"
	}
	if c.Terms.MaxTerms <= 0 {
		c.Terms.MaxTerms = 5
	}
	if c.Terms.MaxTokens <= 0 {
		c.Terms.MaxTokens = 64
	}
	if c.Terms.TimeoutSec <= 0 {
		c.Terms.TimeoutSec = 5
	}
	if c.Terms.ReplyTimeoutSec <= 0 {
		c.Terms.ReplyTimeoutSec = 10
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheDriverMemory
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 86400
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = 10000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Giphy.APIKey == "" {
		return errors.New("giphy.api_key is required")
	}
	switch c.Giphy.Rating {
	case "g", "pg", "pg-13", "r":
	default:
		return fmt.Errorf("giphy.rating must be one of g, pg, pg-13, r, got %q", c.Giphy.Rating)
	}
	if c.Giphy.DefaultLimit > c.Giphy.MaxLimit {
		return fmt.Errorf("giphy.default_limit (%d) exceeds giphy.max_limit (%d)", c.Giphy.DefaultLimit, c.Giphy.MaxLimit)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	switch c.Cache.Driver {
	case CacheDriverMemory, CacheDriverNone:
	case CacheDriverRedis:
		if len(c.Cache.Addrs) == 0 {
			return errors.New("cache.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("cache.driver must be \"memory\", \"redis\" or \"none\", got %q", c.Cache.Driver)
	}
	if (c.Terms.LLMEnabled || c.Terms.ReplyEnabled) && c.Terms.APIKey == "" {
		return errors.New("terms.api_key (or embedding.api_key) is required when llm or reply is enabled")
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
