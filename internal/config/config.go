package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the postgen server configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Generation GenerationConfig `yaml:"generation"`
	Quota      QuotaConfig      `yaml:"quota"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds JSON API authentication settings. Empty means the API is open.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	// TrustProxyHeaders derives the client address from X-Forwarded-For / X-Real-IP.
	// Only safe behind a proxy that overwrites these headers.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
}

// GenerationConfig holds the OpenAI-compatible provider settings.
type GenerationConfig struct {
	Provider    string   `yaml:"provider"`
	APIKey      string   `yaml:"api_key"`
	BaseURL     string   `yaml:"base_url"`
	Model       string   `yaml:"model"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float32 `yaml:"temperature"` // default 0.7; 0 is valid
	TimeoutSec  int      `yaml:"timeout_sec"`
}

// QuotaConfig holds free-tier quota settings.
type QuotaConfig struct {
	Enabled        *bool         `yaml:"enabled"` // default true
	FreeLimit      int           `yaml:"free_limit"`
	Window         time.Duration `yaml:"window"`
	BypassPassword string        `yaml:"bypass_password"`
	UpgradeURL     string        `yaml:"upgrade_url"`
	SweepInterval  time.Duration `yaml:"sweep_interval"` // 0 = sweeper disabled
	SweepRetention time.Duration `yaml:"sweep_retention"`
}

// IsEnabled reports whether quota enforcement is on.
func (q QuotaConfig) IsEnabled() bool {
	return q.Enabled == nil || *q.Enabled
}

// DatabaseConfig holds usage-stats database settings. Empty driver keeps stats in memory.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // "", redis, valkey
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	expandEnvVars(&root)

	var cfg Config
	if root.Kind != 0 {
		if err := root.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
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

// LoadDotEnv loads variables from .env files into the process environment.
// Existing variables win. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
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
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	// Must outlast a full generation call.
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 45
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = "groq"
	}
	if c.Generation.BaseURL == "" {
		c.Generation.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.Generation.Model == "" {
		c.Generation.Model = "llama-3.1-8b-instant"
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 300
	}
	if c.Generation.Temperature == nil {
		t := float32(0.7)
		c.Generation.Temperature = &t
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 30
	}
	if c.Quota.FreeLimit == 0 {
		c.Quota.FreeLimit = 3
	}
	if c.Quota.Window == 0 {
		c.Quota.Window = 24 * time.Hour
	}
	if c.Quota.UpgradeURL == "" {
		c.Quota.UpgradeURL = "https://gumroad.com/l/linkedinai"
	}
	if c.Quota.SweepRetention == 0 {
		c.Quota.SweepRetention = 48 * time.Hour
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "postgen:"
	}

	// Unset ${VAR:-} entries expand to empty keys.
	keys := c.Auth.APIKeys[:0]
	for _, k := range c.Auth.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	c.Auth.APIKeys = keys
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if strings.TrimSpace(c.Generation.APIKey) == "" {
		return fmt.Errorf("generation.api_key is required (set GROQ_API_KEY)")
	}
	if t := c.Generation.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("generation.temperature must be between 0 and 2, got %g", *t)
	}
	if c.Quota.FreeLimit < 1 {
		return fmt.Errorf("quota.free_limit must be at least 1, got %d", c.Quota.FreeLimit)
	}
	if c.Quota.Window <= 0 {
		return fmt.Errorf("quota.window must be positive, got %s", c.Quota.Window)
	}
	if c.Quota.SweepInterval < 0 {
		return fmt.Errorf("quota.sweep_interval must not be negative, got %s", c.Quota.SweepInterval)
	}
	switch c.Database.Driver {
	case "":
	case "redis", "valkey":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"valkey\", got %q", c.Database.Driver)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests run from package dirs.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} inside scalar values.
// Substitution happens after parsing, so values are never read as YAML syntax.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && envVarRegex.MatchString(n.Value) {
		n.Value = expandEnv(n.Value)
		// Plain scalars re-resolve so ports, flags and durations keep their types.
		if n.Style == 0 {
			n.Tag = ""
		}
	}
	for _, c := range n.Content {
		expandEnvVars(c)
	}
}

func expandEnv(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		expr := match[2 : len(match)-1] // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return val
	})
}
