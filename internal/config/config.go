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

// Config holds the searchable server configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Backend  BackendConfig  `yaml:"backend"`
	Database DatabaseConfig `yaml:"database"`
	Bulk     BulkConfig     `yaml:"bulk"`
	Search   SearchConfig   `yaml:"search"`
	Types    []TypeConfig   `yaml:"types"`
	Logging  LoggingConfig  `yaml:"logging"`
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

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"` // empty disables auth
}

// Search backend drivers.
const (
	DriverElastic = "elastic"
	DriverBleve   = "bleve"
)

// BackendConfig selects and configures the search backend.
type BackendConfig struct {
	Driver  string        `yaml:"driver"` // elastic, bleve (default: bleve)
	Elastic ElasticConfig `yaml:"elastic"`
	Bleve   BleveConfig   `yaml:"bleve"`
}

// ElasticConfig holds Elasticsearch connection and bulk settings.
type ElasticConfig struct {
	Addresses     []string `yaml:"addresses"`
	Username      string   `yaml:"username"`
	Password      string   `yaml:"password"`
	APIKey        string   `yaml:"api_key"`
	CloudID       string   `yaml:"cloud_id"`
	Refresh       string   `yaml:"refresh"` // "", true, wait_for
	BulkWorkers   int      `yaml:"bulk_workers"`
	FlushBytes    int      `yaml:"flush_bytes"`
	FlushInterval int      `yaml:"flush_interval_sec"`
}

// BleveConfig holds in-process index settings.
type BleveConfig struct {
	Path string `yaml:"path"` // empty keeps indices in memory
}

// DatabaseConfig holds the Redis persistence store settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// BulkConfig holds bulk indexing settings.
type BulkConfig struct {
	MaxBulkRequest int `yaml:"max_bulk_request"`
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	DefaultSize int    `yaml:"default_size"`
	GeoField    string `yaml:"geo_field"`
}

// TypeConfig binds a document type to a search index.
type TypeConfig struct {
	Type    string `yaml:"type"`
	Index   string `yaml:"index"`
	DocType string `yaml:"doc_type"` // default: type
	Root    *bool  `yaml:"root"`     // default: true
}

// IsRoot reports whether the type is sent to the backend.
func (t TypeConfig) IsRoot() bool {
	return t.Root == nil || *t.Root
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Backend.Driver == "" {
		c.Backend.Driver = DriverBleve
	}
	if c.Backend.Elastic.BulkWorkers <= 0 {
		c.Backend.Elastic.BulkWorkers = 2
	}
	if c.Backend.Elastic.FlushBytes <= 0 {
		c.Backend.Elastic.FlushBytes = 5 << 20
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "searchable"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Bulk.MaxBulkRequest <= 0 {
		c.Bulk.MaxBulkRequest = 500
	}
	if c.Search.DefaultSize <= 0 {
		c.Search.DefaultSize = 60
	}
	if c.Search.GeoField == "" {
		c.Search.GeoField = "location"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Backend.Driver {
	case DriverBleve:
	case DriverElastic:
		if len(c.Backend.Elastic.Addresses) == 0 && c.Backend.Elastic.CloudID == "" {
			return errors.New("backend.elastic.addresses or backend.elastic.cloud_id is required")
		}
	default:
		return fmt.Errorf("backend.driver must be %q or %q, got %q", DriverElastic, DriverBleve, c.Backend.Driver)
	}
	switch c.Backend.Elastic.Refresh {
	case "", "true", "false", "wait_for":
	default:
		return fmt.Errorf("backend.elastic.refresh must be \"true\", \"false\" or \"wait_for\", got %q",
			c.Backend.Elastic.Refresh)
	}

	seen := make(map[string]bool, len(c.Types))
	for i, t := range c.Types {
		if t.Type == "" {
			return fmt.Errorf("types[%d].type is required", i)
		}
		if t.Index == "" {
			return fmt.Errorf("types.%s.index is required", t.Type)
		}
		if seen[t.Type] {
			return fmt.Errorf("types.%s is declared twice", t.Type)
		}
		seen[t.Type] = true
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
