package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the process-wide configuration, loaded and validated once at
// startup. All components receive typed fields from here; there are no
// string-keyed lookups at call sites.
type Config struct {
	Databases DatabasesConfig `yaml:"databases" validate:"required"`
	Traversal TraversalConfig `yaml:"traversal"`
	Sanctions SanctionsConfig `yaml:"sanctions"`
	Server    ServerConfig    `yaml:"server"`
	LogLevel  string          `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DatabasesConfig points at the read-only snapshot databases produced by the
// offline ETL. The links and sanctions paths may be empty, disabling the
// corresponding component.
type DatabasesConfig struct {
	Registry  string `yaml:"registry" validate:"required"`
	Links     string `yaml:"links"`
	Sanctions string `yaml:"sanctions"`
}

// TraversalConfig is the traversal budget and concurrency envelope. Clients
// may request fewer layers than MaxLayers, never more.
type TraversalConfig struct {
	MaxLayers          int    `yaml:"max_layers" validate:"min=0,max=100"`
	MaxRecordsPerLayer int    `yaml:"max_records_per_layer" validate:"min=0"`
	MaxQuerySeconds    int    `yaml:"max_query_seconds" validate:"min=0"`
	BranchBridging     bool   `yaml:"branch_bridging"`
	Workers            int    `yaml:"workers" validate:"min=0,max=1024"`
	Lock               string `yaml:"lock" validate:"omitempty,oneof=mutex none"`
}

// Deadline converts the wall-clock budget to a duration.
func (t TraversalConfig) Deadline() time.Duration {
	return time.Duration(t.MaxQuerySeconds) * time.Second
}

// SanctionsConfig defines the independent watch-list sources. Each source is
// one table in the sanctions database; the default set matches the reference
// dataset (cnep, ceis, correcionais).
type SanctionsConfig struct {
	MaxPayloadLen int            `yaml:"max_payload_len" validate:"min=0"`
	Sources       []SourceConfig `yaml:"sources" validate:"dive"`
}

// SourceConfig describes one sanction source relation.
type SourceConfig struct {
	Name     string `yaml:"name" validate:"required,alphanum"`
	Table    string `yaml:"table" validate:"required"`
	IDColumn string `yaml:"id_column" validate:"required"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port         int   `yaml:"port" validate:"min=0,max=65535"`
	MaxBodyBytes int64 `yaml:"max_body_bytes" validate:"min=0"`
}

// Defaults, applied before validation for any zero-valued field.
const (
	DefaultMaxLayers          = 10
	DefaultMaxRecordsPerLayer = 1000
	DefaultMaxQuerySeconds    = 10
	DefaultWorkers            = 8
	DefaultMaxPayloadLen      = 500
	DefaultPort               = 5000
	DefaultMaxBodyBytes       = 1 << 20
)

// DefaultSources returns the reference watch-list sources.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{Name: "cnep", Table: "cnep", IDColumn: "cnpj"},
		{Name: "ceis", Table: "ceis", IDColumn: "cnpj"},
		{Name: "correcional", Table: "correcionais", IDColumn: "cpf"},
	}
}

// Load reads, defaults, and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML config bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Traversal.MaxLayers == 0 {
		c.Traversal.MaxLayers = DefaultMaxLayers
	}
	if c.Traversal.MaxRecordsPerLayer == 0 {
		c.Traversal.MaxRecordsPerLayer = DefaultMaxRecordsPerLayer
	}
	if c.Traversal.MaxQuerySeconds == 0 {
		c.Traversal.MaxQuerySeconds = DefaultMaxQuerySeconds
	}
	if c.Traversal.Workers == 0 {
		c.Traversal.Workers = DefaultWorkers
	}
	if c.Traversal.Lock == "" {
		c.Traversal.Lock = "mutex"
	}
	if c.Sanctions.MaxPayloadLen == 0 {
		c.Sanctions.MaxPayloadLen = DefaultMaxPayloadLen
	}
	if len(c.Sanctions.Sources) == 0 {
		c.Sanctions.Sources = DefaultSources()
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

var validate = validator.New()

// Validate checks the structural constraints once, at startup.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	seen := make(map[string]struct{}, len(c.Sanctions.Sources))
	for _, src := range c.Sanctions.Sources {
		if _, dup := seen[src.Name]; dup {
			return fmt.Errorf("invalid config: duplicate sanction source %q", src.Name)
		}
		seen[src.Name] = struct{}{}
	}
	return nil
}
