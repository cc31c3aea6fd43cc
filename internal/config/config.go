// Package config loads the caller-facing settings for a linkage run: where
// the two datasets live, how their columns map to feature extractors, and
// the embedder's shared parameters. This is distinct from
// pprl.EmbedderConfig, which is the in-memory domain object both parties
// must agree on bit-for-bit; this package is how one party's CLI front end
// reads that agreement, plus its own local settings, off disk. Grounded on
// internal/config/config.go (YAML-via-gopkg.in/yaml.v3,
// struct-tag-driven sections, a SetDefaults pass after unmarshal).
package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/auroradata-ai/pprl-core/internal/pprl"
)

// Config is the top-level shape of a linkage run's YAML settings file.
type Config struct {
	Embedder EmbedderSettings `yaml:"embedder"`
	Dataset1 DatasetSettings  `yaml:"dataset1"`
	Dataset2 DatasetSettings  `yaml:"dataset2"`
	Matching MatchingSettings `yaml:"matching"`
	Logging  LoggingSettings  `yaml:"logging"`
}

// EmbedderSettings mirrors pprl.EmbedderConfig's fields in YAML-friendly
// form; Salt is hex-encoded since it's arbitrary binary data.
type EmbedderSettings struct {
	M       uint32 `yaml:"m"`
	K       uint32 `yaml:"k"`
	SaltHex string `yaml:"salt_hex"`
}

// DatasetSettings describes where one party's dataset lives and how its
// columns map to feature extractors.
type DatasetSettings struct {
	// Source selects the internal/table adapter: "csv", "postgres".
	Source string `yaml:"source"`
	// Path is the CSV file path when Source is "csv".
	Path string `yaml:"path"`
	// DSN is the connection string when Source is "postgres".
	DSN string `yaml:"dsn"`
	// Table is the table name to read when Source is "postgres".
	Table string `yaml:"table"`
	// Columns maps column name to feature type and optional label, mirrored
	// into a pprl.ColumnSpec.
	Columns map[string]ColumnSettings `yaml:"columns"`
}

// ColumnSettings is the YAML form of pprl.ColumnFeature.
type ColumnSettings struct {
	Type  string `yaml:"type"`
	Label string `yaml:"label"`
}

// ToColumnSpec converts the YAML column map to the pprl.ColumnSpec the
// Embedder expects.
func (d DatasetSettings) ToColumnSpec() pprl.ColumnSpec {
	spec := make(pprl.ColumnSpec, len(d.Columns))
	for name, col := range d.Columns {
		spec[name] = pprl.ColumnFeature{Type: col.Type, Label: col.Label}
	}
	return spec
}

// MatchingSettings configures the eligibility filter passed to pprl.Match.
type MatchingSettings struct {
	AbsCutoff         *float64 `yaml:"abs_cutoff"`
	RequireThresholds bool     `yaml:"require_thresholds"`
}

// ToMatchOptions converts settings to a pprl.MatchOptions.
func (m MatchingSettings) ToMatchOptions() pprl.MatchOptions {
	return pprl.MatchOptions{AbsCutoff: m.AbsCutoff, RequireThresholds: m.RequireThresholds}
}

// LoggingSettings controls the demo CLI's logger.
type LoggingSettings struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // empty means stderr
}

// SetDefaults fills in reasonable values for fields left zero in the YAML
// file.
func (c *Config) SetDefaults() {
	if c.Embedder.M == 0 {
		c.Embedder.M = 4096
	}
	if c.Embedder.K == 0 {
		c.Embedder.K = 20
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the settings a caller must supply explicitly (those
// SetDefaults can't safely fill in).
func (c *Config) Validate() error {
	if len(c.Dataset1.Columns) == 0 {
		return fmt.Errorf("config: dataset1 must declare at least one column")
	}
	if len(c.Dataset2.Columns) == 0 {
		return fmt.Errorf("config: dataset2 must declare at least one column")
	}
	for _, ds := range []DatasetSettings{c.Dataset1, c.Dataset2} {
		switch ds.Source {
		case "csv":
			if ds.Path == "" {
				return fmt.Errorf("config: csv dataset requires a path")
			}
		case "postgres":
			if ds.DSN == "" || ds.Table == "" {
				return fmt.Errorf("config: postgres dataset requires dsn and table")
			}
		default:
			return fmt.Errorf("config: unknown dataset source %q", ds.Source)
		}
	}
	return nil
}

// Load reads and parses path, applying defaults and validating the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaltBytes decodes the hex-encoded salt, returning nil if none was set.
func (e EmbedderSettings) SaltBytes() ([]byte, error) {
	if e.SaltHex == "" {
		return nil, nil
	}
	return hex.DecodeString(e.SaltHex)
}
