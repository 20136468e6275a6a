package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level chequera.yaml configuration.
type Config struct {
	Business BusinessConfig `yaml:"business"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Matching MatchingConfig `yaml:"matching"`
	Git      GitConfig      `yaml:"git"`
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name  string `yaml:"name"`
	TaxID string `yaml:"tax_id,omitempty"`
}

// LedgerConfig controls balance policy.
type LedgerConfig struct {
	Currency string `yaml:"currency"`
	// AllowOverdraft turns the insufficient-funds block on issuance into a
	// warning: the debit is applied and the balance may go negative.
	AllowOverdraft bool `yaml:"allow_overdraft"`
}

// MatchingConfig controls heuristic reconciliation matching.
type MatchingConfig struct {
	// DateBufferDays is the tolerance window for amount+date matches.
	DateBufferDays int `yaml:"date_buffer_days"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a chequera.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Matching.DateBufferDays < 0 {
		return nil, fmt.Errorf("matching.date_buffer_days must not be negative")
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new book.
func Default(businessName, currency string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name: businessName,
		},
		Ledger: LedgerConfig{
			Currency:       currency,
			AllowOverdraft: false,
		},
		Matching: MatchingConfig{
			DateBufferDays: 2,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Chequera",
			AuthorEmail: "book@chequera.dev",
		},
	}
}
