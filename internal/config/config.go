// Package config defines the runtime configuration and its validation.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config holds the resolved command-line configuration.
type Config struct {
	// Common flags
	Passphrase         string `mapstructure:"passphrase"      validate:"excluded_with=PassphraseFile"`
	PassphraseFile     string `mapstructure:"passphrase-file"`
	Parallel           int    `validate:"min=1"`
	Quiet              bool
	Stats              bool
	Delete             bool
	Dry                bool
	PreserveTimestamps bool   `mapstructure:"preserve-timestamps"`
	EncryptSuffix      string `mapstructure:"encrypt-ext"         validate:"required"`
	DecryptSuffix      string `mapstructure:"decrypt-ext"`

	// Filtering flags
	Include     []string
	Exclude     []string
	IncludeFrom string `mapstructure:"include-from"`
	ExcludeFrom string `mapstructure:"exclude-from"`

	// Command-specific flags
	Iterations int `validate:"omitempty,min=10000"`
	Decrypt    bool
	Inspect    bool

	// Positional arguments
	Files []string `validate:"min=1"`
}

// Display reports whether the configuration should be printed instead of run.
func (c *Config) Display() bool {
	return false
}

// Validate validates the configuration against the struct tags.
func (c *Config) Validate(_ any) error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}

	return nil
}
