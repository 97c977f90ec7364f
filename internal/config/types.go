// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/revops/ot/internal/runtime"
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidStorageDir is returned when storage_dir is empty or whitespace-only.
	ErrInvalidStorageDir = errors.New("invalid storage directory")
	// ErrInvalidTimeout is returned when exec.timeout is negative.
	ErrInvalidTimeout = errors.New("invalid exec timeout")
	// ErrInvalidHeaderLimit is returned when decode.max_header_bytes is out of range.
	ErrInvalidHeaderLimit = errors.New("invalid header limit")
)

const (
	minHeaderBytes = 16
	maxHeaderBytes = 16 << 20
)

type (
	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// RegistryPath points at a registry document; empty selects the built-in registry.
		RegistryPath string `json:"registry_path" mapstructure:"registry_path"`
		// StorageDir is the content-addressed storage directory.
		StorageDir string `json:"storage_dir" mapstructure:"storage_dir"`
		// Runtime selects the command runner.
		Runtime runtime.Mode `json:"runtime" mapstructure:"runtime"`
		// Shell overrides the native runtime's shell.
		Shell string `json:"shell" mapstructure:"shell"`
		// Exec configures command execution.
		Exec ExecConfig `json:"exec" mapstructure:"exec"`
		// Decode configures record decoding.
		Decode DecodeConfig `json:"decode" mapstructure:"decode"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`

		// Source is the config file the values were read from, empty for defaults.
		Source string `json:"-" mapstructure:"-"`
	}

	// ExecConfig configures command execution.
	ExecConfig struct {
		// Timeout bounds each command; zero disables the deadline.
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	}

	// DecodeConfig configures record decoding.
	DecodeConfig struct {
		MaxHeaderBytes int `json:"max_header_bytes" mapstructure:"max_header_bytes"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig so callers can use errors.Is for programmatic detection.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StorageDir: "~/.ot",
		Runtime:    runtime.ModeNative,
		Decode: DecodeConfig{
			MaxHeaderBytes: 64 * 1024,
		},
	}
}

// Validate checks every field and returns an *InvalidConfigError listing
// all problems, or nil.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.StorageDir) == "" {
		errs = append(errs, fmt.Errorf("storage_dir: %w", ErrInvalidStorageDir))
	}
	if err := c.Runtime.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", err))
	}
	if c.Exec.Timeout < 0 {
		errs = append(errs, fmt.Errorf("exec.timeout %s: %w", c.Exec.Timeout, ErrInvalidTimeout))
	}
	if c.Decode.MaxHeaderBytes < minHeaderBytes || c.Decode.MaxHeaderBytes > maxHeaderBytes {
		errs = append(errs, fmt.Errorf("decode.max_header_bytes %d (want %d..%d): %w",
			c.Decode.MaxHeaderBytes, minHeaderBytes, maxHeaderBytes, ErrInvalidHeaderLimit))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}
