// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid config")

type (
	// Config holds the application configuration.
	Config struct {
		// InstallRoot is the directory every managed plugin lives under.
		InstallRoot string `json:"install_root" mapstructure:"install_root"`

		// GitRemoteHost supplies the host used to synthesize clone URLs
		// from "owner/repo" shorthands.
		GitRemoteHost string `json:"git_remote_host" mapstructure:"git_remote_host"`

		// MaxParallel caps concurrent fetch subprocesses. Zero means every
		// node's fetch is dispatched immediately with no cap.
		MaxParallel int `json:"max_parallel" mapstructure:"max_parallel"`

		// UI groups presentation settings.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose enables debug-level output.
		Verbose bool `json:"verbose" mapstructure:"verbose"`

		// NoColor disables styled terminal output.
		NoColor bool `json:"no_color" mapstructure:"no_color"`

		// AssumeYes answers confirmation prompts affirmatively without
		// asking, for non-interactive use.
		AssumeYes bool `json:"assume_yes" mapstructure:"assume_yes"`
	}

	// Overrides carries explicitly-set fields to merge over a base Config.
	// Nil fields leave the base value untouched, so a caller can express
	// "change only these" without restating the rest.
	Overrides struct {
		InstallRoot   *string
		GitRemoteHost *string
		MaxParallel   *int
		Verbose       *bool
		NoColor       *bool
		AssumeYes     *bool
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level problems.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// Validate reports whether the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.InstallRoot) == "" {
		errs = append(errs, fmt.Errorf("install_root: must be non-empty"))
	}
	if strings.TrimSpace(c.GitRemoteHost) == "" {
		errs = append(errs, fmt.Errorf("git_remote_host: must be non-empty"))
	} else if strings.Contains(c.GitRemoteHost, "://") {
		errs = append(errs, fmt.Errorf("git_remote_host: must be a bare host, not a URL"))
	}
	if c.MaxParallel < 0 {
		errs = append(errs, fmt.Errorf("max_parallel: must be zero or positive"))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// With returns a copy of the config with every set override applied.
func (c Config) With(ov Overrides) Config {
	if ov.InstallRoot != nil {
		c.InstallRoot = *ov.InstallRoot
	}
	if ov.GitRemoteHost != nil {
		c.GitRemoteHost = *ov.GitRemoteHost
	}
	if ov.MaxParallel != nil {
		c.MaxParallel = *ov.MaxParallel
	}
	if ov.Verbose != nil {
		c.UI.Verbose = *ov.Verbose
	}
	if ov.NoColor != nil {
		c.UI.NoColor = *ov.NoColor
	}
	if ov.AssumeYes != nil {
		c.UI.AssumeYes = *ov.AssumeYes
	}
	return c
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
