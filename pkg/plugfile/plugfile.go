// SPDX-License-Identifier: MPL-2.0

// Package plugfile loads the declarative package manifest.
//
// A plugfile names the packages a user wants installed, as a tree: each entry
// carries a source plus optional alias, branch pin, lifecycle hook scripts,
// and nested dependencies. Two formats are supported: CUE (validated against
// the embedded schema) and TOML. In both, an entry may be a bare source
// string instead of a full table; bare strings normalize to a package with
// only a source set.
package plugfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// EnvPlugfile names the environment variable that overrides manifest
	// discovery with an explicit path.
	EnvPlugfile = "PLUGMAN_PLUGFILE"

	// CUEFileName is the preferred manifest file name.
	CUEFileName = "plugfile.cue"

	// TOMLFileName is the alternate manifest file name.
	TOMLFileName = "plugfile.toml"
)

// ErrNotFound is returned by Discover when no manifest exists anywhere on
// the search path.
var ErrNotFound = errors.New("no plugfile found")

type (
	// Manifest is a parsed plugfile.
	Manifest struct {
		// InstallRoot optionally overrides the configured install root.
		InstallRoot string

		// Packages is the declared package tree, roots in declared order.
		Packages []Package

		// FilePath is where the manifest was loaded from.
		FilePath string
	}

	// Package is one manifest entry. Hook fields hold shell script sources;
	// turning them into runnable callbacks is the caller's concern.
	Package struct {
		// Source locates the package: "owner/repo", a Git URL, or a local
		// directory path.
		Source string

		// Alias overrides the derived install directory name.
		Alias string

		// Branch pins the Git ref cloned on install.
		Branch string

		// PostCheckout is a shell script run after the package's files
		// change on disk.
		PostCheckout string

		// Configure is a shell script run once when the tree is registered.
		Configure string

		// Dependencies are nested entries installed alongside this one.
		Dependencies []Package
	}
)

// Discover resolves which manifest to load. The search order is: the
// explicit path (when non-empty), $PLUGMAN_PLUGFILE, plugfile.cue then
// plugfile.toml in the current directory, and finally the same pair under
// configDir. An explicit or environment path that does not exist is an
// error rather than a fallthrough, so a typo never silently loads a
// different manifest.
func Discover(explicitPath, configDir string) (string, error) {
	if explicitPath != "" {
		if !fileExists(explicitPath) {
			return "", fmt.Errorf("plugfile %s does not exist: %w", explicitPath, ErrNotFound)
		}
		return explicitPath, nil
	}

	if envPath := os.Getenv(EnvPlugfile); envPath != "" {
		if !fileExists(envPath) {
			return "", fmt.Errorf("%s points at %s, which does not exist: %w", EnvPlugfile, envPath, ErrNotFound)
		}
		return envPath, nil
	}

	candidates := []string{CUEFileName, TOMLFileName}
	if configDir != "" {
		candidates = append(candidates,
			filepath.Join(configDir, CUEFileName),
			filepath.Join(configDir, TOMLFileName))
	}
	for _, candidate := range candidates {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", ErrNotFound
}

// Load reads and parses the manifest at path, picking the format from the
// file extension: ".toml" is TOML, everything else is CUE.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plugfile %s: %w", path, err)
	}

	if filepath.Ext(path) == ".toml" {
		return ParseTOML(data, path)
	}
	return Parse(data, path)
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
