// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/plugman/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/plugman/config.cue on macOS, %APPDATA%\plugman\config.cue
// on Windows). The package provides type-safe configuration access covering the plugin
// install root, the git remote host used for shorthand sources, fetch concurrency, and
// UI settings, with PLUGMAN_* environment variables layered on top.
//
// Configuration validation is performed against a CUE schema (config_schema.cue) to ensure
// type safety and provide clear error messages for invalid configurations.
package config
