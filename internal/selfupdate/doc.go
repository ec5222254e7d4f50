// SPDX-License-Identifier: MPL-2.0

// Package selfupdate replaces the running plugman binary with a newer
// release build.
//
// The flow is split across four files:
//   - client.go: GitHub releases API client (latest, by-tag, asset download)
//   - detect.go: install method detection (script, Homebrew, go install)
//   - digest.go: sha256 checksum parsing and file verification
//   - updater.go: Updater, which composes them into check and apply steps
//
// Managed installs (Homebrew, go install) are never replaced in place; the
// check step reports the package manager command to run instead.
package selfupdate
