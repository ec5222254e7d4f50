// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for plugman.
//
// This package implements the Cobra command hierarchy for the plugman CLI:
// the root command, the reconciliation subcommands (install, upgrade, clean,
// status), and the selfupdate command. Commands share one app construction
// path that loads configuration, discovers and parses the plugfile, and
// wires the reconciliation engine.
package cmd
