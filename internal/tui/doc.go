// SPDX-License-Identifier: MPL-2.0

// Package tui provides terminal UI components built on Charm libraries.
//
// This package implements the interactive prompts plugman uses (currently the
// yes/no confirmation shown before destructive operations) as Bubble Tea
// models, with a plain stdin fallback for runs without a terminal.
package tui
