// SPDX-License-Identifier: MPL-2.0

// Package plugspec defines the declarative package specification tree that
// drives reconciliation.
//
// A Spec describes one plugin: where its files come from (a Git remote or a
// local directory), what the local install directory should be called, an
// optional branch pin, and nested dependency Specs owned exclusively by their
// parent. Trees are supplied fresh on every reconciliation pass and are never
// mutated by traversal.
package plugspec

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSpec is the sentinel error wrapped by InvalidSpecError.
var ErrInvalidSpec = errors.New("invalid package spec")

type (
	// Hook is a lifecycle callback attached to a Spec. Hook errors are
	// reported and discarded; they never alter a node's fetch outcome.
	Hook func(ctx context.Context) error

	// Spec is one node of a declared package tree.
	Spec struct {
		// Source locates the package: an "owner/repo" shorthand, a full
		// Git URL (https:// or git@ form), or a local directory path.
		Source string

		// Alias overrides the install directory name derived from Source.
		Alias string

		// Branch pins the Git ref cloned on install. Ignored for local
		// directory sources and for upgrades of existing clones.
		Branch string

		// Deps are this node's dependency specs, owned exclusively by the
		// node. They are installed and upgraded alongside it.
		Deps []Spec

		// PostCheckout runs after this node's files change on disk
		// (Installed or Updated outcomes only).
		PostCheckout Hook

		// Configure runs once when the tree is registered, independent of
		// any fetch outcome.
		Configure Hook
	}

	// InvalidSpecError is returned when a Spec cannot be acted on.
	InvalidSpecError struct {
		// Name identifies the offending node as well as it can be
		// identified: the alias, the source, or "(unnamed)".
		Name string

		// Reason says what is wrong with the node.
		Reason string
	}
)

// Validate reports whether the node is well-formed enough to act on. A
// failing node is skipped by the reconciler, never fatal to the whole run.
func (s *Spec) Validate() error {
	if strings.TrimSpace(s.Source) == "" {
		return &InvalidSpecError{Name: s.describe(), Reason: "source must be a non-empty string"}
	}
	return nil
}

// describe returns the best available identifier for error messages.
func (s *Spec) describe() string {
	if s.Alias != "" {
		return s.Alias
	}
	if strings.TrimSpace(s.Source) != "" {
		return s.Source
	}
	return "(unnamed)"
}

// String returns a compact human-readable form of the node.
func (s *Spec) String() string {
	var b strings.Builder
	b.WriteString(s.Source)
	if s.Branch != "" {
		b.WriteString("@" + s.Branch)
	}
	if s.Alias != "" {
		b.WriteString(" (as " + s.Alias + ")")
	}
	return b.String()
}

// Error implements the error interface for InvalidSpecError.
func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid package spec %q: %s", e.Name, e.Reason)
}

// Unwrap returns ErrInvalidSpec for errors.Is() compatibility.
func (e *InvalidSpecError) Unwrap() error { return ErrInvalidSpec }
