// SPDX-License-Identifier: MPL-2.0

package fetch

import "fmt"

type (
	// Kind classifies what a fetch did to an install path.
	Kind string

	// Outcome is the terminal state of one package's fetch. Failure lives
	// here rather than in an error return so that one bad node never stops
	// the rest of a reconciliation pass.
	Outcome struct {
		// Kind is the terminal classification.
		Kind Kind

		// Reason explains a Skipped outcome.
		Reason string

		// Err carries the cause of a Failed outcome.
		Err error
	}
)

const (
	// Installed means the package was materialized for the first time.
	Installed Kind = "installed"

	// Updated means an existing install was brought up to date and changed.
	Updated Kind = "updated"

	// Unchanged means no work was needed: the install already existed
	// (install mode) or the remote had nothing new (upgrade mode).
	Unchanged Kind = "unchanged"

	// Skipped means the operation did not apply to the node, e.g. upgrading
	// a package that was never installed.
	Skipped Kind = "skipped"

	// Failed means the fetch was attempted and did not succeed.
	Failed Kind = "failed"
)

// Mutated reports whether the fetch changed files on disk, which is what
// gates post-checkout hooks and the end-of-run re-index.
func (o Outcome) Mutated() bool {
	return o.Kind == Installed || o.Kind == Updated
}

// String renders the outcome for human-readable reports.
func (o Outcome) String() string {
	switch o.Kind {
	case Skipped:
		return fmt.Sprintf("%s (%s)", string(o.Kind), o.Reason)
	case Failed:
		return fmt.Sprintf("%s: %v", string(o.Kind), o.Err)
	default:
		return string(o.Kind)
	}
}

// skip builds a Skipped outcome with the given reason.
func skip(reason string) Outcome {
	return Outcome{Kind: Skipped, Reason: reason}
}

// fail builds a Failed outcome with the given cause.
func fail(err error) Outcome {
	return Outcome{Kind: Failed, Err: err}
}
