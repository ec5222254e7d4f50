// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"plugman-cli/internal/engine"
	"plugman-cli/internal/fetch"
)

// renderSummary writes one line per dispatched node, indented by tree
// depth, followed by a totals line. Invalid specs were already warned
// about during the pass; only their count appears here.
func renderSummary(w io.Writer, sum engine.Summary) {
	for _, res := range sum.Results {
		indent := strings.Repeat("  ", res.Depth)
		switch res.Outcome.Kind {
		case fetch.Installed, fetch.Updated:
			fmt.Fprintf(w, "%s%s %s %s\n", indent, iconOK, res.Name, SubtitleStyle.Render(res.Outcome.String()))
		case fetch.Failed:
			fmt.Fprintf(w, "%s%s %s %s\n", indent, iconFail, res.Name, ErrorStyle.Render(res.Outcome.String()))
		default:
			fmt.Fprintf(w, "%s%s %s %s\n", indent, iconNeutral, res.Name, SubtitleStyle.Render(res.Outcome.String()))
		}
	}

	fmt.Fprintf(w, "\n%d installed, %d updated, %d unchanged, %d skipped, %d failed\n",
		sum.Count(fetch.Installed),
		sum.Count(fetch.Updated),
		sum.Count(fetch.Unchanged),
		sum.Count(fetch.Skipped),
		sum.Count(fetch.Failed))

	if sum.Invalid > 0 {
		fmt.Fprintln(w, WarningStyle.Render(fmt.Sprintf("%d invalid package spec(s) skipped", sum.Invalid)))
	}
}

// renderCleanResult writes what a clean pass did: nothing to do, aborted
// with the untouched candidates, or the per-directory removals and totals.
func renderCleanResult(w io.Writer, result engine.CleanResult) {
	if len(result.Candidates) == 0 {
		fmt.Fprintln(w, SuccessStyle.Render("Nothing to remove.")+SubtitleStyle.Render(" The install root matches the declared tree."))
		return
	}

	if result.Aborted {
		fmt.Fprintln(w, WarningStyle.Render("Clean aborted; nothing was removed."))
		for _, name := range result.Candidates {
			fmt.Fprintf(w, "  %s %s\n", iconNeutral, name)
		}
		return
	}

	for _, name := range result.Removed {
		fmt.Fprintf(w, "%s %s %s\n", iconOK, name, SubtitleStyle.Render("removed"))
	}
	fmt.Fprintf(w, "\n%d removed, %d failed\n", len(result.Removed), result.FailedRemovals)
}
