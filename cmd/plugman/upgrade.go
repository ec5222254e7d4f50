// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"plugman-cli/internal/fetch"
	"plugman-cli/internal/issue"

	"github.com/spf13/cobra"
)

// upgradeCmd brings every installed package up to date.
var upgradeCmd = &cobra.Command{
	Use:     "upgrade",
	Aliases: []string{"update"},
	Short:   "Bring every installed package up to date",
	Long: `Bring every installed package up to date.

Each installed package is fast-forwarded to its remote's current state;
packages that were never installed are skipped (run 'plugman install'
first). Local directory packages are re-copied from their source. After
anything changed on disk, help indexes are regenerated once.`,
	Args: cobra.NoArgs,
	RunE: runUpgrade,
}

func runUpgrade(cmd *cobra.Command, _ []string) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	if err := checkGitAvailable(); err != nil {
		printIssue(cmd.ErrOrStderr(), issue.GitNotFoundId)
		return &ExitError{Code: 1, Err: err}
	}

	a, err := newApp(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		reportCommandError(cmd.ErrOrStderr(), err)
		return &ExitError{Code: 1, Err: err}
	}

	sum := a.mgr.Upgrade(cmd.Context())
	renderSummary(cmd.OutOrStdout(), sum)

	if sum.HasFailures() {
		printIssue(cmd.ErrOrStderr(), issue.PackageFetchFailedId)
		return &ExitError{Code: 1, Err: fmt.Errorf("%d package(s) failed", sum.Count(fetch.Failed))}
	}
	return nil
}
