// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os/exec"

	"plugman-cli/internal/config"
	"plugman-cli/internal/fetch"
	"plugman-cli/internal/issue"

	"github.com/spf13/cobra"
)

// installCmd materializes the declared package tree under the install root.
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Materialize every declared package under the install root",
	Long: `Materialize every declared package under the install root.

Remote packages are cloned with git, local directory packages are
copied, and packages already present are left untouched. Fetches run
concurrently; one failing package never blocks the rest of the tree.
After anything changed on disk, help indexes are regenerated once.`,
	Example: `  # Install everything the plugfile declares
  plugman install

  # Install using an explicit plugfile
  plugman install --plugfile ./plugfile.cue`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func runInstall(cmd *cobra.Command, _ []string) error {
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

	cfg := a.mgr.Config()
	if err := config.EnsureInstallRoot(&cfg); err != nil {
		printIssue(cmd.ErrOrStderr(), issue.InstallRootNotWritableId)
		reportCommandError(cmd.ErrOrStderr(), err)
		return &ExitError{Code: 1, Err: err}
	}

	sum := a.mgr.Install(cmd.Context())
	renderSummary(cmd.OutOrStdout(), sum)

	if sum.HasFailures() {
		printIssue(cmd.ErrOrStderr(), issue.PackageFetchFailedId)
		return &ExitError{Code: 1, Err: fmt.Errorf("%d package(s) failed", sum.Count(fetch.Failed))}
	}
	return nil
}

// checkGitAvailable verifies the git binary is on PATH before any fetch is
// attempted, so the failure is reported once instead of per package.
func checkGitAvailable() error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("git not found in PATH: %w", err)
	}
	return nil
}
