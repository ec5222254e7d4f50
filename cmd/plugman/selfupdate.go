// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"plugman-cli/internal/issue"
	"plugman-cli/internal/selfupdate"
	"plugman-cli/internal/tui"
)

// selfupdateParams bundles the dependencies and flags for the selfupdate
// command, enabling the core logic in runSelfupdate to be tested without a
// real Cobra command or live GitHub API calls.
type selfupdateParams struct {
	stdout  io.Writer
	stderr  io.Writer
	updater *selfupdate.Updater
	target  string // target version (empty = latest)
	check   bool   // --check mode: report availability without installing
	yes     bool   // skip confirmation prompt
}

// newSelfupdateCommand creates the `plugman selfupdate` command, which
// updates the binary to the latest stable release or a specific version
// from GitHub Releases.
func newSelfupdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selfupdate [version]",
		Short: "Update plugman to the latest stable release or a specific version",
		Long: `Update plugman to the latest stable release or a specific version.

The selfupdate command downloads the new binary from GitHub Releases,
verifies its SHA256 checksum, and replaces the current binary with the
previous one kept as a fallback until the swap succeeds.

If plugman was installed via Homebrew or go install, the command suggests
using the appropriate package manager instead.`,
		Example: `  # Update to latest stable
  plugman selfupdate

  # Check for updates without installing
  plugman selfupdate --check

  # Update to a specific version
  plugman selfupdate v1.2.0

  # Skip confirmation prompt
  plugman selfupdate --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			checkFlag, _ := cmd.Flags().GetBool("check")

			var target string
			if len(args) > 0 {
				target = args[0]
			}

			// Build GitHub client options, adding a token if available
			// for higher rate limits (5000/hour vs 60/hour unauthenticated).
			var clientOpts []selfupdate.ClientOption
			if token := os.Getenv("GITHUB_TOKEN"); token != "" {
				clientOpts = append(clientOpts, selfupdate.WithToken(token))
			}
			clientOpts = append(clientOpts, selfupdate.WithUserAgent("plugman/"+Version))

			updater := selfupdate.NewUpdater(Version, selfupdate.NewReleaseClient(clientOpts...))

			p := selfupdateParams{
				stdout:  cmd.OutOrStdout(),
				stderr:  cmd.ErrOrStderr(),
				updater: updater,
				target:  target,
				check:   checkFlag,
				yes:     assumeYes,
			}

			if err := runSelfupdate(cmd.Context(), p); err != nil {
				fmt.Fprintln(p.stderr, formatSelfupdateError(err))
				return &ExitError{Code: classifySelfupdateExitCode(err), Err: err}
			}

			return nil
		},
	}

	cmd.Flags().Bool("check", false, "Check for an available update without installing")

	return cmd
}

// runSelfupdate is the core update logic, separated from Cobra for
// testability. All user-facing output goes through p.stdout and p.stderr.
//
// Flow:
//  1. Check for an available update via the GitHub API.
//  2. If the install is managed (Homebrew/go install), print guidance and return.
//  3. If already up-to-date, print status and return.
//  4. If --check, print availability and return.
//  5. Otherwise, confirm with the user (unless --yes), download, verify, and replace.
func runSelfupdate(ctx context.Context, p selfupdateParams) error {
	check, err := p.updater.Check(ctx, p.target)
	if err != nil {
		return fmt.Errorf("checking for update: %w", err)
	}

	// Managed installs (Homebrew, go install) should use their respective
	// package managers. The Check method returns a pre-formatted message.
	if check.Method.Managed() {
		fmt.Fprintln(p.stdout, check.Message)
		return nil
	}

	// No update available: already up-to-date or running a pre-release
	// ahead of the latest stable version.
	if !check.Available {
		fmt.Fprintf(p.stdout, "Current version: %s\n", check.Current)
		if check.Latest != "" {
			fmt.Fprintf(p.stdout, "Latest version:  %s\n", check.Latest)
		}
		fmt.Fprintf(p.stdout, "\n%s\n", check.Message)
		return nil
	}

	// Update available, check-only mode: report and exit without installing.
	if p.check {
		fmt.Fprintf(p.stdout, "Current version: %s\n", check.Current)
		fmt.Fprintf(p.stdout, "Latest version:  %s\n", check.Latest)
		fmt.Fprintf(p.stdout, "\nAn update is available: %s → %s\n", check.Current, check.Latest)
		fmt.Fprintln(p.stdout, "Run 'plugman selfupdate' to install.")
		return nil
	}

	// Update available, apply mode: confirm, download, verify, and replace.
	fmt.Fprintf(p.stdout, "Current version: %s\n", check.Current)
	fmt.Fprintf(p.stdout, "Latest version:  %s\n", check.Latest)

	if !p.yes {
		confirmed, confirmErr := tui.Confirm(tui.ConfirmOptions{
			Title:       fmt.Sprintf("Update plugman from %s to %s?", check.Current, check.Latest),
			Affirmative: "Yes",
			Negative:    "No",
		})
		if confirmErr != nil {
			if errors.Is(confirmErr, tui.ErrCancelled) {
				return nil
			}
			return fmt.Errorf("confirmation prompt: %w", confirmErr)
		}
		if !confirmed {
			return nil
		}
	}

	fmt.Fprintf(p.stdout, "\nDownloading plugman %s...\n", check.Latest)

	if err := p.updater.Apply(ctx, check.Target); err != nil {
		return fmt.Errorf("applying update: %w", err)
	}

	fmt.Fprintln(p.stdout, "Verifying checksum... OK")
	fmt.Fprintln(p.stdout, "Replacing binary...  OK")
	fmt.Fprintln(p.stdout, SuccessStyle.Render(fmt.Sprintf("Successfully updated to %s", check.Latest)))

	return nil
}

// classifySelfupdateExitCode maps an update error to the appropriate process
// exit code. Permission errors, missing releases, and malformed target
// versions use exit code 1 (user-correctable); all other failures use exit
// code 2 (unexpected/transient).
func classifySelfupdateExitCode(err error) int {
	switch {
	case errors.Is(err, os.ErrPermission):
		return 1
	case errors.Is(err, selfupdate.ErrNoRelease):
		return 1
	case errors.Is(err, selfupdate.ErrBadVersion):
		return 1
	default:
		return 2
	}
}

// formatSelfupdateError produces a user-friendly error message with
// actionable remediation guidance tailored to the specific error type.
func formatSelfupdateError(err error) string {
	var rateLimitErr *selfupdate.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fmt.Sprintf("%s\n\nTo increase your rate limit, set a GitHub token:\n  export GITHUB_TOKEN=ghp_...\nThen retry: plugman selfupdate",
			rateLimitErr.Error())
	}

	var sumErr *selfupdate.SumMismatchError
	if errors.As(err, &sumErr) {
		return fmt.Sprintf("%s\n\nThe download may be corrupted. Please try again.\nIf this persists, report at https://github.com/plugman/plugman/issues",
			sumErr.Error())
	}

	if errors.Is(err, os.ErrPermission) {
		return "insufficient permissions to replace the binary\n\nTry running with elevated privileges:\n  sudo plugman selfupdate"
	}

	if card := issue.Get(issue.SelfUpdateFailedId); card != nil {
		if rendered, renderErr := card.Render("dark"); renderErr == nil {
			return fmt.Sprintf("%s\n%s", err.Error(), rendered)
		}
	}
	return fmt.Sprintf("%s\n\nCheck your network connection and try again.\nIf behind a firewall, set GITHUB_TOKEN for authenticated access.", err.Error())
}
