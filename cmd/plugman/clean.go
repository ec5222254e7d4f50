// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// cleanCmd removes undeclared directories from the install root.
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove install root directories no declared package accounts for",
	Long: `Remove install root directories no declared package accounts for.

Every directory directly under the install root is compared against the
declared tree; the leftovers are listed and removed after confirmation.
Removal is recursive and permanent. Use --yes to skip the prompt.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func runClean(cmd *cobra.Command, _ []string) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	// Deleting directories based on a half-loaded configuration could
	// target the wrong install root. Other commands warn and continue;
	// this one stops.
	if rootCfgErr != nil {
		err := fmt.Errorf("refusing to clean with a broken configuration: %w", rootCfgErr)
		reportCommandError(cmd.ErrOrStderr(), err)
		return &ExitError{Code: 1, Err: err}
	}

	a, err := newApp(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		reportCommandError(cmd.ErrOrStderr(), err)
		return &ExitError{Code: 1, Err: err}
	}

	result, err := a.mgr.Clean(cmd.Context())
	if err != nil {
		reportCommandError(cmd.ErrOrStderr(), err)
		return &ExitError{Code: 1, Err: err}
	}

	renderCleanResult(cmd.OutOrStdout(), result)

	if result.FailedRemovals > 0 {
		return &ExitError{Code: 1, Err: fmt.Errorf("%d removal(s) failed", result.FailedRemovals)}
	}
	return nil
}
