// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"plugman-cli/internal/engine"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// statusCmd reports the declared tree's state without touching anything.
var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"list"},
	Short:   "Show every declared package's state and untracked directories",
	Long: `Show every declared package's state and untracked directories.

Each declared package is reported as installed, missing, or invalid,
and directories under the install root that no package accounts for are
listed as untracked. Status never modifies the filesystem.

The default rendering is styled text; --format json or --format yaml
produce machine-readable output.`,
	Example: `  # Styled report
  plugman status

  # Machine-readable report
  plugman status --format json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	a, err := newApp(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		reportCommandError(cmd.ErrOrStderr(), err)
		return &ExitError{Code: 1, Err: err}
	}

	report, err := a.mgr.Status()
	if err != nil {
		reportCommandError(cmd.ErrOrStderr(), err)
		return &ExitError{Code: 1, Err: err}
	}

	if err := writeStatus(cmd.OutOrStdout(), report, outputFormat); err != nil {
		reportCommandError(cmd.ErrOrStderr(), err)
		return &ExitError{Code: 2, Err: err}
	}
	return nil
}

// writeStatus renders the report in the requested format.
func writeStatus(w io.Writer, report engine.StatusReport, format string) error {
	switch format {
	case "", "text":
		renderStatusText(w, report)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unknown format %q (valid: text, json, yaml)", format)
	}
}

// renderStatusText writes the styled report: one line per declared node,
// indented by depth, then the untracked section with a cleanup hint.
func renderStatusText(w io.Writer, report engine.StatusReport) {
	fmt.Fprintln(w, TitleStyle.Render("Declared packages"))
	if len(report.Nodes) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("  (none)"))
	}
	for _, node := range report.Nodes {
		indent := strings.Repeat("  ", node.Depth)
		line := indent + statusIcon(node.State) + " " + node.Name + " " + SubtitleStyle.Render(node.Source)
		switch node.State {
		case engine.StateMissing:
			line += " " + WarningStyle.Render("missing")
		case engine.StateInvalid:
			line += " " + ErrorStyle.Render("invalid: "+node.Detail)
		}
		fmt.Fprintln(w, line)
	}

	if len(report.Untracked) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, WarningStyle.Render("Untracked directories"))
		for _, name := range report.Untracked {
			fmt.Fprintf(w, "  %s %s\n", iconNeutral, name)
		}
		fmt.Fprintln(w, SubtitleStyle.Render("Run ")+CmdStyle.Render("plugman clean")+SubtitleStyle.Render(" to remove them."))
	}
}

// statusIcon maps a node state to its styled marker.
func statusIcon(state engine.NodeState) string {
	switch state {
	case engine.StateInstalled:
		return iconOK
	case engine.StateInvalid:
		return iconFail
	default:
		return WarningStyle.Render("○")
	}
}
