// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"plugman-cli/internal/config"
	"plugman-cli/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug-level output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// plugfilePath allows specifying a plugfile explicitly
	plugfilePath string
	// assumeYes answers confirmation prompts affirmatively without asking
	assumeYes bool
	// outputFormat selects the rendering for reporting commands
	outputFormat string

	// rootCfg is the configuration loaded during command initialization.
	// Nil when loading failed; commands fall back to defaults.
	rootCfg *config.Config
	// rootCfgErr records a configuration loading failure so destructive
	// commands can refuse to run on guessed settings.
	rootCfgErr error

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "plugman",
		Short: "A declarative package manager for editor plugins",
		Long: TitleStyle.Render("plugman") + SubtitleStyle.Render(" - A declarative package manager for editor plugins") + `

plugman reconciles a declared package tree against an install root on
disk. Packages are cloned from Git hosts (or linked from local
directories), upgraded in place, and removed when no longer declared.

Packages are declared in a 'plugfile' using CUE or TOML format and can
be nested so that a plugin's dependencies install alongside it.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Create a plugfile in your project or config directory
  2. Declare packages as "owner/repo" sources
  3. Run: plugman install

` + SubtitleStyle.Render("Examples:") + `
  plugman install           Materialize every declared package
  plugman upgrade           Bring installed packages up to date
  plugman status            Show declared packages and untracked dirs
  plugman clean             Remove undeclared install directories
  plugman selfupdate        Update plugman itself`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/plugman/config.cue)")
	rootCmd.PersistentFlags().StringVar(&plugfilePath, "plugfile", "", "plugfile to load (default is ./plugfile.cue, ./plugfile.toml, then the config directory)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "skip confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "output format for status: text, json, or yaml")

	// Add subcommands
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(newSelfupdateCommand())
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	cfg, _, err := config.Load(config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		// Always surface config loading errors to the user.
		rootCfgErr = err
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}
	rootCfg = cfg

	// Apply UI settings from config if not set via flag
	if cfg != nil && !verbose {
		verbose = cfg.UI.Verbose
	}
	if cfg != nil && !assumeYes {
		assumeYes = cfg.UI.AssumeYes
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
