// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"plugman-cli/internal/config"
	"plugman-cli/internal/engine"
	"plugman-cli/internal/fetch"
	"plugman-cli/internal/helptags"
	"plugman-cli/internal/hooks"
	"plugman-cli/internal/issue"
	"plugman-cli/internal/tui"
	"plugman-cli/pkg/plugfile"
	"plugman-cli/pkg/plugspec"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// app bundles what a reconciliation command needs: a manager with the
// declared tree already registered (configure hooks included) on top of
// the effective configuration.
type app struct {
	mgr *engine.Manager
}

// newApp builds the shared command runtime: resolve configuration, discover
// and parse the plugfile, convert it into a package tree with hooks wired,
// and register the tree with a manager backed by the Git fetch backend.
func newApp(ctx context.Context, stderr io.Writer) (*app, error) {
	cfg, err := effectiveConfig()
	if err != nil {
		return nil, err
	}

	if cfg.UI.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	logger := newLogger(stderr)

	cfgDir, dirErr := config.Dir()
	if dirErr != nil {
		cfgDir = ""
	}

	path, err := plugfile.Discover(plugfilePath, cfgDir)
	if err != nil {
		if errors.Is(err, plugfile.ErrNotFound) {
			printIssue(stderr, issue.PlugfileNotFoundId)
		}
		return nil, err
	}

	manifest, err := plugfile.Load(path)
	if err != nil {
		printIssue(stderr, issue.PlugfileParseErrorId)
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	logger.Debug("loaded plugfile", "path", path, "packages", len(manifest.Packages))

	if manifest.InstallRoot != "" {
		cfg.InstallRoot = expandHome(manifest.InstallRoot)
		logger.Debug("install root overridden by plugfile", "path", cfg.InstallRoot)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tree, err := buildTree(manifest, cfg.InstallRoot)
	if err != nil {
		return nil, err
	}

	a := &app{}

	rec := engine.NewReconciler(&fetch.GitBackend{RemoteHost: cfg.GitRemoteHost}, logger)
	rec.Reindex = func(installRoot string) error {
		n, err := helptags.Generate(installRoot)
		if err != nil {
			return err
		}
		logger.Debug("help tags regenerated", "dirs", n)
		return nil
	}
	rec.Confirm = func(_ context.Context, candidates []string) (bool, error) {
		if a.mgr.Config().UI.AssumeYes {
			return true, nil
		}
		ok, err := tui.Confirm(tui.ConfirmOptions{
			Title:       fmt.Sprintf("Remove %d untracked item(s) from %s?", len(candidates), a.mgr.Config().InstallRoot),
			Description: strings.Join(candidates, "\n"),
		})
		if errors.Is(err, tui.ErrCancelled) {
			return false, nil
		}
		return ok, err
	}

	a.mgr = engine.NewManager(rec, cfg)
	a.mgr.Apply(ctx, tree, flagOverrides())

	return a, nil
}

// effectiveConfig returns the configuration loaded during initialization,
// or defaults when loading failed (the failure was already reported as a
// warning).
func effectiveConfig() (config.Config, error) {
	if rootCfg != nil {
		return *rootCfg, nil
	}
	cfg := config.DefaultConfig()
	root, err := config.DefaultInstallRoot()
	if err != nil {
		return config.Config{}, fmt.Errorf("resolving default install root: %w", err)
	}
	cfg.InstallRoot = root
	return *cfg, nil
}

// flagOverrides converts the set global flags into configuration overrides.
// Bool flags only override when true so an unset flag keeps the config
// file's value.
func flagOverrides() config.Overrides {
	var ov config.Overrides
	if verbose {
		t := true
		ov.Verbose = &t
	}
	if assumeYes {
		t := true
		ov.AssumeYes = &t
	}
	return ov
}

// newLogger builds the CLI logger. Debug level requires --verbose or the
// config's ui.verbose.
func newLogger(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{ReportTimestamp: false})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// buildTree converts the manifest's package entries into the engine's
// package tree. Hook scripts compile here so a syntax error surfaces
// before any fetch is dispatched: post-checkout hooks run in the package's
// install directory, configure hooks in the manifest's directory.
func buildTree(m *plugfile.Manifest, installRoot string) ([]plugspec.Spec, error) {
	return buildSpecs(m.Packages, installRoot, filepath.Dir(m.FilePath))
}

func buildSpecs(pkgs []plugfile.Package, installRoot, manifestDir string) ([]plugspec.Spec, error) {
	specs := make([]plugspec.Spec, 0, len(pkgs))
	for _, pkg := range pkgs {
		spec := plugspec.Spec{
			Source: pkg.Source,
			Alias:  pkg.Alias,
			Branch: pkg.Branch,
		}

		if pkg.PostCheckout != "" {
			hook, err := hooks.Shell(pkg.PostCheckout, spec.InstallPath(installRoot))
			if err != nil {
				return nil, fmt.Errorf("package %q: post_checkout hook: %w", pkg.Source, err)
			}
			spec.PostCheckout = hook
		}
		if pkg.Configure != "" {
			hook, err := hooks.Shell(pkg.Configure, manifestDir)
			if err != nil {
				return nil, fmt.Errorf("package %q: configure hook: %w", pkg.Source, err)
			}
			spec.Configure = hook
		}

		deps, err := buildSpecs(pkg.Dependencies, installRoot, manifestDir)
		if err != nil {
			return nil, err
		}
		spec.Deps = deps

		specs = append(specs, spec)
	}
	return specs, nil
}

// expandHome resolves a leading "~" to the user's home directory. Paths
// without the prefix pass through unchanged, as does everything when the
// home directory cannot be determined.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// printIssue renders the identified issue card to w. Rendering failures
// fall back to the raw markdown so guidance is never lost to a styling
// problem.
func printIssue(w io.Writer, id issue.Id) {
	card := issue.Get(id)
	if card == nil {
		return
	}
	out, err := card.Render("dark")
	if err != nil {
		out = string(card.MarkdownMsg())
	}
	fmt.Fprintln(w, out)
}

// reportCommandError prints a command failure: the matching issue card when
// one applies, then the formatted error itself.
func reportCommandError(w io.Writer, err error) {
	if id := classifyCommandError(err); id != 0 {
		printIssue(w, id)
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

// classifyCommandError maps a command failure to the issue card that best
// explains it. Zero means no card applies.
func classifyCommandError(err error) issue.Id {
	switch {
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId
	case errors.Is(err, hooks.ErrBadScript):
		return issue.HookFailedId
	default:
		return 0
	}
}
