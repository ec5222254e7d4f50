// SPDX-License-Identifier: MPL-2.0

// Package fetch acquires and updates package files on disk.
//
// The Git backend shells out to the git executable and treats its exit status
// and captured output as an opaque success/already-up-to-date/failure signal;
// it is deliberately not a VCS abstraction. Sources that point at existing
// local directories are copied instead of cloned. Every call is independent:
// backends hold no mutable state, so concurrent fetches of distinct install
// paths need no coordination.
package fetch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"plugman-cli/pkg/plugspec"
)

// Backend materializes one package at its install path.
type Backend interface {
	// Install creates installPath from the node's source. Calling it on an
	// existing install path is a no-op reported as Unchanged.
	Install(ctx context.Context, node *plugspec.Spec, installPath string) Outcome

	// Update brings an existing install up to date. A missing install path
	// is reported as Skipped, never an error.
	Update(ctx context.Context, node *plugspec.Spec, installPath string) Outcome
}

// GitBackend fetches remote sources with the git executable and local
// directory sources with a recursive copy.
type GitBackend struct {
	// RemoteHost supplies the host used to synthesize clone URLs from
	// "owner/repo" shorthands, e.g. "github.com".
	RemoteHost string
}

// alreadyUpToDate matches the output git pull prints when there is nothing to
// merge. Git 2.17 dropped the hyphens; both spellings are still in the wild.
var alreadyUpToDate = []string{"already up to date", "already up-to-date"}

// Install implements Backend.
func (g *GitBackend) Install(ctx context.Context, node *plugspec.Spec, installPath string) Outcome {
	if _, err := os.Stat(installPath); err == nil {
		return Outcome{Kind: Unchanged}
	}

	if node.IsLocal() {
		if err := copyDir(node.LocalDir(), installPath); err != nil {
			return fail(fmt.Errorf("copying %s: %w", node.LocalDir(), err))
		}
		return Outcome{Kind: Installed}
	}

	args := []string{"clone", "--depth=1", "--filter=blob:none", "--single-branch"}
	if node.Branch != "" {
		args = append(args, "--branch", node.Branch)
	}
	args = append(args, node.RemoteURL(g.RemoteHost), installPath)

	if out, err := runGit(ctx, args...); err != nil {
		return fail(fmt.Errorf("git clone %s: %w", node.RemoteURL(g.RemoteHost), gitError(err, out)))
	}
	return Outcome{Kind: Installed}
}

// Update implements Backend.
func (g *GitBackend) Update(ctx context.Context, node *plugspec.Spec, installPath string) Outcome {
	if _, err := os.Stat(installPath); err != nil {
		return skip("not installed")
	}

	if node.IsLocal() {
		if err := os.RemoveAll(installPath); err != nil {
			return fail(fmt.Errorf("removing stale copy %s: %w", installPath, err))
		}
		if err := copyDir(node.LocalDir(), installPath); err != nil {
			return fail(fmt.Errorf("copying %s: %w", node.LocalDir(), err))
		}
		return Outcome{Kind: Updated}
	}

	out, err := runGit(ctx, "-C", installPath, "pull", "--ff-only")
	if err != nil {
		return fail(fmt.Errorf("git pull in %s: %w", installPath, gitError(err, out)))
	}
	return classifyPull(out)
}

// classifyPull maps a successful pull's output to Updated or Unchanged.
func classifyPull(out string) Outcome {
	lower := strings.ToLower(out)
	for _, marker := range alreadyUpToDate {
		if strings.Contains(lower, marker) {
			return Outcome{Kind: Unchanged}
		}
	}
	return Outcome{Kind: Updated}
}

// runGit invokes git with the given arguments and returns its combined
// output. The output is returned even when git exits nonzero so callers can
// fold it into the failure cause.
func runGit(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// gitError folds captured subprocess output into an exit error so failure
// reports carry what git actually said.
func gitError(err error, out string) error {
	if trimmed := strings.TrimSpace(out); trimmed != "" {
		return fmt.Errorf("%w: %s", err, trimmed)
	}
	return err
}
