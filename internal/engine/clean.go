// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"plugman-cli/internal/config"
	"plugman-cli/pkg/plugspec"
)

// CleanResult reports one clean pass.
type CleanResult struct {
	// Candidates are the directories under the install root that no
	// declared package accounts for, sorted by name.
	Candidates []string

	// Removed lists the candidates that were actually deleted.
	Removed []string

	// FailedRemovals counts candidates whose deletion failed.
	FailedRemovals int

	// Aborted is true when the confirmation was not affirmative.
	Aborted bool

	// Reindexed reports whether the pass ended with a re-index step.
	Reindexed bool
}

// Clean removes directories under the install root that the declared tree
// does not account for. An empty candidate set ends the pass without a
// prompt; otherwise deletion requires an affirmative answer from the
// Confirm collaborator. Deletion is recursive and irreversible, reported
// per directory, and followed by a single re-index step when anything was
// removed.
func (r *Reconciler) Clean(ctx context.Context, tree []plugspec.Spec, cfg config.Config) (CleanResult, error) {
	registry := plugspec.Registry(tree)

	entries, err := os.ReadDir(cfg.InstallRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.Logger.Info("nothing to remove")
			return CleanResult{}, nil
		}
		return CleanResult{}, fmt.Errorf("listing %s: %w", cfg.InstallRoot, err)
	}

	var candidates []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, declared := registry[entry.Name()]; !declared {
			candidates = append(candidates, entry.Name())
		}
	}
	sort.Strings(candidates)

	if len(candidates) == 0 {
		r.Logger.Info("nothing to remove")
		return CleanResult{}, nil
	}

	for _, name := range candidates {
		r.Logger.Info("not declared by any package", "directory", name)
	}

	result := CleanResult{Candidates: candidates}
	if r.Confirm == nil {
		r.Logger.Warn("no confirmation available, nothing removed")
		result.Aborted = true
		return result, nil
	}

	ok, err := r.Confirm(ctx, candidates)
	if err != nil {
		return result, err
	}
	if !ok {
		r.Logger.Info("aborted, nothing removed")
		result.Aborted = true
		return result, nil
	}

	for _, name := range candidates {
		path := filepath.Join(cfg.InstallRoot, name)
		if err := os.RemoveAll(path); err != nil {
			r.Logger.Error("remove failed", "directory", name, "error", err)
			result.FailedRemovals++
			continue
		}
		r.Logger.Info("removed", "directory", name)
		result.Removed = append(result.Removed, name)
	}

	if len(result.Removed) > 0 {
		r.reindex(cfg.InstallRoot)
		result.Reindexed = true
	}
	return result, nil
}
