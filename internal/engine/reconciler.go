// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"plugman-cli/internal/config"
	"plugman-cli/internal/fetch"
	"plugman-cli/pkg/plugspec"
)

type (
	// Reconciler orchestrates install, upgrade, clean, and status over a
	// package tree. Collaborators are plain fields so tests can substitute
	// any of them.
	Reconciler struct {
		// Backend performs the per-node fetch work.
		Backend fetch.Backend

		// Logger receives one leveled message per terminal outcome.
		Logger *log.Logger

		// Reindex regenerates help indexes under the install root. Called
		// at most once per pass, only after a mutating outcome. May be nil.
		Reindex func(installRoot string) error

		// Confirm asks before clean deletes anything. A false answer
		// aborts with zero deletions. A nil Confirm also aborts.
		Confirm func(ctx context.Context, candidates []string) (bool, error)
	}

	// NodeResult pairs one dispatched node with its terminal outcome.
	// Results are ordered by dispatch (tree pre-order), not completion.
	NodeResult struct {
		Name    string
		Source  string
		Path    string
		Depth   int
		Outcome fetch.Outcome
	}

	// Summary aggregates one install or upgrade pass.
	Summary struct {
		// Results holds every dispatched node in dispatch order.
		Results []NodeResult

		// Invalid counts nodes skipped by validation before dispatch.
		Invalid int

		// Reindexed reports whether the pass ended with a re-index step.
		Reindexed bool
	}

	// mode selects which backend operation a pass runs.
	mode int

	// indexedOutcome carries a completed fetch back to the collector with
	// the node's dispatch index.
	indexedOutcome struct {
		idx     int
		outcome fetch.Outcome
	}
)

const (
	modeInstall mode = iota
	modeUpgrade
)

// NewReconciler wires a reconciler around the given backend. A nil logger
// discards engine output.
func NewReconciler(backend fetch.Backend, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Reconciler{Backend: backend, Logger: logger}
}

// Install materializes every valid node of the tree under the configured
// install root. Already-present nodes report Unchanged; a node that failed
// never blocks its siblings or dependencies. Post-checkout hooks run for
// Installed nodes only; the re-index step runs once if anything mutated.
func (r *Reconciler) Install(ctx context.Context, tree []plugspec.Spec, cfg config.Config) Summary {
	return r.run(ctx, tree, cfg, modeInstall)
}

// Upgrade brings every installed node up to date. Nodes without an existing
// install path report Skipped. Post-checkout hooks run for Updated nodes
// only; the re-index step runs once if anything mutated.
func (r *Reconciler) Upgrade(ctx context.Context, tree []plugspec.Spec, cfg config.Config) Summary {
	return r.run(ctx, tree, cfg, modeUpgrade)
}

// run is the shared reconciliation pass. The control goroutine walks the
// tree and launches one fetch goroutine per valid node; a node's subtree is
// walked immediately after the node's own dispatch, never after its
// completion. Outcomes funnel back over a channel keyed by dispatch index,
// and the channel closes once every goroutine has finished, which is the
// barrier the re-index decision waits on.
func (r *Reconciler) run(ctx context.Context, tree []plugspec.Spec, cfg config.Config, m mode) Summary {
	var (
		wg      sync.WaitGroup
		results []NodeResult
		invalid int
		sem     *semaphore.Weighted
	)
	if cfg.MaxParallel > 0 {
		sem = semaphore.NewWeighted(int64(cfg.MaxParallel))
	}

	// Two declarations of the same source resolve to the same install
	// path; the per-path lock keeps their subprocesses from mutating one
	// directory at the same time while still dispatching both.
	locks := newPathLocks()
	resCh := make(chan indexedOutcome)

	plugspec.Walk(tree, func(node *plugspec.Spec, depth int) {
		if err := node.Validate(); err != nil {
			r.Logger.Warn("skipping invalid package spec", "error", err)
			invalid++
			return
		}

		idx := len(results)
		name := node.Name()
		path := node.InstallPath(cfg.InstallRoot)
		results = append(results, NodeResult{
			Name:   name,
			Source: node.Source,
			Path:   path,
			Depth:  depth,
		})

		wg.Add(1)
		go func() {
			defer wg.Done()

			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					resCh <- indexedOutcome{idx, fetch.Outcome{Kind: fetch.Failed, Err: err}}
					return
				}
				defer sem.Release(1)
			}

			unlock := locks.lock(path)
			defer unlock()

			var out fetch.Outcome
			if m == modeInstall {
				out = r.Backend.Install(ctx, node, path)
			} else {
				out = r.Backend.Update(ctx, node, path)
			}

			if out.Mutated() {
				r.runHook(ctx, node.PostCheckout, "post-checkout", name)
			}

			resCh <- indexedOutcome{idx, out}
		}()
	})

	go func() {
		wg.Wait()
		close(resCh)
	}()

	for res := range resCh {
		results[res.idx].Outcome = res.outcome
	}

	summary := Summary{Results: results, Invalid: invalid}
	for _, res := range results {
		r.report(res, m)
	}

	if summary.Mutations() > 0 {
		r.reindex(cfg.InstallRoot)
		summary.Reindexed = true
	}
	return summary
}

// runHook invokes a lifecycle hook, logging and discarding its error so it
// never alters the owning node's outcome.
func (r *Reconciler) runHook(ctx context.Context, hook plugspec.Hook, kind, name string) {
	if hook == nil {
		return
	}
	if err := hook(ctx); err != nil {
		r.Logger.Warn("hook failed", "hook", kind, "package", name, "error", err)
	}
}

// report emits the one human-readable message every terminal state owes the
// user, with failures at error severity.
func (r *Reconciler) report(res NodeResult, m mode) {
	switch res.Outcome.Kind {
	case fetch.Failed:
		verb := "install"
		if m == modeUpgrade {
			verb = "upgrade"
		}
		r.Logger.Error(verb+" failed", "package", res.Name, "error", res.Outcome.Err)
	case fetch.Skipped:
		r.Logger.Info("skipped", "package", res.Name, "reason", res.Outcome.Reason)
	default:
		r.Logger.Info(string(res.Outcome.Kind), "package", res.Name)
	}
}

// reindex runs the configured re-index step, downgrading its failure to a
// warning.
func (r *Reconciler) reindex(installRoot string) {
	if r.Reindex == nil {
		return
	}
	if err := r.Reindex(installRoot); err != nil {
		r.Logger.Warn("help tag regeneration failed", "error", err)
	}
}

// Mutations counts results that changed files on disk.
func (s Summary) Mutations() int {
	n := 0
	for _, res := range s.Results {
		if res.Outcome.Mutated() {
			n++
		}
	}
	return n
}

// Count returns how many results ended in the given kind.
func (s Summary) Count(kind fetch.Kind) int {
	n := 0
	for _, res := range s.Results {
		if res.Outcome.Kind == kind {
			n++
		}
	}
	return n
}

// HasFailures reports whether any dispatched node failed.
func (s Summary) HasFailures() bool {
	return s.Count(fetch.Failed) > 0
}

// pathLocks hands out one mutex per install path so duplicate declarations
// are serialized without deduplicating them.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for path, creating it on first use, and returns
// the release func.
func (p *pathLocks) lock(path string) (unlock func()) {
	p.mu.Lock()
	l, ok := p.locks[path]
	if !ok {
		l = &sync.Mutex{}
		p.locks[path] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}
