// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"

	"plugman-cli/internal/config"
	"plugman-cli/pkg/plugspec"
)

// Manager holds the currently registered package tree and the effective
// configuration for a long-lived process, and delegates the four operations
// to its Reconciler. All state is explicit here; the Reconciler itself never
// reaches into anything ambient.
type Manager struct {
	rec  *Reconciler
	tree []plugspec.Spec
	cfg  config.Config
}

// NewManager creates a manager with an empty tree and the given starting
// configuration.
func NewManager(rec *Reconciler, cfg config.Config) *Manager {
	return &Manager{rec: rec, cfg: cfg}
}

// Apply registers a new tree and merges the supplied configuration
// overrides over the current configuration: set fields win, unset fields
// keep their prior values. It then runs each valid node's Configure hook
// exactly once, parent before children in declared order, logging and
// swallowing individual hook errors. Invalid nodes are warned about and
// their hooks skipped, but their declared dependencies still register.
func (m *Manager) Apply(ctx context.Context, tree []plugspec.Spec, ov config.Overrides) {
	m.tree = tree
	m.cfg = m.cfg.With(ov)

	plugspec.Walk(m.tree, func(node *plugspec.Spec, _ int) {
		if err := node.Validate(); err != nil {
			m.rec.Logger.Warn("skipping invalid package spec", "error", err)
			return
		}
		m.rec.runHook(ctx, node.Configure, "configure", node.Name())
	})
}

// Tree returns the currently registered tree.
func (m *Manager) Tree() []plugspec.Spec {
	return m.tree
}

// Config returns the effective configuration.
func (m *Manager) Config() config.Config {
	return m.cfg
}

// Install reconciles the registered tree in install mode.
func (m *Manager) Install(ctx context.Context) Summary {
	return m.rec.Install(ctx, m.tree, m.cfg)
}

// Upgrade reconciles the registered tree in upgrade mode.
func (m *Manager) Upgrade(ctx context.Context) Summary {
	return m.rec.Upgrade(ctx, m.tree, m.cfg)
}

// Clean removes undeclared directories under the install root.
func (m *Manager) Clean(ctx context.Context) (CleanResult, error) {
	return m.rec.Clean(ctx, m.tree, m.cfg)
}

// Status reports the registered tree's state against the filesystem.
func (m *Manager) Status() (StatusReport, error) {
	return m.rec.Status(m.tree, m.cfg)
}
