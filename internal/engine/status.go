// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"plugman-cli/internal/config"
	"plugman-cli/pkg/plugspec"
)

type (
	// NodeState classifies a declared package for status reporting.
	NodeState string

	// StatusNode is one declared package's status line.
	StatusNode struct {
		// Name is the resolved install directory name. Empty for nodes
		// that failed validation badly enough to have no name.
		Name string `json:"name" yaml:"name"`

		// Source is the declared source string.
		Source string `json:"source" yaml:"source"`

		// Depth is the node's nesting depth in the declared tree, for
		// indented rendering.
		Depth int `json:"depth" yaml:"depth"`

		// State says whether the package is installed, missing, or has
		// an invalid spec.
		State NodeState `json:"state" yaml:"state"`

		// Detail carries the validation failure for invalid nodes.
		Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
	}

	// StatusReport is the read-only view Status produces.
	StatusReport struct {
		// Nodes lists every declared node in tree pre-order.
		Nodes []StatusNode `json:"packages" yaml:"packages"`

		// Untracked lists directories under the install root that no
		// declared package accounts for, sorted. Cleanable via Clean.
		Untracked []string `json:"untracked,omitempty" yaml:"untracked,omitempty"`
	}
)

const (
	// StateInstalled means the package's install directory exists.
	StateInstalled NodeState = "installed"

	// StateMissing means the package is declared but not on disk.
	StateMissing NodeState = "missing"

	// StateInvalid means the spec failed validation and is never acted on.
	StateInvalid NodeState = "invalid"
)

// Status classifies every declared node and cross-references the install
// root for untracked directories. Read-only: no filesystem writes, no
// subprocesses, no hooks.
func (r *Reconciler) Status(tree []plugspec.Spec, cfg config.Config) (StatusReport, error) {
	var report StatusReport

	plugspec.Walk(tree, func(node *plugspec.Spec, depth int) {
		if err := node.Validate(); err != nil {
			sn := StatusNode{
				Source: node.Source,
				Depth:  depth,
				State:  StateInvalid,
				Detail: err.Error(),
			}
			var ise *plugspec.InvalidSpecError
			if errors.As(err, &ise) {
				sn.Name = ise.Name
			}
			report.Nodes = append(report.Nodes, sn)
			return
		}

		state := StateMissing
		if _, err := os.Stat(node.InstallPath(cfg.InstallRoot)); err == nil {
			state = StateInstalled
		}
		report.Nodes = append(report.Nodes, StatusNode{
			Name:   node.Name(),
			Source: node.Source,
			Depth:  depth,
			State:  state,
		})
	})

	registry := plugspec.Registry(tree)
	entries, err := os.ReadDir(cfg.InstallRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return report, nil
		}
		return report, fmt.Errorf("listing %s: %w", cfg.InstallRoot, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, declared := registry[entry.Name()]; !declared {
			report.Untracked = append(report.Untracked, entry.Name())
		}
	}
	sort.Strings(report.Untracked)

	return report, nil
}
