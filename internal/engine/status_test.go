// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"plugman-cli/internal/config"
	"plugman-cli/pkg/plugspec"
)

func TestStatus_ClassifiesNodes(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mkInstallDirs(t, root, "x")
	tree := []plugspec.Spec{
		{Source: "a/x"},
		{Source: "b/y"},
		{Source: "   "},
	}

	rec, _ := testReconciler(newStubBackend())
	report, err := rec.Status(tree, config.Config{InstallRoot: root})
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	if len(report.Nodes) != 3 {
		t.Fatalf("len(Nodes) = %d, want 3", len(report.Nodes))
	}

	if n := report.Nodes[0]; n.Name != "x" || n.State != StateInstalled {
		t.Errorf("node 0 = %+v, want x installed", n)
	}
	if n := report.Nodes[1]; n.Name != "y" || n.State != StateMissing {
		t.Errorf("node 1 = %+v, want y missing", n)
	}
	if n := report.Nodes[2]; n.State != StateInvalid {
		t.Errorf("node 2 = %+v, want invalid", n)
	} else {
		if !strings.Contains(n.Detail, "source must be a non-empty string") {
			t.Errorf("invalid Detail = %q, want the validation reason", n.Detail)
		}
		if n.Name != "(unnamed)" {
			t.Errorf("invalid Name = %q, want the best-effort identifier", n.Name)
		}
	}

	if len(report.Untracked) != 0 {
		t.Errorf("Untracked = %v, want none", report.Untracked)
	}
}

func TestStatus_DepthsAndUntracked(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mkInstallDirs(t, root, "y", "z", "zz", "aa")
	tree := []plugspec.Spec{
		{Source: "b/y", Deps: []plugspec.Spec{{Source: "c/z"}}},
	}

	rec, _ := testReconciler(newStubBackend())
	report, err := rec.Status(tree, config.Config{InstallRoot: root})
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	if len(report.Nodes) != 2 {
		t.Fatalf("len(Nodes) = %d, want 2", len(report.Nodes))
	}
	if report.Nodes[0].Depth != 0 || report.Nodes[1].Depth != 1 {
		t.Errorf("depths = %d,%d, want 0,1", report.Nodes[0].Depth, report.Nodes[1].Depth)
	}
	if report.Nodes[1].Name != "z" || report.Nodes[1].State != StateInstalled {
		t.Errorf("nested node = %+v, want z installed", report.Nodes[1])
	}

	if !sameStrings(report.Untracked, []string{"aa", "zz"}) {
		t.Errorf("Untracked = %v, want [aa zz] sorted", report.Untracked)
	}
}

func TestStatus_MissingInstallRoot(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "never-created")
	tree := []plugspec.Spec{{Source: "a/x"}}

	rec, _ := testReconciler(newStubBackend())
	report, err := rec.Status(tree, config.Config{InstallRoot: root})
	if err != nil {
		t.Fatalf("Status() error = %v, want nil for a missing install root", err)
	}

	if len(report.Nodes) != 1 || report.Nodes[0].State != StateMissing {
		t.Errorf("Nodes = %+v, want one missing node", report.Nodes)
	}
	if len(report.Untracked) != 0 {
		t.Errorf("Untracked = %v, want none", report.Untracked)
	}
}

func TestStatus_IsReadOnly(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	tree := []plugspec.Spec{{Source: "a/x", PostCheckout: func(context.Context) error {
		t.Error("status must never run hooks")
		return nil
	}}}

	backend := newStubBackend()
	rec, reindexes := testReconciler(backend)

	if _, err := rec.Status(tree, config.Config{InstallRoot: root}); err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	if len(backend.installCalls()) != 0 || len(backend.updateCalls()) != 0 {
		t.Error("status must never call the backend")
	}
	if *reindexes != 0 {
		t.Error("status must never re-index")
	}
}
