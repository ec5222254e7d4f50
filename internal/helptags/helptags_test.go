// SPDX-License-Identifier: MPL-2.0

package helptags

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeHelpFile(t *testing.T, root, plugin, name, content string) {
	t.Helper()
	docDir := filepath.Join(root, plugin, "doc")
	if err := os.MkdirAll(docDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(docDir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeHelpFile(t, root, "alpha", "alpha.txt",
		"*alpha* *alpha-intro*\n\nUsage ==========  *alpha-usage*\n")
	writeHelpFile(t, root, "beta", "beta.txt", "no tags in here\n")
	if err := os.MkdirAll(filepath.Join(root, "gamma"), 0o755); err != nil {
		t.Fatal(err)
	}

	indexed, err := Generate(root)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if indexed != 2 {
		t.Errorf("Generate() indexed %d directories, want 2", indexed)
	}

	data, err := os.ReadFile(filepath.Join(root, "alpha", "doc", "tags"))
	if err != nil {
		t.Fatalf("tags file not written: %v", err)
	}
	want := "alpha\talpha.txt\t/*alpha*\n" +
		"alpha-intro\talpha.txt\t/*alpha-intro*\n" +
		"alpha-usage\talpha.txt\t/*alpha-usage*\n"
	if string(data) != want {
		t.Errorf("tags file = %q, want %q", data, want)
	}

	if _, err := os.Stat(filepath.Join(root, "gamma", "doc")); err == nil {
		t.Error("Generate created a doc directory for a plugin without one")
	}
}

func TestGenerate_MissingRootIsNoop(t *testing.T) {
	t.Parallel()

	indexed, err := Generate(filepath.Join(t.TempDir(), "never-created"))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if indexed != 0 {
		t.Errorf("Generate() indexed %d directories, want 0", indexed)
	}
}

func TestGenerate_FirstDefinitionWins(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeHelpFile(t, root, "dup", "a.txt", "*shared*\n")
	writeHelpFile(t, root, "dup", "b.txt", "*shared*\n")

	if _, err := Generate(root); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "dup", "doc", "tags"))
	if err != nil {
		t.Fatal(err)
	}
	want := "shared\ta.txt\t/*shared*\n"
	if string(data) != want {
		t.Errorf("tags file = %q, want %q", data, want)
	}
}

func TestExtractTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want []string
	}{
		{"single tag", "*plugman*", []string{"plugman"}},
		{"adjacent tags", "*one* *two*", []string{"one", "two"}},
		{"tag at line end", "Intro  *plugman-intro*", []string{"plugman-intro"}},
		{"mid word star is not a tag", "see foo*bar* here", nil},
		{"emphasis pair is not a tag", "a ** b", nil},
		{"no tags", "plain prose", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := extractTags(tt.line); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("extractTags(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}
