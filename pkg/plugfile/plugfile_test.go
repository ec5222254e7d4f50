// SPDX-License-Identifier: MPL-2.0

package plugfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const cueManifest = `
install_root: "/data/plugins"
packages: [
	"junegunn/fzf",
	{
		source: "tpope/vim-fugitive"
		alias:  "fugitive"
		branch: "main"
		post_checkout: "make install"
		dependencies: [
			"tpope/vim-rhubarb",
			{source: "~/plugins/local-helper", configure: "echo configured"},
		]
	},
]
`

func TestParse_CUE(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(cueManifest), "plugfile.cue")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if m.InstallRoot != "/data/plugins" {
		t.Errorf("InstallRoot = %q, want %q", m.InstallRoot, "/data/plugins")
	}
	if len(m.Packages) != 2 {
		t.Fatalf("len(Packages) = %d, want 2", len(m.Packages))
	}

	bare := m.Packages[0]
	if bare.Source != "junegunn/fzf" || bare.Alias != "" {
		t.Errorf("bare string entry = %+v, want source-only package", bare)
	}

	full := m.Packages[1]
	if full.Source != "tpope/vim-fugitive" || full.Alias != "fugitive" || full.Branch != "main" {
		t.Errorf("table entry = %+v", full)
	}
	if full.PostCheckout != "make install" {
		t.Errorf("PostCheckout = %q, want %q", full.PostCheckout, "make install")
	}
	if len(full.Dependencies) != 2 {
		t.Fatalf("len(Dependencies) = %d, want 2", len(full.Dependencies))
	}
	if full.Dependencies[0].Source != "tpope/vim-rhubarb" {
		t.Errorf("nested bare entry = %+v", full.Dependencies[0])
	}
	if full.Dependencies[1].Configure != "echo configured" {
		t.Errorf("nested table entry = %+v", full.Dependencies[1])
	}
}

func TestParse_CUE_RejectsUnknownField(t *testing.T) {
	t.Parallel()

	doc := `packages: [{sorce: "typo/field"}]`
	if _, err := Parse([]byte(doc), "plugfile.cue"); err == nil {
		t.Fatal("Parse() accepted a misspelled field")
	}
}

func TestParse_CUE_RejectsWrongType(t *testing.T) {
	t.Parallel()

	doc := `packages: [{source: "a/b", branch: 5}]`
	_, err := Parse([]byte(doc), "plugfile.cue")
	if err == nil {
		t.Fatal("Parse() accepted a non-string branch")
	}
	if !strings.Contains(err.Error(), "branch") {
		t.Errorf("error = %q, want it to name the branch field", err)
	}
}

func TestParseTOML(t *testing.T) {
	t.Parallel()

	doc := `
install_root = "/data/plugins"
packages = ["junegunn/fzf", {source = "a/b", alias = "bee"}]
`
	m, err := ParseTOML([]byte(doc), "plugfile.toml")
	if err != nil {
		t.Fatalf("ParseTOML() error: %v", err)
	}
	if m.InstallRoot != "/data/plugins" {
		t.Errorf("InstallRoot = %q, want %q", m.InstallRoot, "/data/plugins")
	}
	if len(m.Packages) != 2 {
		t.Fatalf("len(Packages) = %d, want 2", len(m.Packages))
	}
	if m.Packages[0].Source != "junegunn/fzf" {
		t.Errorf("bare entry = %+v", m.Packages[0])
	}
	if m.Packages[1].Alias != "bee" {
		t.Errorf("table entry = %+v", m.Packages[1])
	}
}

func TestParseTOML_ArrayOfTablesWithDependencies(t *testing.T) {
	t.Parallel()

	doc := `
[[packages]]
source = "b/y"

[[packages.dependencies]]
source = "c/z"
branch = "stable"
`
	m, err := ParseTOML([]byte(doc), "plugfile.toml")
	if err != nil {
		t.Fatalf("ParseTOML() error: %v", err)
	}
	if len(m.Packages) != 1 || len(m.Packages[0].Dependencies) != 1 {
		t.Fatalf("tree shape = %+v", m.Packages)
	}
	dep := m.Packages[0].Dependencies[0]
	if dep.Source != "c/z" || dep.Branch != "stable" {
		t.Errorf("dependency = %+v", dep)
	}
}

func TestParseTOML_UnknownFieldPositioned(t *testing.T) {
	t.Parallel()

	doc := `packages = [{source = "a/b", sorce = "oops"}]`
	_, err := ParseTOML([]byte(doc), "plugfile.toml")
	if err == nil {
		t.Fatal("ParseTOML() accepted an unknown field")
	}
	if !strings.Contains(err.Error(), "packages[0]") {
		t.Errorf("error = %q, want it positioned at packages[0]", err)
	}
}

func TestNormalizeEntry_RejectsPrimitives(t *testing.T) {
	t.Parallel()

	if _, err := normalizeEntry(42, "packages[0]"); err == nil {
		t.Fatal("normalizeEntry accepted a number")
	}
}

func TestLoad_DispatchesOnExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cuePath := filepath.Join(dir, "plugfile.cue")
	if err := os.WriteFile(cuePath, []byte(`packages: ["a/b"]`), 0o644); err != nil {
		t.Fatal(err)
	}
	tomlPath := filepath.Join(dir, "plugfile.toml")
	if err := os.WriteFile(tomlPath, []byte(`packages = ["c/d"]`), 0o644); err != nil {
		t.Fatal(err)
	}

	fromCUE, err := Load(cuePath)
	if err != nil {
		t.Fatalf("Load(cue) error: %v", err)
	}
	if fromCUE.Packages[0].Source != "a/b" {
		t.Errorf("CUE manifest = %+v", fromCUE.Packages)
	}
	if fromCUE.FilePath != cuePath {
		t.Errorf("FilePath = %q, want %q", fromCUE.FilePath, cuePath)
	}

	fromTOML, err := Load(tomlPath)
	if err != nil {
		t.Fatalf("Load(toml) error: %v", err)
	}
	if fromTOML.Packages[0].Source != "c/d" {
		t.Errorf("TOML manifest = %+v", fromTOML.Packages)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatal(err)
	}

	// Nothing anywhere yet.
	if _, err := Discover("", configDir); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Discover with nothing present = %v, want ErrNotFound", err)
	}

	// Config-dir manifest is the last fallback.
	cfgManifest := filepath.Join(configDir, CUEFileName)
	if err := os.WriteFile(cfgManifest, []byte(`packages: []`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Discover("", configDir)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if got != cfgManifest {
		t.Errorf("Discover() = %q, want config dir fallback %q", got, cfgManifest)
	}

	// A manifest in the working directory wins over the config dir.
	local := filepath.Join(dir, TOMLFileName)
	if err := os.WriteFile(local, []byte(`packages = []`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = Discover("", configDir)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if got != TOMLFileName {
		t.Errorf("Discover() = %q, want working-directory %q", got, TOMLFileName)
	}

	// The environment variable beats both.
	envManifest := filepath.Join(dir, "custom.cue")
	if err := os.WriteFile(envManifest, []byte(`packages: []`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvPlugfile, envManifest)
	got, err = Discover("", configDir)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if got != envManifest {
		t.Errorf("Discover() = %q, want env override %q", got, envManifest)
	}

	// An explicit path beats everything, and a missing one is an error.
	explicit := filepath.Join(dir, "explicit.cue")
	if err := os.WriteFile(explicit, []byte(`packages: []`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = Discover(explicit, configDir)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if got != explicit {
		t.Errorf("Discover() = %q, want explicit %q", got, explicit)
	}
	if _, err := Discover(filepath.Join(dir, "missing.cue"), configDir); !errors.Is(err, ErrNotFound) {
		t.Errorf("Discover(missing explicit) = %v, want ErrNotFound", err)
	}
}
