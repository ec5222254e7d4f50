// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"plugman-cli/internal/issue"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.GitRemoteHost != "github.com" {
		t.Errorf("expected default remote host to be github.com, got %s", cfg.GitRemoteHost)
	}

	if cfg.MaxParallel != 0 {
		t.Errorf("expected default max parallel to be 0, got %d", cfg.MaxParallel)
	}

	if cfg.InstallRoot != "" {
		t.Errorf("expected default install root to be unset, got %q", cfg.InstallRoot)
	}

	if cfg.UI.Verbose {
		t.Error("expected default verbose to be false")
	}

	if cfg.UI.NoColor {
		t.Error("expected default no_color to be false")
	}

	if cfg.UI.AssumeYes {
		t.Error("expected default assume_yes to be false")
	}
}

func TestDir_Override(t *testing.T) {
	tmp := t.TempDir()
	SetConfigDirOverride(tmp)
	t.Cleanup(Reset)

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() returned error: %v", err)
	}
	if dir != tmp {
		t.Errorf("Dir() = %s, want %s", dir, tmp)
	}
}

func TestDir_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup only applies on Linux")
	}

	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg-config")

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() returned error: %v", err)
	}

	expected := filepath.Join("/tmp/test-xdg-config", AppName)
	if dir != expected {
		t.Errorf("Dir() = %s, want %s", dir, expected)
	}
}

func TestDefaultInstallRoot_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup only applies on Linux")
	}

	t.Setenv("XDG_DATA_HOME", "/tmp/test-xdg-data")

	root, err := DefaultInstallRoot()
	if err != nil {
		t.Fatalf("DefaultInstallRoot() returned error: %v", err)
	}

	expected := filepath.Join("/tmp/test-xdg-data", AppName, "plugins")
	if root != expected {
		t.Errorf("DefaultInstallRoot() = %s, want %s", root, expected)
	}
}

func TestLoad_Defaults(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test relies on XDG environment variables")
	}

	SetConfigDirOverride(t.TempDir())
	t.Cleanup(Reset)
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, path, err := Load(LoadOptions{})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if path != "" {
		t.Errorf("expected no config file path, got %q", path)
	}
	if cfg.GitRemoteHost != "github.com" {
		t.Errorf("GitRemoteHost = %q, want github.com", cfg.GitRemoteHost)
	}
	if cfg.MaxParallel != 0 {
		t.Errorf("MaxParallel = %d, want 0", cfg.MaxParallel)
	}
	if cfg.InstallRoot == "" {
		t.Error("InstallRoot should be filled with the platform default")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	cfgDir := t.TempDir()
	SetConfigDirOverride(cfgDir)
	t.Cleanup(Reset)

	cuePath := filepath.Join(cfgDir, "config.cue")
	content := `
install_root:    "/tmp/plugman-test-root"
git_remote_host: "codeberg.org"
max_parallel:    4

ui: {
	verbose: true
}
`
	if err := os.WriteFile(cuePath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, path, err := Load(LoadOptions{})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if path != cuePath {
		t.Errorf("resolved path = %q, want %q", path, cuePath)
	}
	if cfg.InstallRoot != "/tmp/plugman-test-root" {
		t.Errorf("InstallRoot = %q, want /tmp/plugman-test-root", cfg.InstallRoot)
	}
	if cfg.GitRemoteHost != "codeberg.org" {
		t.Errorf("GitRemoteHost = %q, want codeberg.org", cfg.GitRemoteHost)
	}
	if cfg.MaxParallel != 4 {
		t.Errorf("MaxParallel = %d, want 4", cfg.MaxParallel)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose should be true from the config file")
	}
	if cfg.UI.NoColor {
		t.Error("UI.NoColor should keep its default")
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	SetConfigDirOverride(t.TempDir())
	t.Cleanup(Reset)

	explicit := filepath.Join(t.TempDir(), "custom.cue")
	content := `install_root: "/tmp/explicit-root"` + "\n"
	if err := os.WriteFile(explicit, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, path, err := Load(LoadOptions{ConfigFilePath: explicit})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if path != explicit {
		t.Errorf("resolved path = %q, want %q", path, explicit)
	}
	if cfg.InstallRoot != "/tmp/explicit-root" {
		t.Errorf("InstallRoot = %q, want /tmp/explicit-root", cfg.InstallRoot)
	}
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	SetConfigDirOverride(t.TempDir())
	t.Cleanup(Reset)

	missing := filepath.Join(t.TempDir(), "nope.cue")
	_, _, err := Load(LoadOptions{ConfigFilePath: missing})
	if err == nil {
		t.Fatal("Load() with missing explicit path should fail")
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("error should be an *issue.ActionableError, got %T", err)
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("error = %q, should mention the missing file", err.Error())
	}
	if !ae.HasSuggestions() {
		t.Error("error should carry suggestions")
	}
}

func TestLoad_SchemaViolation(t *testing.T) {
	cfgDir := t.TempDir()
	SetConfigDirOverride(cfgDir)
	t.Cleanup(Reset)

	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "wrong type",
			content: `install_root: 42` + "\n",
		},
		{
			name:    "negative max_parallel",
			content: `max_parallel: -1` + "\n",
		},
		{
			name:    "unknown field",
			content: `instal_root: "/tmp/x"` + "\n",
		},
		{
			name:    "syntax error",
			content: `install_root: "unterminated` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cuePath := filepath.Join(cfgDir, "config.cue")
			if err := os.WriteFile(cuePath, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("failed to write config file: %v", err)
			}

			_, _, err := Load(LoadOptions{})
			if err == nil {
				t.Fatal("Load() should reject the config file")
			}
		})
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	cfgDir := t.TempDir()
	SetConfigDirOverride(cfgDir)
	t.Cleanup(Reset)

	cuePath := filepath.Join(cfgDir, "config.cue")
	content := `
install_root:    "/tmp/plugman-env-test"
git_remote_host: "codeberg.org"
`
	if err := os.WriteFile(cuePath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("PLUGMAN_GIT_REMOTE_HOST", "gitlab.example.com")
	t.Setenv("PLUGMAN_MAX_PARALLEL", "3")
	t.Setenv("PLUGMAN_UI_VERBOSE", "true")

	cfg, _, err := Load(LoadOptions{})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.GitRemoteHost != "gitlab.example.com" {
		t.Errorf("GitRemoteHost = %q, env should win over the file", cfg.GitRemoteHost)
	}
	if cfg.MaxParallel != 3 {
		t.Errorf("MaxParallel = %d, want 3 from env", cfg.MaxParallel)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose should be true from env")
	}
	if cfg.InstallRoot != "/tmp/plugman-env-test" {
		t.Errorf("InstallRoot = %q, file value should survive", cfg.InstallRoot)
	}
}

func TestEnsureInstallRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "plugins")
	cfg := &Config{InstallRoot: root}

	if err := EnsureInstallRoot(cfg); err != nil {
		t.Fatalf("EnsureInstallRoot() returned error: %v", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		t.Fatalf("install root was not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("install root should be a directory")
	}

	// Idempotent on an existing directory.
	if err := EnsureInstallRoot(cfg); err != nil {
		t.Errorf("EnsureInstallRoot() on existing dir returned error: %v", err)
	}
}
