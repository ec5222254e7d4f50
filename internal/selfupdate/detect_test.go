// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"path/filepath"
	"runtime/debug"
	"testing"
)

func TestInstallMethodString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method InstallMethod
		want   string
	}{
		{InstallUnknown, "unknown"},
		{InstallScript, "script"},
		{InstallHomebrew, "homebrew"},
		{InstallGoInstall, "go install"},
		{InstallMethod(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.method.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.method, got, tt.want)
		}
	}
}

func TestInstallMethodManaged(t *testing.T) {
	t.Parallel()

	if InstallScript.Managed() || InstallUnknown.Managed() {
		t.Error("script and unknown installs are not managed")
	}
	if !InstallHomebrew.Managed() || !InstallGoInstall.Managed() {
		t.Error("homebrew and go install are managed")
	}
}

func TestMethodFromHint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hint string
		want InstallMethod
	}{
		{"script", InstallScript},
		{"homebrew", InstallHomebrew},
		{"goinstall", InstallGoInstall},
		{"HOMEBREW", InstallHomebrew},
		{"apt", InstallUnknown},
	}
	for _, tt := range tests {
		if got := methodFromHint(tt.hint); got != tt.want {
			t.Errorf("methodFromHint(%q) = %v, want %v", tt.hint, got, tt.want)
		}
	}
}

func TestDetect_HintWins(t *testing.T) {
	installMethodHint = "homebrew"
	t.Cleanup(func() { installMethodHint = "" })

	// The hint overrides a path that would otherwise classify as script.
	if got := Detect("/home/u/.local/bin/plugman"); got != InstallHomebrew {
		t.Errorf("Detect = %v, want homebrew from the build hint", got)
	}
}

func TestDetect_PathHeuristics(t *testing.T) {
	// Point GOPATH away from any real ~/go so binaries outside it never
	// accidentally classify as go install.
	t.Setenv("GOPATH", filepath.Join(t.TempDir(), "gopath"))

	tests := []struct {
		name string
		path string
		want InstallMethod
	}{
		{"homebrew arm", "/opt/homebrew/bin/plugman", InstallHomebrew},
		{"homebrew intel", "/usr/local/Cellar/plugman/1.0.0/bin/plugman", InstallHomebrew},
		{"linuxbrew", "/home/linuxbrew/.linuxbrew/bin/plugman", InstallHomebrew},
		{"install script", "/home/u/.local/bin/plugman", InstallScript},
		{"system path", "/usr/bin/plugman", InstallUnknown},
		{"random dir", "/tmp/plugman", InstallUnknown},
	}
	for _, tt := range tests {
		if got := Detect(tt.path); got != tt.want {
			t.Errorf("%s: Detect(%q) = %v, want %v", tt.name, tt.path, got, tt.want)
		}
	}
}

func TestDetect_GoInstall(t *testing.T) {
	gopath := t.TempDir()
	t.Setenv("GOPATH", gopath)
	execPath := filepath.Join(gopath, "bin", "plugman")

	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Path: goModulePath}, true
	}
	t.Cleanup(func() { readBuildInfo = debug.ReadBuildInfo })

	if got := Detect(execPath); got != InstallGoInstall {
		t.Errorf("Detect = %v, want go install", got)
	}
}

func TestDetect_GopathBinAlone(t *testing.T) {
	gopath := t.TempDir()
	t.Setenv("GOPATH", gopath)
	execPath := filepath.Join(gopath, "bin", "plugman")

	// A manually-placed binary in GOPATH/bin has foreign build info and
	// must not classify as go install.
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Path: "example.com/other/tool"}, true
	}
	t.Cleanup(func() { readBuildInfo = debug.ReadBuildInfo })

	if got := Detect(execPath); got != InstallUnknown {
		t.Errorf("Detect = %v, want unknown without matching build info", got)
	}
}

func TestDetect_GopathPrefixBoundary(t *testing.T) {
	gopath := t.TempDir()
	t.Setenv("GOPATH", gopath)

	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Path: goModulePath}, true
	}
	t.Cleanup(func() { readBuildInfo = debug.ReadBuildInfo })

	// A sibling directory sharing the "bin" prefix is not GOPATH/bin.
	outside := filepath.Join(gopath, "binaries", "plugman")
	if got := Detect(outside); got == InstallGoInstall {
		t.Errorf("Detect(%q) = go install, the path boundary leaked", outside)
	}
}
