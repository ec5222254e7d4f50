// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const (
	// InstallUnknown means the origin could not be determined, typically a
	// manual download.
	InstallUnknown InstallMethod = iota

	// InstallScript means the shell install script placed the binary in
	// ~/.local/bin.
	InstallScript

	// InstallHomebrew means Homebrew owns the binary; upgrades belong to
	// "brew upgrade plugman".
	InstallHomebrew

	// InstallGoInstall means "go install" built the binary; upgrades
	// belong to re-running it at the desired version.
	InstallGoInstall
)

// goModulePath is what debug.ReadBuildInfo reports for a go-install build
// of the published module.
const goModulePath = "github.com/plugman/plugman"

// homebrewPrefixes are the filesystem roots Homebrew installs under, across
// macOS ARM, macOS Intel, and Linuxbrew.
var homebrewPrefixes = []string{
	"/opt/homebrew/",
	"/usr/local/Cellar/",
	"/home/linuxbrew/.linuxbrew/",
}

var (
	// installMethodHint is injected with -ldflags by packaged builds and
	// wins over every path heuristic.
	installMethodHint string

	// readBuildInfo is a seam for debug.ReadBuildInfo, replaced in tests.
	readBuildInfo = debug.ReadBuildInfo
)

// InstallMethod says how the running plugman binary got onto this machine.
// It decides whether self-update may replace the binary in place or should
// defer to the package manager that owns it.
type InstallMethod int

// String returns the lowercase method name.
func (m InstallMethod) String() string {
	switch m {
	case InstallScript:
		return "script"
	case InstallHomebrew:
		return "homebrew"
	case InstallGoInstall:
		return "go install"
	default:
		return "unknown"
	}
}

// Managed reports whether an external package manager owns the binary.
func (m InstallMethod) Managed() bool {
	return m == InstallHomebrew || m == InstallGoInstall
}

// Detect classifies the binary at execPath. The build-time hint wins;
// otherwise Homebrew prefixes are checked first, then GOPATH/bin combined
// with build info (both required, a binary merely dropped into GOPATH/bin
// is not a go install), then the install script's ~/.local/bin location.
func Detect(execPath string) InstallMethod {
	if installMethodHint != "" {
		return methodFromHint(installMethodHint)
	}

	for _, prefix := range homebrewPrefixes {
		if strings.Contains(execPath, prefix) {
			return InstallHomebrew
		}
	}

	if underGopathBin(execPath) && builtFromModule() {
		return InstallGoInstall
	}

	if strings.Contains(execPath, "/.local/bin/") {
		return InstallScript
	}

	return InstallUnknown
}

func methodFromHint(hint string) InstallMethod {
	switch strings.ToLower(hint) {
	case "script":
		return InstallScript
	case "homebrew":
		return InstallHomebrew
	case "goinstall":
		return InstallGoInstall
	default:
		return InstallUnknown
	}
}

// underGopathBin reports whether execPath lives in $GOPATH/bin, defaulting
// GOPATH to ~/go the way the toolchain does.
func underGopathBin(execPath string) bool {
	gopath := os.Getenv("GOPATH")
	if gopath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return false
		}
		gopath = filepath.Join(home, "go")
	}

	bin := filepath.Clean(filepath.Join(gopath, "bin"))
	cleaned := filepath.Clean(execPath)

	// The separator suffix keeps /home/u/gobin from matching /home/u/go/bin.
	return cleaned == bin || strings.HasPrefix(cleaned, bin+string(filepath.Separator))
}

// builtFromModule reports whether the running binary's build info names the
// published module path.
func builtFromModule() bool {
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return false
	}
	return strings.Contains(info.Path, goModulePath)
}
