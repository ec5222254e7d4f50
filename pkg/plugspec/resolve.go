// SPDX-License-Identifier: MPL-2.0

package plugspec

import (
	"os"
	"path/filepath"
	"strings"
)

// Name returns the local install directory name for the node: the alias when
// one is set, otherwise the final path segment of Source after stripping a
// trailing slash, expanding a leading "~", and dropping a ".git" suffix.
func (s *Spec) Name() string {
	if s.Alias != "" {
		return s.Alias
	}
	src := expandHome(strings.TrimSuffix(s.Source, "/"))
	name := filepath.Base(src)
	return strings.TrimSuffix(name, ".git")
}

// InstallPath returns the directory the node's files live in under the given
// install root.
func (s *Spec) InstallPath(installRoot string) string {
	return filepath.Join(installRoot, s.Name())
}

// IsLocal reports whether Source refers to an existing local directory, in
// which case fetching copies files instead of invoking Git.
func (s *Spec) IsLocal() bool {
	info, err := os.Stat(s.LocalDir())
	return err == nil && info.IsDir()
}

// LocalDir returns Source normalized as a local filesystem path: "~" expanded
// and any trailing slash stripped. Only meaningful when IsLocal reports true.
func (s *Spec) LocalDir() string {
	return expandHome(strings.TrimSuffix(s.Source, "/"))
}

// RemoteURL returns the Git remote for a non-local Source. Sources that
// already carry a URL scheme or use the git@ SSH form pass through verbatim;
// anything else is treated as an "owner/repo" shorthand on the given host.
func (s *Spec) RemoteURL(host string) string {
	src := strings.TrimSuffix(s.Source, "/")
	if strings.Contains(src, "://") || strings.HasPrefix(src, "git@") {
		return src
	}
	return "https://" + host + "/" + src + ".git"
}

// expandHome substitutes a leading "~" with the current user's home
// directory. Paths without the prefix, and paths like "~user", pass through
// unchanged, as does everything when the home directory cannot be resolved.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
