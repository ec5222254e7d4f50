// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/mod/semver"
)

// maxBinaryBytes caps the extracted binary at 500 MB, which stops
// decompression bombs hidden in a release archive.
const maxBinaryBytes = 500 << 20

var (
	// ErrBadVersion is returned for version strings that are not semver.
	ErrBadVersion = errors.New("invalid semantic version")

	// Test seams for os.Executable and filepath.EvalSymlinks.
	osExecutable = os.Executable
	evalSymlinks = filepath.EvalSymlinks
)

type (
	// Check is the outcome of comparing the running version against a
	// release. Target is non-nil only when the upgrade is both available
	// and applicable in place.
	Check struct {
		Current   string
		Latest    string
		Target    *Release
		Method    InstallMethod
		Available bool
		Message   string
	}

	// Updater composes release lookup, install method detection, and
	// checksum verification into the check and apply steps of a
	// self-update.
	Updater struct {
		client  *ReleaseClient
		version string
	}
)

// NewUpdater creates an updater for the given running version. A nil client
// gets the production default.
func NewUpdater(version string, client *ReleaseClient) *Updater {
	if client == nil {
		client = NewReleaseClient()
	}
	return &Updater{client: client, version: version}
}

// Check compares the running version against the latest stable release, or
// against targetVersion when given. Managed installs short-circuit with
// package manager guidance before any API call.
func (u *Updater) Check(ctx context.Context, targetVersion string) (*Check, error) {
	execPath, err := resolveExecPath()
	if err != nil {
		return nil, fmt.Errorf("resolving executable path: %w", err)
	}

	method := Detect(execPath)
	if method.Managed() {
		return &Check{
			Current: u.version,
			Method:  method,
			Message: managedMessage(method, execPath),
		}, nil
	}

	var release *Release
	if targetVersion != "" {
		tag, err := normalizeVersion(targetVersion)
		if err != nil {
			return nil, err
		}
		release, err = u.client.ByTag(ctx, tag)
		if err != nil {
			return nil, fmt.Errorf("fetching release %s: %w", tag, err)
		}
	} else {
		release, err = u.client.Latest(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching latest release: %w", err)
		}
	}

	current, err := normalizeVersion(u.version)
	if err != nil {
		return nil, fmt.Errorf("running version: %w", err)
	}
	target, err := normalizeVersion(release.TagName)
	if err != nil {
		return nil, fmt.Errorf("release version: %w", err)
	}

	// Development and CI builds run pre-release versions at or beyond the
	// newest stable tag; downgrading them would be wrong.
	if semver.Prerelease(current) != "" && semver.Compare(current, target) >= 0 {
		return &Check{
			Current: u.version,
			Latest:  release.TagName,
			Method:  method,
			Message: fmt.Sprintf("Running pre-release %s (ahead of %s).", u.version, release.TagName),
		}, nil
	}

	if semver.Compare(current, target) >= 0 {
		return &Check{
			Current: u.version,
			Latest:  release.TagName,
			Method:  method,
			Message: "Already up to date.",
		}, nil
	}

	return &Check{
		Current:   u.version,
		Latest:    release.TagName,
		Target:    release,
		Method:    method,
		Available: true,
		Message:   fmt.Sprintf("Upgrade available: %s -> %s", u.version, release.TagName),
	}, nil
}

// Apply downloads the release's platform archive, verifies it against the
// release's checksums file, extracts the binary, and swaps it into place
// with a backup rename so a failed swap can be rolled back. All temp files
// live next to the running binary so every rename stays on one filesystem.
func (u *Updater) Apply(ctx context.Context, release *Release) error {
	if release == nil {
		return errors.New("release must not be nil")
	}

	execPath, err := resolveExecPath()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}

	// Archive names follow the release convention with the "v" stripped,
	// e.g. plugman_1.2.0_linux_amd64.tar.gz.
	version := strings.TrimPrefix(release.TagName, "v")
	archiveName := fmt.Sprintf("plugman_%s_%s_%s.tar.gz", version, runtime.GOOS, runtime.GOARCH)

	archiveAsset, err := findAsset(release.Assets, archiveName)
	if err != nil {
		return err
	}
	sumsAsset, err := findAsset(release.Assets, "checksums.txt")
	if err != nil {
		return err
	}

	// The checksums file is tiny; fetch it first so a bad archive digest
	// is known before the large download is trusted.
	sumsBody, err := u.client.Download(ctx, sumsAsset.BrowserDownloadURL)
	if err != nil {
		return fmt.Errorf("downloading checksums: %w", err)
	}
	defer func() { _ = sumsBody.Close() }() // read-only response body

	sums, err := ParseSums(sumsBody)
	if err != nil {
		return fmt.Errorf("parsing checksums: %w", err)
	}
	wantDigest, err := sums.For(archiveName)
	if err != nil {
		return err
	}

	targetDir := filepath.Dir(execPath)

	archivePath, err := u.downloadToTemp(ctx, archiveAsset.BrowserDownloadURL, targetDir)
	if err != nil {
		return fmt.Errorf("downloading archive: %w", err)
	}
	defer func() { _ = os.Remove(archivePath) }()

	if err := VerifyFile(archivePath, wantDigest); err != nil {
		return fmt.Errorf("verifying archive: %w", err)
	}

	newBinary, err := extractBinary(archivePath, targetDir)
	if err != nil {
		return fmt.Errorf("extracting binary: %w", err)
	}

	swapped := false
	defer func() {
		if !swapped {
			_ = os.Remove(newBinary)
		}
	}()

	info, err := os.Stat(execPath)
	if err != nil {
		return fmt.Errorf("reading binary permissions: %w", err)
	}
	if err := os.Chmod(newBinary, info.Mode()); err != nil {
		return fmt.Errorf("setting binary permissions: %w", err)
	}

	if err := swapBinary(execPath, newBinary); err != nil {
		return err
	}
	swapped = true
	return nil
}

// swapBinary replaces live with next via a backup rename: the running
// binary moves aside to live+".old" first, so a failed second rename can
// put it back. The backup removal at the end is best-effort; on Windows the
// old image stays mapped until the process exits and the leftover file is
// harmless.
func swapBinary(live, next string) error {
	backup := live + ".old"
	_ = os.Remove(backup)

	if err := os.Rename(live, backup); err != nil {
		return fmt.Errorf("moving current binary aside: %w", err)
	}
	if err := os.Rename(next, live); err != nil {
		if restoreErr := os.Rename(backup, live); restoreErr != nil {
			return fmt.Errorf("installing new binary: %w (restore also failed: %v)", err, restoreErr)
		}
		return fmt.Errorf("installing new binary: %w", err)
	}

	_ = os.Remove(backup)
	return nil
}

// downloadToTemp streams an asset into a temp file in dir and returns its
// path. The caller removes the file.
func (u *Updater) downloadToTemp(ctx context.Context, assetURL, dir string) (_ string, err error) {
	body, err := u.client.Download(ctx, assetURL)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }() // read-only response body

	tmp, err := os.CreateTemp(dir, "plugman-download-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err := io.Copy(tmp, body); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("writing download: %w", err)
	}
	return tmp.Name(), nil
}

// extractBinary pulls the plugman binary out of the tar.gz archive into a
// temp file in targetDir. Entries are matched by base name so flat and
// nested archive layouts both work.
func extractBinary(archivePath, targetDir string) (_ string, err error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = f.Close() }() // read-only handle

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("reading gzip header: %w", err)
	}
	defer func() { _ = gz.Close() }() // wraps the read-only handle

	binaryName := "plugman"
	if runtime.GOOS == "windows" {
		binaryName = "plugman.exe"
	}

	tr := tar.NewReader(gz)
	for {
		hdr, nextErr := tr.Next()
		if errors.Is(nextErr, io.EOF) {
			break
		}
		if nextErr != nil {
			return "", fmt.Errorf("reading tar entry: %w", nextErr)
		}
		if filepath.Base(hdr.Name) != binaryName {
			continue
		}

		tmp, createErr := os.CreateTemp(targetDir, "plugman-upgrade-*")
		if createErr != nil {
			return "", fmt.Errorf("creating temp file: %w", createErr)
		}

		_, copyErr := io.Copy(tmp, io.LimitReader(tr, maxBinaryBytes))
		closeErr := tmp.Close()
		if copyErr == nil {
			copyErr = closeErr
		}
		if copyErr != nil {
			_ = os.Remove(tmp.Name())
			return "", fmt.Errorf("extracting %s: %w", binaryName, copyErr)
		}
		return tmp.Name(), nil
	}

	return "", fmt.Errorf("binary %q not found in %s", binaryName, filepath.Base(archivePath))
}

// resolveExecPath returns the symlink-resolved path of the running binary.
func resolveExecPath() (string, error) {
	p, err := osExecutable()
	if err != nil {
		return "", fmt.Errorf("determining executable path: %w", err)
	}
	resolved, err := evalSymlinks(p)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", p, err)
	}
	return resolved, nil
}

// findAsset scans the release assets for an exact name match.
func findAsset(assets []Asset, name string) (*Asset, error) {
	for i := range assets {
		if assets[i].Name == name {
			return &assets[i], nil
		}
	}
	return nil, fmt.Errorf("release has no asset %q", name)
}

// managedMessage tells the user which package manager command performs the
// upgrade for a managed install.
func managedMessage(method InstallMethod, execPath string) string {
	switch method {
	case InstallHomebrew:
		return fmt.Sprintf("Detected Homebrew installation at %s\n\nTo upgrade, run:\n  brew upgrade plugman", execPath)
	case InstallGoInstall:
		return fmt.Sprintf("Detected go install at %s\n\nTo upgrade, run:\n  go install %s@latest", execPath, goModulePath)
	default:
		return ""
	}
}

// normalizeVersion prefixes "v" when missing and validates the result as
// semver.
func normalizeVersion(v string) (string, error) {
	norm := v
	if !strings.HasPrefix(norm, "v") {
		norm = "v" + norm
	}
	if !semver.IsValid(norm) {
		return "", fmt.Errorf("%w: %q", ErrBadVersion, v)
	}
	return norm, nil
}
