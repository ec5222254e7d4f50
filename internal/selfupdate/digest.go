// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrSumMismatch is the sentinel error wrapped by SumMismatchError.
	ErrSumMismatch = errors.New("checksum mismatch")

	// ErrNoSum is returned when an asset has no entry in the checksums file.
	ErrNoSum = errors.New("no checksum recorded for asset")

	// errNoSumEntries is returned when the checksums file parses to nothing.
	errNoSumEntries = errors.New("no usable checksum entries")
)

type (
	// Sums maps asset filenames to their expected lowercase hex sha256
	// digests, as parsed from a release's checksums.txt.
	Sums map[string]string

	// SumMismatchError reports a digest that did not match, with both
	// values for debugging. Wraps ErrSumMismatch.
	SumMismatchError struct {
		File string
		Want string
		Got  string
	}
)

// Error shows both digests so a mismatch can be diagnosed from the message.
func (e *SumMismatchError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s\nwant: %s\ngot:  %s", e.File, e.Want, e.Got)
}

// Unwrap returns ErrSumMismatch for errors.Is() compatibility.
func (e *SumMismatchError) Unwrap() error { return ErrSumMismatch }

// ParseSums reads sha256sum output: one "<64 hex digits>  <filename>" entry
// per line, two spaces between the fields. Lines that do not parse are
// skipped; a file yielding no entries at all is an error.
func ParseSums(r io.Reader) (Sums, error) {
	sums := make(Sums)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		digest, filename, found := strings.Cut(line, "  ")
		if !found {
			continue
		}
		filename = strings.TrimSpace(filename)
		if filename == "" || !isHexDigest(digest) {
			continue
		}

		sums[filename] = strings.ToLower(digest)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading checksums: %w", err)
	}

	if len(sums) == 0 {
		return nil, errNoSumEntries
	}
	return sums, nil
}

// For returns the digest recorded for filename, or ErrNoSum.
func (s Sums) For(filename string) (string, error) {
	digest, ok := s[filename]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoSum, filename)
	}
	return digest, nil
}

// VerifyFile hashes the file at path and compares the digest against want,
// case-insensitively. A differing digest yields a *SumMismatchError.
func VerifyFile(path, want string) error {
	got, err := fileSHA256(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(got, want) {
		return &SumMismatchError{File: path, Want: strings.ToLower(want), Got: got}
	}
	return nil
}

// fileSHA256 streams the file through sha256 and returns the lowercase hex
// digest.
func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }() // read-only handle

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// isHexDigest reports whether s is 64 hex characters, the length of a
// sha256 digest.
func isHexDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
