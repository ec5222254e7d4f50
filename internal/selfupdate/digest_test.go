// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	digestA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	digestB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func TestParseSums(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "standard sha256sum output",
			input: digestA + "  plugman_1.0.0_linux_amd64.tar.gz\n" + digestB + "  plugman_1.0.0_darwin_arm64.tar.gz\n",
			want: map[string]string{
				"plugman_1.0.0_linux_amd64.tar.gz":  digestA,
				"plugman_1.0.0_darwin_arm64.tar.gz": digestB,
			},
		},
		{
			name:  "uppercase digest lowered",
			input: strings.ToUpper(digestA) + "  file.tar.gz\n",
			want:  map[string]string{"file.tar.gz": digestA},
		},
		{
			name:  "blank and malformed lines skipped",
			input: "\n\nnot a checksum line\n" + digestA + "  good.tar.gz\nshort  bad.tar.gz\n",
			want:  map[string]string{"good.tar.gz": digestA},
		},
		{
			name:  "single space separator skipped",
			input: digestA + " onespace.tar.gz\n" + digestB + "  twospace.tar.gz\n",
			want:  map[string]string{"twospace.tar.gz": digestB},
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "nothing parseable",
			input:   "zzzz  file\nnot hex at all\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseSums(strings.NewReader(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parsed %d entries, want %d", len(got), len(tt.want))
			}
			for file, digest := range tt.want {
				if got[file] != digest {
					t.Errorf("sums[%q] = %q, want %q", file, got[file], digest)
				}
			}
		})
	}
}

func TestSumsFor(t *testing.T) {
	t.Parallel()

	sums := Sums{"present.tar.gz": digestA}

	got, err := sums.For("present.tar.gz")
	if err != nil || got != digestA {
		t.Errorf("For(present) = %q, %v", got, err)
	}

	if _, err := sums.For("absent.tar.gz"); !errors.Is(err, ErrNoSum) {
		t.Errorf("For(absent) error = %v, want ErrNoSum", err)
	}
}

func TestVerifyFile(t *testing.T) {
	t.Parallel()

	content := []byte("release archive content")
	path := filepath.Join(t.TempDir(), "archive.tar.gz")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	sum := sha256.Sum256(content)
	good := hex.EncodeToString(sum[:])

	if err := VerifyFile(path, good); err != nil {
		t.Errorf("matching digest: unexpected error %v", err)
	}
	if err := VerifyFile(path, strings.ToUpper(good)); err != nil {
		t.Errorf("digest comparison should be case-insensitive: %v", err)
	}

	err := VerifyFile(path, digestB)
	if !errors.Is(err, ErrSumMismatch) {
		t.Fatalf("mismatch error = %v, want ErrSumMismatch", err)
	}
	var sme *SumMismatchError
	if !errors.As(err, &sme) {
		t.Fatalf("error = %T, want *SumMismatchError", err)
	}
	if sme.Want != digestB || sme.Got != good {
		t.Errorf("mismatch detail = %+v", sme)
	}
}

func TestVerifyFile_MissingFile(t *testing.T) {
	t.Parallel()

	err := VerifyFile(filepath.Join(t.TempDir(), "nope"), digestA)
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if errors.Is(err, ErrSumMismatch) {
		t.Error("a read failure is not a mismatch")
	}
}

func TestIsHexDigest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{digestA, true},
		{strings.ToUpper(digestA), true},
		{digestA[:63], false},
		{digestA + "a", false},
		{strings.Replace(digestA, "a", "g", 1), false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isHexDigest(tt.in); got != tt.want {
			t.Errorf("isHexDigest(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
