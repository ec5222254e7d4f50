// SPDX-License-Identifier: MPL-2.0

// Package helptags regenerates the per-plugin help tag indexes that editors
// consult for help lookups.
//
// A plugin ships help files under doc/ with tag definitions written as
// *tag-name* surrounded by whitespace. The generated doc/tags file maps each
// tag to its file and search pattern, one line per tag, sorted, so the editor
// can jump straight to the definition.
package helptags

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// tagPattern matches a candidate tag between asterisks. Boundary whitespace
// is checked separately so adjacent tags on one line are all seen.
var tagPattern = regexp.MustCompile(`\*([^*\s|]+)\*`)

// Generate rewrites the doc/tags index of every package under installRoot
// that ships help files. It returns how many doc directories were indexed.
func Generate(installRoot string) (int, error) {
	entries, err := os.ReadDir(installRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading install root %s: %w", installRoot, err)
	}

	indexed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		docDir := filepath.Join(installRoot, entry.Name(), "doc")
		ok, err := generateDir(docDir)
		if err != nil {
			return indexed, err
		}
		if ok {
			indexed++
		}
	}
	return indexed, nil
}

// generateDir indexes a single doc directory. It reports false when the
// directory does not exist or holds no help files.
func generateDir(docDir string) (bool, error) {
	entries, err := os.ReadDir(docDir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading doc directory %s: %w", docDir, err)
	}

	// First definition of a tag wins; files arrive in lexical order.
	tags := make(map[string]string)
	sawHelpFile := false
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		sawHelpFile = true

		data, err := os.ReadFile(filepath.Join(docDir, entry.Name()))
		if err != nil {
			return false, fmt.Errorf("reading help file: %w", err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			for _, tag := range extractTags(line) {
				if _, dup := tags[tag]; !dup {
					tags[tag] = entry.Name()
				}
			}
		}
	}
	if !sawHelpFile {
		return false, nil
	}

	names := make([]string, 0, len(tags))
	for tag := range tags {
		names = append(names, tag)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, tag := range names {
		fmt.Fprintf(&b, "%s\t%s\t/*%s*\n", tag, tags[tag], tag)
	}

	tagsFile := filepath.Join(docDir, "tags")
	if err := os.WriteFile(tagsFile, []byte(b.String()), 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", tagsFile, err)
	}
	return true, nil
}

// extractTags returns every *tag* on the line whose asterisks sit against
// whitespace or the line boundary. Mid-word asterisks are not tags.
func extractTags(line string) []string {
	var found []string
	for _, m := range tagPattern.FindAllStringSubmatchIndex(line, -1) {
		start, end := m[0], m[1]
		if start > 0 {
			r, _ := utf8.DecodeLastRuneInString(line[:start])
			if !unicode.IsSpace(r) {
				continue
			}
		}
		if end < len(line) {
			r, _ := utf8.DecodeRuneInString(line[end:])
			if !unicode.IsSpace(r) {
				continue
			}
		}
		found = append(found, line[m[2]:m[3]])
	}
	return found
}
