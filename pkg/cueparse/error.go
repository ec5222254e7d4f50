// SPDX-License-Identifier: MPL-2.0

package cueparse

import (
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// DecodeError aggregates every field-level problem found in one document.
type DecodeError struct {
	// File is the document the problems were found in.
	File string

	// Problems holds one "path: message" line per finding.
	Problems []string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("%s: %s", e.File, e.Problems[0])
	}
	return fmt.Sprintf("%s:\n  %s", e.File, strings.Join(e.Problems, "\n  "))
}

// FormatError flattens a CUE error chain into a DecodeError with one
// positioned line per underlying problem. Exposed for callers that drive
// their own unify/validate flow instead of using Decode.
func FormatError(err error, filename string) error {
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return fmt.Errorf("%s: %w", filename, err)
	}

	problems := make([]string, 0, len(list))
	for _, e := range list {
		path := strings.Join(cueerrors.Path(e), ".")
		msg := e.Error()

		// CUE sometimes repeats the path inside the message itself.
		if path != "" && strings.HasPrefix(msg, path) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		}

		if path != "" {
			problems = append(problems, fmt.Sprintf("%s: %s", path, msg))
		} else {
			problems = append(problems, msg)
		}
	}
	return &DecodeError{File: filename, Problems: problems}
}
