// SPDX-License-Identifier: MPL-2.0

// Package cueparse decodes schema-validated CUE documents into Go values.
//
// Every CUE surface in plugman goes through the same flow: compile the
// embedded schema, compile the user's document, unify the document with the
// schema's root definition, validate with concrete values required, and
// decode. Validation failures come back as one DecodeError carrying every
// field-level problem with its path, not just the first.
package cueparse

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// maxDocumentSize caps parsed documents so a runaway file cannot exhaust
// memory before validation even starts.
const maxDocumentSize = 1 << 20

// Decode runs the compile/unify/validate/decode flow for one document.
// schema holds the embedded schema source, defPath names its root definition
// (e.g. "#Plugfile"), and filename labels the document in error messages.
func Decode[T any](schema, doc []byte, defPath, filename string) (*T, error) {
	if len(doc) > maxDocumentSize {
		return nil, fmt.Errorf("%s: document exceeds %d bytes", filename, maxDocumentSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: compiling schema: %w", schemaValue.Err())
	}
	schemaRoot := schemaValue.LookupPath(cue.ParsePath(defPath))
	if schemaRoot.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", defPath, schemaRoot.Err())
	}

	docValue := ctx.CompileBytes(doc, cue.Filename(filename))
	if docValue.Err() != nil {
		return nil, FormatError(docValue.Err(), filename)
	}

	unified := schemaRoot.Unify(docValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, FormatError(err, filename)
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, filename)
	}
	return &out, nil
}
