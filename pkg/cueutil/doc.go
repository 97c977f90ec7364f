// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against an embedded schema.
//
// Both the application configuration and the operator registry are
// CUE documents checked against a schema definition shipped inside the
// binary. The flow is always the same:
//
//  1. Compile the embedded schema and look up the root definition
//  2. Compile the user document and unify it with that definition
//  3. Validate and decode into a Go value
//
// Usage:
//
//	//go:embed registry_schema.cue
//	var schema []byte
//
//	doc, err := cueutil.Decode[Document](schema, data, "#Registry",
//	    cueutil.WithFilename("operators.cue"))
package cueutil
