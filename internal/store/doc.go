// SPDX-License-Identifier: MPL-2.0

// Package store persists content under its SHA-256 digest.
//
// Put is a compose.Plan: the forward pipeline tees the input into a
// process-qualified temporary file while hashing it, and the finalizer
// moves the temporary file to <root>/<digest> (or drops it when that
// file already exists). The emitted record is the fetch command with
// the digest as its only argument and no content.
//
// Concurrent Puts of the same content are safe: every invocation writes
// its own temporary file and the final rename is atomic, so the last
// rename wins with identical bytes.
package store
