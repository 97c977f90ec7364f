// SPDX-License-Identifier: MPL-2.0

// Package compose runs a forward command and emits the record of its inverse.
//
// Reversible commands that need more than a registry lookup (storing
// content by hash, for example) share the same mechanics: run a forward
// pipeline over the input, let a Finalizer inspect the output and decide
// the inverse arguments, then emit the encoded inverse operator. Only
// the Finalizer differs between such commands.
package compose
