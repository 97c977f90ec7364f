// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for ot.
//
// Records own stdout: exec and store write exactly one record there, apply
// and fetch write raw payloads, and everything else (logs, error banners,
// catalog guidance) goes to stderr.
package cmd
