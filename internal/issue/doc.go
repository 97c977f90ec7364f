// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError attaches the failed operation, the resource involved and
// remediation hints to an error. The issue catalog holds longer Markdown
// guidance per failure kind, rendered with glamour in verbose mode.
package issue
