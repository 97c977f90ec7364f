// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/revops/ot/internal/issue"
)

// ServiceError is an error that carries an issue catalog ID for the CLI
// layer. Always create via newServiceError.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
func newServiceError(err error, issueID issue.Id) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{Err: err, IssueID: issueID}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// renderError writes "<kind>: <message>" to stderr and, in verbose mode,
// the catalog guidance for the error's kind. It returns the exit code.
func renderError(stderr io.Writer, err error, verbose bool) int {
	class := classify(err)

	msg := formatErrorForDisplay(err, verbose)
	if !strings.HasPrefix(msg, class.Kind) {
		msg = class.Kind + ": " + msg
	}
	fmt.Fprintln(stderr, ErrorStyle.Render(msg))

	if verbose && class.IssueID != 0 {
		renderIssue(stderr, class.IssueID)
	}
	return class.Code
}

// renderIssue writes the rendered catalog entry for id to w.
func renderIssue(w io.Writer, id issue.Id) {
	catalogEntry := issue.Get(id)
	if catalogEntry == nil {
		return
	}
	rendered, renderErr := catalogEntry.Render("dark")
	if renderErr != nil {
		slog.Warn("failed to render issue catalog entry", "issueID", id, "error", renderErr)
		return
	}
	fmt.Fprint(w, rendered)
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors use their Format method; verbose mode adds the error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
