// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"

	"github.com/revops/ot/internal/issue"
	"github.com/revops/ot/internal/runtime"
	"github.com/revops/ot/internal/store"
	"github.com/revops/ot/pkg/operator"
)

// Exit codes follow sysexits(3) where one fits.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 64
	ExitDataErr     = 65
	ExitNoInput     = 66
	ExitSoftware    = 70
	ExitIOErr       = 74
	ExitConfig      = 78
	ExitInterrupted = 130
)

// errorClass is the user-facing classification of an error.
type errorClass struct {
	Kind    string
	Code    int
	IssueID issue.Id
}

// errUsage marks invalid command-line input that cobra cannot catch.
var errUsage = errors.New("usage error")

// errorClasses is checked in order; the first sentinel found in the chain wins.
var errorClasses = []struct {
	target error
	class  errorClass
}{
	{context.Canceled, errorClass{"interrupted", ExitInterrupted, 0}},
	{runtime.ErrShellNotFound, errorClass{"execution error", ExitSoftware, issue.ShellNotFoundId}},
	{operator.ErrProtocol, errorClass{"protocol error", ExitDataErr, issue.ProtocolErrorId}},
	{operator.ErrResolution, errorClass{"resolution error", ExitNoInput, issue.ResolutionErrorId}},
	{operator.ErrSubstitution, errorClass{"substitution error", ExitUsage, issue.SubstitutionErrorId}},
	{operator.ErrExecution, errorClass{"execution error", ExitSoftware, issue.ExecutionErrorId}},
	{store.ErrPersistence, errorClass{"persistence error", ExitIOErr, issue.PersistenceErrorId}},
	{store.ErrNotFound, errorClass{"content not found", ExitNoInput, issue.ContentNotFoundId}},
	{store.ErrInvalidDigest, errorClass{"invalid digest", ExitUsage, 0}},
	{errUsage, errorClass{"usage error", ExitUsage, 0}},
}

// classify maps err to its kind, exit code and catalog entry.
func classify(err error) errorClass {
	for _, c := range errorClasses {
		if errors.Is(err, c.target) {
			return c.class
		}
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		switch svcErr.IssueID {
		case issue.ConfigLoadFailedId, issue.RegistryLoadFailedId:
			return errorClass{"configuration error", ExitConfig, svcErr.IssueID}
		}
	}

	return errorClass{"error", ExitFailure, 0}
}
