// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/revops/ot/internal/issue"
	"github.com/revops/ot/internal/runtime"
	"github.com/revops/ot/internal/store"
	"github.com/revops/ot/pkg/operator"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantKind string
		wantCode int
		wantID   issue.Id
	}{
		{"protocol", fmt.Errorf("%w: bad", operator.ErrProtocol), "protocol error", ExitDataErr, issue.ProtocolErrorId},
		{"resolution", fmt.Errorf("%w: x", operator.ErrResolution), "resolution error", ExitNoInput, issue.ResolutionErrorId},
		{"substitution", &operator.SubstitutionError{Template: "%{a}", Missing: []string{"a"}}, "substitution error", ExitUsage, issue.SubstitutionErrorId},
		{"execution", fmt.Errorf("%w: x", operator.ErrExecution), "execution error", ExitSoftware, issue.ExecutionErrorId},
		{
			"shell not found wins over execution",
			fmt.Errorf("%w: %w", operator.ErrExecution, fmt.Errorf("%w: %w", runtime.ErrStart, runtime.ErrShellNotFound)),
			"execution error", ExitSoftware, issue.ShellNotFoundId,
		},
		{"persistence", fmt.Errorf("%w: disk full", store.ErrPersistence), "persistence error", ExitIOErr, issue.PersistenceErrorId},
		{
			"persistence wins over invalid digest",
			fmt.Errorf("%w: %w", store.ErrPersistence, store.ErrInvalidDigest),
			"persistence error", ExitIOErr, issue.PersistenceErrorId,
		},
		{"not found", fmt.Errorf("%w: abc", store.ErrNotFound), "content not found", ExitNoInput, issue.ContentNotFoundId},
		{"invalid digest", store.ErrInvalidDigest, "invalid digest", ExitUsage, 0},
		{"usage", fmt.Errorf("%w: bad flag", errUsage), "usage error", ExitUsage, 0},
		{"config", newServiceError(errors.New("x"), issue.ConfigLoadFailedId), "configuration error", ExitConfig, issue.ConfigLoadFailedId},
		{"registry", newServiceError(errors.New("x"), issue.RegistryLoadFailedId), "configuration error", ExitConfig, issue.RegistryLoadFailedId},
		{"interrupted", fmt.Errorf("%w: %w", operator.ErrExecution, context.Canceled), "interrupted", ExitInterrupted, 0},
		{"other", errors.New("boom"), "error", ExitFailure, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := classify(tt.err)
			if got.Kind != tt.wantKind || got.Code != tt.wantCode || got.IssueID != tt.wantID {
				t.Errorf("classify() = %+v, want {%s %d %d}", got, tt.wantKind, tt.wantCode, tt.wantID)
			}
		})
	}
}

func TestRenderError(t *testing.T) {
	t.Parallel()

	t.Run("kind prefix not repeated", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		code := renderError(&buf, fmt.Errorf("%w: magic marker not found", operator.ErrProtocol), false)
		if code != ExitDataErr {
			t.Errorf("code = %d", code)
		}
		if got := strings.TrimSpace(buf.String()); got != "protocol error: magic marker not found" {
			t.Errorf("rendered = %q", got)
		}
	})

	t.Run("kind prefix added", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		renderError(&buf, newServiceError(errors.New("broken"), issue.ConfigLoadFailedId), false)
		if got := strings.TrimSpace(buf.String()); got != "configuration error: broken" {
			t.Errorf("rendered = %q", got)
		}
	})

	t.Run("actionable suggestions", func(t *testing.T) {
		t.Parallel()

		err := issue.NewErrorContext().
			WithOperation("load registry").
			WithSuggestion("check the file").
			Wrap(errors.New("bad")).
			BuildError()
		var buf bytes.Buffer
		renderError(&buf, err, false)
		if !strings.Contains(buf.String(), "• check the file") {
			t.Errorf("rendered = %q", buf.String())
		}
	})
}

func TestNewServiceError_PanicsOnNil(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("newServiceError(nil) did not panic")
		}
	}()
	_ = newServiceError(nil, 0)
}

func TestParseArgFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     []string
		want    operator.Args
		wantErr bool
	}{
		{"none", nil, operator.Args{}, false},
		{"single", []string{"a=1"}, operator.Args{"a": "1"}, false},
		{"value with equals", []string{"a=b=c"}, operator.Args{"a": "b=c"}, false},
		{"empty value", []string{"a="}, operator.Args{"a": ""}, false},
		{"last wins", []string{"a=1", "a=2"}, operator.Args{"a": "2"}, false},
		{"missing equals", []string{"a"}, nil, true},
		{"empty name", []string{"=1"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseArgFlags(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, errUsage) {
					t.Errorf("parseArgFlags() error = %v, want errUsage", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseArgFlags() error = %v", err)
			}
			if got.String() != tt.want.String() || len(got) != len(tt.want) {
				t.Errorf("parseArgFlags() = %v, want %v", got, tt.want)
			}
		})
	}
}
