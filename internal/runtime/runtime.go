// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	// ModeNative runs commands through the host shell.
	ModeNative Mode = "native"
	// ModeVirtual runs commands through the embedded mvdan/sh interpreter.
	ModeVirtual Mode = "virtual"
)

var (
	// ErrInvalidMode is the sentinel error wrapped by InvalidModeError.
	ErrInvalidMode = errors.New("invalid runtime mode")
	// ErrStart is returned when a command cannot be started.
	ErrStart = errors.New("failed to start command")
	// ErrShellNotFound is returned by the native runtime when no shell is configured or on PATH.
	ErrShellNotFound = errors.New("no shell found")
)

type (
	// Mode selects a Runner implementation.
	Mode string

	// InvalidModeError is returned when a Mode value is not recognized.
	// It wraps ErrInvalidMode for errors.Is() compatibility.
	InvalidModeError struct {
		Value Mode
	}

	// Request describes one command invocation.
	Request struct {
		// Command is the fully substituted command line.
		Command string
		// Stdin is written to the command's standard input, which is then closed.
		Stdin []byte
		// Stderr receives the command's standard error. Nil discards it.
		Stderr io.Writer
		// Dir is the working directory; empty means the current directory.
		Dir string
		// Env replaces the inherited environment when non-nil.
		Env []string
	}

	// Result is the outcome of a command that ran to completion.
	Result struct {
		// Output is everything the command wrote to standard output.
		Output []byte
		// ExitCode is the command's exit status.
		ExitCode int
	}

	// Runner executes a Request and captures its output.
	Runner interface {
		Name() string
		Run(ctx context.Context, req Request) (*Result, error)
	}

	deadlineRunner struct {
		Runner
		timeout time.Duration
	}
)

// Error implements the error interface.
func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid runtime mode %q (valid: %s, %s)", e.Value, ModeNative, ModeVirtual)
}

// Unwrap returns ErrInvalidMode so callers can use errors.Is for programmatic detection.
func (e *InvalidModeError) Unwrap() error { return ErrInvalidMode }

// String returns the string representation of the Mode.
func (m Mode) String() string { return string(m) }

// Validate returns nil if the Mode is recognized. The zero value is
// accepted and means ModeNative.
func (m Mode) Validate() error {
	switch m {
	case "", ModeNative, ModeVirtual:
		return nil
	default:
		return &InvalidModeError{Value: m}
	}
}

// New returns the runner for mode. shell is only used by the native runner.
func New(mode Mode, shell string) (Runner, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	if mode == ModeVirtual {
		return NewVirtualRuntime(), nil
	}
	if shell != "" {
		return NewNativeRuntime(WithShell(shell)), nil
	}
	return NewNativeRuntime(), nil
}

// Deadline bounds every Run of r by timeout. A zero or negative timeout
// returns r unchanged.
func Deadline(r Runner, timeout time.Duration) Runner {
	if timeout <= 0 {
		return r
	}
	return &deadlineRunner{Runner: r, timeout: timeout}
}

func (d *deadlineRunner) Run(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	res, err := d.Runner.Run(ctx, req)
	if err == nil && ctx.Err() != nil {
		return nil, fmt.Errorf("command exceeded %s: %w", d.timeout, ctx.Err())
	}
	return res, err
}

func stderrOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
