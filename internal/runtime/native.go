// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"time"
)

// waitDelay bounds how long Run waits for orphaned grandchildren holding
// the output pipe after the context is canceled.
const waitDelay = 500 * time.Millisecond

type (
	// NativeRuntime executes commands using the system shell.
	NativeRuntime struct {
		shell     string
		shellArgs []string
	}

	// NativeOption configures a NativeRuntime.
	NativeOption func(*NativeRuntime)
)

// WithShell overrides shell detection.
func WithShell(shell string) NativeOption {
	return func(r *NativeRuntime) { r.shell = shell }
}

// WithShellArgs overrides the arguments placed before the command line.
func WithShellArgs(args ...string) NativeOption {
	return func(r *NativeRuntime) { r.shellArgs = args }
}

// NewNativeRuntime creates a native runtime.
func NewNativeRuntime(opts ...NativeOption) *NativeRuntime {
	r := &NativeRuntime{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the runtime name.
func (r *NativeRuntime) Name() string {
	return string(ModeNative)
}

// Run executes req.Command with "<shell> -c". The payload is supplied
// through an in-memory reader; os/exec closes the pipe after the last
// byte so the command sees end of input, and stdout is drained
// concurrently so large outputs cannot stall the writer.
func (r *NativeRuntime) Run(ctx context.Context, req Request) (*Result, error) {
	shell, err := r.getShell()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStart, err)
	}

	args := append(r.getShellArgs(shell), req.Command)
	cmd := exec.CommandContext(ctx, shell, args...)
	cmd.Dir = req.Dir
	cmd.WaitDelay = waitDelay
	if req.Env != nil {
		cmd.Env = req.Env
	}

	var stdout bytes.Buffer
	cmd.Stdin = bytes.NewReader(req.Stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = stderrOrDiscard(req.Stderr)

	err = cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			slog.Debug("command exited with non-zero status",
				"runtime", r.Name(), "command", req.Command, "exit_code", exitErr.ExitCode())
			return &Result{Output: stdout.Bytes(), ExitCode: exitErr.ExitCode()}, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("command interrupted: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: %w", ErrStart, err)
	}

	return &Result{Output: stdout.Bytes()}, nil
}

// getShell determines which shell to use.
func (r *NativeRuntime) getShell() (string, error) {
	if r.shell != "" {
		return r.shell, nil
	}

	if goruntime.GOOS == "windows" {
		if pwsh, err := exec.LookPath("pwsh"); err == nil {
			return pwsh, nil
		}
		return exec.LookPath("cmd")
	}

	if shell := os.Getenv("SHELL"); shell != "" {
		return shell, nil
	}
	if bash, err := exec.LookPath("bash"); err == nil {
		return bash, nil
	}
	if sh, err := exec.LookPath("sh"); err == nil {
		return sh, nil
	}
	return "", ErrShellNotFound
}

// getShellArgs returns the arguments to pass to the shell.
func (r *NativeRuntime) getShellArgs(shell string) []string {
	if len(r.shellArgs) > 0 {
		return append([]string(nil), r.shellArgs...)
	}

	base := strings.TrimSuffix(filepath.Base(shell), ".exe")
	switch base {
	case "cmd":
		return []string{"/C"}
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-Command"}
	default:
		return []string{"-c"}
	}
}
