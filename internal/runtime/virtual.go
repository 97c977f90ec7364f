// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRuntime interprets command lines with mvdan/sh. Pipelines,
// quoting and redirections are handled in-process; the programs named
// in the command line are still executed from PATH.
type VirtualRuntime struct{}

// NewVirtualRuntime creates a virtual runtime.
func NewVirtualRuntime() *VirtualRuntime {
	return &VirtualRuntime{}
}

// Name returns the runtime name.
func (r *VirtualRuntime) Name() string {
	return string(ModeVirtual)
}

// Run interprets req.Command with the payload as standard input.
func (r *VirtualRuntime) Run(ctx context.Context, req Request) (*Result, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(req.Command), "command")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse command: %w", ErrStart, err)
	}

	env := req.Env
	if env == nil {
		env = os.Environ()
	}

	var stdout bytes.Buffer
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(bytes.NewReader(req.Stdin), &stdout, stderrOrDiscard(req.Stderr)),
	}
	if req.Dir != "" {
		opts = append(opts, interp.Dir(req.Dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create interpreter: %w", ErrStart, err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) && ctx.Err() == nil {
			slog.Debug("command exited with non-zero status",
				"runtime", r.Name(), "command", req.Command, "exit_code", int(exitStatus))
			return &Result{Output: stdout.Bytes(), ExitCode: int(exitStatus)}, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("command interrupted: %w", ctx.Err())
		}
		return nil, fmt.Errorf("command execution failed: %w", err)
	}

	return &Result{Output: stdout.Bytes()}, nil
}
