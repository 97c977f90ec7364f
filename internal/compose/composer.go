// SPDX-License-Identifier: MPL-2.0

package compose

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/revops/ot/internal/runtime"
	"github.com/revops/ot/pkg/operator"
)

// stageSep joins pipeline stages into one shell command line.
const stageSep = " | "

var (
	// ErrEmptyPlan is returned when a plan has no forward command or no inverse template.
	ErrEmptyPlan = errors.New("plan needs a forward command and an inverse template")
	// ErrFinalize wraps errors returned by a Finalizer.
	ErrFinalize = errors.New("finalize failed")
)

type (
	// Finalizer turns the forward output and the initial inverse arguments
	// into the content and arguments of the emitted inverse record. It may
	// have side effects, such as persisting data.
	Finalizer interface {
		Finalize(ctx context.Context, fwdOutput []byte, invArgs operator.Args) ([]byte, operator.Args, error)
	}

	// FinalizerFunc adapts a function to Finalizer.
	FinalizerFunc func(ctx context.Context, fwdOutput []byte, invArgs operator.Args) ([]byte, operator.Args, error)

	// Plan describes one reversible composition.
	Plan struct {
		// Name identifies the composition in logs.
		Name string
		// Stages are shell pipeline stages run as the forward command.
		// Stages are joined with " | ".
		Stages []string
		// ForwardArgs fill placeholders in Stages.
		ForwardArgs operator.Args
		// Inverse is the command template of the emitted record.
		Inverse string
		// InverseArgs are the initial inverse arguments handed to the Finalizer.
		InverseArgs operator.Args
		// Finalizer decides the emitted content and arguments. Nil means Identity.
		Finalizer Finalizer
	}

	// Composer executes plans.
	Composer struct {
		Runner runtime.Runner
		// Stderr receives the forward command's standard error.
		Stderr io.Writer
		Logger *slog.Logger
	}

	identity struct{}
)

// Identity passes the forward output and arguments through unchanged.
var Identity Finalizer = identity{}

// Finalize calls f.
func (f FinalizerFunc) Finalize(ctx context.Context, fwdOutput []byte, invArgs operator.Args) ([]byte, operator.Args, error) {
	return f(ctx, fwdOutput, invArgs)
}

func (identity) Finalize(_ context.Context, fwdOutput []byte, invArgs operator.Args) ([]byte, operator.Args, error) {
	return fwdOutput, invArgs, nil
}

// Command returns the forward command line template of the plan.
func (p Plan) Command() string {
	return strings.Join(p.Stages, stageSep)
}

// Run reads the whole input, runs the forward pipeline over it, applies
// the finalizer and writes the encoded inverse operator to out. Each step
// finishes before the next starts; out is written only once the record
// is complete.
func (c *Composer) Run(ctx context.Context, plan Plan, in io.Reader, out io.Writer) error {
	rec, err := c.Record(ctx, plan, in)
	if err != nil {
		return err
	}
	if _, err := out.Write(rec); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Record is Run without the final write.
func (c *Composer) Record(ctx context.Context, plan Plan, in io.Reader) ([]byte, error) {
	if len(plan.Stages) == 0 || plan.Inverse == "" {
		return nil, ErrEmptyPlan
	}
	logger := c.logger().With("plan", plan.Name)

	content, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("%w: read input: %w", operator.ErrExecution, err)
	}

	fwd := operator.New(plan.Command(), plan.ForwardArgs, content)
	fwdOutput, err := fwd.Exec(ctx, operator.Env{Runner: c.Runner, Stderr: c.Stderr, Logger: logger})
	if err != nil {
		return nil, err
	}
	logger.Debug("forward pipeline finished", "output_len", len(fwdOutput))

	finalizer := plan.Finalizer
	if finalizer == nil {
		finalizer = Identity
	}
	output, invArgs, err := finalizer.Finalize(ctx, fwdOutput, plan.InverseArgs.Clone())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFinalize, plan.Name, err)
	}

	rec, err := operator.Marshal(operator.New(plan.Inverse, invArgs, output))
	if err != nil {
		return nil, err
	}
	logger.Debug("inverse record assembled", "inverse", plan.Inverse, "args", invArgs.String())
	return rec, nil
}

func (c *Composer) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
