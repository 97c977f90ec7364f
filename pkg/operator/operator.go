// SPDX-License-Identifier: MPL-2.0

package operator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/revops/ot/internal/runtime"
	"github.com/revops/ot/pkg/registry"
)

type (
	// Args maps placeholder names to values.
	Args map[string]string

	// Operator is one reversible unit of work.
	Operator struct {
		// Command is the command template, placeholders unsubstituted.
		Command string
		// Args fills the placeholders of Command.
		Args Args
		// Content is fed to the command on standard input.
		Content []byte
		// ContentLen is len(Content) as carried on the wire.
		ContentLen int
	}

	// Env is what an Operator needs to run: a runner for the command and
	// the registry that knows counterparts and newline stripping.
	Env struct {
		Runner   runtime.Runner
		Registry *registry.Registry
		// Stderr receives the command's standard error. Nil discards it.
		Stderr io.Writer
		// Logger defaults to slog.Default().
		Logger *slog.Logger
	}
)

// New creates an operator. args may be nil.
func New(command string, args Args, content []byte) *Operator {
	if args == nil {
		args = Args{}
	}
	return &Operator{
		Command:    command,
		Args:       args,
		Content:    content,
		ContentLen: len(content),
	}
}

// Clone returns a copy of a with its own backing map.
func (a Args) Clone() Args {
	if a == nil {
		return Args{}
	}
	return maps.Clone(a)
}

// With returns a copy of a with key set to value.
func (a Args) With(key, value string) Args {
	out := a.Clone()
	out[key] = value
	return out
}

// String renders a in wire form, keys sorted: "k1=v1;k2=v2".
func (a Args) String() string {
	keys := slices.Sorted(maps.Keys(a))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+a[k])
	}
	return strings.Join(parts, ";")
}

// ParseArgs parses the wire form of an argument set. Each item is split
// on its first '='; the empty string yields an empty set.
func ParseArgs(s string) (Args, error) {
	args := Args{}
	if s == "" {
		return args, nil
	}
	for _, item := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(item, "=")
		if !ok || k == "" {
			return nil, protocolErrorf("malformed argument %q", item)
		}
		args[k] = v
	}
	return args, nil
}

// CommandLine returns Command with its placeholders substituted.
func (o *Operator) CommandLine() (string, error) {
	return Substitute(o.Command, o.Args)
}

// Counterpart resolves the paired template of o.Command. The lookup
// ignores Args and works from either side of a registered pair.
func (o *Operator) Counterpart(reg *registry.Registry) (string, error) {
	if reg == nil {
		return "", fmt.Errorf("%w: no registry configured", ErrResolution)
	}
	tmpl, err := reg.Counterpart(o.Command)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrResolution, err)
	}
	return tmpl, nil
}

// Exec runs the concrete command with Content on standard input and
// returns everything it wrote to standard output. When the registry
// flags the unsubstituted template, one trailing newline is removed.
// The command's exit status is not interpreted.
func (o *Operator) Exec(ctx context.Context, env Env) ([]byte, error) {
	cmdline, err := o.CommandLine()
	if err != nil {
		return nil, err
	}
	if env.Runner == nil {
		return nil, fmt.Errorf("%w: no runner configured", ErrExecution)
	}

	logger := env.logger()
	logger.Debug("exec operator", "runtime", env.Runner.Name(), "command", cmdline, "content_len", len(o.Content))

	res, err := env.Runner.Run(ctx, runtime.Request{
		Command: cmdline,
		Stdin:   o.Content,
		Stderr:  env.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrExecution, cmdline, err)
	}
	if res.ExitCode != 0 {
		logger.Debug("operator command exited non-zero", "command", cmdline, "exit_code", res.ExitCode)
	}

	out := res.Output
	if env.Registry != nil && env.Registry.StripsNewline(o.Command) {
		out = bytes.TrimSuffix(out, []byte("\n"))
	}
	return out, nil
}

// Serialize executes o and encodes the inverse record: the counterpart
// template, o's arguments and the captured output. The counterpart is
// resolved before the command runs so an unknown template has no side
// effects.
func (o *Operator) Serialize(ctx context.Context, env Env) ([]byte, error) {
	counterpart, err := o.Counterpart(env.Registry)
	if err != nil {
		return nil, err
	}
	out, err := o.Exec(ctx, env)
	if err != nil {
		return nil, err
	}
	return Marshal(New(counterpart, o.Args, out))
}

func (e Env) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
