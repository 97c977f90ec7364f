// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/revops/ot/pkg/operator"

	"github.com/spf13/cobra"
)

func newExecCommand(app *App) *cobra.Command {
	var rawArgs []string

	cmd := &cobra.Command{
		Use:   "exec <template>",
		Short: "Run a registered command over stdin and emit its inverse record",
		Long: `Run a registered command template with stdin as its input and write
the inverse record to stdout: the paired template, the arguments and the
command's output. Feeding the record to 'ot apply' restores the input.

Placeholders in the template (%{name} or %<name>s) are filled from --arg.`,
		Example: `  ot exec 'gzip -c' < notes.txt > notes.rec
  ot --registry ops.cue exec 'openssl enc -aes-256-cbc -pbkdf2 -pass env:%{var}' --arg var=KEY < in > in.rec`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd.Context(), app, args[0], rawArgs)
		},
	}
	cmd.Flags().StringArrayVarP(&rawArgs, "arg", "a", nil, "template argument as name=value (repeatable)")
	return cmd
}

func runExec(ctx context.Context, app *App, template string, rawArgs []string) error {
	args, err := parseArgFlags(rawArgs)
	if err != nil {
		return err
	}

	env, err := app.setup(ctx)
	if err != nil {
		return err
	}

	content, err := io.ReadAll(app.stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	rec, err := operator.New(template, args, content).Serialize(ctx, env.operatorEnv(app.stderr))
	if err != nil {
		return err
	}
	_, err = app.stdout.Write(rec)
	return err
}

// parseArgFlags turns repeated name=value flags into an argument set.
// A later value for the same name wins.
func parseArgFlags(raw []string) (operator.Args, error) {
	args := operator.Args{}
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: --arg %q must be name=value", errUsage, kv)
		}
		args[name] = value
	}
	return args, nil
}
