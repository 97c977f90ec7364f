// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"
)

func newApplyCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Run every record on stdin and write the outputs to stdout",
		Long: `Decode the records on stdin one at a time, run each record's command
with the record's content as input, and write the outputs to stdout in
order. Decoding stops with an error at the first malformed record; output
of earlier records has already been written by then.`,
		Example: `  ot apply < notes.rec > notes.txt
  ot exec 'gzip -c' < notes.txt | ot apply`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApply(cmd.Context(), app)
		},
	}
}

func runApply(ctx context.Context, app *App) error {
	env, err := app.setup(ctx)
	if err != nil {
		return err
	}

	dec := env.decoder(app.stdin)
	opEnv := env.operatorEnv(app.stderr)
	for n := 1; ; n++ {
		op, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			env.logger.Debug("apply finished", "records", n-1)
			return nil
		}
		if err != nil {
			return err
		}

		out, err := op.Exec(ctx, opEnv)
		if err != nil {
			return err
		}
		if _, err := app.stdout.Write(out); err != nil {
			return err
		}
	}
}
