// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func newStoreCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "store",
		Short: "Store stdin by SHA-256 and emit a fetch record",
		Long: `Copy stdin into the storage directory under its SHA-256 digest and
write a record to stdout that fetches it back when passed to 'ot apply'.
Storing the same bytes twice keeps a single copy.`,
		Example: `  ot store < backup.tar > backup.ref
  ot apply < backup.ref > backup.tar`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStore(cmd.Context(), app)
		},
	}
}

func runStore(ctx context.Context, app *App) error {
	env, err := app.setup(ctx)
	if err != nil {
		return err
	}
	st, err := env.store(app.stderr)
	if err != nil {
		return err
	}
	return st.Put(ctx, app.stdin, app.stdout)
}

func newFetchCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <digest>",
		Short: "Write stored content to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), app, args[0])
		},
	}
}

func runFetch(ctx context.Context, app *App, digest string) error {
	env, err := app.setup(ctx)
	if err != nil {
		return err
	}
	st, err := env.store(app.stderr)
	if err != nil {
		return err
	}
	return st.Fetch(ctx, digest, app.stdout)
}
