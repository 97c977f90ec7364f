// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/revops/ot/pkg/operator"

	"github.com/spf13/cobra"
)

func newRegistryCommand(app *App) *cobra.Command {
	regCmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the command registry",
		Long: `Inspect the command registry: the pairs of command templates that
undo each other. The built-in registry is used unless registry_path (or
--registry) names a .cue, .yaml, .yml or .toml document.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	regCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered command pairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listRegistry(cmd.Context(), app)
		},
	})

	regCmd.AddCommand(&cobra.Command{
		Use:   "lookup <template>",
		Short: "Print the counterpart of a command template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return lookupRegistry(cmd.Context(), app, args[0])
		},
	})

	return regCmd
}

func listRegistry(ctx context.Context, app *App) error {
	env, err := app.setup(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.stdout, "%s %s\n\n",
		TitleStyle.Render("Registry"), SubtitleStyle.Render(registrySource(env.cfg.RegistryPath)))

	rows := make([][]string, 0, env.registry.Len())
	for _, p := range env.registry.Pairs() {
		rows = append(rows, []string{p.Forward, arrowStyle.String(), p.Inverse, stripMarker(env, p.Forward, p.Inverse)})
	}
	if len(rows) == 0 {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("no command pairs"))
		return nil
	}
	fmt.Fprint(app.stdout, renderTable([]string{"FORWARD", "", "INVERSE", "STRIPS NEWLINE"}, rows))
	return nil
}

// stripMarker names the side(s) of a pair whose output loses a trailing newline.
func stripMarker(env *environment, forward, inverse string) string {
	fwd, inv := env.registry.StripsNewline(forward), env.registry.StripsNewline(inverse)
	switch {
	case fwd && inv:
		return "both"
	case fwd:
		return "forward"
	case inv:
		return "inverse"
	default:
		return "-"
	}
}

func lookupRegistry(ctx context.Context, app *App, template string) error {
	env, err := app.setup(ctx)
	if err != nil {
		return err
	}
	counterpart, err := env.registry.Counterpart(template)
	if err != nil {
		return fmt.Errorf("%w: %w", operator.ErrResolution, err)
	}
	_, err = fmt.Fprintln(app.stdout, counterpart)
	return err
}
