// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/revops/ot/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `ot config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage ot configuration",
		Long: `Manage ot configuration.

Configuration is read from $XDG_CONFIG_HOME/ot/config.cue (~/.config/ot/config.cue),
then ./config.cue. OT_* environment variables override file values, e.g.
OT_RUNTIME=virtual or OT_EXEC_TIMEOUT=30s.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfigPath(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return err
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	out := app.stdout

	fmt.Fprintln(out, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(out)
	if cfg.Source != "" {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config file"), cfg.Source)
	} else {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(out)

	storageDir, err := cfg.ResolveStorageDir()
	if err != nil {
		storageDir = cfg.StorageDir
	}
	shell := cfg.Shell
	if shell == "" {
		shell = SubtitleStyle.Render("(auto)")
	}

	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("registry_path"), valueStyle.Render(registrySource(cfg.RegistryPath)))
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("storage_dir"), valueStyle.Render(storageDir))
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("runtime"), valueStyle.Render(cfg.Runtime.String()))
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("shell"), valueStyle.Render(shell))
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("exec.timeout"), valueStyle.Render(cfg.Exec.Timeout.String()))
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("decode.max_header_bytes"), valueStyle.Render(fmt.Sprint(cfg.Decode.MaxHeaderBytes)))
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("ui.verbose"), valueStyle.Render(fmt.Sprint(cfg.UI.Verbose)))
	return nil
}

func showConfigPath(app *App) error {
	path, found, err := config.FilePath(config.LoadOptions{ConfigFilePath: app.flags.configPath})
	if err != nil {
		return err
	}
	if found {
		fmt.Fprintln(app.stdout, path)
	} else {
		fmt.Fprintf(app.stdout, "%s %s\n", path, SubtitleStyle.Render("(not found, using defaults)"))
	}
	return nil
}
