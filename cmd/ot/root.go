// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the ot command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ot",
		Short: "Reversible operators over ordinary commands",
		Long: TitleStyle.Render("ot") + SubtitleStyle.Render(" - reversible operators over ordinary commands") + `

ot runs a registered command over stdin and emits a self-describing record
that, fed back to 'ot apply', runs the paired inverse command and restores
the original bytes.

` + SubtitleStyle.Render("Examples:") + `
  ot exec 'gzip -c' < data > data.rec       Compress, emit the inverse record
  ot apply < data.rec > data                Run the recorded inverse
  ot store < data > data.ref                Store by SHA-256, emit a fetch record
  ot inspect < data.ref                     Show records without running them
  ot registry list                          List command pairs`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(app.stdin)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&app.flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/ot/config.cue)")
	flags.StringVar(&app.flags.runtime, "runtime", "", "command runtime: native or virtual (overrides config)")
	flags.StringVar(&app.flags.registryPath, "registry", "", "registry file (overrides config)")

	rootCmd.AddCommand(
		newExecCommand(app),
		newApplyCommand(app),
		newInspectCommand(app),
		newStoreCommand(app),
		newFetchCommand(app),
		newRegistryCommand(app),
		newConfigCommand(app),
		newExplainCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the code of the failure kind.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)
	// fang prints errors itself, skipping the handler, when stderr is a
	// non-terminal *os.File. Hiding the file keeps every error on renderError.
	rootCmd.SetErr(struct{ io.Writer }{app.stderr})

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			renderError(w, err, app.Verbose())
		}),
	); err != nil {
		os.Exit(classify(err).Code)
	}
}

// run executes the command tree with args without fang's styling and
// returns the process exit code. Tests drive the CLI through it.
func run(ctx context.Context, app *App, args ...string) int {
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return renderError(app.stderr, err, app.Verbose())
	}
	return ExitOK
}
