// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/revops/ot/internal/issue"

	"github.com/spf13/cobra"
)

// explainTopics maps the names accepted by `ot explain` to catalog entries.
var explainTopics = map[string]issue.Id{
	"protocol":     issue.ProtocolErrorId,
	"resolution":   issue.ResolutionErrorId,
	"substitution": issue.SubstitutionErrorId,
	"execution":    issue.ExecutionErrorId,
	"persistence":  issue.PersistenceErrorId,
	"not-found":    issue.ContentNotFoundId,
	"config":       issue.ConfigLoadFailedId,
	"registry":     issue.RegistryLoadFailedId,
	"shell":        issue.ShellNotFoundId,
}

func explainTopicNames() []string {
	names := make([]string, 0, len(explainTopics))
	for name := range explainTopics {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func newExplainCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "explain <kind>",
		Short:     "Explain an error kind and how to fix it",
		Long:      "Explain an error kind and how to fix it.\n\nKinds: " + strings.Join(explainTopicNames(), ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: explainTopicNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := explainTopics[args[0]]
			if !ok {
				return fmt.Errorf("%w: unknown kind %q (known: %s)", errUsage, args[0], strings.Join(explainTopicNames(), ", "))
			}
			rendered, err := issue.Get(id).Render("auto")
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(app.stdout, rendered)
			return err
		},
	}
}
