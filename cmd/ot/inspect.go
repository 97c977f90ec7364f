// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/revops/ot/pkg/operator"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// recordSummary is one decoded record as shown by inspect.
type recordSummary struct {
	Command       string            `json:"command"`
	Args          operator.Args `json:"args"`
	ContentLength int           `json:"content_length"`
}

func newInspectCommand(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Describe the records on stdin without running them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd.Context(), app, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON instead of a table")
	return cmd
}

func runInspect(ctx context.Context, app *App, asJSON bool) error {
	env, err := app.setup(ctx)
	if err != nil {
		return err
	}

	var records []recordSummary
	dec := env.decoder(app.stdin)
	for {
		op, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		records = append(records, recordSummary{
			Command:       op.Command,
			Args:          op.Args,
			ContentLength: op.ContentLen,
		})
	}

	if asJSON {
		if records == nil {
			records = []recordSummary{}
		}
		payload, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("encode records: %w", err)
		}
		_, err = fmt.Fprintln(app.stdout, string(payload))
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("no records"))
		return nil
	}

	rows := make([][]string, 0, len(records))
	for i, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.Command,
			formatArgs(r.Args),
			strconv.Itoa(r.ContentLength),
		})
	}
	fmt.Fprint(app.stdout, renderTable([]string{"#", "COMMAND", "ARGS", "BYTES"}, rows))
	return nil
}

func formatArgs(args operator.Args) string {
	if len(args) == 0 {
		return "-"
	}
	return args.String()
}

// renderTable lays out rows under header with columns padded to their widest cell.
func renderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		rendered := make([]string, len(cells))
		for i, cell := range cells {
			rendered[i] = style.Width(widths[i] + style.GetPaddingRight()).Render(cell)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, rendered...) + "\n"
	}

	out := line(header, headerCellStyle)
	for _, row := range rows {
		out += line(row, cellStyle)
	}
	return out
}
