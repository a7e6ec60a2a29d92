package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"subforge/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var asTable bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, archive storage, and model connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			out := cmd.OutOrStdout()

			if asTable {
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{r.Name, statusKindLabel(resultKind(r)), yesNo(r.Optional), r.Detail})
				}
				fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Optional", "Detail"}, rows, nil))
			} else {
				colorize := shouldColorize(out)
				for _, r := range results {
					fmt.Fprintln(out, renderStatusLine(r.Name, resultKind(r), r.Detail, colorize))
				}
			}

			if preflight.Failed(results) {
				return errors.New("one or more required checks failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asTable, "table", false, "Render results as a table")
	return cmd
}

func resultKind(r preflight.Result) statusKind {
	switch {
	case r.Passed:
		return statusOK
	case r.Optional:
		return statusWarn
	default:
		return statusError
	}
}
