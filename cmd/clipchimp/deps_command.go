package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"clipchimp/internal/deps"
)

func newDepsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check external tool availability",
		Annotations: map[string]string{
			"skipConfigLoad": "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := deps.Check()

			rows := make([]table.Row, 0, len(statuses))
			for _, status := range statuses {
				availability := "missing"
				if status.Available {
					availability = "ok"
				} else if status.Optional {
					availability = "missing (optional)"
				}
				rows = append(rows, table.Row{
					status.Name,
					availability,
					status.Source,
					status.Detail,
				})
			}
			writeTable(cmd.OutOrStdout(), table.Row{"Tool", "Status", "Source", "Detail"}, rows)

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required tools: %v", missing)
			}
			return nil
		},
	}
	return cmd
}
