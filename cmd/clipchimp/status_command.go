package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipchimp/internal/client"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show companion server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			color := shouldColorize(out)

			err := ctx.withClient(func(api *client.Client) error {
				status, err := api.Status(cmd.Context())
				if err != nil {
					return err
				}

				fmt.Fprintln(out, colorize("companion: running", ansiGreen, color))
				printField(out, "pid", fmt.Sprintf("%d", status.PID))
				printField(out, "version", status.Version)
				printField(out, "started", status.StartedAt.Local().Format("2006-01-02 15:04:05"))
				printField(out, "library", status.LibraryPath)
				printField(out, "worker", fmt.Sprintf("running=%t stages=%d", status.Worker.Running, status.Worker.Stages))
				if status.Worker.LastError != "" {
					printField(out, "last error", colorize(status.Worker.LastError, ansiRed, color))
				}
				fmt.Fprintf(out, "  videos: %d total, %d pending, %d processing, %d analyzed, %d failed\n",
					status.Library.Total, status.Library.Pending, status.Library.Processing,
					status.Library.Analyzed, status.Library.Failed)

				fmt.Fprintln(out, "dependencies:")
				for _, dep := range status.Dependencies {
					line := fmt.Sprintf("  %-10s", dep.Name)
					if dep.Available {
						line += colorize("ok", ansiGreen, color) + "  " + dep.Detail
					} else if dep.Optional {
						line += colorize("missing (optional)", ansiYellow, color)
					} else {
						line += colorize("missing", ansiRed, color)
					}
					fmt.Fprintln(out, line)
				}
				return nil
			})
			if err != nil && client.IsUnavailable(err) {
				fmt.Fprintln(out, colorize("companion: not running", ansiRed, color))
				fmt.Fprintln(out, "  start it with `clipchimp serve`")
				return nil
			}
			return err
		},
	}
}
