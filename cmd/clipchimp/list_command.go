package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"clipchimp/internal/client"
	"clipchimp/internal/library"
	"clipchimp/internal/transcribe"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List library videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []library.Status
			for _, value := range statusFlags {
				status, ok := library.ParseStatus(value)
				if !ok {
					return fmt.Errorf("unknown status %q", value)
				}
				statuses = append(statuses, status)
			}

			return ctx.withClient(func(api *client.Client) error {
				videos, err := api.Library(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(videos) == 0 {
					fmt.Fprintln(out, "library is empty")
					return nil
				}

				color := shouldColorize(out)
				rows := make([]table.Row, 0, len(videos))
				for _, video := range videos {
					duration := ""
					if video.DurationSeconds > 0 {
						duration = transcribe.FormatDisplayTime(video.DurationSeconds)
					}
					size := ""
					if video.SizeBytes > 0 {
						size = humanize.Bytes(uint64(video.SizeBytes))
					}
					status := colorize(video.Status, colorForStatus(video.Status), color)
					if video.ProgressPhase != "" && library.IsProcessingStatus(library.Status(video.Status)) {
						status = fmt.Sprintf("%s (%.0f%%)", status, video.ProgressPercent)
					}
					rows = append(rows, table.Row{
						video.ID,
						truncateTitle(video.Title, 48),
						status,
						duration,
						size,
						humanize.Time(video.CreatedAt),
					})
				}
				writeTable(out, table.Row{"ID", "Title", "Status", "Length", "Size", "Added"}, rows, 1, 4, 5)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&statusFlags, "status", nil, "Filter by status (repeatable)")
	return cmd
}

func truncateTitle(title string, limit int) string {
	title = strings.TrimSpace(title)
	if len(title) <= limit {
		return title
	}
	return title[:limit-3] + "..."
}
