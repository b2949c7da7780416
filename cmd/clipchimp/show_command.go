package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"clipchimp/internal/client"
	"clipchimp/internal/transcribe"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show details for one video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid video id %q", args[0])
			}

			return ctx.withClient(func(api *client.Client) error {
				video, err := api.Video(cmd.Context(), id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				color := shouldColorize(out)

				fmt.Fprintf(out, "#%d %s\n", video.ID, video.Title)
				printField(out, "status", colorize(video.Status, colorForStatus(video.Status), color))
				printField(out, "source", video.SourceURL)
				printField(out, "file", video.FilePath)
				if video.DurationSeconds > 0 {
					printField(out, "length", transcribe.FormatDisplayTime(video.DurationSeconds))
				}
				if video.SizeBytes > 0 {
					printField(out, "size", humanize.Bytes(uint64(video.SizeBytes)))
				}
				printField(out, "format", video.Format)
				printField(out, "transcript", video.TranscriptPath)
				printField(out, "subtitles", video.SubtitlePath)
				printField(out, "analysis", video.AnalysisPath)
				printField(out, "added", humanize.Time(video.CreatedAt))
				if video.ErrorMessage != "" {
					printField(out, "error", colorize(video.ErrorMessage, ansiRed, color))
				}

				if video.Summary != "" {
					fmt.Fprintf(out, "\nsummary:\n  %s\n", video.Summary)
				}
				if video.SuggestedTitle != "" {
					printField(out, "suggested title", video.SuggestedTitle)
				}
				if video.Tags != nil {
					if len(video.Tags.People) > 0 {
						printField(out, "people", strings.Join(video.Tags.People, ", "))
					}
					if len(video.Tags.Topics) > 0 {
						printField(out, "topics", strings.Join(video.Tags.Topics, ", "))
					}
				}
				return nil
			})
		},
	}
}
