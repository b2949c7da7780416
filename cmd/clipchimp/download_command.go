package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipchimp/internal/client"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var titleFlag string
	var previewFlag bool

	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Queue a video download",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(api *client.Client) error {
				pageURL := args[0]

				if previewFlag {
					preview, err := api.LinkPreview(cmd.Context(), pageURL)
					if err == nil && preview.Title != "" {
						fmt.Fprintf(cmd.OutOrStdout(), "found: %s", preview.Title)
						if preview.SiteName != "" {
							fmt.Fprintf(cmd.OutOrStdout(), " (%s)", preview.SiteName)
						}
						fmt.Fprintln(cmd.OutOrStdout())
					}
				}

				video, err := api.SubmitDownload(cmd.Context(), pageURL, titleFlag)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "queued #%d: %s\n", video.ID, video.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&titleFlag, "title", "", "Override the video title")
	cmd.Flags().BoolVar(&previewFlag, "preview", false, "Show page metadata before queueing")
	return cmd
}
