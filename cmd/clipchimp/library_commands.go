package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clipchimp/internal/client"
)

func parseVideoID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid video id %q", arg)
	}
	return id, nil
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove"},
		Short:   "Remove videos and their files",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(api *client.Client) error {
				for _, arg := range args {
					id, err := parseVideoID(arg)
					if err != nil {
						return err
					}
					if err := api.Remove(cmd.Context(), id); err != nil {
						return fmt.Errorf("remove #%d: %w", id, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "removed #%d\n", id)
				}
				return nil
			})
		},
	}
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <id>",
		Short: "Requeue a video for transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVideoID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(api *client.Client) error {
				video, err := api.Transcribe(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "#%d queued for transcription (status %s)\n", video.ID, video.Status)
				return nil
			})
		},
	}
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <id>",
		Short: "Requeue a video for analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVideoID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(api *client.Client) error {
				video, err := api.Analyze(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "#%d queued for analysis (status %s)\n", video.ID, video.Status)
				return nil
			})
		},
	}
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>",
		Short: "Retry a failed video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVideoID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(api *client.Client) error {
				video, err := api.Retry(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "#%d reset to %s\n", video.ID, video.Status)
				return nil
			})
		},
	}
}
