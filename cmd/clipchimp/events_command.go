package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"clipchimp/internal/client"
	"clipchimp/internal/events"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var sinceFlag uint64

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow the companion's live event stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return ctx.withClient(func(api *client.Client) error {
				ch, err := api.Events(runCtx, sinceFlag)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				color := shouldColorize(out)
				for event := range ch {
					fmt.Fprintln(out, formatEvent(event, color))
				}
				return nil
			})
		},
	}

	cmd.Flags().Uint64Var(&sinceFlag, "since", 0, "Replay retained events after this sequence number")
	return cmd
}

func formatEvent(event events.Event, color bool) string {
	timestamp := event.Timestamp.Local().Format("15:04:05")
	switch event.Type {
	case events.TypeProgress:
		line := fmt.Sprintf("%s #%d %s %.0f%%", timestamp, event.VideoID, event.Phase, event.Percent)
		if event.Message != "" {
			line += " " + event.Message
		}
		return line
	case events.TypeError:
		return colorize(fmt.Sprintf("%s #%d %s failed: %s", timestamp, event.VideoID, event.Phase, event.Message), ansiRed, color)
	default:
		return fmt.Sprintf("%s #%d %s -> %s", timestamp, event.VideoID, event.Phase, event.Message)
	}
}
