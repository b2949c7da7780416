package main

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"clipchimp/internal/client"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage companion settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newSettingsListCommand(ctx))
	cmd.AddCommand(newSettingsSetCommand(ctx))
	cmd.AddCommand(newSettingsUnsetCommand(ctx))
	return cmd
}

func newSettingsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(api *client.Client) error {
				settings, err := api.Settings(cmd.Context())
				if err != nil {
					return err
				}
				if len(settings) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no settings stored")
					return nil
				}

				keys := make([]string, 0, len(settings))
				for key := range settings {
					keys = append(keys, key)
				}
				sort.Strings(keys)

				rows := make([]table.Row, 0, len(keys))
				for _, key := range keys {
					rows = append(rows, table.Row{key, settings[key]})
				}
				writeTable(cmd.OutOrStdout(), table.Row{"Key", "Value"}, rows)
				return nil
			})
		},
	}
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(api *client.Client) error {
				if err := api.SettingSet(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newSettingsUnsetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(api *client.Client) error {
				if err := api.SettingDelete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
				return nil
			})
		},
	}
}
