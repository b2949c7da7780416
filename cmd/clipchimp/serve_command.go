package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"clipchimp/internal/logging"
	"clipchimp/internal/proxy"
	"clipchimp/internal/supervisor"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the companion server and the local web proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			sup, err := supervisor.New(cfg, logger)
			if err != nil {
				return err
			}
			state, err := sup.Start(runCtx)
			if err != nil {
				if errors.Is(err, supervisor.ErrAlreadyRunning) {
					return fmt.Errorf("companion already running on %s:%d (pid %d); stop the other `clipchimp serve` first",
						state.Host, state.Port, state.PID)
				}
				return err
			}
			defer sup.Stop()

			front, err := proxy.New(proxy.Options{
				CompanionHost: state.Host,
				CompanionPort: state.Port,
				StaticDir:     cfg.Paths.StaticDir,
			}, logger)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "clipchimp serving on http://%s (companion pid %d, port %d)\n",
				cfg.Server.ProxyBind, state.PID, state.Port)

			errCh := make(chan error, 1)
			go func() {
				errCh <- front.Serve(cfg.Server.ProxyBind)
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("proxy: %w", err)
			case <-runCtx.Done():
				fmt.Fprintln(cmd.OutOrStdout(), "shutting down")
				return nil
			}
		},
	}
}
