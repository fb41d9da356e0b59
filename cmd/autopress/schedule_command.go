package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"autopress/internal/config"
	"autopress/internal/schedule"
	"autopress/internal/store"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run batches at the configured daily windows until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				orch, err := ctx.buildOrchestrator(cfg, st)
				if err != nil {
					return err
				}
				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				return schedule.New(cfg, orch, logger).Run(runCtx)
			})
		},
	}
}
