package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autopress/internal/config"
	"autopress/internal/pipeline"
	"autopress/internal/schedule"
	"autopress/internal/store"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one publishing batch now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				return schedule.Locked(cfg, func() error {
					orch, err := ctx.buildOrchestrator(cfg, st)
					if err != nil {
						return err
					}

					outcomes, err := orch.RunOnce(cmd.Context(), pipeline.Options{Force: force})
					if err != nil {
						return err
					}
					if len(outcomes) == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "No new leads this batch")
						return nil
					}

					fmt.Fprintln(cmd.OutOrStdout(), renderTable(
						[]string{"Lead", "Status", "Platform", "Location"},
						buildOutcomeRows(outcomes),
						[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
					))
					return nil
				})
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reprocess leads even when their URL is already known")
	return cmd
}

func buildOutcomeRows(outcomes []pipeline.Outcome) [][]string {
	rows := make([][]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		location := outcome.Location
		if outcome.Err != nil {
			location = outcome.Err.Error()
		}
		rows = append(rows, []string{
			truncate(outcome.Title, 40),
			string(outcome.Status),
			outcome.Platform,
			truncate(location, 60),
		})
	}
	return rows
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
