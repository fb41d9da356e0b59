package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"autopress/internal/config"
	"autopress/internal/store"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the lead queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueClearFailedCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show lead counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				stats, err := st.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if stats.TotalLeads == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(stats.ByStatus))
				for _, status := range store.AllStatuses() {
					if count := stats.ByStatus[status]; count > 0 {
						rows = append(rows, []string{string(status), fmt.Sprintf("%d", count)})
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Status", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				fmt.Fprintf(cmd.OutOrStdout(), "Leads: %d  Articles: %d  Published: %d\n",
					stats.TotalLeads, stats.TotalArticles, stats.TotalPublished)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leads",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				statuses := make([]store.LeadStatus, 0, len(listStatuses))
				for _, raw := range listStatuses {
					status, ok := store.ParseLeadStatus(raw)
					if !ok {
						return fmt.Errorf("unknown status %q (known: %v)", raw, store.AllStatuses())
					}
					statuses = append(statuses, status)
				}

				leads, err := st.ListLeads(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(leads) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				sort.Slice(leads, func(i, j int) bool { return leads[i].ID < leads[j].ID })
				rows := make([][]string, 0, len(leads))
				for _, lead := range leads {
					rows = append(rows, []string{
						fmt.Sprintf("%d", lead.ID),
						truncate(lead.Title, 40),
						string(lead.Status),
						lead.Source,
						lead.CreatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Status", "Source", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (repeatable)")
	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every lead and its generated records",
		Long: "Delete all leads, evidence, articles, covers, and publish history.\n" +
			"Cleared URLs are rediscovered on the next batch, so previously\n" +
			"published sources will be processed again.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("refusing to clear the queue without --yes")
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				removed, err := st.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d lead(s) and all generated records\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm deletion of the whole queue")
	return cmd
}

func newQueueClearFailedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-failed",
		Short: "Delete failed leads and their evidence",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				removed, err := st.ClearFailed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d failed lead(s)\n", removed)
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Reset failed leads for the next batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				reset, err := st.RetryFailed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d lead(s) for retry\n", reset)
				return nil
			})
		},
	}
}
