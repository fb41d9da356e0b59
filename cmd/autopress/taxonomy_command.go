package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autopress/internal/services/wordpress"
	"autopress/internal/taxonomy"
)

func newTaxonomyCommand(ctx *commandContext) *cobra.Command {
	taxonomyCmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Manage the category and tag mapping",
	}

	taxonomyCmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Refresh the taxonomy cache from WordPress",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			m, err := taxonomy.NewResolver(cfg, wordpress.NewClient(cfg), logger).Sync(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d categories and %d tags to %s\n",
				len(m.Categories), len(m.Tags), cfg.TaxonomyCachePath())
			return nil
		},
	})

	return taxonomyCmd
}
