package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zzenonn/ratepart/internal/repository/objectstore"
	"github.com/zzenonn/ratepart/internal/service"
)

var loadCmd = &cobra.Command{
	Use:   "load [path | s3://bucket/key | gs://bucket/object]",
	Short: "Load a colon-separated ratings file into the ratings table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		factory := objectstore.NewObjectRepositoryFactory()
		defer factory.Close()

		reader, err := factory.Open(ctx, args[0], cfg.Quiet)
		if err != nil {
			return fmt.Errorf("failed to open ratings file: %w", err)
		}
		defer reader.Close()

		return withStore(ctx, func(store service.Store) error {
			n, err := service.NewRatingsService(store, cfg.RatingsTable).LoadRatings(ctx, reader)
			if err != nil {
				return fmt.Errorf("failed to load ratings: %w", err)
			}
			fmt.Printf("Loaded %d ratings into %s\n", n, cfg.RatingsTable)
			return nil
		})
	},
}

var dropCmd = &cobra.Command{
	Use:   "drop [table | all]",
	Short: "Drop one table, or every table when given \"all\"",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withStore(ctx, func(store service.Store) error {
			dropped, err := service.NewRatingsService(store, cfg.RatingsTable).DeleteTables(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to drop tables: %w", err)
			}
			for _, name := range dropped {
				fmt.Printf("Dropped %s\n", name)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(dropCmd)
}
