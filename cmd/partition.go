package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zzenonn/ratepart/internal/placement"
	"github.com/zzenonn/ratepart/internal/service"
)

var partitionCmd = &cobra.Command{
	Use:   "partition [range | rrobin] [n]",
	Short: "Split the ratings table into n partition tables",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := placement.ParseKind(args[0])
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("partition count must be an integer: %q", args[1])
		}
		source, _ := cmd.Flags().GetString("source")
		replace, _ := cmd.Flags().GetBool("replace")

		ctx := cmd.Context()
		return withStore(ctx, func(store service.Store) error {
			result, err := service.NewPartitionService(store, cfg.RatingsTable).BuildPartitions(ctx, kind, n, source, replace)
			if err != nil {
				return fmt.Errorf("failed to build partitions: %w", err)
			}
			for _, p := range result.Partitions {
				fmt.Printf("%s\t%d\n", p.Table, p.Rows)
			}
			fmt.Printf("Built %d %s partitions from %s (%d rows)\n", len(result.Partitions), kind, result.Source, result.Total())
			return nil
		})
	},
}

var insertCmd = &cobra.Command{
	Use:   "insert [range | rrobin] [user-id] [item-id] [rating]",
	Short: "Insert one rating and route it to its partition",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := placement.ParseKind(args[0])
		if err != nil {
			return err
		}
		userID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("user id must be an integer: %q", args[1])
		}
		itemID, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("item id must be an integer: %q", args[2])
		}
		rating, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return fmt.Errorf("rating must be a number: %q", args[3])
		}
		hint, _ := cmd.Flags().GetInt("partitions")

		ctx := cmd.Context()
		return withStore(ctx, func(store service.Store) error {
			placed, err := service.NewPartitionService(store, cfg.RatingsTable).Insert(ctx, kind, hint, userID, itemID, rating)
			if err != nil {
				return fmt.Errorf("failed to insert rating: %w", err)
			}
			fmt.Printf("Inserted into %s and %s\n", cfg.RatingsTable, placed.Table)
			return nil
		})
	},
}

var countCmd = &cobra.Command{
	Use:   "count [range | rrobin]",
	Short: "Print how many partitions of a scheme exist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := placement.ParseKind(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		return withStore(ctx, func(store service.Store) error {
			n, err := service.NewPartitionService(store, cfg.RatingsTable).CountPartitions(ctx, kind)
			if err != nil {
				return fmt.Errorf("failed to count partitions: %w", err)
			}
			fmt.Println(n)
			return nil
		})
	},
}

func init() {
	partitionCmd.Flags().String("source", "", "Table to split (default: the ratings table)")
	partitionCmd.Flags().Bool("replace", false, "Drop existing partitions of the scheme first")
	insertCmd.Flags().Int("partitions", 0, "Expected partition count; fail if the store disagrees")
	rootCmd.AddCommand(partitionCmd)
	rootCmd.AddCommand(insertCmd)
	rootCmd.AddCommand(countCmd)
}
