package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zzenonn/ratepart/internal/config"
	"github.com/zzenonn/ratepart/internal/logging"
	"github.com/zzenonn/ratepart/internal/repository/db"
	"github.com/zzenonn/ratepart/internal/service"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ratepart",
	Short: "Load a ratings dataset and split it into partition tables",
	Long: `ratepart loads a colon-separated ratings file into a relational store and
splits it into range partitions (by rating) or round-robin partitions (by
insertion order). New ratings can then be routed to the right partition.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	config.RegisterFlags(rootCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database if needed and migrate it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		created, err := db.EnsureDatabase(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to create the database: %w", err)
		}
		if created {
			fmt.Println("Database created")
		}

		database, err := connect(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.MigrateDb(ctx, cfg.RatingsTable); err != nil {
			return fmt.Errorf("failed to migrate the database: %w", err)
		}

		fmt.Println("Database initialized and migrated successfully")
		return nil
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.MigrateDown(cmd.Context(), cfg.RatingsTable); err != nil {
			return fmt.Errorf("failed to roll back migrations: %w", err)
		}

		fmt.Println("Database migrations rolled back successfully")
		return nil
	},
}

func initConfig() {
	configPath, _ := rootCmd.PersistentFlags().GetString("config")

	var err error
	cfg, err = config.LoadConfig(configPath, rootCmd)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logging.InitLogger(cfg)

	if cfg.DatabaseURLParameter != "" {
		ctx := context.Background()
		client, err := config.NewParameterClient(ctx)
		if err != nil {
			log.Fatalf("Failed to create SSM client: %v", err)
		}
		if err := cfg.ResolveDatabaseURL(ctx, client); err != nil {
			log.Fatalf("Failed to resolve the database URL: %v", err)
		}
	}
}

// connect opens the configured database. The caller closes it.
func connect(ctx context.Context) (*db.Database, error) {
	database, err := db.NewDatabase(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}
	return database, nil
}

// withStore runs fn against a store over a fresh connection.
func withStore(ctx context.Context, fn func(service.Store) error) error {
	database, err := connect(ctx)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(service.NewStore(database))
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(downCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
