package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go-cms/internal/config"
	"go-cms/internal/database"
	"go-cms/internal/features/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cmsctl",
	Short: "Operator tasks for the go-cms API",
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending credential store migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		cdb, err := database.OpenCredentialDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cdb.DB.Close()

		if err := database.MigrateUp(cdb); err != nil {
			return err
		}

		version, dirty, err := database.MigrationVersion(cdb)
		if err != nil {
			return fmt.Errorf("reading migration version: %w", err)
		}
		fmt.Printf("Credential store (%s) at version %d", cdb.Driver, version)
		if dirty {
			fmt.Print(" (dirty)")
		}
		fmt.Println()
		return nil
	},
}

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the MongoDB indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		client, err := database.Connect(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("connecting to mongodb: %w", err)
		}
		defer client.Disconnect(context.Background())

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		if err := database.EnsureIndexes(ctx, client.Database(cfg.DBName)); err != nil {
			return err
		}

		fmt.Printf("Indexes ensured on %s\n", cfg.DBName)
		return nil
	},
}

var sweepOlderThan time.Duration

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove abandoned upload staging directories",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()

		relocator, err := storage.NewFilesystemRelocator(cfg, logger)
		if err != nil {
			return err
		}

		removed, err := relocator.SweepTemp(sweepOlderThan)
		if err != nil {
			return fmt.Errorf("sweeping %s: %w", cfg.StorageRoot, err)
		}
		fmt.Printf("Removed %d staging directories older than %s\n", removed, sweepOlderThan)
		return nil
	},
}

func init() {
	sweepCmd.Flags().DurationVar(&sweepOlderThan, "older-than", 24*time.Hour, "minimum idle time of a staging directory")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(indexesCmd)
	rootCmd.AddCommand(sweepCmd)
}
