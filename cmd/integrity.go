package cmd

import (
	"context"
	"fmt"

	"feedsync/core/config"
	"feedsync/core/database"
	"feedsync/core/logger"
	"feedsync/core/storage"
	"feedsync/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check the local store schema and the page archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), true, true)
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Check the local store schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), true, false)
	},
}

var archiveCheckCmd = &cobra.Command{
	Use:   "archive",
	Short: "Check and fix the page archive bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), false, true)
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(schemaCmd, archiveCheckCmd)

	archiveCheckCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create the archive bucket when missing")
}

// runIntegrityChecks connects only what the checks need, so the store is not migrated first.
func runIntegrityChecks(ctx context.Context, runSchema, runArchive bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logg.Sync()

	var db *gorm.DB
	if runSchema {
		conn, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("database connection required: %w", err)
		}
		db = conn
	}

	var client storage.Client
	if runArchive && cfg.Storage.Enabled {
		c, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}
		client = c
	}

	svc := integrity.NewService(client, cfg.Storage, db, logg)
	report := integrity.Report{Errors: map[string]string{}}

	if runSchema {
		logg.Info("Checking store schema...", zap.String("driver", cfg.Database.Driver))
		schema, err := svc.CheckSchema()
		if err != nil {
			return fmt.Errorf("schema check failed: %w", err)
		}
		report.Schema = schema
		if schema.Matched {
			logg.Info("Store schema matches expected definition.")
		}
		for table, tbl := range schema.Tables {
			if len(tbl.MissingColumns) > 0 {
				logg.Warn("Missing columns", zap.String("table", table), zap.Strings("columns", tbl.MissingColumns))
			} else if !tbl.Exists {
				logg.Warn("Missing table", zap.String("table", table))
			}
		}
	}

	if runArchive {
		if fixFlag {
			if err := svc.FixArchive(ctx); err != nil {
				return fmt.Errorf("failed to fix archive: %w", err)
			}
		}
		archive, err := svc.CheckArchive(ctx)
		if err != nil {
			logg.Warn("Archive check skipped", zap.Error(err))
			report.Errors["archive"] = err.Error()
		} else {
			report.Archive = archive
			if !archive.BucketExists {
				logg.Warn("Archive bucket missing, run with --fix to create it", zap.String("bucket", archive.Bucket))
			}
		}
	}

	return printJSON(report)
}
