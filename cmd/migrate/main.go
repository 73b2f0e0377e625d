package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/mfgadmin/backend/internal/infrastructure/config"
	"github.com/mfgadmin/backend/internal/infrastructure/logger"
	"github.com/mfgadmin/backend/internal/infrastructure/migration"
	"github.com/mfgadmin/backend/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
)

var (
	logLevel      string
	migrationsDir string
	log           *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Storage and purchasing schema migrations",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		log, err = logger.New(&logger.Config{
			Level:      logLevel,
			Format:     "console",
			Output:     "stdout",
			TimeFormat: "2006-01-02 15:04:05",
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: withMigrator(func(m *migration.Migrator, args []string) error {
		return m.Up()
	}),
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	RunE: withMigrator(func(m *migration.Migrator, args []string) error {
		return m.Down()
	}),
}

var stepCmd = &cobra.Command{
	Use:   "step <n>",
	Short: "Apply n migrations (positive=up, negative=down)",
	Args:  cobra.ExactArgs(1),
	RunE: withMigrator(func(m *migration.Migrator, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return m.Steps(n)
	}),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the applied schema version",
	RunE: withMigrator(func(m *migration.Migrator, args []string) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	}),
}

var forceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Set the schema version without running migrations",
	Args:  cobra.ExactArgs(1),
	RunE: withMigrator(func(m *migration.Migrator, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.Force(version)
	}),
}

var createCmd = &cobra.Command{
	Use:   "create <name> [description]",
	Short: "Create a new migration file pair in the migrations directory",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		description := ""
		if len(args) > 1 {
			description = args[1]
		}
		mf, err := migration.CreateMigration(migrationsDir, args[0], description)
		if err != nil {
			return err
		}
		log.Info("Migration created",
			zap.Uint("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the migrations embedded in this binary",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := migration.ListMigrations(migrations.FS)
		if err != nil {
			return err
		}
		for _, m := range list {
			fmt.Println("  -", m.Name)
		}
		return nil
	},
}

func withMigrator(run func(m *migration.Migrator, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}

		m, err := migration.New(db, log)
		if err != nil {
			return err
		}
		defer m.Close()

		return run(m, args)
	}
}

func main() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	createCmd.Flags().StringVar(&migrationsDir, "dir", "migrations", "Directory new migration files are written to")

	rootCmd.AddCommand(upCmd, downCmd, stepCmd, versionCmd, forceCmd, createCmd, listCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
