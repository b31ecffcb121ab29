package handlers

import (
	"blogsmith/internal/config"
	"blogsmith/internal/logger"
	"blogsmith/internal/persistence"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate command for database migrations
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long: `Manage database schema migrations.

Subcommands:
  up       Apply all pending migrations
  status   Show migration status

Applied migrations are tracked in the schema_migrations table. The serve and
generate commands apply pending migrations on startup as well.

Examples:
  blogsmith migrate up
  blogsmith migrate status`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateUp(cmd.Context(), cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateStatus(cmd.Context(), cmd.OutOrStdout())
		},
	})

	return cmd
}

func connect() (*persistence.SQLDB, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	db, err := persistence.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func runMigrateUp(ctx context.Context, out io.Writer) error {
	db, err := connect()
	if err != nil {
		return err
	}
	defer db.Close()

	ran, err := persistence.NewMigrator(db).Up(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Get().Info("Migrations finished", "driver", db.Driver(), "applied", ran)

	if ran == 0 {
		fmt.Fprintln(out, mutedStyle.Render("Schema already up to date"))
		return nil
	}
	fmt.Fprintln(out, createdStyle.Render(fmt.Sprintf("✓ Applied %d migration(s)", ran)))
	return nil
}

func runMigrateStatus(ctx context.Context, out io.Writer) error {
	db, err := connect()
	if err != nil {
		return err
	}
	defer db.Close()

	statuses, err := persistence.NewMigrator(db).Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Migrations (%s)", db.Driver())))
	pending := 0
	for _, s := range statuses {
		line := fmt.Sprintf("%03d %s", s.Version, s.Description)
		if s.Applied {
			fmt.Fprintln(out, createdStyle.Render("✓ "+line))
		} else {
			pending++
			fmt.Fprintln(out, skippedStyle.Render("• "+line)+mutedStyle.Render(" (pending)"))
		}
	}
	if pending > 0 {
		fmt.Fprintf(out, "\n%d pending. Run 'blogsmith migrate up' to apply.\n", pending)
	}
	return nil
}
