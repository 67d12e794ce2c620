package command

import (
	"context"
	"database/sql"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/database"
)

func migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema commands",
	}
	cmd.AddCommand(
		migrateStep("up", "Apply every pending migration", database.Migrate),
		migrateStep("down", "Roll back the most recent migration", database.MigrateDown),
		migrateStep("status", "Show the state of every migration", database.MigrationStatus),
	)
	return cmd
}

func migrateStep(use, short string, run func(context.Context, *sql.DB, *zap.SugaredLogger) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			rt, err := runtimeFrom(cmd.Context())
			if err != nil {
				return err
			}
			a, err := newApp(rt.settings, rt.logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()
			if err := a.requireDB(); err != nil {
				return err
			}
			return run(cmd.Context(), a.db.DB, rt.logger.Named("migrate"))
		},
	}
}
