package command

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

func initDataCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init-data",
		Short: "Create the first superuser from FIRST_SUPERUSER",
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
			return a.seedSuperuser(cmd.Context())
		},
	}
}

// seedSuperuser is idempotent: an existing account with the email is left alone.
func (a *app) seedSuperuser(ctx context.Context) error {
	if a.settings.FirstSuperuserPassword == "" {
		a.logger.Warn("FIRST_SUPERUSER_PASSWORD is empty, skipping first superuser")
		return nil
	}
	created, err := a.users.EnsureSuperuser(ctx, a.settings.FirstSuperuser, a.settings.FirstSuperuserPassword)
	if err != nil {
		return err
	}
	if created {
		a.logger.Infow("first superuser created", "email", a.settings.FirstSuperuser)
	} else {
		a.logger.Debugw("first superuser already exists", "email", a.settings.FirstSuperuser)
	}
	return nil
}
