// Package command contains the CLI command constructors.
package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/utilities"
)

type runtimeKey struct{}

// runtime is what PersistentPreRunE hands to every sub-command.
type runtime struct {
	settings config.Settings
	logger   *zap.SugaredLogger
}

// RootCommand instantiates the root command, with all sub-commands bound.
func RootCommand() *cobra.Command {
	var base *zap.Logger
	cmd := &cobra.Command{
		Use:          "fullstack [command] [flags]",
		Short:        "Account and item API server",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}
			base, err = utilities.Init(utilities.ConfigFromEnv())
			if err != nil {
				return fmt.Errorf("failed to init logger: %w", err)
			}
			logger := base.Sugar()

			warnings, err := settings.Validate()
			for _, w := range warnings {
				logger.Warn(w)
			}
			if err != nil {
				return fmt.Errorf("invalid settings: %w", err)
			}
			logger.Debugw("settings loaded",
				"environment", settings.Environment,
				"database_backend", settings.DatabaseBackend,
				"api_prefix", settings.APIV1Str,
			)
			cmd.SetContext(context.WithValue(cmd.Context(), runtimeKey{}, &runtime{settings: settings, logger: logger}))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if base != nil {
				_ = base.Sync()
			}
		},
	}

	cmd.AddCommand(
		serveCommand(),
		migrateCommand(),
		initDataCommand(),
		userCommand(),
	)

	return cmd
}

func runtimeFrom(ctx context.Context) (*runtime, error) {
	rt, ok := ctx.Value(runtimeKey{}).(*runtime)
	if !ok {
		return nil, errors.New("settings resolution failed")
	}
	return rt, nil
}
