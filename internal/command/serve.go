package command

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/database"
)

// Server timeouts.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func serveCommand() *cobra.Command {
	var (
		addr     string
		migrate  bool
		initData bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
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

			if migrate && a.db != nil {
				if err := database.Migrate(cmd.Context(), a.db.DB, rt.logger.Named("migrate")); err != nil {
					return err
				}
			}
			if initData {
				if err := a.seedSuperuser(cmd.Context()); err != nil {
					return err
				}
			}

			if addr == "" {
				addr = rt.settings.HTTPAddr
			}
			srv := &http.Server{
				Handler:           router.RegisterRoutes(rt.logger.Named("http"), a.routes(router.NewMetrics())),
				ReadHeaderTimeout: readHeaderTimeout,
				ReadTimeout:       readTimeout,
				WriteTimeout:      writeTimeout,
			}

			var lc net.ListenConfig
			listener, err := lc.Listen(cmd.Context(), "tcp", addr)
			if err != nil {
				return err
			}
			rt.logger.Infow("starting http server", "address", listener.Addr().String(), "environment", rt.settings.Environment)

			grp, ctx := errgroup.WithContext(cmd.Context())
			serve(ctx, grp, srv, listener)
			err = grp.Wait()
			rt.logger.Info("goodbye")
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to HTTP_ADDR)")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before serving")
	cmd.Flags().BoolVar(&initData, "init-data", true, "create the first superuser before serving")
	return cmd
}

// serve runs srv on listener and shuts it down once ctx is cancelled.
func serve(ctx context.Context, grp *errgroup.Group, srv *http.Server, listener net.Listener) {
	grp.Go(func() error {
		err := srv.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	grp.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
