package command

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/item"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/mail"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/repomanager"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/security"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/database"
)

// app is the wired service graph shared by the commands.
type app struct {
	settings config.Settings
	logger   *zap.SugaredLogger
	db       *sqlx.DB // nil on the memory backend
	rm       repomanager.Manager
	tokens   *security.TokenService
	mail     *mail.Service
	users    *user.Service
	items    *item.Service
	auth     *auth.Service
	guard    *auth.Guard
}

// openStore connects the configured backend.
func openStore(settings config.Settings, logger *zap.SugaredLogger) (*sqlx.DB, repomanager.Manager, error) {
	if settings.DatabaseBackend == "memory" {
		logger.Warn("using the in-memory store; data is lost on exit")
		return nil, repomanager.NewMemoryManager(), nil
	}
	db, err := database.Connect(settings.DatabaseConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}
	return db, repomanager.NewPostgresManager(db), nil
}

func newApp(settings config.Settings, logger *zap.SugaredLogger) (*app, error) {
	db, rm, err := openStore(settings, logger)
	if err != nil {
		return nil, err
	}
	a := &app{settings: settings, logger: logger, db: db, rm: rm}

	a.tokens = security.NewTokenService(settings.SecretKey, settings.AccessTokenTTL(), settings.ResetTokenTTL())
	a.mail = mail.NewService(mail.Config{
		Enabled:         settings.EmailsEnabled(),
		ProjectName:     settings.ProjectName,
		FrontendHost:    settings.FrontendHost,
		FromEmail:       settings.EmailsFromEmail,
		FromName:        settings.EmailsFromName,
		ResetValidHours: settings.EmailResetTokenExpireHours,
		SnowflakeNode:   settings.SnowflakeNode,
	}, mail.NewLogMailer(logger.Named("mail")))
	a.users = user.NewService(rm, security.BcryptHasher{Cost: settings.BcryptCost}, a.mail, logger.Named("user"))
	a.items = item.NewService(rm, logger.Named("item"))
	a.auth = auth.NewService(a.users, a.tokens, a.mail, logger.Named("auth"))
	a.guard = auth.NewGuard(a.tokens, a.users, logger.Named("auth"))
	return a, nil
}

func (a *app) routes(metrics *router.Metrics) router.Deps {
	return router.Deps{
		Settings: a.settings,
		Users:    a.users,
		Items:    a.items,
		Auth:     a.auth,
		Guard:    a.guard,
		Mail:     a.mail,
		Metrics:  metrics,
	}
}

func (a *app) requireDB() error {
	if a.db == nil {
		return errors.New("this command needs DATABASE_BACKEND=postgres")
	}
	return nil
}

func (a *app) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
