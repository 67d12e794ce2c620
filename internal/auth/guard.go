package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/security"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/utilities"
)

var (
	ErrUnauthenticated     = apperr.New(apperr.KindUnauthenticated, "Could not validate credentials")
	ErrInactiveUser        = apperr.New(apperr.KindInactiveAccount, "Inactive user")
	ErrNotEnoughPrivileges = apperr.New(apperr.KindForbidden, "The user doesn't have enough privileges")
)

// UserLoader resolves a token subject to an account.
type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

// HandlerFunc is a handler that runs after the caller has been resolved.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, caller *entity.User)

// Guard resolves the caller of a request from its bearer token. Every
// request is resolved afresh; nothing is cached.
type Guard struct {
	tokens *security.TokenService
	users  UserLoader
	logger *zap.SugaredLogger
}

func NewGuard(tokens *security.TokenService, users UserLoader, logger *zap.SugaredLogger) *Guard {
	return &Guard{tokens: tokens, users: users, logger: logger}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, tok, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

// CurrentUser stops at the first failing step: token present, token valid,
// account exists, account active.
func (g *Guard) CurrentUser(r *http.Request) (*entity.User, error) {
	tok, ok := bearerToken(r)
	if !ok {
		return nil, ErrUnauthenticated
	}
	claims, err := g.tokens.ParseAccessToken(tok)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	u, err := g.users.GetByID(r.Context(), id)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) || errors.Is(err, database.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}
	return u, nil
}

// User requires an active account.
func (g *Guard) User(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := g.CurrentUser(r)
		if err != nil {
			g.logger.Debugw("request rejected", "path", r.URL.Path, "err", err)
			utilities.WriteError(w, g.logger, err)
			return
		}
		h(w, r, u)
	}
}

// Superuser requires an active superuser account.
func (g *Guard) Superuser(h HandlerFunc) http.HandlerFunc {
	return g.User(func(w http.ResponseWriter, r *http.Request, caller *entity.User) {
		if !caller.IsSuperuser {
			utilities.WriteError(w, g.logger, ErrNotEnoughPrivileges)
			return
		}
		h(w, r, caller)
	})
}
