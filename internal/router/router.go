package router

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/item"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/mail"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/utilities"
)

// Deps is everything the routes need. Build it once at startup.
type Deps struct {
	Settings config.Settings
	Users    *user.Service
	Items    *item.Service
	Auth     *auth.Service
	Guard    *auth.Guard
	Mail     *mail.Service
	Metrics  *Metrics
}

// handle registers p and, for collection routes ending in "/", the same
// path without the slash, so both spellings reach h.
func handle(mux *http.ServeMux, method, p string, h http.HandlerFunc) {
	if strings.HasSuffix(p, "/") {
		mux.HandleFunc(method+" "+p+"{$}", h)
		mux.HandleFunc(method+" "+strings.TrimSuffix(p, "/"), h)
		return
	}
	mux.HandleFunc(method+" "+p, h)
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, d Deps) http.Handler {
	mux := http.NewServeMux()
	prefix := strings.TrimRight(d.Settings.APIV1Str, "/")
	g := d.Guard

	// login
	authH := auth.NewHandler(d.Auth, logger)
	handle(mux, http.MethodPost, prefix+"/login/access-token", authH.AccessToken)
	handle(mux, http.MethodPost, prefix+"/login/test-token", g.User(authH.TestToken))
	handle(mux, http.MethodPost, prefix+"/password-recovery/{email}", authH.RecoverPassword)
	handle(mux, http.MethodPost, prefix+"/reset-password/", authH.ResetPassword)
	handle(mux, http.MethodPost, prefix+"/password-recovery-html-content/{email}", g.Superuser(authH.RecoveryHTMLContent))

	// users
	userH := user.NewHandler(d.Users, logger)
	handle(mux, http.MethodGet, prefix+"/users/", g.Superuser(userH.List))
	handle(mux, http.MethodPost, prefix+"/users/", g.Superuser(userH.Create))
	handle(mux, http.MethodPost, prefix+"/users/signup", userH.Signup)
	handle(mux, http.MethodGet, prefix+"/users/me", g.User(userH.Me))
	handle(mux, http.MethodPatch, prefix+"/users/me", g.User(userH.UpdateMe))
	handle(mux, http.MethodDelete, prefix+"/users/me", g.User(userH.DeleteMe))
	handle(mux, http.MethodPatch, prefix+"/users/me/password", g.User(userH.UpdatePasswordMe))
	handle(mux, http.MethodGet, prefix+"/users/{id}", g.User(userH.Get))
	handle(mux, http.MethodPatch, prefix+"/users/{id}", g.Superuser(userH.Update))
	handle(mux, http.MethodDelete, prefix+"/users/{id}", g.Superuser(userH.Delete))

	// items
	itemH := item.NewHandler(d.Items, logger)
	handle(mux, http.MethodGet, prefix+"/items/", g.User(itemH.List))
	handle(mux, http.MethodPost, prefix+"/items/", g.User(itemH.Create))
	handle(mux, http.MethodGet, prefix+"/items/{id}", g.User(itemH.Get))
	handle(mux, http.MethodPut, prefix+"/items/{id}", g.User(itemH.Update))
	handle(mux, http.MethodDelete, prefix+"/items/{id}", g.User(itemH.Delete))

	// utils
	handle(mux, http.MethodGet, prefix+"/utils/health-check/", func(w http.ResponseWriter, r *http.Request) {
		utilities.WriteJSON(w, http.StatusOK, true)
	})
	handle(mux, http.MethodPost, prefix+"/utils/test-email/", g.Superuser(testEmail(d.Mail, logger)))

	if d.Settings.IsLocal() {
		registerPrivate(mux, prefix, d.Users, logger)
	}

	metrics := d.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	mux.Handle("GET /metrics", metrics.Handler())

	var h http.Handler = metrics.Middleware(mux)
	h = CORSMiddleware(d.Settings.CORSOrigins())(h)
	h = SecurityHeadersMiddleware()(h)
	h = LoggingMiddleware(logger)(h)
	h = RequestIDMiddleware()(h)
	h = RecoverMiddleware(logger)(h)
	return h
}

func testEmail(m *mail.Service, logger *zap.SugaredLogger) auth.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ *entity.User) {
		to := r.URL.Query().Get("email_to")
		if err := utilities.Validate(struct {
			EmailTo string `json:"email_to" validate:"required,email"`
		}{to}); err != nil {
			utilities.WriteError(w, logger, err)
			return
		}
		msg, err := m.TestEmail(to)
		if err == nil {
			err = m.Send(r.Context(), msg)
		}
		if err != nil {
			utilities.WriteError(w, logger, err)
			return
		}
		utilities.WriteJSON(w, http.StatusCreated, utilities.Message{Message: "Test email sent"})
	}
}
