package auth

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/utilities"
)

const (
	MsgRecoverySent    = "Password recovery email sent"
	MsgPasswordUpdated = "Password updated successfully"
)

// Handler exposes the login and password recovery endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// AccessToken is the OAuth2 password form login: username carries the email.
func (h *Handler) AccessToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Debugw("invalid login form", "err", err)
		utilities.WriteError(w, h.logger, apperr.Validation("invalid form"))
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if username == "" || password == "" {
		utilities.WriteError(w, h.logger, apperr.Validation("username and password are required"))
		return
	}
	tok, err := h.svc.Login(r.Context(), username, password)
	if err != nil {
		h.logger.Debugw("login failed", "err", err)
		utilities.WriteError(w, h.logger, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, tok)
}

func (h *Handler) TestToken(w http.ResponseWriter, r *http.Request, caller *entity.User) {
	utilities.WriteJSON(w, http.StatusOK, caller.Public())
}

func (h *Handler) RecoverPassword(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RecoverPassword(r.Context(), r.PathValue("email")); err != nil {
		utilities.WriteError(w, h.logger, err)
		return
	}
	utilities.WriteMessage(w, MsgRecoverySent)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in entity.NewPassword
	if err := utilities.DecodeAndValidate(r, &in); err != nil {
		utilities.WriteError(w, h.logger, err)
		return
	}
	if err := h.svc.ResetPassword(r.Context(), in.Token, in.NewPassword); err != nil {
		utilities.WriteError(w, h.logger, err)
		return
	}
	utilities.WriteMessage(w, MsgPasswordUpdated)
}

// RecoveryHTMLContent lets a superuser preview the recovery email.
func (h *Handler) RecoveryHTMLContent(w http.ResponseWriter, r *http.Request, _ *entity.User) {
	msg, err := h.svc.RecoveryMessage(r.Context(), r.PathValue("email"))
	if err != nil {
		utilities.WriteError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("subject", msg.Subject)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(msg.HTML))
}
