package user

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/utilities"
)

const (
	MsgUserDeleted     = "User deleted successfully"
	MsgPasswordUpdated = "Password updated successfully"
)

// Handler exposes HTTP endpoints for account management.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("id: must be a valid UUID")
	}
	return id, nil
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	utilities.WriteError(w, h.logger, err)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ *entity.User) {
	skip, limit, err := utilities.Pagination(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	out, err := h.svc.List(r.Context(), skip, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ *entity.User) {
	var in entity.UserCreate
	if err := utilities.DecodeAndValidate(r, &in); err != nil {
		h.logger.Debugw("invalid user payload", "err", err)
		h.fail(w, err)
		return
	}
	u, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, u.Public())
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var in entity.UserRegister
	if err := utilities.DecodeAndValidate(r, &in); err != nil {
		h.logger.Debugw("invalid signup payload", "err", err)
		h.fail(w, err)
		return
	}
	u, err := h.svc.Register(r.Context(), in)
	if err != nil {
		h.logger.Debugw("signup failed", "err", err)
		h.fail(w, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, u.Public())
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request, caller *entity.User) {
	utilities.WriteJSON(w, http.StatusOK, caller.Public())
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request, caller *entity.User) {
	var in entity.UserUpdateMe
	if err := utilities.DecodeAndValidate(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	u, err := h.svc.UpdateMe(r.Context(), caller, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, u.Public())
}

func (h *Handler) UpdatePasswordMe(w http.ResponseWriter, r *http.Request, caller *entity.User) {
	var in entity.UpdatePassword
	if err := utilities.DecodeAndValidate(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.svc.UpdatePassword(r.Context(), caller, in); err != nil {
		h.fail(w, err)
		return
	}
	utilities.WriteMessage(w, MsgPasswordUpdated)
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request, caller *entity.User) {
	if err := h.svc.DeleteMe(r.Context(), caller); err != nil {
		h.fail(w, err)
		return
	}
	utilities.WriteMessage(w, MsgUserDeleted)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, caller *entity.User) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	u, err := h.svc.Read(r.Context(), caller, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, u.Public())
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request, _ *entity.User) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	var in entity.UserUpdate
	if err := utilities.DecodeAndValidate(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	u, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, u.Public())
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, caller *entity.User) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), caller, id); err != nil {
		h.fail(w, err)
		return
	}
	utilities.WriteMessage(w, MsgUserDeleted)
}
