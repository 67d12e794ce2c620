package item

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/item/entity"
	userentity "github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/utilities"
)

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

func (h *Handler) List(w http.ResponseWriter, r *http.Request, caller *userentity.User) {
	skip, limit, err := utilities.Pagination(r)
	if err != nil {
		utilities.WriteError(w, h.logger, err)
		return
	}
	out, err := h.svc.List(r.Context(), caller, skip, limit)
	if err != nil {
		utilities.WriteError(w, h.logger, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, caller *userentity.User) {
	id, err := pathID(r)
	if err != nil {
		utilities.WriteError(w, h.logger, err)
		return
	}
	it, err := h.svc.Get(r.Context(), caller, id)
	if err != nil {
		utilities.WriteError(w, h.logger, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, it.Public())
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, caller *userentity.User) {
	var in entity.ItemCreate
	if err := utilities.DecodeAndValidate(r, &in); err != nil {
		h.logger.Debugw("invalid item payload", "err", err)
		utilities.WriteError(w, h.logger, err)
		return
	}
	it, err := h.svc.Create(r.Context(), caller, in)
	if err != nil {
		utilities.WriteError(w, h.logger, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, it.Public())
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request, caller *userentity.User) {
	id, err := pathID(r)
	if err != nil {
		utilities.WriteError(w, h.logger, err)
		return
	}
	var in entity.ItemUpdate
	if err := utilities.DecodeAndValidate(r, &in); err != nil {
		utilities.WriteError(w, h.logger, err)
		return
	}
	it, err := h.svc.Update(r.Context(), caller, id, in)
	if err != nil {
		utilities.WriteError(w, h.logger, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, it.Public())
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, caller *userentity.User) {
	id, err := pathID(r)
	if err != nil {
		utilities.WriteError(w, h.logger, err)
		return
	}
	if err := h.svc.Delete(r.Context(), caller, id); err != nil {
		utilities.WriteError(w, h.logger, err)
		return
	}
	utilities.WriteMessage(w, MsgItemDeleted)
}
