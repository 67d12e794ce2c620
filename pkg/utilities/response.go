package utilities

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/apperr"
)

// Message is the generic success body.
type Message struct {
	Message string `json:"message"`
}

// Detail is the error body.
type Detail struct {
	Detail string `json:"detail"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteMessage(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusOK, Message{Message: msg})
}

func WriteDetail(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, Detail{Detail: detail})
}

// WriteError maps err onto a response. Domain errors keep their detail;
// anything else is logged and answered with a bare 500.
func WriteError(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	if e, ok := apperr.As(err); ok {
		if e.Kind == apperr.KindUnauthenticated {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		WriteDetail(w, e.HTTPStatus(), e.Detail)
		return
	}
	if logger != nil {
		logger.Errorw("unhandled error", "err", err)
	}
	WriteDetail(w, http.StatusInternalServerError, "Internal Server Error")
}
