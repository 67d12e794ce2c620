package utilities

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/apperr"
)

func TestWriteError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		err        error
		status     int
		body       string
		authHeader string
		logged     int
	}{
		{
			name:       "unauthenticated",
			err:        apperr.New(apperr.KindUnauthenticated, "Could not validate credentials"),
			status:     http.StatusUnauthorized,
			body:       `{"detail":"Could not validate credentials"}`,
			authHeader: "Bearer",
		},
		{
			name:   "wrapped not found",
			err:    fmt.Errorf("lookup: %w", apperr.New(apperr.KindNotFound, "Item not found")),
			status: http.StatusNotFound,
			body:   `{"detail":"Item not found"}`,
		},
		{
			name:   "status override",
			err:    apperr.WithStatus(apperr.KindInactiveAccount, http.StatusBadRequest, "Inactive user"),
			status: http.StatusBadRequest,
			body:   `{"detail":"Inactive user"}`,
		},
		{
			name:   "unexpected",
			err:    errors.New("db error: connection refused"),
			status: http.StatusInternalServerError,
			body:   `{"detail":"Internal Server Error"}`,
			logged: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			core, logs := observer.New(zap.ErrorLevel)
			rec := httptest.NewRecorder()

			WriteError(rec, zap.New(core).Sugar(), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.authHeader, rec.Header().Get("WWW-Authenticate"))
			require.Equal(t, tt.logged, logs.Len())
		})
	}
}

func TestWriteMessage(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	WriteMessage(rec, "Item deleted successfully")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Item deleted successfully"}`, rec.Body.String())
}
