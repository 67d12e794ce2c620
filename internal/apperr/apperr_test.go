package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	t.Parallel()
	for kind, want := range map[Kind]int{
		KindInternal:        http.StatusInternalServerError,
		KindUnauthenticated: http.StatusUnauthorized,
		KindInactiveAccount: http.StatusForbidden,
		KindForbidden:       http.StatusForbidden,
		KindNotFound:        http.StatusNotFound,
		KindConflict:        http.StatusConflict,
		KindValidation:      http.StatusUnprocessableEntity,
		KindBadRequest:      http.StatusBadRequest,
	} {
		assert.Equal(t, want, New(kind, "x").HTTPStatus())
	}
	assert.Equal(t, http.StatusBadRequest, WithStatus(KindInactiveAccount, http.StatusBadRequest, "Inactive user").HTTPStatus())
}

func TestAsAndIsKind(t *testing.T) {
	t.Parallel()
	sentinel := New(KindNotFound, "Item not found")
	wrapped := fmt.Errorf("get item: %w", sentinel)

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Same(t, sentinel, e)
	assert.ErrorIs(t, wrapped, sentinel)
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindForbidden))

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsKind(nil, KindNotFound))
}
