package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	t.Parallel()

	h := BcryptHasher{Cost: bcrypt.MinCost}

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		hash, err := h.Hash("correctpassword")
		require.NoError(t, err)
		assert.NotEqual(t, "correctpassword", hash)
		assert.True(t, h.Verify(hash, "correctpassword"))
		assert.False(t, h.Verify(hash, "wrongpassword"))
	})

	t.Run("salted", func(t *testing.T) {
		t.Parallel()
		a, err := h.Hash("samepassword")
		require.NoError(t, err)
		b, err := h.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("empty or garbage hash", func(t *testing.T) {
		t.Parallel()
		assert.False(t, h.Verify("", "x"))
		assert.False(t, h.Verify("not-a-hash", "x"))
	})

	t.Run("too long", func(t *testing.T) {
		t.Parallel()
		_, err := h.Hash(strings.Repeat("a", 73))
		assert.ErrorIs(t, err, ErrPasswordTooLong)
	})

	t.Run("dummy verify", func(t *testing.T) {
		t.Parallel()
		h.DummyVerify("anything")
		assert.NotEmpty(t, dummyHash(bcrypt.MinCost))
	})
}

func TestBcryptHasher_DefaultCost(t *testing.T) {
	t.Parallel()
	assert.Equal(t, bcrypt.DefaultCost, BcryptHasher{}.cost())
	assert.Equal(t, 12, BcryptHasher{Cost: 12}.cost())
}
