package user

import (
	"context"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/apperr"
	itementity "github.com/ovaphlow/pitchfork/service-fullstack-go/internal/item/entity"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/repomanager"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/security"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user/entity"
)

const testPassword = "correct-horse-battery"

func newTestService(t *testing.T) (*Service, *repomanager.MemoryManager) {
	t.Helper()
	rm := repomanager.NewMemoryManager()
	return NewService(rm, security.BcryptHasher{Cost: bcrypt.MinCost}, nil, nil), rm
}

func randomEmail() string {
	return strings.ToLower(gofakeit.FirstName()) + "." + gofakeit.LetterN(8) + "@example.com"
}

func mustCreate(t *testing.T, s *Service, superuser bool) *entity.User {
	t.Helper()
	u, err := s.Create(context.Background(), entity.UserCreate{
		Email:       randomEmail(),
		Password:    testPassword,
		IsSuperuser: &superuser,
	})
	require.NoError(t, err)
	return u
}

func ptr[T any](v T) *T { return &v }

func TestCreate(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)
	ctx := context.Background()

	email := randomEmail()
	u, err := s.Create(ctx, entity.UserCreate{Email: email, Password: testPassword, FullName: ptr("Alice")})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsSuperuser)
	assert.NotEqual(t, testPassword, u.HashedPassword)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = s.Create(ctx, entity.UserCreate{Email: strings.ToUpper(email), Password: testPassword})
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestRegister_NeverPrivileged(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)

	u, err := s.Register(context.Background(), entity.UserRegister{Email: randomEmail(), Password: testPassword})
	require.NoError(t, err)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsSuperuser)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)
	ctx := context.Background()
	u := mustCreate(t, s, false)

	got, err := s.Authenticate(ctx, u.Email, testPassword)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Authenticate(ctx, u.Email, "wrong-password")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = s.Authenticate(ctx, "ghost@example.com", testPassword)
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = s.Update(ctx, u.ID, entity.UserUpdate{IsActive: ptr(false)})
	require.NoError(t, err)
	_, err = s.Authenticate(ctx, u.Email, testPassword)
	require.ErrorIs(t, err, ErrInactiveUser)
	e, _ := apperr.As(err)
	assert.Equal(t, 400, e.HTTPStatus())
}

func TestUpdateMe(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)
	ctx := context.Background()
	alice := mustCreate(t, s, false)
	bob := mustCreate(t, s, false)

	got, err := s.UpdateMe(ctx, alice, entity.UserUpdateMe{FullName: ptr("Alice A")})
	require.NoError(t, err)
	require.NotNil(t, got.FullName)
	assert.Equal(t, "Alice A", *got.FullName)
	assert.Equal(t, alice.Email, got.Email)

	_, err = s.UpdateMe(ctx, alice, entity.UserUpdateMe{Email: ptr(bob.Email)})
	assert.ErrorIs(t, err, ErrEmailTaken)

	// keeping one's own email is not a conflict
	_, err = s.UpdateMe(ctx, alice, entity.UserUpdateMe{Email: ptr(alice.Email)})
	assert.NoError(t, err)
}

func TestUpdatePassword(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)
	ctx := context.Background()
	u := mustCreate(t, s, false)

	err := s.UpdatePassword(ctx, u, entity.UpdatePassword{CurrentPassword: "not-the-password", NewPassword: "another-password"})
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	err = s.UpdatePassword(ctx, u, entity.UpdatePassword{CurrentPassword: testPassword, NewPassword: testPassword})
	assert.ErrorIs(t, err, ErrSamePassword)

	require.NoError(t, s.UpdatePassword(ctx, u, entity.UpdatePassword{CurrentPassword: testPassword, NewPassword: "another-password"}))
	_, err = s.Authenticate(ctx, u.Email, "another-password")
	assert.NoError(t, err)
	_, err = s.Authenticate(ctx, u.Email, testPassword)
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestRead(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)
	ctx := context.Background()
	admin := mustCreate(t, s, true)
	alice := mustCreate(t, s, false)
	bob := mustCreate(t, s, false)

	got, err := s.Read(ctx, alice, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = s.Read(ctx, alice, bob.ID)
	assert.ErrorIs(t, err, ErrNotEnoughPrivileges)

	got, err = s.Read(ctx, admin, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)

	_, err = s.Read(ctx, admin, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)
	ctx := context.Background()
	alice := mustCreate(t, s, false)
	bob := mustCreate(t, s, false)

	_, err := s.Update(ctx, uuid.New(), entity.UserUpdate{FullName: ptr("x")})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.Update(ctx, alice.ID, entity.UserUpdate{Email: ptr(bob.Email)})
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := s.Update(ctx, alice.ID, entity.UserUpdate{IsSuperuser: ptr(true), Password: ptr("brand-new-password")})
	require.NoError(t, err)
	assert.True(t, got.IsSuperuser)
	_, err = s.Authenticate(ctx, alice.Email, "brand-new-password")
	assert.NoError(t, err)
}

func TestDeleteMe(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)
	ctx := context.Background()

	admin := mustCreate(t, s, true)
	assert.ErrorIs(t, s.DeleteMe(ctx, admin), ErrSuperuserSelfDelete)

	alice := mustCreate(t, s, false)
	require.NoError(t, s.DeleteMe(ctx, alice))
	_, err := s.GetByID(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDelete_CascadesItems(t *testing.T) {
	t.Parallel()
	s, rm := newTestService(t)
	ctx := context.Background()
	admin := mustCreate(t, s, true)
	alice := mustCreate(t, s, false)
	bob := mustCreate(t, s, false)

	for _, owner := range []uuid.UUID{alice.ID, alice.ID, bob.ID} {
		it := &itementity.Item{ID: uuid.New(), Title: gofakeit.BookTitle(), OwnerID: owner}
		require.NoError(t, rm.Items(nil).Create(ctx, it))
	}

	assert.ErrorIs(t, s.Delete(ctx, admin, admin.ID), ErrSuperuserSelfDelete)
	assert.ErrorIs(t, s.Delete(ctx, admin, uuid.New()), ErrUserNotFound)

	require.NoError(t, s.Delete(ctx, admin, alice.ID))

	n, err := rm.Items(nil).CountByOwner(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = rm.Items(nil).CountByOwner(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestList(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		mustCreate(t, s, false)
	}

	page, err := s.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Count)
	assert.Len(t, page.Data, 1)
}

func TestResetPassword(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)
	ctx := context.Background()
	u := mustCreate(t, s, false)

	assert.ErrorIs(t, s.ResetPassword(ctx, "ghost@example.com", "whatever-pass"), ErrEmailNotFound)

	require.NoError(t, s.ResetPassword(ctx, u.Email, "reset-password-1"))
	_, err := s.Authenticate(ctx, u.Email, "reset-password-1")
	assert.NoError(t, err)

	_, err = s.Update(ctx, u.ID, entity.UserUpdate{IsActive: ptr(false)})
	require.NoError(t, err)
	assert.ErrorIs(t, s.ResetPassword(ctx, u.Email, "reset-password-2"), ErrInactiveUser)
}

func TestEnsureSuperuser(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)
	ctx := context.Background()

	created, err := s.EnsureSuperuser(ctx, "admin@example.com", testPassword)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.EnsureSuperuser(ctx, "admin@example.com", testPassword)
	require.NoError(t, err)
	assert.False(t, created)

	u, err := s.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, u.IsSuperuser)
	assert.True(t, u.IsActive)
}

func TestPasswordTooLong(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)
	_, err := s.Register(context.Background(), entity.UserRegister{Email: randomEmail(), Password: strings.Repeat("é", 40)})
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}
