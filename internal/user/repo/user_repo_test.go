package repo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/database"
)

func newRepoWithMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewUserRepo(sqlx.NewDb(db, "postgres")), mock
}

var userCols = []string{"id", "email", "full_name", "hashed_password", "is_active", "is_superuser", "created_at", "updated_at"}

func sampleUser() *entity.User {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	name := "Alice"
	return &entity.User{
		ID:             uuid.New(),
		Email:          "alice@example.com",
		FullName:       &name,
		HashedPassword: "$2a$04$hash",
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := sampleUser()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,.*updated_at\)\s*VALUES\s*\(\$1,.*\$8\)$`).
		WithArgs(u.ID, u.Email, sqlmock.AnyArg(), u.HashedPassword, true, false, u.CreatedAt, u.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), u))
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT\s+INTO\s+users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "ux_users_email"})

	err := repo.Create(context.Background(), sampleUser())
	assert.ErrorIs(t, err, database.ErrDuplicate)
}

func TestGetByID_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := sampleUser()

	rows := sqlmock.NewRows(userCols).
		AddRow(u.ID.String(), u.Email, nil, u.HashedPassword, true, true, u.CreatedAt, u.UpdatedAt)
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(u.ID).
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.Email, got.Email)
	assert.Nil(t, got.FullName)
	assert.True(t, got.IsSuperuser)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id`).
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestGetByEmail_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+email\s*=\s*\$1`).
		WithArgs("alice@example.com").
		WillReturnError(errors.New("db down"))

	_, err := repo.GetByEmail(context.Background(), "alice@example.com")
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func TestList_PagesAndCounts(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	a, b := sampleUser(), sampleUser()

	rows := sqlmock.NewRows(userCols).
		AddRow(a.ID.String(), "a@example.com", nil, "h", true, false, a.CreatedAt, a.UpdatedAt).
		AddRow(b.ID.String(), "b@example.com", "Bob", "h", false, false, b.CreatedAt, b.UpdatedAt)
	mock.ExpectQuery(`(?s)FROM\s+users\s+ORDER\s+BY\s+created_at,\s*id\s+OFFSET\s+\$1\s+LIMIT\s+\$2$`).
		WithArgs(10, 2).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT\s+COUNT\(\*\)\s+FROM\s+users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	got, err := repo.List(context.Background(), 10, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[1].FullName)
	assert.Equal(t, "Bob", *got[1].FullName)

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}

func TestUpdate(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		u := sampleUser()
		mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+email\s*=\s*\$2,.*WHERE\s+id\s*=\s*\$1$`).
			WithArgs(u.ID, u.Email, sqlmock.AnyArg(), u.HashedPassword, true, false, u.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.Update(context.Background(), u))
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`UPDATE\s+users`).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Update(context.Background(), sampleUser()), database.ErrNotFound)
	})
}

func TestDelete(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		id := uuid.New()
		mock.ExpectExec(`^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.Delete(context.Background(), id))
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`DELETE\s+FROM\s+users`).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Delete(context.Background(), uuid.New()), database.ErrNotFound)
	})
}
