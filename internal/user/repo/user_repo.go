package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/database"
)

// Repository is the storage contract for accounts. Implementations return
// database.ErrNotFound and database.ErrDuplicate for the usual misses.
type Repository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context, skip, limit int) ([]entity.User, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db database.DBTX
}

func NewUserRepo(db database.DBTX) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, full_name, hashed_password, is_active, is_superuser, created_at, updated_at`

// Create inserts a new user row. The caller assigns id and timestamps.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, q,
		u.ID, u.Email, u.FullName, u.HashedPassword, u.IsActive, u.IsSuperuser, u.CreatedAt, u.UpdatedAt)
	return database.MapError(err)
}

// GetByID fetches a full user row.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	var u entity.User
	if err := sqlx.GetContext(ctx, r.db, &u, q, id); err != nil {
		return nil, database.MapError(err)
	}
	return &u, nil
}

// GetByEmail returns a user matched by email (case-insensitive due to citext).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	var u entity.User
	if err := sqlx.GetContext(ctx, r.db, &u, q, email); err != nil {
		return nil, database.MapError(err)
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context, skip, limit int) ([]entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id OFFSET $1 LIMIT $2`
	users := []entity.User{}
	if err := sqlx.SelectContext(ctx, r.db, &users, q, skip, limit); err != nil {
		return nil, database.MapError(err)
	}
	return users, nil
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, database.MapError(err)
	}
	return n, nil
}

// Update writes every mutable column of u.
func (r *UserRepo) Update(ctx context.Context, u *entity.User) error {
	const q = `UPDATE users SET email = $2, full_name = $3, hashed_password = $4,
		is_active = $5, is_superuser = $6, updated_at = $7 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q,
		u.ID, u.Email, u.FullName, u.HashedPassword, u.IsActive, u.IsSuperuser, u.UpdatedAt)
	if err != nil {
		return database.MapError(err)
	}
	return affectedOne(res)
}

func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return database.MapError(err)
	}
	return affectedOne(res)
}

type rowsAffecter interface{ RowsAffected() (int64, error) }

func affectedOne(res rowsAffecter) error {
	n, err := res.RowsAffected()
	if err != nil {
		return database.MapError(err)
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}
