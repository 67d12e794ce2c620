package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/item/entity"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/database"
)

// Repository is the storage contract for items.
type Repository interface {
	Create(ctx context.Context, it *entity.Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Item, error)
	List(ctx context.Context, skip, limit int) ([]entity.Item, error)
	ListByOwner(ctx context.Context, owner uuid.UUID, skip, limit int) ([]entity.Item, error)
	Count(ctx context.Context) (int, error)
	CountByOwner(ctx context.Context, owner uuid.UUID) (int, error)
	Update(ctx context.Context, it *entity.Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByOwner(ctx context.Context, owner uuid.UUID) (int64, error)
}

type ItemRepo struct {
	db database.DBTX
}

func NewItemRepo(db database.DBTX) *ItemRepo { return &ItemRepo{db: db} }

const itemColumns = `id, title, description, owner_id, created_at`

func (r *ItemRepo) Create(ctx context.Context, it *entity.Item) error {
	const q = `INSERT INTO items (` + itemColumns + `) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, q, it.ID, it.Title, it.Description, it.OwnerID, it.CreatedAt)
	return database.MapError(err)
}

func (r *ItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Item, error) {
	const q = `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	var it entity.Item
	if err := sqlx.GetContext(ctx, r.db, &it, q, id); err != nil {
		return nil, database.MapError(err)
	}
	return &it, nil
}

func (r *ItemRepo) List(ctx context.Context, skip, limit int) ([]entity.Item, error) {
	const q = `SELECT ` + itemColumns + ` FROM items ORDER BY created_at, id OFFSET $1 LIMIT $2`
	items := []entity.Item{}
	if err := sqlx.SelectContext(ctx, r.db, &items, q, skip, limit); err != nil {
		return nil, database.MapError(err)
	}
	return items, nil
}

func (r *ItemRepo) ListByOwner(ctx context.Context, owner uuid.UUID, skip, limit int) ([]entity.Item, error) {
	const q = `SELECT ` + itemColumns + ` FROM items WHERE owner_id = $1 ORDER BY created_at, id OFFSET $2 LIMIT $3`
	items := []entity.Item{}
	if err := sqlx.SelectContext(ctx, r.db, &items, q, owner, skip, limit); err != nil {
		return nil, database.MapError(err)
	}
	return items, nil
}

func (r *ItemRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM items`); err != nil {
		return 0, database.MapError(err)
	}
	return n, nil
}

func (r *ItemRepo) CountByOwner(ctx context.Context, owner uuid.UUID) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM items WHERE owner_id = $1`, owner); err != nil {
		return 0, database.MapError(err)
	}
	return n, nil
}

// Update writes title and description; ownership never changes.
func (r *ItemRepo) Update(ctx context.Context, it *entity.Item) error {
	res, err := r.db.ExecContext(ctx, `UPDATE items SET title = $2, description = $3 WHERE id = $1`,
		it.ID, it.Title, it.Description)
	if err != nil {
		return database.MapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return database.MapError(err)
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (r *ItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return database.MapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return database.MapError(err)
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}

// DeleteByOwner removes every item of owner and reports how many went.
func (r *ItemRepo) DeleteByOwner(ctx context.Context, owner uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE owner_id = $1`, owner)
	if err != nil {
		return 0, database.MapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, database.MapError(err)
	}
	return n, nil
}
