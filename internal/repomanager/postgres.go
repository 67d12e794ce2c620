package repomanager

import (
	"context"

	"github.com/jmoiron/sqlx"

	itemrepo "github.com/ovaphlow/pitchfork/service-fullstack-go/internal/item/repo"
	userrepo "github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/database"
)

// PostgresManager vends sqlx-backed repositories.
type PostgresManager struct {
	db *sqlx.DB
}

func NewPostgresManager(db *sqlx.DB) *PostgresManager { return &PostgresManager{db: db} }

func (m *PostgresManager) Conn() database.DBTX { return m.db }

func (m *PostgresManager) Users(q database.DBTX) userrepo.Repository { return userrepo.NewUserRepo(q) }

func (m *PostgresManager) Items(q database.DBTX) itemrepo.Repository { return itemrepo.NewItemRepo(q) }

func (m *PostgresManager) WithTx(ctx context.Context, fn func(ctx context.Context, q database.DBTX) error) error {
	return database.WithTx(ctx, m.db, fn)
}
