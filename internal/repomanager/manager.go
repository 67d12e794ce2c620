// Package repomanager vends repositories bound to a query handle, so the
// same service code runs on the pool, inside a transaction, or in memory.
package repomanager

import (
	"context"

	itemrepo "github.com/ovaphlow/pitchfork/service-fullstack-go/internal/item/repo"
	userrepo "github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/database"
)

type Manager interface {
	// Conn is the handle for statements outside a transaction.
	Conn() database.DBTX
	Users(q database.DBTX) userrepo.Repository
	Items(q database.DBTX) itemrepo.Repository
	// WithTx runs fn in one transaction; an error from fn rolls it back.
	WithTx(ctx context.Context, fn func(ctx context.Context, q database.DBTX) error) error
}
