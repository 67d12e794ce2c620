package repomanager

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	itementity "github.com/ovaphlow/pitchfork/service-fullstack-go/internal/item/entity"
	itemrepo "github.com/ovaphlow/pitchfork/service-fullstack-go/internal/item/repo"
	userentity "github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/database"
)

// MemoryManager keeps everything in process memory. It backs tests and
// DATABASE_BACKEND=memory. It mirrors the postgres schema rules: unique
// case-insensitive email, item owner must exist, user delete cascades.
type MemoryManager struct {
	// txMu serializes transactions; mu guards the maps.
	txMu  sync.Mutex
	mu    sync.RWMutex
	users map[uuid.UUID]userentity.User
	items map[uuid.UUID]itementity.Item
}

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{
		users: map[uuid.UUID]userentity.User{},
		items: map[uuid.UUID]itementity.Item{},
	}
}

func (m *MemoryManager) Conn() database.DBTX { return nil }

func (m *MemoryManager) Users(database.DBTX) userrepo.Repository { return memUsers{m} }

func (m *MemoryManager) Items(database.DBTX) itemrepo.Repository { return memItems{m} }

type journalKey struct{}

// journal is the undo log of one transaction. Entries are appended while
// mu is held, so they are ordered with every other write.
type journal struct{ undo []func() }

func journalFrom(ctx context.Context) *journal {
	j, _ := ctx.Value(journalKey{}).(*journal)
	return j
}

// WithTx undoes the writes fn made when it fails. Writes made outside the
// transaction in the meantime are left alone.
func (m *MemoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, q database.DBTX) error) (err error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	j := &journal{}
	defer func() {
		if p := recover(); p != nil {
			m.rollback(j)
			panic(p)
		}
		if err != nil {
			m.rollback(j)
		}
	}()
	return fn(context.WithValue(ctx, journalKey{}, j), nil)
}

func (m *MemoryManager) rollback(j *journal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
}

// The helpers below must be called with mu held for writing.

func (m *MemoryManager) putUser(ctx context.Context, u userentity.User) {
	m.journalUser(ctx, u.ID)
	m.users[u.ID] = u
}

func (m *MemoryManager) deleteUser(ctx context.Context, id uuid.UUID) {
	m.journalUser(ctx, id)
	delete(m.users, id)
}

func (m *MemoryManager) journalUser(ctx context.Context, id uuid.UUID) {
	j := journalFrom(ctx)
	if j == nil {
		return
	}
	prev, had := m.users[id]
	j.undo = append(j.undo, func() {
		if had {
			m.users[id] = prev
		} else {
			delete(m.users, id)
		}
	})
}

func (m *MemoryManager) putItem(ctx context.Context, it itementity.Item) {
	m.journalItem(ctx, it.ID)
	m.items[it.ID] = it
}

func (m *MemoryManager) deleteItem(ctx context.Context, id uuid.UUID) {
	m.journalItem(ctx, id)
	delete(m.items, id)
}

func (m *MemoryManager) journalItem(ctx context.Context, id uuid.UUID) {
	j := journalFrom(ctx)
	if j == nil {
		return
	}
	prev, had := m.items[id]
	j.undo = append(j.undo, func() {
		if had {
			m.items[id] = prev
		} else {
			delete(m.items, id)
		}
	})
}

func page[T any](all []T, skip, limit int) []T {
	if skip >= len(all) {
		return []T{}
	}
	end := len(all)
	if limit >= 0 && limit < end-skip {
		end = skip + limit
	}
	return all[skip:end]
}

type memUsers struct{ m *MemoryManager }

func (r memUsers) emailTaken(email string, except uuid.UUID) bool {
	for id, u := range r.m.users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r memUsers) Create(ctx context.Context, u *userentity.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[u.ID]; ok {
		return fmt.Errorf("%w: users_pkey", database.ErrDuplicate)
	}
	if r.emailTaken(u.Email, u.ID) {
		return fmt.Errorf("%w: ux_users_email", database.ErrDuplicate)
	}
	r.m.putUser(ctx, *u)
	return nil
}

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (*userentity.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*userentity.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, u := range r.m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, database.ErrNotFound
}

func (r memUsers) List(_ context.Context, skip, limit int) ([]userentity.User, error) {
	r.m.mu.RLock()
	all := make([]userentity.User, 0, len(r.m.users))
	for _, u := range r.m.users {
		all = append(all, u)
	}
	r.m.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID.String() < all[j].ID.String()
	})
	return page(all, skip, limit), nil
}

func (r memUsers) Count(context.Context) (int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return len(r.m.users), nil
}

func (r memUsers) Update(ctx context.Context, u *userentity.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[u.ID]; !ok {
		return database.ErrNotFound
	}
	if r.emailTaken(u.Email, u.ID) {
		return fmt.Errorf("%w: ux_users_email", database.ErrDuplicate)
	}
	r.m.putUser(ctx, *u)
	return nil
}

// Delete cascades to the user's items like ON DELETE CASCADE.
func (r memUsers) Delete(ctx context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[id]; !ok {
		return database.ErrNotFound
	}
	r.m.deleteUser(ctx, id)
	for iid, it := range r.m.items {
		if it.OwnerID == id {
			r.m.deleteItem(ctx, iid)
		}
	}
	return nil
}

type memItems struct{ m *MemoryManager }

func (r memItems) Create(ctx context.Context, it *itementity.Item) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[it.OwnerID]; !ok {
		return fmt.Errorf("db error: owner %s does not exist", it.OwnerID)
	}
	if _, ok := r.m.items[it.ID]; ok {
		return fmt.Errorf("%w: items_pkey", database.ErrDuplicate)
	}
	r.m.putItem(ctx, *it)
	return nil
}

func (r memItems) GetByID(_ context.Context, id uuid.UUID) (*itementity.Item, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	it, ok := r.m.items[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &it, nil
}

func (r memItems) collect(match func(itementity.Item) bool) []itementity.Item {
	r.m.mu.RLock()
	all := []itementity.Item{}
	for _, it := range r.m.items {
		if match(it) {
			all = append(all, it)
		}
	}
	r.m.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID.String() < all[j].ID.String()
	})
	return all
}

func (r memItems) List(_ context.Context, skip, limit int) ([]itementity.Item, error) {
	return page(r.collect(func(itementity.Item) bool { return true }), skip, limit), nil
}

func (r memItems) ListByOwner(_ context.Context, owner uuid.UUID, skip, limit int) ([]itementity.Item, error) {
	return page(r.collect(func(it itementity.Item) bool { return it.OwnerID == owner }), skip, limit), nil
}

func (r memItems) Count(context.Context) (int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return len(r.m.items), nil
}

func (r memItems) CountByOwner(_ context.Context, owner uuid.UUID) (int, error) {
	return len(r.collect(func(it itementity.Item) bool { return it.OwnerID == owner })), nil
}

func (r memItems) Update(ctx context.Context, it *itementity.Item) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.items[it.ID]
	if !ok {
		return database.ErrNotFound
	}
	cur.Title, cur.Description = it.Title, it.Description
	r.m.putItem(ctx, cur)
	return nil
}

func (r memItems) Delete(ctx context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.items[id]; !ok {
		return database.ErrNotFound
	}
	r.m.deleteItem(ctx, id)
	return nil
}

func (r memItems) DeleteByOwner(ctx context.Context, owner uuid.UUID) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for id, it := range r.m.items {
		if it.OwnerID == owner {
			r.m.deleteItem(ctx, id)
			n++
		}
	}
	return n, nil
}
