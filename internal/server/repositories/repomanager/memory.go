package repomanager

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/memstore"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
)

// MemoryRepositoryManager vends repositories over a memstore.Store. It
// needs no migrations.
type MemoryRepositoryManager struct {
	store *memstore.Store
	h     memstore.Handle
	tx    bool
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	s := memstore.New()
	return &MemoryRepositoryManager{store: s, h: s}
}

func (m *MemoryRepositoryManager) Accounts() accounts.Repository {
	return accounts.NewMemoryRepository(m.h)
}

func (m *MemoryRepositoryManager) Tasks() tasks.Repository {
	return tasks.NewMemoryRepository(m.h)
}

func (m *MemoryRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, rm RepositoryManager) error) error {
	if m.tx {
		return fn(ctx, m)
	}
	return m.store.InTx(func(h memstore.Handle) error {
		return fn(ctx, &MemoryRepositoryManager{store: m.store, h: h, tx: true})
	})
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Ping(context.Context) error { return nil }
