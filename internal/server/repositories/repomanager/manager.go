package repomanager

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
)

// RepositoryManager vends repositories bound to one backend. Repositories
// obtained from the manager passed to an InTx callback share that
// transaction.
type RepositoryManager interface {
	Accounts() accounts.Repository
	Tasks() tasks.Repository

	// InTx runs fn in a transaction that commits when fn returns nil.
	// Calling InTx on a manager that is already inside a transaction joins
	// it.
	InTx(ctx context.Context, fn func(ctx context.Context, rm RepositoryManager) error) error

	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
}
