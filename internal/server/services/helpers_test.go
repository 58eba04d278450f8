package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskkeeper/internal/server/validation"
	"github.com/stretchr/testify/require"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type fixture struct {
	rm       *repomanager.MemoryRepositoryManager
	accounts *AccountService
	tasks    *TaskService
	codec    *auth.TokenCodec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rm := repomanager.NewMemoryRepositoryManager()
	return newFixtureWith(t, rm, rm)
}

// newFixtureWith builds services over svcRM while keeping mem for direct
// inspection of the store.
func newFixtureWith(t *testing.T, mem *repomanager.MemoryRepositoryManager, svcRM repomanager.RepositoryManager) *fixture {
	t.Helper()
	v, err := validation.New()
	require.NoError(t, err)
	codec, err := auth.NewTokenCodec([]byte("test-secret"))
	require.NoError(t, err)

	return &fixture{
		rm:       mem,
		accounts: NewAccountService(svcRM, auth.NewHasher(4), codec, v, logging.Nop{}),
		tasks:    NewTaskService(svcRM, v),
		codec:    codec,
	}
}

func (f *fixture) register(t *testing.T, email, password string) *models.Account {
	t.Helper()
	a, err := f.accounts.Register(context.Background(), email, password)
	require.NoError(t, err)
	return a
}

func (f *fixture) login(t *testing.T, email, password string) string {
	t.Helper()
	tok, err := f.accounts.Login(context.Background(), email, password)
	require.NoError(t, err)
	return tok
}

// faultyManager wraps the in-memory manager and makes selected repository
// calls fail.
type faultyManager struct {
	*repomanager.MemoryRepositoryManager
	accountsErr error
	tasksErr    error
}

func (m *faultyManager) Accounts() accounts.Repository {
	return &faultyAccounts{Repository: m.MemoryRepositoryManager.Accounts(), err: m.accountsErr}
}

func (m *faultyManager) Tasks() tasks.Repository {
	return &faultyTasks{Repository: m.MemoryRepositoryManager.Tasks(), err: m.tasksErr}
}

func (m *faultyManager) InTx(ctx context.Context, fn func(ctx context.Context, rm repomanager.RepositoryManager) error) error {
	return m.MemoryRepositoryManager.InTx(ctx, func(ctx context.Context, rm repomanager.RepositoryManager) error {
		return fn(ctx, &faultyTx{RepositoryManager: rm, accountsErr: m.accountsErr, tasksErr: m.tasksErr})
	})
}

type faultyTx struct {
	repomanager.RepositoryManager
	accountsErr error
	tasksErr    error
}

func (m *faultyTx) Accounts() accounts.Repository {
	return &faultyAccounts{Repository: m.RepositoryManager.Accounts(), err: m.accountsErr}
}

func (m *faultyTx) Tasks() tasks.Repository {
	return &faultyTasks{Repository: m.RepositoryManager.Tasks(), err: m.tasksErr}
}

// faultyAccounts fails the write paths with err when err is set.
type faultyAccounts struct {
	accounts.Repository
	err error
}

func (f *faultyAccounts) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.Repository.GetByEmail(ctx, email)
}

func (f *faultyAccounts) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.Repository.GetByID(ctx, id)
}

func (f *faultyAccounts) Delete(ctx context.Context, id string) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.Repository.Delete(ctx, id)
}

type faultyTasks struct {
	tasks.Repository
	err error
}

func (f *faultyTasks) ListByOwner(ctx context.Context, ownerID string) ([]models.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.Repository.ListByOwner(ctx, ownerID)
}
