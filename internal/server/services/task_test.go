package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskService_CreateAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@x.com", "secret1")

	task, err := f.tasks.Create(ctx, a.ID, "  buy milk ", true)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", task.Description)
	assert.Equal(t, a.ID, task.OwnerID)
	assert.True(t, task.Completed)

	list, err := f.tasks.List(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, task.ID, list[0].ID)
}

func TestTaskService_Validation(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "a@x.com", "secret1")

	_, err := f.tasks.Create(context.Background(), a.ID, "  ", false)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestTaskService_ListError(t *testing.T) {
	mem := repomanager.NewMemoryRepositoryManager()
	f := newFixtureWith(t, mem, &faultyManager{MemoryRepositoryManager: mem, tasksErr: errBoom{}})

	_, err := f.tasks.List(context.Background(), "acc-1")
	if err == nil || !regexp.MustCompile(`error listing tasks: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped list error, got %v", err)
	}
}
