// Package tasks stores the tasks owned by accounts.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, ownerID, description string, completed bool) (*models.Task, error)
	// ListByOwner returns the owner's tasks, oldest first.
	ListByOwner(ctx context.Context, ownerID string) ([]models.Task, error)
	// DeleteByOwner removes every task of the owner and reports how many
	// were removed.
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}
