package tasks

import (
	"context"
	"slices"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/memstore"
	"github.com/google/uuid"
)

type MemoryRepository struct {
	h memstore.Handle
}

func NewMemoryRepository(h memstore.Handle) *MemoryRepository {
	return &MemoryRepository{h: h}
}

// Create fails with common.ErrNotFound when the owner does not exist,
// mirroring the foreign key of the SQL schema.
func (r *MemoryRepository) Create(_ context.Context, ownerID, description string, completed bool) (*models.Task, error) {
	var out *models.Task
	err := r.h.Do(func(s *memstore.State) error {
		if _, ok := s.Accounts[ownerID]; !ok {
			return common.ErrNotFound
		}
		t := models.Task{
			ID:          uuid.NewString(),
			OwnerID:     ownerID,
			Description: description,
			Completed:   completed,
			CreatedAt:   time.Now().UTC(),
		}
		s.Tasks[ownerID] = append(s.Tasks[ownerID], t)
		out = &t
		return nil
	})
	return out, err
}

func (r *MemoryRepository) ListByOwner(_ context.Context, ownerID string) ([]models.Task, error) {
	var out []models.Task
	err := r.h.Do(func(s *memstore.State) error {
		out = slices.Clone(s.Tasks[ownerID])
		return nil
	})
	if out == nil {
		out = []models.Task{}
	}
	return out, err
}

func (r *MemoryRepository) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	var n int64
	err := r.h.Do(func(s *memstore.State) error {
		n = int64(len(s.Tasks[ownerID]))
		delete(s.Tasks, ownerID)
		return nil
	})
	return n, err
}
