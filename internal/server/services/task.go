package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/validation"
)

// TaskService manages the tasks of the authenticated account.
type TaskService struct {
	repomanager repomanager.RepositoryManager
	validator   *validation.Validator
}

func NewTaskService(m repomanager.RepositoryManager, v *validation.Validator) *TaskService {
	return &TaskService{repomanager: m, validator: v}
}

func (s *TaskService) Create(ctx context.Context, ownerID, description string, completed bool) (*models.Task, error) {
	if err := s.validator.Task(description, completed); err != nil {
		return nil, err
	}

	t, err := s.repomanager.Tasks().Create(ctx, ownerID, strings.TrimSpace(description), completed)
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}
	return t, nil
}

func (s *TaskService) List(ctx context.Context, ownerID string) ([]models.Task, error) {
	list, err := s.repomanager.Tasks().ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing tasks: %w", err)
	}
	return list, nil
}
