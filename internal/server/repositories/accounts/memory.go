package accounts

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

func (r *MemoryRepository) Create(_ context.Context, email, passwordHash string) (*models.Account, error) {
	var out *models.Account
	err := r.h.Do(func(s *memstore.State) error {
		if _, ok := s.Emails[email]; ok {
			return common.ErrEmailTaken
		}
		a := &models.Account{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: passwordHash,
			CreatedAt:    time.Now().UTC(),
		}
		s.Accounts[a.ID] = a
		s.Emails[email] = a.ID
		out = a.Clone()
		return nil
	})
	return out, err
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	var out *models.Account
	err := r.h.Do(func(s *memstore.State) error {
		id, ok := s.Emails[email]
		if !ok {
			return common.ErrNotFound
		}
		out = s.Accounts[id].Clone()
		return nil
	})
	return out, err
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.Account, error) {
	var out *models.Account
	err := r.h.Do(func(s *memstore.State) error {
		a, ok := s.Accounts[id]
		if !ok {
			return common.ErrNotFound
		}
		out = a.Clone()
		return nil
	})
	return out, err
}

func (r *MemoryRepository) AppendToken(_ context.Context, id, token string, generation int64) error {
	return r.h.Do(func(s *memstore.State) error {
		a, ok := s.Accounts[id]
		if !ok || a.TokenGeneration != generation {
			return common.ErrSessionsRevoked
		}
		if !a.HasToken(token) {
			a.SessionTokens = append(a.SessionTokens, token)
		}
		return nil
	})
}

func (r *MemoryRepository) RemoveToken(_ context.Context, id, token string) error {
	return r.h.Do(func(s *memstore.State) error {
		if a, ok := s.Accounts[id]; ok {
			a.SessionTokens = slices.DeleteFunc(a.SessionTokens, func(t string) bool { return t == token })
		}
		return nil
	})
}

func (r *MemoryRepository) ClearTokens(_ context.Context, id string) error {
	return r.h.Do(func(s *memstore.State) error {
		a, ok := s.Accounts[id]
		if !ok {
			return common.ErrNotFound
		}
		a.TokenGeneration++
		a.SessionTokens = nil
		return nil
	})
}

func (r *MemoryRepository) UpdateFields(_ context.Context, id string, upd models.AccountUpdate) (*models.Account, error) {
	var out *models.Account
	err := r.h.Do(func(s *memstore.State) error {
		a, ok := s.Accounts[id]
		if !ok {
			return common.ErrNotFound
		}
		if upd.Email != nil && *upd.Email != a.Email {
			if _, taken := s.Emails[*upd.Email]; taken {
				return common.ErrEmailTaken
			}
			delete(s.Emails, a.Email)
			s.Emails[*upd.Email] = id
		}
		upd.Apply(a)
		out = a.Clone()
		out.SessionTokens = nil
		return nil
	})
	return out, err
}

func (r *MemoryRepository) Delete(_ context.Context, id string) (*models.Account, error) {
	var out *models.Account
	err := r.h.Do(func(s *memstore.State) error {
		a, ok := s.Accounts[id]
		if !ok {
			return common.ErrNotFound
		}
		delete(s.Accounts, id)
		delete(s.Emails, a.Email)
		out = a
		out.SessionTokens = nil
		return nil
	})
	return out, err
}
