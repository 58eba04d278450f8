// Package services contains the server-side business logic. AccountService
// handles registration, login, session revocation, the profile and the
// removal of an account together with everything it owns.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/validation"
)

// ProfileFields lists the keys a profile update may carry.
var ProfileFields = []string{"name", "email", "password", "age"}

type AccountService struct {
	repomanager repomanager.RepositoryManager
	hasher      *auth.Hasher
	tokens      *auth.TokenCodec
	validator   *validation.Validator
	log         logging.Logger
}

func NewAccountService(
	m repomanager.RepositoryManager,
	hasher *auth.Hasher,
	tokens *auth.TokenCodec,
	v *validation.Validator,
	log logging.Logger,
) *AccountService {
	return &AccountService{
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		validator:   v,
		log:         log,
	}
}

// Register creates an account for email. It fails with
// common.ErrValidation or common.ErrEmailTaken.
func (s *AccountService) Register(ctx context.Context, email, password string) (*models.Account, error) {
	email = models.NormalizeEmail(email)
	if err := s.validator.Credentials(email, password); err != nil {
		return nil, err
	}

	repo := s.repomanager.Accounts()
	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return nil, common.ErrEmailTaken
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("error looking up account: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	a, err := repo.Create(ctx, email, hash)
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	s.log.Info(ctx, "account registered", "account_id", a.ID)
	return a, nil
}

// Login returns a new session token. An unknown email and a wrong password
// both yield common.ErrInvalidCredentials after one bcrypt comparison.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	email = models.NormalizeEmail(email)

	a, err := s.repomanager.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return "", fmt.Errorf("error looking up account: %w", err)
		}
		if _, err := s.hasher.VerifyDummy(ctx, password); err != nil {
			return "", err
		}
		return "", common.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(ctx, password, a.PasswordHash)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(a.ID)
	if err != nil {
		return "", fmt.Errorf("error issuing token: %w", err)
	}

	if err := s.repomanager.Accounts().AppendToken(ctx, a.ID, token, a.TokenGeneration); err != nil {
		if errors.Is(err, common.ErrSessionsRevoked) {
			return "", err
		}
		return "", fmt.Errorf("error storing token: %w", err)
	}
	return token, nil
}

// Logout revokes only token; the account's other sessions stay valid.
func (s *AccountService) Logout(ctx context.Context, accountID, token string) error {
	if err := s.repomanager.Accounts().RemoveToken(ctx, accountID, token); err != nil {
		return fmt.Errorf("error removing token: %w", err)
	}
	return nil
}

// LogoutAll revokes every session of the account, including logins that
// are still in flight.
func (s *AccountService) LogoutAll(ctx context.Context, accountID string) error {
	if err := s.repomanager.Accounts().ClearTokens(ctx, accountID); err != nil {
		return fmt.Errorf("error clearing tokens: %w", err)
	}
	s.log.Info(ctx, "all sessions revoked", "account_id", accountID)
	return nil
}

// Authenticate resolves a bearer token to the caller's identity. Every
// token problem (bad signature, expired, unknown account, revoked) is
// reported as common.ErrUnauthenticated.
func (s *AccountService) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	accountID, err := s.tokens.Verify(token)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("%w: %w", common.ErrUnauthenticated, err)
	}

	a, err := s.repomanager.Accounts().GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return auth.Identity{}, fmt.Errorf("%w: account gone", common.ErrUnauthenticated)
		}
		return auth.Identity{}, fmt.Errorf("error looking up account: %w", err)
	}
	if !a.HasToken(token) {
		return auth.Identity{}, fmt.Errorf("%w: token revoked", common.ErrUnauthenticated)
	}

	return auth.Identity{AccountID: a.ID, Token: token}, nil
}

func (s *AccountService) Profile(ctx context.Context, accountID string) (*models.Account, error) {
	a, err := s.repomanager.Accounts().GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}
	return a, nil
}

// UpdateProfile applies fields to the account. Any key outside
// ProfileFields rejects the whole update with common.ErrInvalidFields
// before anything is written. A new password is hashed before it is
// stored.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, fields map[string]any) (*models.Account, error) {
	var unknown []string
	for k := range fields {
		if !slices.Contains(ProfileFields, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidFields, unknown)
	}

	if v, ok := fields["email"].(string); ok {
		fields = maps.Clone(fields)
		fields["email"] = models.NormalizeEmail(v)
	}
	if err := s.validator.Profile(fields); err != nil {
		return nil, err
	}

	upd, err := s.buildUpdate(ctx, fields)
	if err != nil {
		return nil, err
	}
	if upd.Empty() {
		return s.Profile(ctx, accountID)
	}

	a, err := s.repomanager.Accounts().UpdateFields(ctx, accountID, upd)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating account: %w", err)
	}
	return a, nil
}

func (s *AccountService) buildUpdate(ctx context.Context, fields map[string]any) (models.AccountUpdate, error) {
	var upd models.AccountUpdate

	if v, ok := fields["name"].(string); ok {
		upd.Name = &v
	}
	if v, ok := fields["email"].(string); ok {
		upd.Email = &v
	}
	if v, ok := fields["password"].(string); ok {
		hash, err := s.hasher.Hash(ctx, v)
		if err != nil {
			return upd, fmt.Errorf("error hashing password: %w", err)
		}
		upd.PasswordHash = &hash
	}
	if raw, ok := fields["age"]; ok {
		age, ok := toInt(raw)
		if !ok {
			return upd, fmt.Errorf("%w: invalid age", common.ErrValidation)
		}
		upd.Age = &age
	}

	return upd, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		// 30.0 and 1e2 are integers too
		f, err := n.Float64()
		return int(f), err == nil && f == math.Trunc(f)
	case float64:
		return int(n), n == math.Trunc(n)
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

// DeleteAccount removes the account together with its tasks and sessions in
// one transaction. Nothing is removed if any step fails.
func (s *AccountService) DeleteAccount(ctx context.Context, accountID string) (*models.Account, error) {
	var (
		deleted *models.Account
		tasks   int64
	)

	err := s.repomanager.InTx(ctx, func(ctx context.Context, rm repomanager.RepositoryManager) error {
		var err error
		if tasks, err = rm.Tasks().DeleteByOwner(ctx, accountID); err != nil {
			return fmt.Errorf("error deleting tasks: %w", err)
		}
		if deleted, err = rm.Accounts().Delete(ctx, accountID); err != nil {
			return fmt.Errorf("error deleting account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "account deleted", "account_id", accountID, "tasks", tasks)
	return deleted, nil
}
