// Package accounts stores accounts and their session token lists.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// Repository persists accounts. Emails passed in are expected to be
// normalized already.
//
// GetByEmail and GetByID return the account with its session tokens.
// UpdateFields and Delete return the account row without them.
type Repository interface {
	// Create fails with common.ErrEmailTaken if the email is in use.
	Create(ctx context.Context, email, passwordHash string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)

	// AppendToken adds token to the account only while its token
	// generation still equals generation; otherwise it fails with
	// common.ErrSessionsRevoked.
	AppendToken(ctx context.Context, id, token string, generation int64) error
	RemoveToken(ctx context.Context, id, token string) error
	// ClearTokens drops every token and bumps the token generation as one
	// atomic step.
	ClearTokens(ctx context.Context, id string) error

	UpdateFields(ctx context.Context, id string, upd models.AccountUpdate) (*models.Account, error)
	Delete(ctx context.Context, id string) (*models.Account, error)
}
