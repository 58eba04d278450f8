// Package models defines the server-side records persisted by the
// repositories and the client-facing projections built from them.
package models

import (
	"slices"
	"strings"
	"time"
)

// Account is a registered user. PasswordHash and SessionTokens never leave
// the server; use Public for anything sent to a client.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Age          *int
	CreatedAt    time.Time

	// SessionTokens lists the tokens currently accepted for this account,
	// oldest first.
	SessionTokens []string

	// TokenGeneration is bumped every time the token list is cleared.
	TokenGeneration int64
}

// HasToken reports whether token is still listed as valid.
func (a *Account) HasToken(token string) bool {
	return slices.Contains(a.SessionTokens, token)
}

// AccountUpdate carries the profile fields to overwrite. Nil means
// unchanged. PasswordHash must already be hashed.
type AccountUpdate struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Age          *int
}

// Empty reports whether the update changes nothing.
func (u AccountUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.PasswordHash == nil && u.Age == nil
}

// Apply copies the non-nil fields of u onto a.
func (u AccountUpdate) Apply(a *Account) {
	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.Email != nil {
		a.Email = *u.Email
	}
	if u.PasswordHash != nil {
		a.PasswordHash = *u.PasswordHash
	}
	if u.Age != nil {
		age := *u.Age
		a.Age = &age
	}
}

// NormalizeEmail trims and lower-cases an address so that lookups and the
// uniqueness rule are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Clone returns a deep copy of a.
func (a *Account) Clone() *Account {
	c := *a
	c.SessionTokens = slices.Clone(a.SessionTokens)
	if a.Age != nil {
		age := *a.Age
		c.Age = &age
	}
	return &c
}
