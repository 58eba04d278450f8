package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTokenLifetime is how long an issued session token stays valid.
const SessionTokenLifetime = 24 * time.Hour

// Claims carries the account a session token was issued to. The jti in
// RegisteredClaims makes every token distinct, even two issued for the
// same account within the same second.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
}

// TokenCodec issues and verifies HS256-signed session tokens with a single
// static secret.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// CodecOption customises a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock replaces time.Now, for tests that need expired tokens.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// ErrEmptySecret is returned by NewTokenCodec for an empty signing secret.
var ErrEmptySecret = errors.New("token signing secret must not be empty")

func NewTokenCodec(secret []byte, opts ...CodecOption) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	c := &TokenCodec{secret: secret, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue returns a signed token for accountID that expires
// SessionTokenLifetime from now.
func (c *TokenCodec) Issue(accountID string) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTokenLifetime)),
		},
		AccountID: accountID,
	})

	return token.SignedString(c.secret)
}

// Verify checks the signature and expiry of tokenString and returns the
// account id it was issued to. Failures are one of common.ErrTokenMalformed,
// common.ErrTokenSignatureInvalid or common.ErrTokenExpired.
func (c *TokenCodec) Verify(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", classify(err)
	}
	if !token.Valid || claims.AccountID == "" || claims.Subject != claims.AccountID {
		return "", common.ErrTokenMalformed
	}

	return claims.AccountID, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return common.ErrTokenSignatureInvalid
	default:
		return common.ErrTokenMalformed
	}
}
