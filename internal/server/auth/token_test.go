package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

func newCodec(t *testing.T, secret string, opts ...CodecOption) *TokenCodec {
	t.Helper()
	c, err := NewTokenCodec([]byte(secret), opts...)
	if err != nil {
		t.Fatalf("NewTokenCodec error: %v", err)
	}
	return c
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	c := newCodec(t, "super-secret")

	tok, err := c.Issue("account-123")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	got, err := c.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if got != "account-123" {
		t.Fatalf("account id mismatch: got %q want %q", got, "account-123")
	}
}

func TestIssue_DistinctTokensForSameAccount(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newCodec(t, "secret", WithClock(func() time.Time { return fixed }))

	a, err := c.Issue("u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	b, err := c.Issue("u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if a == b {
		t.Fatal("two tokens issued at the same instant must differ")
	}
}

func TestIssue_ExpiresAfter24Hours(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := newCodec(t, "secret", WithClock(func() time.Time { return issuedAt }))

	tok, err := c.Issue("u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		t.Fatalf("ParseUnverified error: %v", err)
	}
	if got := claims.ExpiresAt.Time; !got.Equal(issuedAt.Add(24 * time.Hour)) {
		t.Fatalf("unexpected expiry: %v", got)
	}
	if claims.Subject != "u1" || claims.AccountID != "u1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	issuer := newCodec(t, "secret", WithClock(func() time.Time { return now.Add(-25 * time.Hour) }))
	verifier := newCodec(t, "secret", WithClock(func() time.Time { return now }))

	tok, err := issuer.Issue("u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = verifier.Verify(tok)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := newCodec(t, "right-secret").Issue("u2")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = newCodec(t, "wrong-secret").Verify(tok)
	if !errors.Is(err, common.ErrTokenSignatureInvalid) {
		t.Fatalf("expected common.ErrTokenSignatureInvalid, got %v", err)
	}
}

func TestVerify_Tampered(t *testing.T) {
	t.Parallel()

	c := newCodec(t, "secret")
	tok, err := c.Issue("u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	parts := strings.Split(tok, ".")
	other, err := c.Issue("u2")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	parts[1] = strings.Split(other, ".")[1]

	_, err = c.Verify(strings.Join(parts, "."))
	if !errors.Is(err, common.ErrTokenSignatureInvalid) {
		t.Fatalf("expected common.ErrTokenSignatureInvalid, got %v", err)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		AccountID: "u1",
	})
	tok, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}

	_, err = newCodec(t, "secret").Verify(tok)
	if !errors.Is(err, common.ErrTokenSignatureInvalid) {
		t.Fatalf("expected common.ErrTokenSignatureInvalid, got %v", err)
	}
}

func TestVerify_MissingAccountOrExpiry(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	c := newCodec(t, string(secret))

	noAccount, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(secret)
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}
	if _, err := c.Verify(noAccount); !errors.Is(err, common.ErrTokenMalformed) {
		t.Fatalf("no account id: expected common.ErrTokenMalformed, got %v", err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
		AccountID:        "u1",
	}).SignedString(secret)
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}
	if _, err := c.Verify(noExpiry); err == nil {
		t.Fatal("token without expiry must be rejected")
	}
}

func TestVerify_MalformedString(t *testing.T) {
	t.Parallel()

	c := newCodec(t, "k")
	for _, in := range []string{"", "not.a.jwt", "abc", "a.b.c.d"} {
		if _, err := c.Verify(in); !errors.Is(err, common.ErrTokenMalformed) {
			t.Fatalf("%q: expected common.ErrTokenMalformed, got %v", in, err)
		}
	}
}

func TestNewTokenCodec_EmptySecret(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenCodec(nil); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}
