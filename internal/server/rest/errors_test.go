package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: invalid email", common.ErrValidation), http.StatusBadRequest, "validation_failed"},
		{fmt.Errorf("%w: [role]", common.ErrInvalidFields), http.StatusBadRequest, "invalid_updates"},
		{common.ErrEmailTaken, http.StatusConflict, "email_taken"},
		{common.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{errAccessDenied, http.StatusUnauthorized, "unauthenticated"},
		{fmt.Errorf("%w: %w", common.ErrUnauthenticated, common.ErrTokenExpired), http.StatusUnauthorized, "unauthenticated"},
		{common.ErrSessionsRevoked, http.StatusConflict, "sessions_revoked"},
		{common.ErrNotFound, http.StatusNotFound, "not_found"},
		{errBoom{}, http.StatusInternalServerError, "dependency"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := classify(tt.err)
			assert.Equal(t, tt.status, got.status)
			assert.Equal(t, tt.code, got.code)
		})
	}

	assert.Equal(t, "Access denied", classify(errAccessDenied).message)
	assert.Equal(t, "Invalid token", classify(common.ErrUnauthenticated).message)
	assert.Equal(t, "Server error", classify(errBoom{}).message)
}

// brokenAccounts authenticates everyone and fails or panics on everything
// else.
type brokenAccounts struct {
	panics bool
}

func (b brokenAccounts) Register(context.Context, string, string) (*models.Account, error) {
	return nil, errBoom{}
}
func (b brokenAccounts) Login(context.Context, string, string) (string, error) { return "", errBoom{} }
func (b brokenAccounts) Logout(context.Context, string, string) error        { return errBoom{} }
func (b brokenAccounts) LogoutAll(context.Context, string) error             { return errBoom{} }
func (b brokenAccounts) Authenticate(_ context.Context, token string) (auth.Identity, error) {
	return auth.Identity{AccountID: "acc-1", Token: token}, nil
}
func (b brokenAccounts) Profile(context.Context, string) (*models.Account, error) {
	if b.panics {
		panic("kaboom")
	}
	return nil, errBoom{}
}
func (b brokenAccounts) UpdateProfile(context.Context, string, map[string]any) (*models.Account, error) {
	return nil, errBoom{}
}
func (b brokenAccounts) DeleteAccount(context.Context, string) (*models.Account, error) {
	return nil, errBoom{}
}

func TestDependencyFailuresAreOpaque(t *testing.T) {
	h := NewServer("", logging.Nop{}, brokenAccounts{}, nil).Handler()

	for _, tc := range []struct{ method, path, body string }{
		{"POST", "/users", `{"email":"a@x.com","password":"secret1"}`},
		{"POST", "/users/login", `{"email":"a@x.com","password":"secret1"}`},
		{"POST", "/users/logout", ""},
		{"GET", "/users/me", ""},
		{"DELETE", "/users/me", ""},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.body != "" {
			req = httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		}
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code, tc.path)
		assert.JSONEq(t, `{"error":"dependency","message":"Server error"}`, rec.Body.String())
	}
}

func TestPanicRecovered(t *testing.T) {
	h := NewServer("", logging.Nop{}, brokenAccounts{panics: true}, nil).Handler()

	req := httptest.NewRequest("GET", "/users/me", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
