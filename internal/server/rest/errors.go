package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

// errAccessDenied is returned by the gate when no credentials were sent.
var errAccessDenied = fmt.Errorf("%w: access denied", common.ErrUnauthenticated)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type apiError struct {
	status  int
	code    string
	message string
}

// classify maps a service error onto its HTTP response. Anything not listed
// is a dependency failure and is reported without detail.
func classify(err error) apiError {
	switch {
	case errors.Is(err, common.ErrValidation):
		return apiError{http.StatusBadRequest, "validation_failed", err.Error()}
	case errors.Is(err, common.ErrInvalidFields):
		return apiError{http.StatusBadRequest, "invalid_updates", "Invalid updates!"}
	case errors.Is(err, common.ErrEmailTaken):
		return apiError{http.StatusConflict, "email_taken", "Email already registered"}
	case errors.Is(err, common.ErrInvalidCredentials):
		return apiError{http.StatusUnauthorized, "invalid_credentials", "Invalid credentials"}
	case errors.Is(err, errAccessDenied):
		return apiError{http.StatusUnauthorized, "unauthenticated", "Access denied"}
	case errors.Is(err, common.ErrUnauthenticated):
		return apiError{http.StatusUnauthorized, "unauthenticated", "Invalid token"}
	case errors.Is(err, common.ErrSessionsRevoked):
		return apiError{http.StatusConflict, "sessions_revoked", "Sessions were revoked, log in again"}
	case errors.Is(err, common.ErrNotFound):
		return apiError{http.StatusNotFound, "not_found", "Not found"}
	default:
		return apiError{http.StatusInternalServerError, "dependency", "Server error"}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, e apiError) {
	_ = writeJSON(w, e.status, errorBody{Error: e.code, Message: e.message})
}

func writeMessage(w http.ResponseWriter, status int, msg string) error {
	return writeJSON(w, status, map[string]string{"message": msg})
}
