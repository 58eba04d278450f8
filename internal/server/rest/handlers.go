package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type taskRequest struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// decodeStrict decodes a JSON body into dst, rejecting unknown fields.
func decodeStrict(r *http.Request, dst any) error {
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields()
	if err := d.Decode(dst); err != nil {
		return badBody(err)
	}
	return nil
}

func badBody(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return fmt.Errorf("%w: request body larger than %d bytes", common.ErrValidation, tooLarge.Limit)
	case errors.Is(err, io.EOF):
		return fmt.Errorf("%w: empty request body", common.ErrValidation)
	default:
		return fmt.Errorf("%w: malformed JSON body", common.ErrValidation)
	}
}

// writeAccount is the only way an account is written to a client.
func writeAccount(w http.ResponseWriter, status int, a *models.Account) error {
	return writeJSON(w, status, a.Public())
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) error {
	var req credentialsRequest
	if err := decodeStrict(r, &req); err != nil {
		return err
	}

	if _, err := s.accounts.Register(r.Context(), req.Email, req.Password); err != nil {
		return err
	}
	return writeMessage(w, http.StatusCreated, "User registered successfully")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) error {
	var req credentialsRequest
	if err := decodeStrict(r, &req); err != nil {
		return err
	}

	token, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r.Context())
	if err != nil {
		return err
	}
	if err := s.accounts.Logout(r.Context(), id.AccountID, id.Token); err != nil {
		return err
	}
	return writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (s *Server) handleLogoutAll(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r.Context())
	if err != nil {
		return err
	}
	if err := s.accounts.LogoutAll(r.Context(), id.AccountID); err != nil {
		return err
	}
	return writeMessage(w, http.StatusOK, "Logged out from all devices successfully")
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r.Context())
	if err != nil {
		return err
	}
	a, err := s.accounts.Profile(r.Context(), id.AccountID)
	if err != nil {
		return err
	}
	return writeAccount(w, http.StatusOK, a)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r.Context())
	if err != nil {
		return err
	}

	d := json.NewDecoder(r.Body)
	d.UseNumber()
	var fields map[string]any
	if err := d.Decode(&fields); err != nil {
		return badBody(err)
	}

	a, err := s.accounts.UpdateProfile(r.Context(), id.AccountID, fields)
	if err != nil {
		return err
	}
	return writeAccount(w, http.StatusOK, a)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r.Context())
	if err != nil {
		return err
	}
	a, err := s.accounts.DeleteAccount(r.Context(), id.AccountID)
	if err != nil {
		return err
	}
	return writeAccount(w, http.StatusOK, a)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r.Context())
	if err != nil {
		return err
	}

	var req taskRequest
	if err := decodeStrict(r, &req); err != nil {
		return err
	}

	t, err := s.tasks.Create(r.Context(), id.AccountID, req.Description, req.Completed)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r.Context())
	if err != nil {
		return err
	}
	list, err := s.tasks.List(r.Context(), id.AccountID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) error {
	if err := s.ready(r.Context()); err != nil {
		s.logger.Warn(r.Context(), "readiness check failed", "error", err)
		return writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
