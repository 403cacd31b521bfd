package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-management/internal/auth"
	"github.com/hackgods/hospital-management/internal/hospital"
	"github.com/hackgods/hospital-management/internal/policy"
	"github.com/hackgods/hospital-management/internal/projection"
	"github.com/hackgods/hospital-management/internal/role"
)

func (s *server) issue(w http.ResponseWriter, u *hospital.User) (*TokenResponse, bool) {
	token, expiresAt, err := s.tokens.Issue(auth.Principal{ID: u.ID, Role: u.Role})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "could not issue token")
		return nil, false
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Role:        u.Role.String(),
	}, true
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := s.store.GetUserByEmail(r.Context(), req.Email)
	switch {
	case errors.Is(err, hospital.ErrNotFound):
		writeServiceError(w, r, auth.ErrInvalidCredentials)
		return
	case err != nil:
		writeServiceError(w, r, err)
		return
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		writeServiceError(w, r, auth.ErrInvalidCredentials)
		return
	}

	resp, ok := s.issue(w, u)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// refresh reissues the caller's token with the role currently on record, so
// a confirmed precheck takes effect without logging in again.
func (s *server) refresh(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.GetUser(r.Context(), principal(r).ID)
	if err != nil {
		if errors.Is(err, hospital.ErrNotFound) {
			err = auth.ErrInvalidToken
		}
		writeServiceError(w, r, err)
		return
	}

	resp, ok := s.issue(w, u)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// registerPatient opens an unconfirmed account and its precheck token. The
// account becomes a patient once the token is confirmed.
func (s *server) registerPatient(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if err := s.authz.Authorize(p, policy.ActionCreate, policy.Patient, nil); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req UserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v := hospital.NewValidationError()
	req.validate(v, true)
	if err := v.Err(); err != nil {
		writeServiceError(w, r, err)
		return
	}

	u := &hospital.User{Role: role.None}
	if err := req.apply(u); err != nil {
		writeServiceError(w, r, err)
		return
	}

	token := &hospital.VerifyToken{Token: auth.VerifyToken(u.Email)}
	err := s.store.WithinTx(r.Context(), func(ctx context.Context) error {
		if err := s.store.CreateUser(ctx, u); err != nil {
			return err
		}
		token.UserID = u.ID
		return s.store.CreateVerifyToken(ctx, token)
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	zerolog.Ctx(r.Context()).Debug().
		Int64("user_id", u.ID).
		Str("precheck_token", token.Token).
		Msg("patient registered")

	writeJSON(w, http.StatusCreated, MessageResponse{
		Status:  "created",
		Details: "go to the hospital to complete your registration",
		Data:    projection.Project(u, s.views.PatientAdmin),
	})
}
