package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-management/internal/appointment"
	"github.com/hackgods/hospital-management/internal/auth"
	"github.com/hackgods/hospital-management/internal/hospital"
	"github.com/hackgods/hospital-management/internal/policy"
	redisclient "github.com/hackgods/hospital-management/internal/redis"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, details any) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeServiceError maps the error taxonomy onto status codes. Unexpected
// errors are logged and reported without details.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *hospital.ValidationError

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", verr.Fields)
	case errors.Is(err, hospital.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, policy.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access_denied", "this action is unauthorized")
	case errors.Is(err, hospital.ErrEmailTaken):
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", map[string][]string{
			"email": {"has already been taken"},
		})
	case errors.Is(err, hospital.ErrInUse):
		writeError(w, http.StatusConflict, "in_use", err.Error())
	case errors.Is(err, appointment.ErrScheduleBusy),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "schedule_busy", "the schedule is being updated, please retry shortly")
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, appointment.ErrTransactionFailed):
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("transaction failed")
		writeError(w, http.StatusInternalServerError, "transaction_failed", "the changes could not be saved")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	return true
}

// idParam reads a positive integer URL parameter. Malformed ids cannot
// name an existing record, so they answer 404.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "not_found", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func queryID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return id
}
