package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/hackgods/hospital-management/internal/auth"
	"github.com/hackgods/hospital-management/internal/hospital"
	"github.com/hackgods/hospital-management/internal/pagination"
	"github.com/hackgods/hospital-management/internal/projection"
	"github.com/hackgods/hospital-management/internal/role"
)

func principal(r *http.Request) auth.Principal {
	return auth.FromContext(r.Context())
}

// writePage answers a listing with one page of docs in the paged envelope.
func (s *server) writePage(w http.ResponseWriter, r *http.Request, docs []projection.Document) {
	writeJSON(w, http.StatusOK, pagination.NewResponse(docs, pagination.FromRequest(r, s.pageSize)))
}

func writeDoc(w http.ResponseWriter, status int, e projection.Entity, f projection.Format) {
	writeJSON(w, status, projection.Project(e, f))
}

// loadPatient resolves a user that is a patient or an account awaiting its
// precheck. Any other user is not a patient.
func (s *server) loadPatient(ctx context.Context, id int64) (*hospital.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, hospital.ErrNotFound) {
			return nil, hospital.ErrPatientNotFound
		}
		return nil, err
	}
	if u.Role != role.Patient && u.Role != role.None {
		return nil, hospital.ErrPatientNotFound
	}
	return u, nil
}

// invalidRefs reports a missing record referenced from a request body as a
// validation failure on the referencing field.
func invalidRefs(err error) error {
	switch {
	case errors.Is(err, hospital.ErrDoctorNotFound):
		return hospital.Invalid("doctor_id", "does not exist")
	case errors.Is(err, hospital.ErrDepartmentNotFound):
		return hospital.Invalid("department_id", "does not exist")
	}
	return err
}
