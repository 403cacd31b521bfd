package api

import (
	"net/http"
	"strings"

	"github.com/hackgods/hospital-management/internal/hospital"
	"github.com/hackgods/hospital-management/internal/policy"
	"github.com/hackgods/hospital-management/internal/projection"
	"github.com/hackgods/hospital-management/internal/role"
)

func (s *server) listPatients(w http.ResponseWriter, r *http.Request) {
	if err := s.authz.Authorize(principal(r), policy.ActionViewAny, policy.Patient, nil); err != nil {
		writeServiceError(w, r, err)
		return
	}

	patients, err := s.store.ListUsersByRole(r.Context(), role.Patient)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writePage(w, r, projection.ProjectAll(patients, s.views.PatientAdmin))
}

// precheckStatus lists the accounts awaiting confirmation to front desk
// staff, and reports the caller's own token state to anyone else.
func (s *server) precheckStatus(w http.ResponseWriter, r *http.Request) {
	p := principal(r)

	if s.authz.Check(p, policy.ActionViewAny, policy.Patient, nil) {
		pending, err := s.store.ListUsersByRole(r.Context(), role.None)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		s.writePage(w, r, projection.ProjectAll(pending, s.views.PatientAdmin))
		return
	}

	u, err := s.store.GetUser(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	token, err := s.store.GetVerifyToken(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := PrecheckResponse{UserID: u.ID, Verified: token.Verified}
	if u.EmailVerifiedAt != nil {
		at := u.EmailVerifiedAt.Format(hospital.DateTimeLayout)
		resp.EmailVerifiedAt = &at
	}
	writeJSON(w, http.StatusOK, resp)
}

// confirmPrecheck checks the precheck token and promotes the account to
// patient. Staff name the account with user_id; a self confirmation answers
// with a fresh token carrying the new role.
func (s *server) confirmPrecheck(w http.ResponseWriter, r *http.Request) {
	p := principal(r)

	var req PrecheckRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeServiceError(w, r, hospital.Invalid("token", "is required"))
		return
	}

	userID := p.ID
	if req.UserID != 0 && p.IsAdministrative() {
		userID = req.UserID
	}

	u, err := s.loadPatient(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.authz.Authorize(p, policy.ActionConfirm, policy.Patient, u); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if u.Role != role.None {
		writeServiceError(w, r, hospital.Invalid("token", "the account is already confirmed"))
		return
	}

	stored, err := s.store.GetVerifyToken(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !strings.EqualFold(stored.Token, strings.TrimSpace(req.Token)) {
		writeServiceError(w, r, hospital.Invalid("token", "is invalid"))
		return
	}

	if err := s.store.MarkVerified(r.Context(), u.ID, role.Patient, s.now().UTC()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	u, err = s.store.GetUser(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if u.ID != p.ID {
		writeJSON(w, http.StatusOK, MessageResponse{
			Status: "confirmed",
			Data:   projection.Project(u, s.views.PatientAdmin),
		})
		return
	}

	token, ok := s.issue(w, u)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Status: "confirmed", Data: token})
}

func (s *server) getMyPatientProfile(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	u, err := s.loadPatient(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.authz.Authorize(p, policy.ActionView, policy.Patient, u); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, u, s.views.Patient(p.Role, true))
}

func (s *server) updateMyPatientProfile(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	u, err := s.loadPatient(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.authz.Authorize(p, policy.ActionView, policy.Patient, u); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.saveUser(w, r, u, s.views.PatientAdmin)
}

// saveUser applies a UserRequest body to u and answers with the stored user.
func (s *server) saveUser(w http.ResponseWriter, r *http.Request, u *hospital.User, f projection.Format) {
	var req UserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v := hospital.NewValidationError()
	req.validate(v, false)
	if err := v.Err(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := req.apply(u); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.store.UpdateUser(r.Context(), u); err != nil {
		writeServiceError(w, r, err)
		return
	}

	updated, err := s.store.GetUser(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, updated, f)
}

func (s *server) listMyDoctors(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if err := s.authz.Authorize(p, policy.ActionViewAsPatient, policy.Patient, nil); err != nil {
		writeServiceError(w, r, err)
		return
	}

	doctors, err := s.store.ListDoctorsOfPatient(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writePage(w, r, projection.ProjectAll(doctors, s.views.DoctorForPatient))
}

func (s *server) getPatient(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p := principal(r)

	u, err := s.loadPatient(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.authz.AuthorizeAny(p, policy.Patient, u, policy.ActionView, policy.ActionViewAsDoctor); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, u, s.views.Patient(p.Role, p.ID == u.ID))
}

func (s *server) updatePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	u, err := s.loadPatient(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.authz.Authorize(principal(r), policy.ActionUpdate, policy.Patient, u); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.saveUser(w, r, u, s.views.PatientAdmin)
}

func (s *server) deletePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	u, err := s.loadPatient(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.authz.Authorize(principal(r), policy.ActionDelete, policy.Patient, u); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.store.DeleteUser(r.Context(), u.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Status: "deleted"})
}

func (s *server) listPatientDoctors(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p := principal(r)

	u, err := s.loadPatient(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.authz.Authorize(p, policy.ActionViewRelated, policy.Patient, u); err != nil {
		writeServiceError(w, r, err)
		return
	}

	doctors, err := s.store.ListDoctorsOfPatient(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	f := s.views.DoctorForPatient
	if p.IsAdministrative() {
		f = s.views.DoctorAdminIndex
	}
	s.writePage(w, r, projection.ProjectAll(doctors, f))
}
