package api

import (
	"net/http"

	"github.com/hackgods/hospital-management/internal/hospital"
	"github.com/hackgods/hospital-management/internal/policy"
	"github.com/hackgods/hospital-management/internal/projection"
)

// departments

func (s *server) listDepartments(w http.ResponseWriter, r *http.Request) {
	err := s.authz.AuthorizeAny(principal(r), policy.Department, nil,
		policy.ActionViewAny, policy.ActionViewAsPatient, policy.ActionViewAsDoctor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	depts, err := s.store.ListDepartments(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writePage(w, r, projection.ProjectAll(depts, s.views.Department))
}

func (s *server) createDepartment(w http.ResponseWriter, r *http.Request) {
	if err := s.authz.Authorize(principal(r), policy.ActionCreate, policy.Department, nil); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req DepartmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(true); err != nil {
		writeServiceError(w, r, err)
		return
	}

	dept := &hospital.Department{}
	req.apply(dept)
	if err := s.store.CreateDepartment(r.Context(), dept); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusCreated, dept, s.views.Department)
}

func (s *server) loadDepartment(w http.ResponseWriter, r *http.Request) (*hospital.Department, bool) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return nil, false
	}
	dept, err := s.store.GetDepartment(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	return dept, true
}

func (s *server) getDepartment(w http.ResponseWriter, r *http.Request) {
	dept, ok := s.loadDepartment(w, r)
	if !ok {
		return
	}
	err := s.authz.AuthorizeAny(principal(r), policy.Department, dept,
		policy.ActionView, policy.ActionViewAsPatient, policy.ActionViewAsDoctor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, dept, s.views.Department)
}

func (s *server) updateDepartment(w http.ResponseWriter, r *http.Request) {
	dept, ok := s.loadDepartment(w, r)
	if !ok {
		return
	}
	if err := s.authz.Authorize(principal(r), policy.ActionUpdate, policy.Department, dept); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req DepartmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.apply(dept)
	if err := s.store.UpdateDepartment(r.Context(), dept); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, dept, s.views.Department)
}

func (s *server) deleteDepartment(w http.ResponseWriter, r *http.Request) {
	dept, ok := s.loadDepartment(w, r)
	if !ok {
		return
	}
	if err := s.authz.Authorize(principal(r), policy.ActionDelete, policy.Department, dept); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.store.DeleteDepartment(r.Context(), dept.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Status: "deleted"})
}

func (s *server) listDepartmentDoctors(w http.ResponseWriter, r *http.Request) {
	dept, ok := s.loadDepartment(w, r)
	if !ok {
		return
	}
	p := principal(r)
	err := s.authz.AuthorizeAny(p, policy.Department, dept, policy.ActionViewRelated, policy.ActionViewAsPatient)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	doctors, err := s.store.ListDoctors(r.Context(), hospital.DoctorFilter{DepartmentID: dept.ID})
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

func (s *server) listDepartmentNurses(w http.ResponseWriter, r *http.Request) {
	dept, ok := s.loadDepartment(w, r)
	if !ok {
		return
	}
	if err := s.authz.Authorize(principal(r), policy.ActionViewRelated, policy.Department, dept); err != nil {
		writeServiceError(w, r, err)
		return
	}

	nurses, err := s.store.ListNurses(r.Context(), hospital.NurseFilter{DepartmentID: dept.ID})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writePage(w, r, projection.ProjectAll(nurses, s.views.NurseAdminIndex))
}

func (s *server) listDepartmentClinics(w http.ResponseWriter, r *http.Request) {
	dept, ok := s.loadDepartment(w, r)
	if !ok {
		return
	}
	err := s.authz.AuthorizeAny(principal(r), policy.Department, dept, policy.ActionViewRelated, policy.ActionViewAsPatient)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	clinics, err := s.store.ListClinics(r.Context(), hospital.ClinicFilter{
		Type:         hospital.ClinicInternal,
		DepartmentID: dept.ID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writePage(w, r, projection.ProjectAll(clinics, s.views.InternalIndex))
}

func (s *server) createInternalClinic(w http.ResponseWriter, r *http.Request) {
	dept, ok := s.loadDepartment(w, r)
	if !ok {
		return
	}
	s.createClinic(w, r, &hospital.Clinic{Type: hospital.ClinicInternal, DepartmentID: &dept.ID})
}

// clinics

func (s *server) listClinics(w http.ResponseWriter, r *http.Request) {
	if err := s.authz.Authorize(principal(r), policy.ActionViewAny, policy.Clinic, nil); err != nil {
		writeServiceError(w, r, err)
		return
	}

	f := hospital.ClinicFilter{
		DoctorID:     queryID(r, "doctor_id"),
		DepartmentID: queryID(r, "department_id"),
	}
	if t := hospital.ClinicType(r.URL.Query().Get("type")); t.Valid() {
		f.Type = t
	}
	clinics, err := s.store.ListClinics(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writePage(w, r, projection.ProjectAll(clinics, s.views.ClinicIndex))
}

func (s *server) createExternalClinic(w http.ResponseWriter, r *http.Request) {
	s.createClinic(w, r, &hospital.Clinic{Type: hospital.ClinicExternal})
}

func (s *server) createClinic(w http.ResponseWriter, r *http.Request, c *hospital.Clinic) {
	if err := s.authz.Authorize(principal(r), policy.ActionCreate, policy.Clinic, nil); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req ClinicRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	// the department of an internal clinic comes from the URL
	req.DepartmentID = nil
	if err := req.validate(c.Type, true); err != nil {
		writeServiceError(w, r, err)
		return
	}
	req.apply(c)

	if err := s.store.CreateClinic(r.Context(), c); err != nil {
		writeServiceError(w, r, invalidRefs(err))
		return
	}
	created, err := s.store.GetClinic(r.Context(), c.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusCreated, created, s.clinicDetail(created.Type))
}

func (s *server) updateClinic(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	c, err := s.store.GetClinic(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.authz.Authorize(principal(r), policy.ActionUpdate, policy.Clinic, c); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req ClinicRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(c.Type, false); err != nil {
		writeServiceError(w, r, err)
		return
	}
	req.apply(c)

	if err := s.store.UpdateClinic(r.Context(), c); err != nil {
		writeServiceError(w, r, invalidRefs(err))
		return
	}
	updated, err := s.store.GetClinic(r.Context(), c.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, updated, s.views.ClinicDetail)
}

func (s *server) deleteClinic(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	c, err := s.store.GetClinic(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.authz.Authorize(principal(r), policy.ActionDelete, policy.Clinic, c); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.store.DeleteClinic(r.Context(), c.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Status: "deleted"})
}

func (s *server) clinicIndex(t hospital.ClinicType) projection.Format {
	if t == hospital.ClinicInternal {
		return s.views.InternalIndex
	}
	return s.views.ExternalIndex
}

func (s *server) clinicDetail(t hospital.ClinicType) projection.Format {
	if t == hospital.ClinicInternal {
		return s.views.InternalDetail
	}
	return s.views.ExternalDetail
}

// listClinicsOfType serves the clinic directory patients book from.
func (s *server) listClinicsOfType(t hospital.ClinicType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := s.authz.AuthorizeAny(principal(r), policy.Clinic, nil, policy.ActionViewAny, policy.ActionViewAsPatient)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		clinics, err := s.store.ListClinics(r.Context(), hospital.ClinicFilter{
			Type:         t,
			DoctorID:     queryID(r, "doctor_id"),
			DepartmentID: queryID(r, "department_id"),
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		s.writePage(w, r, projection.ProjectAll(clinics, s.clinicIndex(t)))
	}
}

func (s *server) getClinicOfType(t hospital.ClinicType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		c, err := s.store.GetClinic(r.Context(), id)
		if err == nil && c.Type != t {
			err = hospital.ErrClinicNotFound
		}
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		err = s.authz.AuthorizeAny(principal(r), policy.Clinic, c,
			policy.ActionView, policy.ActionViewAsPatient, policy.ActionViewAsDoctor)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeDoc(w, http.StatusOK, c, s.clinicDetail(t))
	}
}
