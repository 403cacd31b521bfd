package api

import (
	"net/http"

	"github.com/hackgods/hospital-management/internal/hospital"
	"github.com/hackgods/hospital-management/internal/policy"
	"github.com/hackgods/hospital-management/internal/projection"
	"github.com/hackgods/hospital-management/internal/role"
)

// doctors

func (s *server) listDoctors(w http.ResponseWriter, r *http.Request) {
	p := principal(r)

	var f projection.Format
	switch {
	case s.authz.Check(p, policy.ActionViewAny, policy.Doctor, nil):
		f = s.views.DoctorAdminIndex
	case s.authz.Check(p, policy.ActionViewAsPatient, policy.Doctor, nil):
		f = s.views.DoctorForPatient
	default:
		writeServiceError(w, r, s.authz.Authorize(p, policy.ActionViewAny, policy.Doctor, nil))
		return
	}

	doctors, err := s.store.ListDoctors(r.Context(), hospital.DoctorFilter{DepartmentID: queryID(r, "department_id")})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writePage(w, r, projection.ProjectAll(doctors, f))
}

func (s *server) createDoctor(w http.ResponseWriter, r *http.Request) {
	s.createDoctorIn(w, r, nil)
}

func (s *server) createDepartmentDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	dept, err := s.store.GetDepartment(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.createDoctorIn(w, r, &dept.ID)
}

// createDoctorIn opens a doctor account. A non-nil departmentID overrides the body.
func (s *server) createDoctorIn(w http.ResponseWriter, r *http.Request, departmentID *int64) {
	if err := s.authz.Authorize(principal(r), policy.ActionCreate, policy.Doctor, nil); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req DoctorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if departmentID != nil {
		req.DepartmentID = departmentID
	}
	if err := req.validate(true); err != nil {
		writeServiceError(w, r, err)
		return
	}

	u := &hospital.User{Role: role.Doctor}
	if err := req.UserRequest.apply(u); err != nil {
		writeServiceError(w, r, err)
		return
	}
	doc := &hospital.Doctor{User: u}
	req.apply(doc)

	if err := s.store.CreateDoctor(r.Context(), doc); err != nil {
		writeServiceError(w, r, invalidRefs(err))
		return
	}
	created, err := s.store.GetDoctor(r.Context(), doc.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusCreated, created, s.views.DoctorAdmin)
}

func (s *server) getMyDoctorProfile(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	doc, err := s.store.GetDoctor(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.authz.Authorize(p, policy.ActionView, policy.Doctor, doc); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, doc, s.views.Doctor(p.Role, true))
}

// updateMyDoctorProfile changes account fields only; the professional
// profile is managed by administrators.
func (s *server) updateMyDoctorProfile(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	doc, err := s.store.GetDoctor(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.authz.Authorize(p, policy.ActionView, policy.Doctor, doc); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req UserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.updateDoctorWith(w, r, doc, DoctorRequest{UserRequest: req})
}

func (s *server) listMyNurses(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if err := s.authz.Authorize(p, policy.ActionViewAsDoctor, policy.Nurse, nil); err != nil {
		writeServiceError(w, r, err)
		return
	}

	nurses, err := s.store.ListNurses(r.Context(), hospital.NurseFilter{DoctorID: p.ID})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writePage(w, r, projection.ProjectAll(nurses, s.views.NurseForPatient))
}

func (s *server) listMyClinics(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if err := s.authz.Authorize(p, policy.ActionViewAsDoctor, policy.Clinic, nil); err != nil {
		writeServiceError(w, r, err)
		return
	}

	clinics, err := s.store.ListClinics(r.Context(), hospital.ClinicFilter{DoctorID: p.ID})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writePage(w, r, projection.ProjectAll(clinics, s.views.ClinicIndex))
}

func (s *server) getDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p := principal(r)

	doc, err := s.store.GetDoctor(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	err = s.authz.AuthorizeAny(p, policy.Doctor, doc, policy.ActionView, policy.ActionViewAsPatient, policy.ActionViewAsDoctor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, doc, s.views.Doctor(p.Role, p.ID == doc.UserID))
}

func (s *server) updateDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	doc, err := s.store.GetDoctor(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.authz.Authorize(principal(r), policy.ActionUpdate, policy.Doctor, doc); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req DoctorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.updateDoctorWith(w, r, doc, req)
}

func (s *server) updateDoctorWith(w http.ResponseWriter, r *http.Request, doc *hospital.Doctor, req DoctorRequest) {
	if err := req.validate(false); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := req.UserRequest.apply(doc.User); err != nil {
		writeServiceError(w, r, err)
		return
	}
	req.apply(doc)

	if err := s.store.UpdateDoctor(r.Context(), doc); err != nil {
		writeServiceError(w, r, invalidRefs(err))
		return
	}
	updated, err := s.store.GetDoctor(r.Context(), doc.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, updated, s.views.DoctorAdmin)
}

func (s *server) deleteDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	doc, err := s.store.GetDoctor(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.authz.Authorize(principal(r), policy.ActionDelete, policy.Doctor, doc); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.store.DeleteDoctor(r.Context(), doc.UserID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Status: "deleted"})
}

func (s *server) listDoctorNurses(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	doc, err := s.store.GetDoctor(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.authz.Authorize(principal(r), policy.ActionViewRelated, policy.Doctor, doc); err != nil {
		writeServiceError(w, r, err)
		return
	}

	nurses, err := s.store.ListNurses(r.Context(), hospital.NurseFilter{DoctorID: doc.UserID})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writePage(w, r, projection.ProjectAll(nurses, s.views.NurseAdminIndex))
}

// listDoctorClinics is open to patients choosing where to book.
func (s *server) listDoctorClinics(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	doc, err := s.store.GetDoctor(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	err = s.authz.AuthorizeAny(principal(r), policy.Doctor, doc, policy.ActionViewRelated, policy.ActionViewAsPatient)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	clinics, err := s.store.ListClinics(r.Context(), hospital.ClinicFilter{DoctorID: doc.UserID})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writePage(w, r, projection.ProjectAll(clinics, s.views.ClinicIndex))
}

// nurses

func (s *server) listNurses(w http.ResponseWriter, r *http.Request) {
	if err := s.authz.Authorize(principal(r), policy.ActionViewAny, policy.Nurse, nil); err != nil {
		writeServiceError(w, r, err)
		return
	}

	nurses, err := s.store.ListNurses(r.Context(), hospital.NurseFilter{
		DepartmentID: queryID(r, "department_id"),
		DoctorID:     queryID(r, "doctor_id"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writePage(w, r, projection.ProjectAll(nurses, s.views.NurseAdminIndex))
}

func (s *server) createNurse(w http.ResponseWriter, r *http.Request) {
	s.createNurseIn(w, r, 0)
}

func (s *server) createDepartmentNurse(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	dept, err := s.store.GetDepartment(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.createNurseIn(w, r, dept.ID)
}

// createNurseIn opens a nurse account. A non-zero departmentID overrides the body.
func (s *server) createNurseIn(w http.ResponseWriter, r *http.Request, departmentID int64) {
	if err := s.authz.Authorize(principal(r), policy.ActionCreate, policy.Nurse, nil); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req NurseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if departmentID != 0 {
		req.DepartmentID = departmentID
	}
	if err := req.validate(true); err != nil {
		writeServiceError(w, r, err)
		return
	}

	u := &hospital.User{Role: role.Nurse}
	if err := req.UserRequest.apply(u); err != nil {
		writeServiceError(w, r, err)
		return
	}
	nurse := &hospital.Nurse{User: u}
	req.apply(nurse)

	if err := s.store.CreateNurse(r.Context(), nurse); err != nil {
		writeServiceError(w, r, invalidRefs(err))
		return
	}
	created, err := s.store.GetNurse(r.Context(), nurse.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusCreated, created, s.views.NurseAdmin)
}

func (s *server) getMyNurseProfile(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	nurse, err := s.store.GetNurse(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.authz.Authorize(p, policy.ActionView, policy.Nurse, nurse); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, nurse, s.views.Nurse(p.Role, true))
}

func (s *server) updateMyNurseProfile(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	nurse, err := s.store.GetNurse(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.authz.Authorize(p, policy.ActionView, policy.Nurse, nurse); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req UserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.updateNurseWith(w, r, nurse, NurseRequest{UserRequest: req}, s.views.Nurse(p.Role, true))
}

func (s *server) getMySupervisor(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	nurse, err := s.store.GetNurse(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writeSupervisor(w, r, nurse)
}

func (s *server) getNurse(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p := principal(r)

	nurse, err := s.store.GetNurse(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	err = s.authz.AuthorizeAny(p, policy.Nurse, nurse, policy.ActionView, policy.ActionViewAsDoctor, policy.ActionViewAsPatient)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, nurse, s.views.Nurse(p.Role, p.ID == nurse.UserID))
}

func (s *server) updateNurse(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	nurse, err := s.store.GetNurse(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.authz.Authorize(principal(r), policy.ActionUpdate, policy.Nurse, nurse); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req NurseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.updateNurseWith(w, r, nurse, req, s.views.NurseAdmin)
}

func (s *server) updateNurseWith(w http.ResponseWriter, r *http.Request, nurse *hospital.Nurse, req NurseRequest, f projection.Format) {
	if err := req.validate(false); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := req.UserRequest.apply(nurse.User); err != nil {
		writeServiceError(w, r, err)
		return
	}
	req.apply(nurse)

	if err := s.store.UpdateNurse(r.Context(), nurse); err != nil {
		writeServiceError(w, r, invalidRefs(err))
		return
	}
	updated, err := s.store.GetNurse(r.Context(), nurse.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, updated, f)
}

func (s *server) deleteNurse(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	nurse, err := s.store.GetNurse(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.authz.Authorize(principal(r), policy.ActionDelete, policy.Nurse, nurse); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.store.DeleteNurse(r.Context(), nurse.UserID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Status: "deleted"})
}

func (s *server) getNurseSupervisor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	nurse, err := s.store.GetNurse(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writeSupervisor(w, r, nurse)
}

// writeSupervisor answers with the doctor supervising nurse, for
// administrators and the nurse themself.
func (s *server) writeSupervisor(w http.ResponseWriter, r *http.Request, nurse *hospital.Nurse) {
	p := principal(r)
	if err := s.authz.Authorize(p, policy.ActionViewRelated, policy.Nurse, nurse); err != nil {
		writeServiceError(w, r, err)
		return
	}

	doc, err := s.store.GetDoctor(r.Context(), nurse.DoctorID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, doc, s.views.Doctor(p.Role, false))
}
