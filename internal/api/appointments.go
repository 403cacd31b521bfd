package api

import (
	"net/http"

	"github.com/hackgods/hospital-management/internal/appointment"
	"github.com/hackgods/hospital-management/internal/hospital"
	"github.com/hackgods/hospital-management/internal/policy"
	"github.com/hackgods/hospital-management/internal/projection"
)

func (s *server) writeAppointments(w http.ResponseWriter, r *http.Request, appts []*hospital.Appointment, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writePage(w, r, projection.ProjectAll(appts, s.views.AppointmentIndex))
}

func (s *server) writeTests(w http.ResponseWriter, r *http.Request, tests []*hospital.RoutineTest, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.writePage(w, r, projection.ProjectAll(tests, s.views.TestIndex))
}

// appointments

func (s *server) listAppointments(w http.ResponseWriter, r *http.Request) {
	appts, err := s.svc.List(r.Context(), principal(r), hospital.AppointmentFilter{
		DoctorID:  queryID(r, "doctor_id"),
		PatientID: queryID(r, "patient_id"),
		ClinicID:  queryID(r, "clinic_id"),
	})
	s.writeAppointments(w, r, appts, err)
}

func (s *server) createAppointment(w http.ResponseWriter, r *http.Request) {
	p := principal(r)

	var body CreateAppointmentRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	req, err := body.toService()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	appt, err := s.svc.CreateAppointment(r.Context(), p, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusCreated, appt, s.views.Appointment(p.Role))
}

func (s *server) listDoctorAppointments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	doc, err := s.store.GetDoctor(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	appts, err := s.svc.List(r.Context(), principal(r), hospital.AppointmentFilter{DoctorID: doc.UserID})
	s.writeAppointments(w, r, appts, err)
}

func (s *server) listPatientAppointments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	u, err := s.loadPatient(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	appts, err := s.svc.List(r.Context(), principal(r), hospital.AppointmentFilter{PatientID: u.ID})
	s.writeAppointments(w, r, appts, err)
}

func (s *server) listClinicAppointments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	c, err := s.store.GetClinic(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	appts, err := s.svc.List(r.Context(), principal(r), hospital.AppointmentFilter{ClinicID: c.ID})
	s.writeAppointments(w, r, appts, err)
}

func (s *server) listMyAppointments(w http.ResponseWriter, r *http.Request) {
	appts, err := s.svc.ListOwn(r.Context(), principal(r))
	s.writeAppointments(w, r, appts, err)
}

// listMyPatientAppointments lists the calling doctor's appointments,
// narrowed to one patient by ?patient_id=.
func (s *server) listMyPatientAppointments(w http.ResponseWriter, r *http.Request) {
	p := principal(r)

	if patientID := queryID(r, "patient_id"); patientID != 0 {
		appts, err := s.svc.ListWithPatient(r.Context(), p, patientID)
		s.writeAppointments(w, r, appts, err)
		return
	}

	if err := s.authz.Authorize(p, policy.ActionViewAsDoctor, policy.Appointment, nil); err != nil {
		writeServiceError(w, r, err)
		return
	}
	appts, err := s.svc.ListOwn(r.Context(), p)
	s.writeAppointments(w, r, appts, err)
}

// getMyPatientAppointment reads one of the calling doctor's appointments.
func (s *server) getMyPatientAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p := principal(r)

	appt, err := s.svc.GetOwn(r.Context(), p, id)
	if err == nil {
		err = s.authz.Authorize(p, policy.ActionViewAsDoctor, policy.Appointment, appt)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, appt, s.views.AppointmentForDoctor)
}

func (s *server) submitAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p := principal(r)

	// a missing appointment answers 404 before the body is judged
	if _, err := s.store.GetAppointment(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var body SubmitAppointmentRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	req, err := body.toService()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	appt, err := s.svc.SubmitAppointment(r.Context(), p, id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, appt, s.views.Appointment(p.Role))
}

func (s *server) getMyAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p := principal(r)

	appt, err := s.svc.GetOwn(r.Context(), p, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, appt, s.views.Appointment(p.Role))
}

func (s *server) clinicSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	period := appointment.ParsePeriod(r.URL.Query().Get("period"))
	appts, err := s.svc.Schedule(r.Context(), principal(r), appointment.Scope{ClinicID: id}, period)
	s.writeAppointments(w, r, appts, err)
}

func (s *server) doctorSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	period := appointment.ParsePeriod(r.URL.Query().Get("period"))
	appts, err := s.svc.Schedule(r.Context(), principal(r), appointment.Scope{DoctorID: id}, period)
	s.writeAppointments(w, r, appts, err)
}

func (s *server) getAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p := principal(r)

	appt, err := s.svc.Get(r.Context(), p, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, appt, s.views.Appointment(p.Role))
}

// routine tests

func (s *server) listTests(w http.ResponseWriter, r *http.Request) {
	tests, err := s.svc.ListTests(r.Context(), principal(r), hospital.RoutineTestFilter{
		DoctorID:  queryID(r, "doctor_id"),
		PatientID: queryID(r, "patient_id"),
	})
	s.writeTests(w, r, tests, err)
}

func (s *server) listMyTests(w http.ResponseWriter, r *http.Request) {
	tests, err := s.svc.ListOwnTests(r.Context(), principal(r))
	s.writeTests(w, r, tests, err)
}

// listMyPatientTests lists the tests the calling doctor recorded, narrowed
// to one patient by ?patient_id=.
func (s *server) listMyPatientTests(w http.ResponseWriter, r *http.Request) {
	p := principal(r)

	if patientID := queryID(r, "patient_id"); patientID != 0 {
		tests, err := s.svc.ListTestsWithPatient(r.Context(), p, patientID)
		s.writeTests(w, r, tests, err)
		return
	}

	if err := s.authz.Authorize(p, policy.ActionViewAsDoctor, policy.RoutineTest, nil); err != nil {
		writeServiceError(w, r, err)
		return
	}
	tests, err := s.svc.ListOwnTests(r.Context(), p)
	s.writeTests(w, r, tests, err)
}

func (s *server) getMyPatientTest(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p := principal(r)

	test, err := s.svc.GetOwnTest(r.Context(), p, id)
	if err == nil {
		err = s.authz.Authorize(p, policy.ActionViewAsDoctor, policy.RoutineTest, test)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, test, s.views.TestForDoctor)
}

func (s *server) getMyTest(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p := principal(r)

	test, err := s.svc.GetOwnTest(r.Context(), p, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, test, s.views.Test(p.Role))
}

func (s *server) listPatientTests(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	u, err := s.loadPatient(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	tests, err := s.svc.ListTests(r.Context(), principal(r), hospital.RoutineTestFilter{PatientID: u.ID})
	s.writeTests(w, r, tests, err)
}

func (s *server) listDoctorTests(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	doc, err := s.store.GetDoctor(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	tests, err := s.svc.ListTests(r.Context(), principal(r), hospital.RoutineTestFilter{DoctorID: doc.UserID})
	s.writeTests(w, r, tests, err)
}

func (s *server) getTest(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p := principal(r)

	test, err := s.svc.GetTest(r.Context(), p, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, test, s.views.Test(p.Role))
}

func (s *server) updateTest(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p := principal(r)

	if _, err := s.store.GetRoutineTest(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var body VitalsRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	v := hospital.NewValidationError()
	vitals := body.toVitals(v)
	if err := v.Err(); err != nil {
		writeServiceError(w, r, err)
		return
	}

	test, err := s.svc.UpdateTest(r.Context(), p, id, vitals)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeDoc(w, http.StatusOK, test, s.views.Test(p.Role))
}
