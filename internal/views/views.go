// Package views holds the response formats of the API, one per caller role
// and endpoint kind. They are built once at start and never mutated.
package views

import (
	"github.com/hackgods/hospital-management/internal/projection"
	"github.com/hackgods/hospital-management/internal/role"
)

type Views struct {
	PatientAdmin     projection.Format
	PatientForDoctor projection.Format

	DoctorAdminIndex projection.Format
	DoctorAdmin      projection.Format
	DoctorForPatient projection.Format

	NurseAdminIndex projection.Format
	NurseAdmin      projection.Format
	NurseSelf       projection.Format
	NurseForPatient projection.Format

	Department projection.Format

	ClinicSummary  projection.Format
	ClinicIndex    projection.Format
	ClinicDetail   projection.Format
	InternalIndex  projection.Format
	InternalDetail projection.Format
	ExternalIndex  projection.Format
	ExternalDetail projection.Format

	AppointmentIndex      projection.Format
	AppointmentAdmin      projection.Format
	AppointmentForPatient projection.Format
	AppointmentForDoctor  projection.Format

	TestIndex      projection.Format
	TestAdmin      projection.Format
	TestForPatient projection.Format
	TestForDoctor  projection.Format
}

// New builds every format. appURL and storageURL prefix derived resource and
// file URLs and are expected to end with a slash.
func New(appURL, storageURL string) *Views {
	patientsURL := appURL + "api/patients/"
	doctorsURL := appURL + "api/doctors/"
	nursesURL := appURL + "api/nurses/"
	departmentsURL := appURL + "api/departments/"

	picture := projection.URL("profile_picture_path", "profile_picture", storageURL)

	v := &Views{}

	v.PatientAdmin = projection.New(
		projection.URL("url", "id", patientsURL),
		projection.Attr("id"),
		projection.Attr("first_name"),
		projection.Attr("last_name"),
		projection.Attr("email"),
		projection.Attr("phone_number"),
		projection.Attr("gender"),
		projection.Attr("address"),
		projection.Attr("birth_date"),
		picture,
		projection.Attr("ssn"),
	)
	v.PatientForDoctor = projection.New(
		projection.URL("url", "id", patientsURL),
		projection.Attr("id"),
		projection.Attr("first_name"),
		projection.Attr("last_name"),
		projection.Attr("gender"),
		projection.Attr("birth_date"),
		picture,
	)

	v.Department = projection.New(
		projection.Attr("id"),
		projection.Field("department_name", "name"),
		projection.Attr("specialization"),
		projection.Attr("description"),
	)

	staffUser := projection.New(
		projection.Attr("id"),
		projection.Attr("first_name"),
		projection.Attr("last_name"),
		projection.Attr("email"),
		projection.Attr("phone_number"),
		projection.Attr("gender"),
		projection.Attr("address"),
		projection.Attr("birth_date"),
		picture,
	)

	v.DoctorAdminIndex = projection.New(
		projection.URL("url", "id", doctorsURL),
		projection.Flatten("user", staffUser),
		projection.Attr("department_id"),
		projection.Attr("specialization"),
		projection.Attr("short_description"),
		projection.Attr("rate"),
	)
	v.DoctorAdmin = projection.New(
		projection.URL("url", "id", doctorsURL),
		projection.Flatten("user", staffUser),
		projection.Nest("department", v.Department),
		projection.Attr("specialization"),
		projection.Attr("short_description"),
		projection.Attr("rate"),
		projection.Attr("assigned_at"),
	)
	// patients never see a doctor's contact details
	v.DoctorForPatient = projection.New(
		projection.Attr("id"),
		projection.Flatten("user", projection.New(
			projection.Attr("first_name"),
			projection.Attr("last_name"),
			projection.Attr("gender"),
			picture,
		)),
		projection.Attr("specialization"),
		projection.Attr("short_description"),
		projection.Attr("rate"),
	)

	nurseUser := projection.New(
		projection.URL("url", "id", nursesURL),
		projection.Attr("first_name"),
		projection.Attr("last_name"),
		projection.Attr("email"),
		projection.Attr("phone_number"),
		projection.Attr("gender"),
		projection.Attr("address"),
		projection.Attr("birth_date"),
		picture,
	)
	v.NurseAdminIndex = projection.New(
		projection.Flatten("user", nurseUser.Extend(projection.Attr("id"))),
		projection.URL("department", "department_id", departmentsURL),
		projection.Attr("doctor_id"),
		projection.Attr("specialization"),
		projection.Attr("short_description"),
		projection.Attr("assigned_at"),
		projection.Attr("rate"),
	)
	v.NurseAdmin = projection.New(
		projection.Flatten("user", nurseUser.Extend(projection.Attr("id"))),
		projection.Nest("department", v.Department),
		projection.Attr("doctor_id"),
		projection.Nest("doctor", v.DoctorAdminIndex),
		projection.Attr("specialization"),
		projection.Attr("short_description"),
		projection.Attr("rate"),
		projection.Attr("assigned_at"),
	)
	v.NurseSelf = projection.New(
		projection.Flatten("user", nurseUser),
		projection.Nest("department", v.Department),
		projection.Attr("specialization"),
		projection.Attr("short_description"),
		projection.Attr("rate"),
		projection.Attr("assigned_at"),
	)
	v.NurseForPatient = projection.New(
		projection.Flatten("user", projection.New(
			projection.URL("url", "id", nursesURL),
			projection.Attr("first_name"),
			projection.Attr("last_name"),
			projection.Attr("email"),
			projection.Attr("phone_number"),
			projection.Attr("gender"),
			picture,
		)),
		projection.Attr("specialization"),
		projection.Attr("rate"),
	)

	v.ClinicSummary = projection.New(
		projection.Attr("id"),
		projection.Attr("clinic_type"),
		projection.Nest("department", v.Department),
		projection.Attr("clinic_code"),
		projection.Field("clinic_longitude", "longitude"),
		projection.Field("clinic_latitude", "latitude"),
	)
	v.ClinicIndex = projection.New(
		projection.Attr("id"),
		projection.Attr("clinic_type"),
		projection.Attr("department_id"),
		projection.Attr("clinic_code"),
		projection.Field("clinic_longitude", "longitude"),
		projection.Field("clinic_latitude", "latitude"),
		projection.Attr("doctor_id"),
	)
	v.ClinicDetail = v.ClinicSummary.Extend(
		projection.Nest("doctor", v.DoctorForPatient),
	)
	v.InternalIndex = projection.New(
		projection.Attr("id"),
		projection.Attr("clinic_code"),
		projection.Attr("department_id"),
		projection.Attr("doctor_id"),
	)
	v.InternalDetail = projection.New(
		projection.Attr("id"),
		projection.Attr("clinic_code"),
		projection.Nest("department", v.Department),
		projection.Nest("doctor", v.DoctorForPatient),
	)
	v.ExternalIndex = projection.New(
		projection.Attr("id"),
		projection.Field("clinic_longitude", "longitude"),
		projection.Field("clinic_latitude", "latitude"),
		projection.Attr("doctor_id"),
	)
	v.ExternalDetail = projection.New(
		projection.Attr("id"),
		projection.Field("clinic_longitude", "longitude"),
		projection.Field("clinic_latitude", "latitude"),
		projection.Nest("doctor", v.DoctorForPatient),
	)

	visit := projection.New(
		projection.Attr("id"),
		projection.Attr("date"),
		projection.Attr("next_date"),
		projection.Attr("status"),
	)
	v.AppointmentIndex = visit.Extend(
		projection.Attr("clinic_id"),
		projection.Attr("doctor_id"),
		projection.Attr("patient_id"),
	)
	v.AppointmentAdmin = visit.Extend(
		projection.Nest("doctor", v.DoctorAdmin),
		projection.Nest("patient", v.PatientAdmin),
		projection.Nest("clinic", v.ClinicSummary),
	)
	v.AppointmentForPatient = visit.Extend(
		projection.Nest("doctor", v.DoctorForPatient),
		projection.Nest("clinic", v.ClinicSummary),
	)
	v.AppointmentForDoctor = visit.Extend(
		projection.Nest("patient", v.PatientForDoctor),
		projection.Nest("clinic", v.ClinicSummary),
	)

	vitals := []projection.Node{
		projection.Attr("breathing_rate"),
		projection.Attr("body_temperature"),
		projection.Attr("pulse_rate"),
		projection.Attr("medical_notes"),
		projection.Attr("prescription"),
		projection.Attr("created_at"),
	}
	v.TestIndex = projection.New(
		projection.Attr("id"),
		projection.Attr("patient_id"),
		projection.Attr("doctor_id"),
	).Extend(vitals...)
	v.TestAdmin = projection.New(
		projection.Attr("id"),
		projection.Nest("patient", v.PatientAdmin),
		projection.Nest("doctor", v.DoctorAdmin),
	).Extend(vitals...)
	v.TestForPatient = projection.New(
		projection.Attr("id"),
		projection.Nest("doctor", v.DoctorForPatient),
	).Extend(vitals...)
	v.TestForDoctor = projection.New(
		projection.Attr("id"),
		projection.Nest("patient", v.PatientForDoctor),
	).Extend(vitals...)

	return v
}

// Appointment picks the appointment detail format for the caller's role.
func (v *Views) Appointment(r role.Role) projection.Format {
	switch r {
	case role.Patient:
		return v.AppointmentForPatient
	case role.Doctor:
		return v.AppointmentForDoctor
	}
	return v.AppointmentAdmin
}

// Test picks the routine test detail format for the caller's role.
func (v *Views) Test(r role.Role) projection.Format {
	switch r {
	case role.Patient:
		return v.TestForPatient
	case role.Doctor:
		return v.TestForDoctor
	}
	return v.TestAdmin
}

// Doctor picks the doctor detail format: administrators and the doctor
// themself see contact details, everyone else gets the public profile.
func (v *Views) Doctor(r role.Role, self bool) projection.Format {
	if self || r.IsAdministrative() {
		return v.DoctorAdmin
	}
	return v.DoctorForPatient
}

// Nurse picks the nurse detail format.
func (v *Views) Nurse(r role.Role, self bool) projection.Format {
	switch {
	case r.IsAdministrative():
		return v.NurseAdmin
	case self:
		return v.NurseSelf
	}
	return v.NurseForPatient
}

// Patient picks the patient detail format.
func (v *Views) Patient(r role.Role, self bool) projection.Format {
	if self || r.IsAdministrative() {
		return v.PatientAdmin
	}
	return v.PatientForDoctor
}
