package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/hospital-management/internal/hospital"
	"github.com/hackgods/hospital-management/internal/projection"
	"github.com/hackgods/hospital-management/internal/role"
)

func sampleDoctor() *hospital.Doctor {
	deptID := int64(3)
	return &hospital.Doctor{
		UserID:           7,
		DepartmentID:     &deptID,
		Specialization:   "Cardiology",
		ShortDescription: "Heart doctor",
		Rate:             hospital.RateGood,
		User: &hospital.User{
			ID:             7,
			FirstName:      "Gregory",
			LastName:       "House",
			Email:          "house@example.com",
			PhoneNumber:    "555-0100",
			Address:        "221B Baker Street",
			Gender:         "male",
			ProfilePicture: "avatars/7.png",
			Role:           role.Doctor,
		},
		Department: &hospital.Department{ID: deptID, Name: "Cardiology", Specialization: "heart"},
	}
}

func TestDoctorFormatsForAdminAndPatient(t *testing.T) {
	v := New("http://api.test/", "http://api.test/storage/")
	doc := sampleDoctor()

	admin := projection.Project(doc, v.DoctorAdminIndex)
	assert.Equal(t, "house@example.com", admin["email"])
	assert.Equal(t, "221B Baker Street", admin["address"])
	assert.Equal(t, "555-0100", admin["phone_number"])
	assert.Equal(t, "http://api.test/api/doctors/7", admin["url"])

	public := projection.Project(doc, v.DoctorForPatient)
	assert.NotContains(t, public, "email")
	assert.NotContains(t, public, "address")
	assert.NotContains(t, public, "phone_number")
	assert.Equal(t, "Gregory", public["first_name"])
	assert.Equal(t, "http://api.test/storage/avatars/7.png", public["profile_picture_path"])
	assert.Equal(t, "good", public["rate"])
}

func TestDoctorAdminNestsDepartment(t *testing.T) {
	v := New("http://api.test/", "http://api.test/storage/")
	doc := sampleDoctor()

	out := projection.Project(doc, v.DoctorAdmin)
	dept, ok := out["department"].(projection.Document)
	require.True(t, ok)
	assert.Equal(t, "Cardiology", dept["department_name"])

	doc.Department = nil
	out = projection.Project(doc, v.DoctorAdmin)
	assert.Contains(t, out, "department")
	assert.Nil(t, out["department"])
}

func TestAppointmentFormatsBySide(t *testing.T) {
	v := New("http://api.test/", "http://api.test/storage/")
	doc := sampleDoctor()
	patient := &hospital.User{ID: 9, FirstName: "Pat", Email: "pat@example.com", SSN: "123", Role: role.Patient}
	appt := &hospital.Appointment{
		ID:        1,
		DoctorID:  doc.UserID,
		PatientID: patient.ID,
		ClinicID:  4,
		Date:      time.Date(2030, 1, 2, 9, 30, 0, 0, time.UTC),
		Status:    hospital.StatusWaited,
		Doctor:    doc,
		Patient:   patient,
		Clinic:    &hospital.Clinic{ID: 4, Type: hospital.ClinicInternal, Code: "C-4"},
	}

	forPatient := projection.Project(appt, v.Appointment(role.Patient))
	assert.Equal(t, "2030-01-02 09:30:00", forPatient["date"])
	assert.Equal(t, "WAITED", forPatient["status"])
	assert.NotContains(t, forPatient, "next_date")
	assert.NotContains(t, forPatient, "patient")
	require.IsType(t, projection.Document{}, forPatient["doctor"])
	assert.NotContains(t, forPatient["doctor"], "email")

	forDoctor := projection.Project(appt, v.Appointment(role.Doctor))
	assert.NotContains(t, forDoctor, "doctor")
	patientDoc := forDoctor["patient"].(projection.Document)
	assert.NotContains(t, patientDoc, "ssn")
	assert.NotContains(t, patientDoc, "email")
	assert.Equal(t, "http://api.test/api/patients/9", patientDoc["url"])

	forAdmin := projection.Project(appt, v.Appointment(role.Staff))
	assert.Equal(t, "123", forAdmin["patient"].(projection.Document)["ssn"])
	clinic := forAdmin["clinic"].(projection.Document)
	assert.Equal(t, "internal", clinic["clinic_type"])
	assert.Nil(t, clinic["department"])
}

func TestFormatSelectors(t *testing.T) {
	v := New("http://api.test/", "http://api.test/storage/")
	doc := sampleDoctor()

	assert.Contains(t, projection.Project(doc, v.Doctor(role.Doctor, true)), "email")
	assert.NotContains(t, projection.Project(doc, v.Doctor(role.Patient, false)), "email")
	assert.Contains(t, projection.Project(doc, v.Doctor(role.Admin, false)), "email")

	nurse := &hospital.Nurse{UserID: 11, DoctorID: 7, User: &hospital.User{ID: 11, FirstName: "Nina", Address: "Elm St"}}
	assert.Contains(t, projection.Project(nurse, v.Nurse(role.Nurse, true)), "address")
	assert.NotContains(t, projection.Project(nurse, v.Nurse(role.Patient, false)), "address")
	adminView := projection.Project(nurse, v.Nurse(role.Admin, false))
	assert.Equal(t, int64(7), adminView["doctor_id"])
	assert.Contains(t, adminView, "doctor")
	assert.Nil(t, adminView["doctor"])
}
