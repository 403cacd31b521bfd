package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/hospital-management/internal/auth"
	"github.com/hackgods/hospital-management/internal/role"
)

type visit struct{ patientID, doctorID int64 }

func (v visit) VisitParties() (int64, int64) { return v.patientID, v.doctorID }

type profile struct{ id, supervisor int64 }

func (p profile) SubjectID() int64    { return p.id }
func (p profile) SupervisorID() int64 { return p.supervisor }

type clinic struct{ doctorID int64 }

func (c clinic) OwnerID() int64 { return c.doctorID }

var (
	admin      = auth.Principal{ID: 1, Role: role.Admin}
	staff      = auth.Principal{ID: 2, Role: role.Staff}
	doc        = auth.Principal{ID: 10, Role: role.Doctor}
	otherDoc   = auth.Principal{ID: 11, Role: role.Doctor}
	nurse      = auth.Principal{ID: 20, Role: role.Nurse}
	pat        = auth.Principal{ID: 30, Role: role.Patient}
	otherPat   = auth.Principal{ID: 31, Role: role.Patient}
	unverified = auth.Principal{ID: 40}
)

func TestAppointmentPolicy(t *testing.T) {
	e := NewEngine()
	appt := visit{patientID: pat.ID, doctorID: doc.ID}

	tests := []struct {
		name   string
		p      auth.Principal
		action Action
		target any
		want   bool
	}{
		{"admin lists", admin, ActionViewAny, nil, true},
		{"staff lists", staff, ActionViewAny, nil, true},
		{"doctor cannot list all", doc, ActionViewAny, nil, false},
		{"admin views", admin, ActionView, appt, true},
		{"patient party views", pat, ActionView, appt, true},
		{"doctor party views", doc, ActionView, appt, true},
		{"other patient denied", otherPat, ActionView, appt, false},
		{"other doctor denied", otherDoc, ActionView, appt, false},
		{"nurse denied", nurse, ActionView, appt, false},
		{"patient side", pat, ActionViewAsPatient, appt, true},
		{"patient side class level", pat, ActionViewAsPatient, nil, true},
		{"doctor not patient side", doc, ActionViewAsPatient, appt, false},
		{"doctor side", doc, ActionViewAsDoctor, appt, true},
		{"other doctor side", otherDoc, ActionViewAsDoctor, appt, false},
		{"patient creates", pat, ActionCreate, nil, true},
		{"doctor creates", doc, ActionCreate, nil, true},
		{"nurse cannot create", nurse, ActionCreate, nil, false},
		{"admin cannot create", admin, ActionCreate, nil, false},
		{"doctor party updates", doc, ActionUpdate, appt, true},
		{"patient party updates", pat, ActionUpdate, appt, true},
		{"admin updates", admin, ActionUpdate, appt, true},
		{"other doctor cannot update", otherDoc, ActionUpdate, appt, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Check(tt.p, tt.action, Appointment, tt.target))
		})
	}
}

func TestClinicalRecordsAreNeverDeletable(t *testing.T) {
	e := NewEngine()
	record := visit{patientID: pat.ID, doctorID: doc.ID}

	for _, p := range []auth.Principal{admin, staff, doc, nurse, pat, unverified, auth.Anonymous} {
		for _, typ := range []EntityType{Appointment, RoutineTest} {
			err := e.Authorize(p, ActionDelete, typ, record)
			assert.ErrorIs(t, err, ErrAccessDenied, "%s deleting %s", p.Role, typ)
		}
	}
}

func TestRoutineTestUpdate(t *testing.T) {
	e := NewEngine()
	test := visit{patientID: pat.ID, doctorID: doc.ID}

	assert.True(t, e.Check(doc, ActionUpdate, RoutineTest, test))
	assert.True(t, e.Check(admin, ActionUpdate, RoutineTest, test))
	assert.False(t, e.Check(pat, ActionUpdate, RoutineTest, test))
	assert.False(t, e.Check(otherDoc, ActionUpdate, RoutineTest, test))
}

func TestProfilePolicies(t *testing.T) {
	e := NewEngine()
	docProfile := profile{id: doc.ID}
	nurseProfile := profile{id: nurse.ID, supervisor: doc.ID}
	patProfile := profile{id: pat.ID}

	assert.True(t, e.Check(doc, ActionView, Doctor, docProfile))
	assert.False(t, e.Check(otherDoc, ActionView, Doctor, docProfile))
	assert.True(t, e.Check(staff, ActionView, Doctor, docProfile))
	assert.True(t, e.Check(pat, ActionViewAsPatient, Doctor, docProfile))

	assert.True(t, e.Check(nurse, ActionView, Nurse, nurseProfile))
	assert.True(t, e.Check(doc, ActionViewAsDoctor, Nurse, nurseProfile))
	assert.False(t, e.Check(otherDoc, ActionViewAsDoctor, Nurse, nurseProfile))
	assert.True(t, e.Check(doc, ActionViewRelated, Doctor, docProfile))

	assert.True(t, e.Check(pat, ActionView, Patient, patProfile))
	assert.False(t, e.Check(otherPat, ActionView, Patient, patProfile))
	assert.True(t, e.Check(doc, ActionViewAsDoctor, Patient, patProfile))

	for _, typ := range []EntityType{Doctor, Nurse, Department, Clinic} {
		assert.True(t, e.Check(admin, ActionCreate, typ, nil), "admin creates %s", typ)
		assert.False(t, e.Check(doc, ActionCreate, typ, nil), "doctor creates %s", typ)
		assert.True(t, e.Check(staff, ActionUpdate, typ, nil), "staff updates %s", typ)
		assert.False(t, e.Check(pat, ActionUpdate, typ, nil), "patient updates %s", typ)
	}
}

func TestPatientRegistrationAndConfirmation(t *testing.T) {
	e := NewEngine()

	assert.True(t, e.Check(auth.Anonymous, ActionCreate, Patient, nil))
	assert.True(t, e.Check(nurse, ActionCreate, Patient, nil))

	assert.True(t, e.Check(unverified, ActionConfirm, Patient, profile{id: unverified.ID}))
	assert.False(t, e.Check(unverified, ActionConfirm, Patient, profile{id: 99}))
	assert.False(t, e.Check(pat, ActionConfirm, Patient, profile{id: pat.ID}))
	assert.False(t, e.Check(auth.Anonymous, ActionConfirm, Patient, nil))
	assert.True(t, e.Check(admin, ActionConfirm, Patient, profile{id: unverified.ID}))
	assert.False(t, e.Check(doc, ActionConfirm, Patient, profile{id: unverified.ID}))

	assert.False(t, e.Check(pat, ActionUpdate, Patient, profile{id: pat.ID}))
	assert.True(t, e.Check(admin, ActionDelete, Patient, profile{id: pat.ID}))
}

func TestClinicOwnership(t *testing.T) {
	e := NewEngine()
	c := clinic{doctorID: doc.ID}

	assert.True(t, e.Check(doc, ActionView, Clinic, c))
	assert.False(t, e.Check(otherDoc, ActionView, Clinic, c))
	assert.True(t, e.Check(doc, ActionViewAsDoctor, Clinic, c))
	assert.True(t, e.Check(pat, ActionViewAsPatient, Clinic, nil))
	assert.False(t, e.Check(doc, ActionUpdate, Clinic, c))
}

func TestUnknownEntityDenies(t *testing.T) {
	e := NewEngine()
	err := e.Authorize(admin, ActionView, EntityType("invoice"), nil)
	require.ErrorIs(t, err, ErrAccessDenied)
	assert.False(t, e.Check(admin, Action("archive"), Doctor, nil))
}

func TestAuthorizeAny(t *testing.T) {
	e := NewEngine()
	assert.NoError(t, e.AuthorizeAny(pat, Clinic, nil, ActionViewAny, ActionViewAsPatient))
	assert.NoError(t, e.AuthorizeAny(admin, Clinic, nil, ActionViewAny, ActionViewAsPatient))
	assert.ErrorIs(t, e.AuthorizeAny(nurse, Clinic, nil, ActionViewAny, ActionViewAsPatient), ErrAccessDenied)
}
