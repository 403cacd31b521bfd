package hospital

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/hospital-management/internal/role"
)

type fixture struct {
	store   *MemStore
	dept    *Department
	doctor  *Doctor
	patient *User
	clinic  *Clinic
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s := NewMemStore()

	dept := &Department{Name: "Cardiology", Specialization: "heart"}
	require.NoError(t, s.CreateDepartment(ctx, dept))

	doc := &Doctor{
		DepartmentID:   &dept.ID,
		Specialization: "cardiology",
		Rate:           RateGood,
		User:           &User{FirstName: "Greg", LastName: "House", Email: "house@example.com", Role: role.Doctor},
	}
	require.NoError(t, s.CreateDoctor(ctx, doc))

	pat := &User{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Role: role.Patient}
	require.NoError(t, s.CreateUser(ctx, pat))

	code := "C-1"
	clinic := &Clinic{Type: ClinicInternal, DoctorID: doc.UserID, DepartmentID: &dept.ID, Code: code}
	require.NoError(t, s.CreateClinic(ctx, clinic))

	return fixture{store: s, dept: dept, doctor: doc, patient: pat, clinic: clinic}
}

func (f fixture) appointment(t *testing.T, at time.Time) *Appointment {
	t.Helper()
	a := &Appointment{
		DoctorID:  f.doctor.UserID,
		ClinicID:  f.clinic.ID,
		PatientID: f.patient.ID,
		Date:      at,
		Status:    StatusWaited,
	}
	require.NoError(t, f.store.CreateAppointment(context.Background(), a))
	return a
}

func TestMemStoreHydratesRelations(t *testing.T) {
	f := newFixture(t)
	a := f.appointment(t, time.Now().Add(24*time.Hour))

	got, err := f.store.GetAppointment(context.Background(), a.ID)
	require.NoError(t, err)

	require.NotNil(t, got.Doctor)
	require.NotNil(t, got.Doctor.User)
	assert.Equal(t, "House", got.Doctor.User.LastName)
	require.NotNil(t, got.Doctor.Department)
	assert.Equal(t, "Cardiology", got.Doctor.Department.Name)
	require.NotNil(t, got.Patient)
	assert.Equal(t, "Jane", got.Patient.FirstName)
	require.NotNil(t, got.Clinic)
	assert.Equal(t, "C-1", got.Clinic.Code)
}

func TestMemStoreWithinTxRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.appointment(t, time.Now().Add(24*time.Hour))
	boom := errors.New("boom")

	err := f.store.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, f.store.UpdateAppointmentStatus(ctx, a.ID, StatusCompleted, nil))
		require.NoError(t, f.store.CreateAppointment(ctx, &Appointment{
			DoctorID: a.DoctorID, ClinicID: a.ClinicID, PatientID: a.PatientID,
			Date: a.Date.Add(48 * time.Hour), Status: StatusWaited,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := f.store.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusWaited, got.Status)

	all, err := f.store.ListAppointments(ctx, AppointmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemStoreRollbackKeepsOtherWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.appointment(t, time.Now().Add(24*time.Hour))
	boom := errors.New("boom")
	other := &User{FirstName: "Walk", LastName: "In", Email: "walkin@example.com", Role: role.Patient}

	err := f.store.WithinTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, f.store.UpdateAppointmentStatus(txCtx, a.ID, StatusCanceled, nil))
		// written outside the transaction while it is open
		require.NoError(t, f.store.CreateUser(ctx, other))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := f.store.GetUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "walkin@example.com", got.Email)

	appt, err := f.store.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusWaited, appt.Status)
}

func TestMemStoreCommitMergesWithOtherWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.appointment(t, time.Now().Add(24*time.Hour))
	other := &User{FirstName: "Walk", LastName: "In", Email: "walkin@example.com", Role: role.Patient}
	next := &Appointment{
		DoctorID: a.DoctorID, ClinicID: a.ClinicID, PatientID: a.PatientID,
		Date: a.Date.Add(48 * time.Hour), Status: StatusWaited,
	}

	err := f.store.WithinTx(ctx, func(txCtx context.Context) error {
		if err := f.store.UpdateAppointmentStatus(txCtx, a.ID, StatusDelayed, nil); err != nil {
			return err
		}
		if err := f.store.CreateUser(ctx, other); err != nil {
			return err
		}

		// uncommitted work stays inside the transaction
		outside, err := f.store.GetAppointment(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusWaited, outside.Status)

		return f.store.CreateAppointment(txCtx, next)
	})
	require.NoError(t, err)

	assert.NotEqual(t, other.ID, next.ID)

	_, err = f.store.GetUser(ctx, other.ID)
	require.NoError(t, err)

	got, err := f.store.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDelayed, got.Status)

	all, err := f.store.ListAppointments(ctx, AppointmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemStoreWithinTxCommits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.appointment(t, time.Now().Add(24*time.Hour))

	err := f.store.WithinTx(ctx, func(ctx context.Context) error {
		return f.store.UpdateAppointmentStatus(ctx, a.ID, StatusDelayed, nil)
	})
	require.NoError(t, err)

	got, err := f.store.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDelayed, got.Status)
}

func TestMemStoreListAppointmentsFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2030, 5, 10, 9, 0, 0, 0, time.UTC)

	late := f.appointment(t, base.Add(72*time.Hour))
	early := f.appointment(t, base)
	mid := f.appointment(t, base.Add(24*time.Hour))

	all, err := f.store.ListAppointments(ctx, AppointmentFilter{DoctorID: f.doctor.UserID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{early.ID, mid.ID, late.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	ranged, err := f.store.ListAppointments(ctx, AppointmentFilter{From: base, To: base.Add(24 * time.Hour)})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	after, err := f.store.ListAppointments(ctx, AppointmentFilter{After: base})
	require.NoError(t, err)
	assert.Len(t, after, 2)

	none, err := f.store.ListAppointments(ctx, AppointmentFilter{ClinicID: 999})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemStoreReferentialRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.appointment(t, time.Now().Add(time.Hour))

	assert.ErrorIs(t, f.store.DeleteClinic(ctx, f.clinic.ID), ErrInUse)
	assert.ErrorIs(t, f.store.DeleteDoctor(ctx, f.doctor.UserID), ErrInUse)
	assert.ErrorIs(t, f.store.DeleteUser(ctx, f.patient.ID), ErrInUse)
	assert.ErrorIs(t, f.store.DeleteDoctor(ctx, 12345), ErrDoctorNotFound)

	dup := &User{FirstName: "x", LastName: "y", Email: "JANE@example.com"}
	assert.ErrorIs(t, f.store.CreateUser(ctx, dup), ErrEmailTaken)
}

func TestMemStoreMarkVerified(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	u := &User{FirstName: "New", LastName: "Comer", Email: "new@example.com"}
	require.NoError(t, s.CreateUser(ctx, u))
	require.NoError(t, s.CreateVerifyToken(ctx, &VerifyToken{UserID: u.ID, Token: "abc"}))

	at := time.Now()
	require.NoError(t, s.MarkVerified(ctx, u.ID, role.Patient, at))

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, role.Patient, got.Role)
	require.NotNil(t, got.EmailVerifiedAt)

	tok, err := s.GetVerifyToken(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, tok.Verified)

	patients, err := s.ListUsersByRole(ctx, role.Patient)
	require.NoError(t, err)
	assert.Len(t, patients, 1)
}

func TestMemStoreListUsersByRole(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	roles := []role.Role{role.Patient, role.Patient, role.Patient, role.Staff, role.None}
	for i := 0; i < 40; i++ {
		u := &User{
			FirstName: gofakeit.FirstName(),
			LastName:  gofakeit.LastName(),
			Email:     fmt.Sprintf("%d.%s", i, gofakeit.Email()),
			Role:      roles[i%len(roles)],
		}
		require.NoError(t, s.CreateUser(ctx, u))
	}

	patients, err := s.ListUsersByRole(ctx, role.Patient)
	require.NoError(t, err)
	assert.Len(t, patients, 24)
	for i := 1; i < len(patients); i++ {
		assert.Less(t, patients[i-1].ID, patients[i].ID)
	}

	pending, err := s.ListUsersByRole(ctx, role.None)
	require.NoError(t, err)
	assert.Len(t, pending, 8)
}

func TestStatusParsing(t *testing.T) {
	tests := []struct {
		in   string
		want Status
		ok   bool
	}{
		{"completed", StatusCompleted, true},
		{"DELAYED", StatusDelayed, true},
		{"3", StatusWaited, true},
		{"1", StatusCanceled, true},
		{"7", 0, false},
		{"done", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestValidationError(t *testing.T) {
	v := NewValidationError()
	assert.NoError(t, v.Err())

	v.Add("date", "must be in the future")
	v.Add("clinic_id", "is required")

	err := v.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation failed: clinic_id: is required; date: must be in the future", err.Error())
}
