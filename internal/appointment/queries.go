package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/hackgods/hospital-management/internal/auth"
	"github.com/hackgods/hospital-management/internal/hospital"
	"github.com/hackgods/hospital-management/internal/policy"
	"github.com/hackgods/hospital-management/internal/role"
)

// Side tells which party of a visit the caller is.
type Side int

const (
	SideAdmin Side = iota
	SidePatient
	SideDoctor
)

// SideOf reports the side p takes on clinical records.
func SideOf(p auth.Principal) Side {
	switch p.Role {
	case role.Patient:
		return SidePatient
	case role.Doctor:
		return SideDoctor
	}
	return SideAdmin
}

func wrapLoad(err error, what string) error {
	if errors.Is(err, hospital.ErrNotFound) {
		return err
	}
	return fmt.Errorf("load %s: %w", what, err)
}

// Get returns an appointment the caller may view.
func (s *Service) Get(ctx context.Context, p auth.Principal, id int64) (*hospital.Appointment, error) {
	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, wrapLoad(err, "appointment")
	}
	if err := s.authz.Authorize(p, policy.ActionView, policy.Appointment, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// GetOwn returns one of the caller's appointments, seen from the caller's side.
func (s *Service) GetOwn(ctx context.Context, p auth.Principal, id int64) (*hospital.Appointment, error) {
	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, wrapLoad(err, "appointment")
	}
	err = s.authz.AuthorizeAny(p, policy.Appointment, appt, policy.ActionViewAsPatient, policy.ActionViewAsDoctor)
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// List is the administrative listing; the filter's referenced entities are
// expected to have been checked by the caller.
func (s *Service) List(ctx context.Context, p auth.Principal, f hospital.AppointmentFilter) ([]*hospital.Appointment, error) {
	if err := s.authz.Authorize(p, policy.ActionViewAny, policy.Appointment, nil); err != nil {
		return nil, err
	}
	return s.list(ctx, f)
}

// ListOwn lists the caller's appointments as patient or as doctor.
func (s *Service) ListOwn(ctx context.Context, p auth.Principal) ([]*hospital.Appointment, error) {
	switch SideOf(p) {
	case SidePatient:
		if err := s.authz.Authorize(p, policy.ActionViewAsPatient, policy.Appointment, nil); err != nil {
			return nil, err
		}
		return s.list(ctx, hospital.AppointmentFilter{PatientID: p.ID})
	case SideDoctor:
		if err := s.authz.Authorize(p, policy.ActionViewAsDoctor, policy.Appointment, nil); err != nil {
			return nil, err
		}
		return s.list(ctx, hospital.AppointmentFilter{DoctorID: p.ID})
	}
	return nil, fmt.Errorf("%w: %s has no own appointments", policy.ErrAccessDenied, p.Role)
}

// ListWithPatient lists the calling doctor's appointments with one patient.
func (s *Service) ListWithPatient(ctx context.Context, p auth.Principal, patientID int64) ([]*hospital.Appointment, error) {
	patient, err := s.store.GetUser(ctx, patientID)
	if err != nil {
		if errors.Is(err, hospital.ErrNotFound) {
			return nil, hospital.ErrPatientNotFound
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if err := s.authz.Authorize(p, policy.ActionViewAsDoctor, policy.Appointment, nil); err != nil {
		return nil, err
	}
	return s.list(ctx, hospital.AppointmentFilter{DoctorID: p.ID, PatientID: patient.ID})
}

// Scope selects whose schedule is read. Exactly one field is set.
type Scope struct {
	ClinicID int64
	DoctorID int64
}

// Schedule lists the appointments of a clinic or a doctor within the period
// around now. Administrators, the doctor concerned and patients (checking
// availability) may read it.
func (s *Service) Schedule(ctx context.Context, p auth.Principal, scope Scope, period Period) ([]*hospital.Appointment, error) {
	start, end := period.Range(s.now())
	f := hospital.AppointmentFilter{From: start, To: end}

	switch {
	case scope.ClinicID != 0:
		clinic, err := s.store.GetClinic(ctx, scope.ClinicID)
		if err != nil {
			return nil, wrapLoad(err, "clinic")
		}
		if !s.authz.Check(p, policy.ActionViewAny, policy.Appointment, nil) &&
			!s.authz.Check(p, policy.ActionViewAsDoctor, policy.Clinic, clinic) &&
			!s.authz.Check(p, policy.ActionViewAsPatient, policy.Clinic, clinic) {
			return nil, fmt.Errorf("%w: schedule of clinic %d", policy.ErrAccessDenied, clinic.ID)
		}
		f.ClinicID = clinic.ID
	case scope.DoctorID != 0:
		doc, err := s.store.GetDoctor(ctx, scope.DoctorID)
		if err != nil {
			return nil, wrapLoad(err, "doctor")
		}
		if !s.authz.Check(p, policy.ActionViewAny, policy.Appointment, nil) &&
			!s.authz.Check(p, policy.ActionViewAsDoctor, policy.Doctor, doc) &&
			!s.authz.Check(p, policy.ActionViewAsPatient, policy.Doctor, doc) {
			return nil, fmt.Errorf("%w: schedule of doctor %d", policy.ErrAccessDenied, doc.UserID)
		}
		f.DoctorID = doc.UserID
	default:
		return nil, hospital.Invalid("scope", "a clinic or a doctor is required")
	}

	return s.list(ctx, f)
}

func (s *Service) list(ctx context.Context, f hospital.AppointmentFilter) ([]*hospital.Appointment, error) {
	out, err := s.store.ListAppointments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}
