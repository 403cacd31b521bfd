package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/hackgods/hospital-management/internal/auth"
	"github.com/hackgods/hospital-management/internal/hospital"
	"github.com/hackgods/hospital-management/internal/policy"
)

// Routine tests are written by SubmitAppointment; these are the read and
// amend paths.

func (s *Service) GetTest(ctx context.Context, p auth.Principal, id int64) (*hospital.RoutineTest, error) {
	test, err := s.store.GetRoutineTest(ctx, id)
	if err != nil {
		return nil, wrapLoad(err, "routine test")
	}
	if err := s.authz.Authorize(p, policy.ActionView, policy.RoutineTest, test); err != nil {
		return nil, err
	}
	return test, nil
}

func (s *Service) ListTests(ctx context.Context, p auth.Principal, f hospital.RoutineTestFilter) ([]*hospital.RoutineTest, error) {
	if err := s.authz.Authorize(p, policy.ActionViewAny, policy.RoutineTest, nil); err != nil {
		return nil, err
	}
	return s.listTests(ctx, f)
}

func (s *Service) ListOwnTests(ctx context.Context, p auth.Principal) ([]*hospital.RoutineTest, error) {
	switch SideOf(p) {
	case SidePatient:
		if err := s.authz.Authorize(p, policy.ActionViewAsPatient, policy.RoutineTest, nil); err != nil {
			return nil, err
		}
		return s.listTests(ctx, hospital.RoutineTestFilter{PatientID: p.ID})
	case SideDoctor:
		if err := s.authz.Authorize(p, policy.ActionViewAsDoctor, policy.RoutineTest, nil); err != nil {
			return nil, err
		}
		return s.listTests(ctx, hospital.RoutineTestFilter{DoctorID: p.ID})
	}
	return nil, fmt.Errorf("%w: %s has no own routine tests", policy.ErrAccessDenied, p.Role)
}

func (s *Service) GetOwnTest(ctx context.Context, p auth.Principal, id int64) (*hospital.RoutineTest, error) {
	test, err := s.store.GetRoutineTest(ctx, id)
	if err != nil {
		return nil, wrapLoad(err, "routine test")
	}
	err = s.authz.AuthorizeAny(p, policy.RoutineTest, test, policy.ActionViewAsPatient, policy.ActionViewAsDoctor)
	if err != nil {
		return nil, err
	}
	return test, nil
}

// ListTestsWithPatient lists the tests the calling doctor recorded for one patient.
func (s *Service) ListTestsWithPatient(ctx context.Context, p auth.Principal, patientID int64) ([]*hospital.RoutineTest, error) {
	if _, err := s.store.GetUser(ctx, patientID); err != nil {
		if errors.Is(err, hospital.ErrNotFound) {
			return nil, hospital.ErrPatientNotFound
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if err := s.authz.Authorize(p, policy.ActionViewAsDoctor, policy.RoutineTest, nil); err != nil {
		return nil, err
	}
	return s.listTests(ctx, hospital.RoutineTestFilter{DoctorID: p.ID, PatientID: patientID})
}

// UpdateTest amends the vitals of a recorded test.
func (s *Service) UpdateTest(ctx context.Context, p auth.Principal, id int64, vitals hospital.Vitals) (*hospital.RoutineTest, error) {
	test, err := s.store.GetRoutineTest(ctx, id)
	if err != nil {
		return nil, wrapLoad(err, "routine test")
	}
	if err := s.authz.Authorize(p, policy.ActionUpdate, policy.RoutineTest, test); err != nil {
		return nil, err
	}

	v := hospital.NewValidationError()
	checkVital(v, "breathing_rate", vitals.BreathingRate)
	checkVital(v, "body_temperature", vitals.BodyTemperature)
	checkVital(v, "pulse_rate", vitals.PulseRate)
	if err := v.Err(); err != nil {
		return nil, err
	}

	test.Vitals = vitals
	if err := s.store.UpdateRoutineTest(ctx, test); err != nil {
		return nil, fmt.Errorf("update routine test: %w", err)
	}
	return s.store.GetRoutineTest(ctx, id)
}

func (s *Service) listTests(ctx context.Context, f hospital.RoutineTestFilter) ([]*hospital.RoutineTest, error) {
	out, err := s.store.ListRoutineTests(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list routine tests: %w", err)
	}
	return out, nil
}
