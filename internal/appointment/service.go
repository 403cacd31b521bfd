package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-management/internal/auth"
	"github.com/hackgods/hospital-management/internal/hospital"
	"github.com/hackgods/hospital-management/internal/policy"
	redisclient "github.com/hackgods/hospital-management/internal/redis"
	"github.com/hackgods/hospital-management/internal/role"
)

const (
	EventAppointmentCreated   = "APPOINTMENT_CREATED"
	EventAppointmentSubmitted = "APPOINTMENT_SUBMITTED"
)

var (
	// ErrTransactionFailed wraps any store failure inside the submit transaction.
	ErrTransactionFailed = errors.New("appointment transaction failed")
	// ErrScheduleBusy is returned while another request holds the doctor's schedule.
	ErrScheduleBusy = errors.New("doctor schedule is being updated, please retry")
)

const DefaultConflictWindow = 60 * time.Minute

type Service struct {
	store  hospital.Store
	locker redisclient.Locker
	authz  *policy.Engine
	log    zerolog.Logger
	window time.Duration
	now    func() time.Time
}

func NewService(store hospital.Store, locker redisclient.Locker, authz *policy.Engine, log zerolog.Logger, window time.Duration) *Service {
	if window <= 0 {
		window = DefaultConflictWindow
	}
	return &Service{
		store:  store,
		locker: locker,
		authz:  authz,
		log:    log.With().Str("component", "scheduling").Logger(),
		window: window,
		now:    time.Now,
	}
}

type CreateRequest struct {
	ClinicID int64
	// PatientID is required when a doctor proposes the visit; a patient always books for themselves.
	PatientID int64
	Date      time.Time
}

type SubmitRequest struct {
	Status   hospital.Status
	NextDate time.Time
	Vitals   hospital.Vitals
}

func doctorScheduleKey(doctorID int64) string {
	return "doctor:" + strconv.FormatInt(doctorID, 10)
}

// CreateAppointment books a WAITED visit at a clinic with the clinic's doctor.
func (s *Service) CreateAppointment(ctx context.Context, p auth.Principal, req CreateRequest) (*hospital.Appointment, error) {
	clinic, err := s.store.GetClinic(ctx, req.ClinicID)
	if err != nil {
		if errors.Is(err, hospital.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load clinic: %w", err)
	}

	if err := s.authz.Authorize(p, policy.ActionCreate, policy.Appointment, nil); err != nil {
		return nil, err
	}

	patientID, err := s.resolvePatient(ctx, p, clinic, req.PatientID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !req.Date.After(now) {
		return nil, hospital.Invalid("date", "must be a date after now")
	}

	var created *hospital.Appointment

	err = s.withSchedule(ctx, clinic.DoctorID, func(lockCtx context.Context) error {
		if err := s.checkConflict(lockCtx, clinic.DoctorID, req.Date, now); err != nil {
			return err
		}

		appt := &hospital.Appointment{
			DoctorID:  clinic.DoctorID,
			ClinicID:  clinic.ID,
			PatientID: patientID,
			Date:      req.Date,
			Status:    hospital.StatusWaited,
		}
		if err := s.store.CreateAppointment(lockCtx, appt); err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		created = appt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, created.ID, EventAppointmentCreated, map[string]any{
		"clinic_id":  created.ClinicID,
		"doctor_id":  created.DoctorID,
		"patient_id": created.PatientID,
		"date":       created.Date,
		"by":         p.ID,
	})

	return s.reload(ctx, created)
}

func (s *Service) resolvePatient(ctx context.Context, p auth.Principal, clinic *hospital.Clinic, requested int64) (int64, error) {
	switch p.Role {
	case role.Patient:
		if requested != 0 && requested != p.ID {
			return 0, fmt.Errorf("%w: patients book for themselves", policy.ErrAccessDenied)
		}
		return p.ID, nil
	case role.Doctor:
		if clinic.DoctorID != p.ID {
			return 0, hospital.Invalid("clinic_id", "clinic does not belong to the requesting doctor")
		}
		if requested == 0 {
			return 0, hospital.Invalid("patient_id", "is required")
		}
		patient, err := s.store.GetUser(ctx, requested)
		if err != nil {
			if errors.Is(err, hospital.ErrNotFound) {
				return 0, hospital.ErrPatientNotFound
			}
			return 0, fmt.Errorf("load patient: %w", err)
		}
		if patient.Role != role.Patient {
			return 0, hospital.ErrPatientNotFound
		}
		return patient.ID, nil
	}
	return 0, fmt.Errorf("%w: role %s cannot book", policy.ErrAccessDenied, p.Role)
}

// SubmitAppointment closes a visit: it sets the doctor-supplied status,
// books the follow-up visit at NextDate and records the vitals, atomically.
func (s *Service) SubmitAppointment(ctx context.Context, p auth.Principal, id int64, req SubmitRequest) (*hospital.Appointment, error) {
	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, hospital.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if err := s.authz.Authorize(p, policy.ActionUpdate, policy.Appointment, appt); err != nil {
		return nil, err
	}
	// the submission records a routine test, so the caller must be allowed to author one
	if err := s.authz.Authorize(p, policy.ActionCreate, policy.RoutineTest, nil); err != nil {
		return nil, err
	}

	now := s.now()
	if err := validateSubmit(req, now); err != nil {
		return nil, err
	}

	nextDate := req.NextDate

	err = s.withSchedule(ctx, appt.DoctorID, func(lockCtx context.Context) error {
		if err := s.checkConflict(lockCtx, appt.DoctorID, nextDate, now); err != nil {
			return err
		}

		txErr := s.store.WithinTx(lockCtx, func(txCtx context.Context) error {
			if err := s.store.UpdateAppointmentStatus(txCtx, appt.ID, req.Status, &nextDate); err != nil {
				return fmt.Errorf("update status: %w", err)
			}

			next := &hospital.Appointment{
				DoctorID:  appt.DoctorID,
				ClinicID:  appt.ClinicID,
				PatientID: appt.PatientID,
				Date:      nextDate,
				Status:    hospital.StatusWaited,
			}
			if err := s.store.CreateAppointment(txCtx, next); err != nil {
				return fmt.Errorf("create next appointment: %w", err)
			}

			test := &hospital.RoutineTest{
				DoctorID:  appt.DoctorID,
				PatientID: appt.PatientID,
				Vitals:    req.Vitals,
			}
			if err := s.store.CreateRoutineTest(txCtx, test); err != nil {
				return fmt.Errorf("create routine test: %w", err)
			}
			return nil
		})
		if txErr != nil {
			return fmt.Errorf("%w: %w", ErrTransactionFailed, txErr)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTransactionFailed) {
			s.log.Error().Err(err).Int64("appointment_id", appt.ID).Msg("submit rolled back")
		}
		return nil, err
	}

	s.logEvent(ctx, appt.ID, EventAppointmentSubmitted, map[string]any{
		"status":    req.Status.String(),
		"next_date": nextDate,
		"by":        p.ID,
	})

	updated, err := s.store.GetAppointment(ctx, appt.ID)
	if err != nil {
		return nil, fmt.Errorf("reload appointment: %w", err)
	}
	return updated, nil
}

func validateSubmit(req SubmitRequest, now time.Time) error {
	v := hospital.NewValidationError()

	if !req.Status.Valid() {
		v.Add("status", "must be one of COMPLETED, CANCELED, DELAYED, WAITED")
	}
	if req.NextDate.IsZero() {
		v.Add("next_date", "is required")
	} else if !req.NextDate.After(now) {
		v.Add("next_date", "must be a date after now")
	}

	checkVital(v, "breathing_rate", req.Vitals.BreathingRate)
	checkVital(v, "body_temperature", req.Vitals.BodyTemperature)
	checkVital(v, "pulse_rate", req.Vitals.PulseRate)

	return v.Err()
}

func checkVital(v *hospital.ValidationError, field string, value float64) {
	if value < 0 || value > 100 {
		v.Add(field, "must be between 0 and 100")
	}
}

// checkConflict rejects date when another upcoming visit of the doctor is
// less than the conflict window away from it. The comparison scope is the
// doctor's schedule, excluding CANCELED visits.
func (s *Service) checkConflict(ctx context.Context, doctorID int64, date, now time.Time) error {
	upcoming, err := s.store.ListAppointments(ctx, hospital.AppointmentFilter{
		DoctorID: doctorID,
		After:    now,
	})
	if err != nil {
		return fmt.Errorf("load upcoming appointments: %w", err)
	}

	for _, other := range upcoming {
		if other.Status == hospital.StatusCanceled {
			continue
		}
		gap := other.Date.Sub(date)
		if gap < 0 {
			gap = -gap
		}
		if gap < s.window {
			return hospital.Invalid("date", fmt.Sprintf(
				"must be at least %d minutes away from the appointment at %s",
				int(s.window.Minutes()), other.Date.Format(hospital.DateTimeLayout)))
		}
	}
	return nil
}

func (s *Service) withSchedule(ctx context.Context, doctorID int64, fn func(ctx context.Context) error) error {
	err := s.locker.WithLock(ctx, doctorScheduleKey(doctorID), fn)
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrScheduleBusy
	}
	return err
}

func (s *Service) reload(ctx context.Context, a *hospital.Appointment) (*hospital.Appointment, error) {
	full, err := s.store.GetAppointment(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("reload appointment: %w", err)
	}
	return full, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID int64, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Msg("marshal event payload")
		data = nil
	}

	apptID := appointmentID
	ev := hospital.EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.store.InsertEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).Str("event", eventType).Int64("appointment_id", appointmentID).Msg("insert event log")
		return
	}
	s.log.Info().Str("event", eventType).Int64("appointment_id", appointmentID).Msg("appointment event")
}
