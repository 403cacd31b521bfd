package hospital

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const selectAppointment = `
	SELECT id, doctor_id, clinic_id, patient_id, date, next_date, status, created_at, updated_at
	FROM appointments`

const selectRoutineTest = `
	SELECT id, doctor_id, patient_id, breathing_rate, body_temperature, pulse_rate,
	       medical_notes, prescription, created_at, updated_at
	FROM routine_tests`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.ClinicID,
		&a.PatientID,
		&a.Date,
		&a.NextDate,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanRoutineTest(row pgx.Row) (*RoutineTest, error) {
	var t RoutineTest
	err := row.Scan(
		&t.ID,
		&t.DoctorID,
		&t.PatientID,
		&t.BreathingRate,
		&t.BodyTemperature,
		&t.PulseRate,
		&t.MedicalNotes,
		&t.Prescription,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PgStore) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	a, err := scanAppointment(s.conn(ctx).QueryRow(ctx, selectAppointment+` WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, ErrAppointmentNotFound)
	}
	if err := s.newLoader().fillAppointment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *PgStore) ListAppointments(ctx context.Context, f AppointmentFilter) ([]*Appointment, error) {
	var w where
	if f.DoctorID != 0 {
		w.add("doctor_id = ?", f.DoctorID)
	}
	if f.PatientID != 0 {
		w.add("patient_id = ?", f.PatientID)
	}
	if f.ClinicID != 0 {
		w.add("clinic_id = ?", f.ClinicID)
	}
	if !f.From.IsZero() {
		w.add("date >= ?", f.From)
	}
	if !f.To.IsZero() {
		w.add("date <= ?", f.To)
	}
	if !f.After.IsZero() {
		w.add("date > ?", f.After)
	}

	rows, err := s.conn(ctx).Query(ctx, selectAppointment+w.String()+` ORDER BY date, id`, w.args...)
	if err != nil {
		return nil, mapPgError(err, "list appointments")
	}
	return collect(ctx, rows, scanAppointment, s.newLoader().fillAppointment)
}

func (s *PgStore) CreateAppointment(ctx context.Context, a *Appointment) error {
	row := s.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (doctor_id, clinic_id, patient_id, date, next_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, a.DoctorID, a.ClinicID, a.PatientID, a.Date, a.NextDate, a.Status)
	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return mapPgError(err, "insert appointment")
	}
	return nil
}

func (s *PgStore) UpdateAppointmentStatus(ctx context.Context, id int64, status Status, nextDate *time.Time) error {
	return execExpectOne(ctx, s.conn(ctx), ErrAppointmentNotFound, "update appointment status", `
		UPDATE appointments SET status = $2, next_date = $3, updated_at = NOW()
		WHERE id = $1
	`, id, status, nextDate)
}

func (s *PgStore) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`, ev.EventType, ev.AppointmentID, ev.Payload, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func (s *PgStore) GetRoutineTest(ctx context.Context, id int64) (*RoutineTest, error) {
	t, err := scanRoutineTest(s.conn(ctx).QueryRow(ctx, selectRoutineTest+` WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, ErrRoutineTestNotFound)
	}
	if err := s.newLoader().fillRoutineTest(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *PgStore) ListRoutineTests(ctx context.Context, f RoutineTestFilter) ([]*RoutineTest, error) {
	var w where
	if f.DoctorID != 0 {
		w.add("doctor_id = ?", f.DoctorID)
	}
	if f.PatientID != 0 {
		w.add("patient_id = ?", f.PatientID)
	}

	rows, err := s.conn(ctx).Query(ctx, selectRoutineTest+w.String()+` ORDER BY created_at DESC, id DESC`, w.args...)
	if err != nil {
		return nil, mapPgError(err, "list routine tests")
	}
	return collect(ctx, rows, scanRoutineTest, s.newLoader().fillRoutineTest)
}

func (s *PgStore) CreateRoutineTest(ctx context.Context, t *RoutineTest) error {
	row := s.conn(ctx).QueryRow(ctx, `
		INSERT INTO routine_tests (doctor_id, patient_id, breathing_rate, body_temperature,
		                           pulse_rate, medical_notes, prescription)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, t.DoctorID, t.PatientID, t.BreathingRate, t.BodyTemperature, t.PulseRate, t.MedicalNotes, t.Prescription)
	if err := row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return mapPgError(err, "insert routine test")
	}
	return nil
}

func (s *PgStore) UpdateRoutineTest(ctx context.Context, t *RoutineTest) error {
	row := s.conn(ctx).QueryRow(ctx, `
		UPDATE routine_tests
		SET breathing_rate = $2, body_temperature = $3, pulse_rate = $4,
		    medical_notes = $5, prescription = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, t.ID, t.BreathingRate, t.BodyTemperature, t.PulseRate, t.MedicalNotes, t.Prescription)
	if err := row.Scan(&t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRoutineTestNotFound
		}
		return mapPgError(err, "update routine test")
	}
	return nil
}
