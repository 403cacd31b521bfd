package hospital

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

const selectDepartment = `
	SELECT id, name, specialization, description, created_at, updated_at
	FROM departments`

const selectClinic = `
	SELECT id, clinic_type, doctor_id, department_id, clinic_code, latitude, longitude,
	       created_at, updated_at
	FROM clinics`

func scanDepartment(row pgx.Row) (*Department, error) {
	var d Department
	if err := row.Scan(&d.ID, &d.Name, &d.Specialization, &d.Description, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func scanClinic(row pgx.Row) (*Clinic, error) {
	var c Clinic
	err := row.Scan(
		&c.ID,
		&c.Type,
		&c.DoctorID,
		&c.DepartmentID,
		&c.Code,
		&c.Latitude,
		&c.Longitude,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PgStore) GetDepartment(ctx context.Context, id int64) (*Department, error) {
	return s.newLoader().department(ctx, id)
}

func (s *PgStore) ListDepartments(ctx context.Context) ([]*Department, error) {
	rows, err := s.conn(ctx).Query(ctx, selectDepartment+` ORDER BY id`)
	if err != nil {
		return nil, mapPgError(err, "list departments")
	}
	return collect[Department](ctx, rows, scanDepartment, nil)
}

func (s *PgStore) CreateDepartment(ctx context.Context, d *Department) error {
	row := s.conn(ctx).QueryRow(ctx, `
		INSERT INTO departments (name, specialization, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, d.Name, d.Specialization, d.Description)
	if err := row.Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return mapPgError(err, "insert department")
	}
	return nil
}

func (s *PgStore) UpdateDepartment(ctx context.Context, d *Department) error {
	row := s.conn(ctx).QueryRow(ctx, `
		UPDATE departments SET name = $2, specialization = $3, description = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, d.ID, d.Name, d.Specialization, d.Description)
	if err := row.Scan(&d.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDepartmentNotFound
		}
		return mapPgError(err, "update department")
	}
	return nil
}

func (s *PgStore) DeleteDepartment(ctx context.Context, id int64) error {
	return execExpectOne(ctx, s.conn(ctx), ErrDepartmentNotFound, "delete department",
		`DELETE FROM departments WHERE id = $1`, id)
}

func (s *PgStore) GetClinic(ctx context.Context, id int64) (*Clinic, error) {
	return s.newLoader().clinic(ctx, id)
}

func (s *PgStore) ListClinics(ctx context.Context, f ClinicFilter) ([]*Clinic, error) {
	var w where
	if f.Type != "" {
		w.add("clinic_type = ?", string(f.Type))
	}
	if f.DoctorID != 0 {
		w.add("doctor_id = ?", f.DoctorID)
	}
	if f.DepartmentID != 0 {
		w.add("department_id = ?", f.DepartmentID)
	}

	rows, err := s.conn(ctx).Query(ctx, selectClinic+w.String()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, mapPgError(err, "list clinics")
	}
	return collect(ctx, rows, scanClinic, s.newLoader().fillClinic)
}

func (s *PgStore) CreateClinic(ctx context.Context, c *Clinic) error {
	row := s.conn(ctx).QueryRow(ctx, `
		INSERT INTO clinics (clinic_type, doctor_id, department_id, clinic_code, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, string(c.Type), c.DoctorID, c.DepartmentID, c.Code, c.Latitude, c.Longitude)
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return mapPgError(err, "insert clinic")
	}
	return s.newLoader().fillClinic(ctx, c)
}

func (s *PgStore) UpdateClinic(ctx context.Context, c *Clinic) error {
	row := s.conn(ctx).QueryRow(ctx, `
		UPDATE clinics
		SET doctor_id = $2, department_id = $3, clinic_code = $4, latitude = $5, longitude = $6,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, c.ID, c.DoctorID, c.DepartmentID, c.Code, c.Latitude, c.Longitude)
	if err := row.Scan(&c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrClinicNotFound
		}
		return mapPgError(err, "update clinic")
	}
	return s.newLoader().fillClinic(ctx, c)
}

func (s *PgStore) DeleteClinic(ctx context.Context, id int64) error {
	return execExpectOne(ctx, s.conn(ctx), ErrClinicNotFound, "delete clinic",
		`DELETE FROM clinics WHERE id = $1`, id)
}
