package hospital

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

const selectDoctor = `
	SELECT user_id, department_id, assigned_at, specialization, short_description,
	       rate, created_at, updated_at
	FROM doctors`

const selectNurse = `
	SELECT user_id, department_id, doctor_id, specialization, short_description,
	       rate, assigned_at, created_at, updated_at
	FROM nurses`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(
		&d.UserID,
		&d.DepartmentID,
		&d.AssignedAt,
		&d.Specialization,
		&d.ShortDescription,
		&d.Rate,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanNurse(row pgx.Row) (*Nurse, error) {
	var n Nurse
	err := row.Scan(
		&n.UserID,
		&n.DepartmentID,
		&n.DoctorID,
		&n.Specialization,
		&n.ShortDescription,
		&n.Rate,
		&n.AssignedAt,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *PgStore) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	return s.newLoader().doctor(ctx, id)
}

func (s *PgStore) ListDoctors(ctx context.Context, f DoctorFilter) ([]*Doctor, error) {
	var w where
	if f.DepartmentID != 0 {
		w.add("department_id = ?", f.DepartmentID)
	}

	rows, err := s.conn(ctx).Query(ctx, selectDoctor+w.String()+` ORDER BY user_id`, w.args...)
	if err != nil {
		return nil, mapPgError(err, "list doctors")
	}
	return collect(ctx, rows, scanDoctor, s.newLoader().fillDoctor)
}

func (s *PgStore) ListDoctorsOfPatient(ctx context.Context, patientID int64) ([]*Doctor, error) {
	rows, err := s.conn(ctx).Query(ctx, selectDoctor+`
		WHERE user_id IN (SELECT DISTINCT doctor_id FROM appointments WHERE patient_id = $1)
		ORDER BY user_id
	`, patientID)
	if err != nil {
		return nil, mapPgError(err, "list doctors of patient")
	}
	return collect(ctx, rows, scanDoctor, s.newLoader().fillDoctor)
}

func (s *PgStore) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.User == nil {
		return errors.New("create doctor: user is required")
	}
	return s.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.CreateUser(ctx, d.User); err != nil {
			return err
		}
		d.UserID = d.User.ID

		row := s.conn(ctx).QueryRow(ctx, `
			INSERT INTO doctors (user_id, department_id, specialization, short_description, rate)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING assigned_at, created_at, updated_at
		`, d.UserID, d.DepartmentID, d.Specialization, d.ShortDescription, d.Rate)
		if err := row.Scan(&d.AssignedAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return mapPgError(err, "insert doctor")
		}
		return s.newLoader().fillDoctor(ctx, d)
	})
}

func (s *PgStore) UpdateDoctor(ctx context.Context, d *Doctor) error {
	return s.WithinTx(ctx, func(ctx context.Context) error {
		if d.User != nil {
			if err := s.UpdateUser(ctx, d.User); err != nil {
				return err
			}
		}
		row := s.conn(ctx).QueryRow(ctx, `
			UPDATE doctors
			SET department_id = $2, specialization = $3, short_description = $4, rate = $5, updated_at = NOW()
			WHERE user_id = $1
			RETURNING updated_at
		`, d.UserID, d.DepartmentID, d.Specialization, d.ShortDescription, d.Rate)
		if err := row.Scan(&d.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrDoctorNotFound
			}
			return mapPgError(err, "update doctor")
		}
		return nil
	})
}

// DeleteDoctor removes the account; the doctor row cascades with it.
func (s *PgStore) DeleteDoctor(ctx context.Context, id int64) error {
	return s.WithinTx(ctx, func(ctx context.Context) error {
		err := execExpectOne(ctx, s.conn(ctx), ErrDoctorNotFound, "delete doctor",
			`DELETE FROM doctors WHERE user_id = $1`, id)
		if err != nil {
			return err
		}
		return s.DeleteUser(ctx, id)
	})
}

func (s *PgStore) GetNurse(ctx context.Context, id int64) (*Nurse, error) {
	n, err := scanNurse(s.conn(ctx).QueryRow(ctx, selectNurse+` WHERE user_id = $1`, id))
	if err != nil {
		return nil, notFound(err, ErrNurseNotFound)
	}
	if err := s.newLoader().fillNurse(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *PgStore) ListNurses(ctx context.Context, f NurseFilter) ([]*Nurse, error) {
	var w where
	if f.DepartmentID != 0 {
		w.add("department_id = ?", f.DepartmentID)
	}
	if f.DoctorID != 0 {
		w.add("doctor_id = ?", f.DoctorID)
	}

	rows, err := s.conn(ctx).Query(ctx, selectNurse+w.String()+` ORDER BY user_id`, w.args...)
	if err != nil {
		return nil, mapPgError(err, "list nurses")
	}
	return collect(ctx, rows, scanNurse, s.newLoader().fillNurse)
}

func (s *PgStore) CreateNurse(ctx context.Context, n *Nurse) error {
	if n.User == nil {
		return errors.New("create nurse: user is required")
	}
	return s.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.CreateUser(ctx, n.User); err != nil {
			return err
		}
		n.UserID = n.User.ID

		row := s.conn(ctx).QueryRow(ctx, `
			INSERT INTO nurses (user_id, department_id, doctor_id, specialization, short_description, rate)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING assigned_at, created_at, updated_at
		`, n.UserID, n.DepartmentID, n.DoctorID, n.Specialization, n.ShortDescription, n.Rate)
		if err := row.Scan(&n.AssignedAt, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return mapPgError(err, "insert nurse")
		}
		return s.newLoader().fillNurse(ctx, n)
	})
}

func (s *PgStore) UpdateNurse(ctx context.Context, n *Nurse) error {
	return s.WithinTx(ctx, func(ctx context.Context) error {
		if n.User != nil {
			if err := s.UpdateUser(ctx, n.User); err != nil {
				return err
			}
		}
		row := s.conn(ctx).QueryRow(ctx, `
			UPDATE nurses
			SET department_id = $2, doctor_id = $3, specialization = $4, short_description = $5,
			    rate = $6, updated_at = NOW()
			WHERE user_id = $1
			RETURNING updated_at
		`, n.UserID, n.DepartmentID, n.DoctorID, n.Specialization, n.ShortDescription, n.Rate)
		if err := row.Scan(&n.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNurseNotFound
			}
			return mapPgError(err, "update nurse")
		}
		return nil
	})
}

func (s *PgStore) DeleteNurse(ctx context.Context, id int64) error {
	return s.WithinTx(ctx, func(ctx context.Context) error {
		err := execExpectOne(ctx, s.conn(ctx), ErrNurseNotFound, "delete nurse",
			`DELETE FROM nurses WHERE user_id = $1`, id)
		if err != nil {
			return err
		}
		return s.DeleteUser(ctx, id)
	})
}
