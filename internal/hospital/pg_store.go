package hospital

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/hospital-management/internal/db"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, s.pool)
}

func (s *PgStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.WithinTx(ctx, s.pool, fn)
}

// mapPgError translates constraint violations into domain errors.
func mapPgError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if strings.Contains(pgErr.ConstraintName, "email") {
				return ErrEmailTaken
			}
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, ErrInUse)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// notFound maps pgx.ErrNoRows to sentinel.
func notFound(err error, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}

// where accumulates positional SQL conditions.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func execExpectOne(ctx context.Context, q db.Querier, sentinel error, op, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return mapPgError(err, op)
	}
	if tag.RowsAffected() == 0 {
		return sentinel
	}
	return nil
}

// loader resolves relations with a per-call cache, so a listing touches
// each related row once.
type loader struct {
	s           *PgStore
	users       map[int64]*User
	departments map[int64]*Department
	doctors     map[int64]*Doctor
	clinics     map[int64]*Clinic
}

func (s *PgStore) newLoader() *loader {
	return &loader{
		s:           s,
		users:       make(map[int64]*User),
		departments: make(map[int64]*Department),
		doctors:     make(map[int64]*Doctor),
		clinics:     make(map[int64]*Clinic),
	}
}

func (l *loader) user(ctx context.Context, id int64) (*User, error) {
	if u, ok := l.users[id]; ok {
		return u, nil
	}
	u, err := scanUser(l.s.conn(ctx).QueryRow(ctx, selectUser+` WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	l.users[id] = u
	return u, nil
}

func (l *loader) department(ctx context.Context, id int64) (*Department, error) {
	if d, ok := l.departments[id]; ok {
		return d, nil
	}
	d, err := scanDepartment(l.s.conn(ctx).QueryRow(ctx, selectDepartment+` WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, ErrDepartmentNotFound)
	}
	l.departments[id] = d
	return d, nil
}

func (l *loader) doctor(ctx context.Context, id int64) (*Doctor, error) {
	if d, ok := l.doctors[id]; ok {
		return d, nil
	}
	d, err := scanDoctor(l.s.conn(ctx).QueryRow(ctx, selectDoctor+` WHERE user_id = $1`, id))
	if err != nil {
		return nil, notFound(err, ErrDoctorNotFound)
	}
	if err := l.fillDoctor(ctx, d); err != nil {
		return nil, err
	}
	l.doctors[id] = d
	return d, nil
}

func (l *loader) fillDoctor(ctx context.Context, d *Doctor) error {
	u, err := l.user(ctx, d.UserID)
	if err != nil {
		return err
	}
	d.User = u
	if d.DepartmentID != nil {
		dept, err := l.department(ctx, *d.DepartmentID)
		if err != nil {
			return err
		}
		d.Department = dept
	}
	return nil
}

func (l *loader) clinic(ctx context.Context, id int64) (*Clinic, error) {
	if c, ok := l.clinics[id]; ok {
		return c, nil
	}
	c, err := scanClinic(l.s.conn(ctx).QueryRow(ctx, selectClinic+` WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, ErrClinicNotFound)
	}
	if err := l.fillClinic(ctx, c); err != nil {
		return nil, err
	}
	l.clinics[id] = c
	return c, nil
}

func (l *loader) fillClinic(ctx context.Context, c *Clinic) error {
	doc, err := l.doctor(ctx, c.DoctorID)
	if err != nil {
		return err
	}
	c.Doctor = doc
	if c.DepartmentID != nil {
		dept, err := l.department(ctx, *c.DepartmentID)
		if err != nil {
			return err
		}
		c.Department = dept
	}
	return nil
}

func (l *loader) fillNurse(ctx context.Context, n *Nurse) error {
	u, err := l.user(ctx, n.UserID)
	if err != nil {
		return err
	}
	n.User = u
	if n.Department, err = l.department(ctx, n.DepartmentID); err != nil {
		return err
	}
	if n.Doctor, err = l.doctor(ctx, n.DoctorID); err != nil {
		return err
	}
	return nil
}

func (l *loader) fillAppointment(ctx context.Context, a *Appointment) error {
	var err error
	if a.Doctor, err = l.doctor(ctx, a.DoctorID); err != nil {
		return err
	}
	if a.Patient, err = l.user(ctx, a.PatientID); err != nil {
		return err
	}
	if a.Clinic, err = l.clinic(ctx, a.ClinicID); err != nil {
		return err
	}
	return nil
}

func (l *loader) fillRoutineTest(ctx context.Context, t *RoutineTest) error {
	var err error
	if t.Doctor, err = l.doctor(ctx, t.DoctorID); err != nil {
		return err
	}
	if t.Patient, err = l.user(ctx, t.PatientID); err != nil {
		return err
	}
	return nil
}

// collect scans every row with scan and hydrates it with fill.
func collect[T any](ctx context.Context, rows pgx.Rows, scan func(pgx.Row) (*T, error), fill func(context.Context, *T) error) ([]*T, error) {
	defer rows.Close()

	var out []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if fill != nil {
		for _, item := range out {
			if err := fill(ctx, item); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
