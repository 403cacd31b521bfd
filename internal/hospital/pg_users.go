package hospital

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hackgods/hospital-management/internal/role"
)

const selectUser = `
	SELECT id, first_name, last_name, email, phone_number, gender, address,
	       birth_date, profile_picture, ssn, password_hash, role,
	       email_verified_at, created_at, updated_at
	FROM users`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var r *string

	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PhoneNumber,
		&u.Gender,
		&u.Address,
		&u.BirthDate,
		&u.ProfilePicture,
		&u.SSN,
		&u.PasswordHash,
		&r,
		&u.EmailVerifiedAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if r != nil {
		u.Role = role.Role(*r)
	}
	return &u, nil
}

func nullableRole(r role.Role) *string {
	if r == role.None {
		return nil
	}
	s := string(r)
	return &s
}

func (s *PgStore) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.newLoader().user(ctx, id)
}

func (s *PgStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(s.conn(ctx).QueryRow(ctx, selectUser+` WHERE lower(email) = $1`, strings.ToLower(email)))
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

func (s *PgStore) ListUsersByRole(ctx context.Context, r role.Role) ([]*User, error) {
	var rows pgx.Rows
	var err error
	if r == role.None {
		rows, err = s.conn(ctx).Query(ctx, selectUser+` WHERE role IS NULL ORDER BY id`)
	} else {
		rows, err = s.conn(ctx).Query(ctx, selectUser+` WHERE role = $1 ORDER BY id`, string(r))
	}
	if err != nil {
		return nil, mapPgError(err, "list users")
	}
	return collect[User](ctx, rows, scanUser, nil)
}

func (s *PgStore) CreateUser(ctx context.Context, u *User) error {
	row := s.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, email, phone_number, gender, address,
		                   birth_date, profile_picture, ssn, password_hash, role, email_verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`, u.FirstName, u.LastName, u.Email, u.PhoneNumber, u.Gender, u.Address,
		u.BirthDate, u.ProfilePicture, u.SSN, u.PasswordHash, nullableRole(u.Role), u.EmailVerifiedAt)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapPgError(err, "insert user")
	}
	return nil
}

func (s *PgStore) UpdateUser(ctx context.Context, u *User) error {
	row := s.conn(ctx).QueryRow(ctx, `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4, phone_number = $5, gender = $6,
		    address = $7, birth_date = $8, profile_picture = $9, ssn = $10,
		    password_hash = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, u.ID, u.FirstName, u.LastName, u.Email, u.PhoneNumber, u.Gender,
		u.Address, u.BirthDate, u.ProfilePicture, u.SSN, u.PasswordHash)

	if err := row.Scan(&u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return mapPgError(err, "update user")
	}
	return nil
}

func (s *PgStore) DeleteUser(ctx context.Context, id int64) error {
	return execExpectOne(ctx, s.conn(ctx), ErrUserNotFound, "delete user", `DELETE FROM users WHERE id = $1`, id)
}

func (s *PgStore) CreateVerifyToken(ctx context.Context, t *VerifyToken) error {
	row := s.conn(ctx).QueryRow(ctx, `
		INSERT INTO verify_tokens (user_id, token, verified)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET token = EXCLUDED.token, verified = EXCLUDED.verified
		RETURNING created_at
	`, t.UserID, t.Token, t.Verified)
	if err := row.Scan(&t.CreatedAt); err != nil {
		return mapPgError(err, "insert verify token")
	}
	return nil
}

func (s *PgStore) GetVerifyToken(ctx context.Context, userID int64) (*VerifyToken, error) {
	var t VerifyToken
	err := s.conn(ctx).QueryRow(ctx, `
		SELECT user_id, token, verified, created_at FROM verify_tokens WHERE user_id = $1
	`, userID).Scan(&t.UserID, &t.Token, &t.Verified, &t.CreatedAt)
	if err != nil {
		return nil, notFound(err, ErrVerifyTokenNotFound)
	}
	return &t, nil
}

func (s *PgStore) MarkVerified(ctx context.Context, userID int64, r role.Role, at time.Time) error {
	return s.WithinTx(ctx, func(ctx context.Context) error {
		err := execExpectOne(ctx, s.conn(ctx), ErrVerifyTokenNotFound, "verify token",
			`UPDATE verify_tokens SET verified = TRUE WHERE user_id = $1`, userID)
		if err != nil {
			return err
		}
		return execExpectOne(ctx, s.conn(ctx), ErrUserNotFound, "promote user",
			`UPDATE users SET role = $2, email_verified_at = $3, updated_at = NOW() WHERE id = $1`,
			userID, nullableRole(r), at)
	})
}
