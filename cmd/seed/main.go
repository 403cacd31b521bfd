package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-management/internal/auth"
	"github.com/hackgods/hospital-management/internal/config"
	"github.com/hackgods/hospital-management/internal/db"
	"github.com/hackgods/hospital-management/internal/hospital"
	"github.com/hackgods/hospital-management/internal/role"
)

const (
	departmentCount = 6
	doctorsPerDept  = 4
	nursesPerDoctor = 2
	patientCount    = 200
	seedPassword    = "password123"
)

var specialties = []string{
	"Cardiology",
	"Dermatology",
	"General Practice",
	"Neurology",
	"Orthopedics",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
}

var rates = []hospital.Rate{hospital.RateWeak, hospital.RateMed, hospital.RateGood}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	logger.Info().Msg("seed starting")

	cfg, err := config.Load(false)
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.PostgresConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	// one bcrypt hash shared by every seeded account
	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("hash password")
	}

	s := &seeder{store: hospital.NewPgStore(pool), hash: hash, log: logger}

	if err := s.admin(ctx); err != nil {
		logger.Fatal().Err(err).Msg("seed admin")
	}
	if err := s.staff(ctx); err != nil {
		logger.Fatal().Err(err).Msg("seed staff")
	}
	if err := s.patients(ctx, patientCount); err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}

	logger.Info().Str("password", seedPassword).Msg("seed complete")
}

type seeder struct {
	store hospital.Store
	hash  string
	log   zerolog.Logger
}

func (s *seeder) fakeUser(r role.Role) *hospital.User {
	now := time.Now()
	birth := gofakeit.DateRange(now.AddDate(-80, 0, 0), now.AddDate(-18, 0, 0))
	return &hospital.User{
		FirstName:       gofakeit.FirstName(),
		LastName:        gofakeit.LastName(),
		Email:           gofakeit.Email(),
		PhoneNumber:     gofakeit.Phone(),
		Gender:          gofakeit.Gender(),
		Address:         gofakeit.Street() + ", " + gofakeit.City(),
		BirthDate:       &birth,
		SSN:             gofakeit.SSN(),
		PasswordHash:    s.hash,
		Role:            r,
		EmailVerifiedAt: &now,
	}
}

func (s *seeder) admin(ctx context.Context) error {
	email := os.Getenv("SEED_ADMIN_EMAIL")
	if email == "" {
		email = "admin@hospital.local"
	}

	u := s.fakeUser(role.Admin)
	u.Email = email
	err := s.store.CreateUser(ctx, u)
	if errors.Is(err, hospital.ErrEmailTaken) {
		s.log.Info().Str("email", email).Msg("admin already present")
		return nil
	}
	if err != nil {
		return err
	}
	s.log.Info().Str("email", email).Msg("admin seeded")
	return nil
}

// staff seeds departments, each with doctors, their nurses and clinics.
func (s *seeder) staff(ctx context.Context) error {
	for i := 0; i < departmentCount; i++ {
		spec := specialties[i%len(specialties)]
		dept := &hospital.Department{
			Name:           fmt.Sprintf("%s %d", spec, i+1),
			Specialization: spec,
			Description:    fmt.Sprintf("%s %s", gofakeit.Adjective(), gofakeit.JobDescriptor()),
		}
		if err := s.store.CreateDepartment(ctx, dept); err != nil {
			return fmt.Errorf("department: %w", err)
		}

		for j := 0; j < doctorsPerDept; j++ {
			doc, err := s.doctor(ctx, dept)
			if err != nil {
				return err
			}
			if err := s.clinics(ctx, dept, doc, j); err != nil {
				return err
			}
			for k := 0; k < nursesPerDoctor; k++ {
				if err := s.nurse(ctx, dept, doc); err != nil {
					return err
				}
			}
		}
		s.log.Info().Str("department", dept.Name).Msg("department seeded")
	}
	return nil
}

func (s *seeder) doctor(ctx context.Context, dept *hospital.Department) (*hospital.Doctor, error) {
	for {
		doc := &hospital.Doctor{
			DepartmentID:     &dept.ID,
			Specialization:   dept.Specialization,
			ShortDescription: gofakeit.JobTitle(),
			Rate:             rates[gofakeit.Number(0, len(rates)-1)],
			User:             s.fakeUser(role.Doctor),
		}
		err := s.store.CreateDoctor(ctx, doc)
		if errors.Is(err, hospital.ErrEmailTaken) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("doctor: %w", err)
		}
		return doc, nil
	}
}

func (s *seeder) nurse(ctx context.Context, dept *hospital.Department, doc *hospital.Doctor) error {
	for {
		n := &hospital.Nurse{
			DepartmentID:   dept.ID,
			DoctorID:       doc.UserID,
			Specialization: dept.Specialization,
			Rate:           rates[gofakeit.Number(0, len(rates)-1)],
			User:           s.fakeUser(role.Nurse),
		}
		err := s.store.CreateNurse(ctx, n)
		if errors.Is(err, hospital.ErrEmailTaken) {
			continue
		}
		if err != nil {
			return fmt.Errorf("nurse: %w", err)
		}
		return nil
	}
}

// clinics gives every doctor an internal clinic and every other doctor an
// external practice as well.
func (s *seeder) clinics(ctx context.Context, dept *hospital.Department, doc *hospital.Doctor, n int) error {
	internal := &hospital.Clinic{
		Type:         hospital.ClinicInternal,
		DoctorID:     doc.UserID,
		DepartmentID: &dept.ID,
		Code:         fmt.Sprintf("D%d-C%d", dept.ID, n+1),
	}
	if err := s.store.CreateClinic(ctx, internal); err != nil {
		return fmt.Errorf("internal clinic: %w", err)
	}
	if n%2 == 1 {
		return nil
	}

	lat, lon := gofakeit.Latitude(), gofakeit.Longitude()
	external := &hospital.Clinic{
		Type:      hospital.ClinicExternal,
		DoctorID:  doc.UserID,
		Latitude:  &lat,
		Longitude: &lon,
	}
	if err := s.store.CreateClinic(ctx, external); err != nil {
		return fmt.Errorf("external clinic: %w", err)
	}
	return nil
}

func (s *seeder) patients(ctx context.Context, count int) error {
	s.log.Info().Int("count", count).Msg("seeding patients")

	for seeded := 0; seeded < count; {
		u := s.fakeUser(role.Patient)
		err := s.store.CreateUser(ctx, u)
		if errors.Is(err, hospital.ErrEmailTaken) {
			continue
		}
		if err != nil {
			return fmt.Errorf("patient: %w", err)
		}
		seeded++
	}

	s.log.Info().Msg("patients seeded")
	return nil
}
