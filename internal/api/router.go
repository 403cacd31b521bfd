package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-management/internal/appointment"
	"github.com/hackgods/hospital-management/internal/auth"
	"github.com/hackgods/hospital-management/internal/hospital"
	"github.com/hackgods/hospital-management/internal/policy"
	"github.com/hackgods/hospital-management/internal/views"
)

type RouterConfig struct {
	Store    hospital.Store
	Service  *appointment.Service
	Authz    *policy.Engine
	Tokens   *auth.TokenIssuer
	Views    *views.Views
	Logger   zerolog.Logger
	PageSize int
	// PgPool and Redis are only pinged by the readiness probe; both may be
	// nil when running in memory.
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
}

type server struct {
	store    hospital.Store
	svc      *appointment.Service
	authz    *policy.Engine
	tokens   *auth.TokenIssuer
	views    *views.Views
	pageSize int
	now      func() time.Time
}

func NewRouter(cfg RouterConfig) http.Handler {
	s := &server{
		store:    cfg.Store,
		svc:      cfg.Service,
		authz:    cfg.Authz,
		tokens:   cfg.Tokens,
		views:    cfg.Views,
		pageSize: cfg.PageSize,
		now:      time.Now,
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RecoverMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	authRequired := auth.Middleware(cfg.Tokens, true)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.login)
		r.With(authRequired).Post("/auth/refresh", s.refresh)

		r.Route("/patients", func(r chi.Router) {
			// registration is open to anonymous callers
			r.With(auth.Middleware(cfg.Tokens, false)).Post("/", s.registerPatient)

			r.Group(func(r chi.Router) {
				r.Use(authRequired)
				r.Get("/", s.listPatients)
				r.Get("/prechecks", s.precheckStatus)
				r.Post("/prechecks", s.confirmPrecheck)
				r.Get("/me", s.getMyPatientProfile)
				r.Put("/me", s.updateMyPatientProfile)
				r.Get("/me/doctors", s.listMyDoctors)
				r.Get("/{id}", s.getPatient)
				r.Put("/{id}", s.updatePatient)
				r.Delete("/{id}", s.deletePatient)
				r.Get("/{id}/doctors", s.listPatientDoctors)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authRequired)

			r.Route("/doctors", func(r chi.Router) {
				r.Get("/", s.listDoctors)
				r.Post("/", s.createDoctor)
				r.Get("/me", s.getMyDoctorProfile)
				r.Put("/me", s.updateMyDoctorProfile)
				r.Get("/me/nurses", s.listMyNurses)
				r.Get("/me/clinics", s.listMyClinics)
				r.Get("/{id}", s.getDoctor)
				r.Put("/{id}", s.updateDoctor)
				r.Delete("/{id}", s.deleteDoctor)
				r.Get("/{id}/nurses", s.listDoctorNurses)
				r.Get("/{id}/clinics", s.listDoctorClinics)
			})

			r.Route("/nurses", func(r chi.Router) {
				r.Get("/", s.listNurses)
				r.Post("/", s.createNurse)
				r.Get("/me", s.getMyNurseProfile)
				r.Put("/me", s.updateMyNurseProfile)
				r.Get("/me/doctor", s.getMySupervisor)
				r.Get("/{id}", s.getNurse)
				r.Put("/{id}", s.updateNurse)
				r.Delete("/{id}", s.deleteNurse)
				r.Get("/{id}/doctor", s.getNurseSupervisor)
			})

			r.Route("/departments", func(r chi.Router) {
				r.Get("/", s.listDepartments)
				r.Post("/", s.createDepartment)
				r.Get("/{id}", s.getDepartment)
				r.Put("/{id}", s.updateDepartment)
				r.Delete("/{id}", s.deleteDepartment)
				r.Get("/{id}/doctors", s.listDepartmentDoctors)
				r.Post("/{id}/doctors", s.createDepartmentDoctor)
				r.Get("/{id}/nurses", s.listDepartmentNurses)
				r.Post("/{id}/nurses", s.createDepartmentNurse)
				r.Get("/{id}/clinics", s.listDepartmentClinics)
				r.Post("/{id}/clinics", s.createInternalClinic)
			})

			r.Route("/clinics", func(r chi.Router) {
				r.Get("/", s.listClinics)
				r.Post("/", s.createExternalClinic)
				r.Put("/{id}", s.updateClinic)
				r.Delete("/{id}", s.deleteClinic)
				r.Get("/internal", s.listClinicsOfType(hospital.ClinicInternal))
				r.Get("/internal/{id}", s.getClinicOfType(hospital.ClinicInternal))
				r.Get("/external", s.listClinicsOfType(hospital.ClinicExternal))
				r.Get("/external/{id}", s.getClinicOfType(hospital.ClinicExternal))
			})

			r.Route("/appointments", func(r chi.Router) {
				r.Get("/", s.listAppointments)
				r.Post("/", s.createAppointment)
				r.Get("/doctors/{id}", s.listDoctorAppointments)
				r.Get("/patients/{id}", s.listPatientAppointments)
				r.Get("/clinics/{id}", s.listClinicAppointments)
				r.Get("/me", s.listMyAppointments)
				r.Get("/me/patients", s.listMyPatientAppointments)
				r.Get("/me/patients/{id}", s.getMyPatientAppointment)
				r.Put("/me/patients/{id}", s.submitAppointment)
				r.Get("/me/{id}", s.getMyAppointment)
				r.Get("/schedule/clinics/{id}", s.clinicSchedule)
				r.Get("/schedule/doctors/{id}", s.doctorSchedule)
				r.Get("/{id}", s.getAppointment)
			})

			r.Route("/tests", func(r chi.Router) {
				r.Get("/", s.listTests)
				r.Get("/me", s.listMyTests)
				r.Get("/me/patients", s.listMyPatientTests)
				r.Get("/me/patients/{id}", s.getMyPatientTest)
				r.Get("/me/{id}", s.getMyTest)
				r.Get("/patients/{id}", s.listPatientTests)
				r.Get("/doctors/{id}", s.listDoctorTests)
				r.Get("/{id}", s.getTest)
				r.Put("/{id}", s.updateTest)
			})
		})
	})

	return r
}
