package hospital

import (
	"context"
	"time"

	"github.com/hackgods/hospital-management/internal/role"
)

// Filters treat zero values as "no constraint".

type DoctorFilter struct {
	DepartmentID int64
}

type NurseFilter struct {
	DepartmentID int64
	DoctorID     int64
}

type ClinicFilter struct {
	Type         ClinicType
	DoctorID     int64
	DepartmentID int64
}

// AppointmentFilter results are ordered by date ascending.
type AppointmentFilter struct {
	DoctorID  int64
	PatientID int64
	ClinicID  int64
	// From and To bound the date inclusively.
	From time.Time
	To   time.Time
	// After keeps only appointments strictly later than it.
	After time.Time
}

type RoutineTestFilter struct {
	DoctorID  int64
	PatientID int64
}

// Store is the persistence collaborator. Calls made with the context handed
// to WithinTx's callback join that transaction.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	UserStore
	DoctorStore
	NurseStore
	DepartmentStore
	ClinicStore
	AppointmentStore
	RoutineTestStore
}

type UserStore interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsersByRole(ctx context.Context, r role.Role) ([]*User, error)
	CreateUser(ctx context.Context, u *User) error
	UpdateUser(ctx context.Context, u *User) error
	DeleteUser(ctx context.Context, id int64) error

	CreateVerifyToken(ctx context.Context, t *VerifyToken) error
	GetVerifyToken(ctx context.Context, userID int64) (*VerifyToken, error)
	// MarkVerified flags the token and the user's email as verified and sets the user's role.
	MarkVerified(ctx context.Context, userID int64, r role.Role, at time.Time) error
}

type DoctorStore interface {
	GetDoctor(ctx context.Context, id int64) (*Doctor, error)
	ListDoctors(ctx context.Context, f DoctorFilter) ([]*Doctor, error)
	// ListDoctorsOfPatient returns the doctors the patient has appointments with.
	ListDoctorsOfPatient(ctx context.Context, patientID int64) ([]*Doctor, error)
	// CreateDoctor inserts d.User and the doctor row together.
	CreateDoctor(ctx context.Context, d *Doctor) error
	UpdateDoctor(ctx context.Context, d *Doctor) error
	DeleteDoctor(ctx context.Context, id int64) error
}

type NurseStore interface {
	GetNurse(ctx context.Context, id int64) (*Nurse, error)
	ListNurses(ctx context.Context, f NurseFilter) ([]*Nurse, error)
	// CreateNurse inserts n.User and the nurse row together.
	CreateNurse(ctx context.Context, n *Nurse) error
	UpdateNurse(ctx context.Context, n *Nurse) error
	DeleteNurse(ctx context.Context, id int64) error
}

type DepartmentStore interface {
	GetDepartment(ctx context.Context, id int64) (*Department, error)
	ListDepartments(ctx context.Context) ([]*Department, error)
	CreateDepartment(ctx context.Context, d *Department) error
	UpdateDepartment(ctx context.Context, d *Department) error
	DeleteDepartment(ctx context.Context, id int64) error
}

type ClinicStore interface {
	GetClinic(ctx context.Context, id int64) (*Clinic, error)
	ListClinics(ctx context.Context, f ClinicFilter) ([]*Clinic, error)
	CreateClinic(ctx context.Context, c *Clinic) error
	UpdateClinic(ctx context.Context, c *Clinic) error
	DeleteClinic(ctx context.Context, id int64) error
}

type AppointmentStore interface {
	GetAppointment(ctx context.Context, id int64) (*Appointment, error)
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]*Appointment, error)
	CreateAppointment(ctx context.Context, a *Appointment) error
	UpdateAppointmentStatus(ctx context.Context, id int64, status Status, nextDate *time.Time) error
	InsertEvent(ctx context.Context, ev EventLog) error
}

type RoutineTestStore interface {
	GetRoutineTest(ctx context.Context, id int64) (*RoutineTest, error)
	ListRoutineTests(ctx context.Context, f RoutineTestFilter) ([]*RoutineTest, error)
	CreateRoutineTest(ctx context.Context, t *RoutineTest) error
	UpdateRoutineTest(ctx context.Context, t *RoutineTest) error
}

var (
	_ Store = (*PgStore)(nil)
	_ Store = (*MemStore)(nil)
)
