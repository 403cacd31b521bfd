package hospital

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hackgods/hospital-management/internal/role"
)

type Status int

const (
	StatusCompleted Status = iota
	StatusCanceled
	StatusDelayed
	StatusWaited
)

var statusNames = map[Status]string{
	StatusCompleted: "COMPLETED",
	StatusCanceled:  "CANCELED",
	StatusDelayed:   "DELAYED",
	StatusWaited:    "WAITED",
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN(" + strconv.Itoa(int(s)) + ")"
}

// ParseStatus accepts a status name in any case or its numeric code.
func ParseStatus(raw string) (Status, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		if s := Status(n); s.Valid() {
			return s, nil
		}
		return 0, fmt.Errorf("unknown status %q", raw)
	}
	for s, name := range statusNames {
		if strings.EqualFold(name, raw) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", raw)
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts either the name or the numeric code.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var parsed Status
	var err error
	switch v := raw.(type) {
	case string:
		parsed, err = ParseStatus(v)
	case float64:
		parsed, err = ParseStatus(strconv.Itoa(int(v)))
	default:
		err = fmt.Errorf("status must be a string or a number")
	}
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type Rate string

const (
	RateWeak Rate = "weak"
	RateMed  Rate = "med"
	RateGood Rate = "good"
)

func (r Rate) Valid() bool {
	return r == RateWeak || r == RateMed || r == RateGood
}

type ClinicType string

const (
	ClinicInternal ClinicType = "internal"
	ClinicExternal ClinicType = "external"
)

func (t ClinicType) Valid() bool {
	return t == ClinicInternal || t == ClinicExternal
}

type User struct {
	ID              int64
	FirstName       string
	LastName        string
	Email           string
	PhoneNumber     string
	Gender          string
	Address         string
	BirthDate       *time.Time
	ProfilePicture  string
	SSN             string
	PasswordHash    string
	Role            role.Role
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Department struct {
	ID             int64
	Name           string
	Specialization string
	Description    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Doctor is keyed by its user id.
type Doctor struct {
	UserID           int64
	DepartmentID     *int64
	AssignedAt       time.Time
	Specialization   string
	ShortDescription string
	Rate             Rate
	CreatedAt        time.Time
	UpdatedAt        time.Time

	User       *User
	Department *Department
}

// Nurse is keyed by its user id and supervised by one doctor.
type Nurse struct {
	UserID           int64
	DepartmentID     int64
	DoctorID         int64
	Specialization   string
	ShortDescription string
	Rate             Rate
	AssignedAt       time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	User       *User
	Department *Department
	Doctor     *Doctor
}

// Clinic belongs to one doctor. Internal clinics carry a department and a
// code, external clinics carry coordinates.
type Clinic struct {
	ID           int64
	Type         ClinicType
	DoctorID     int64
	DepartmentID *int64
	Code         string
	Latitude     *float64
	Longitude    *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Doctor     *Doctor
	Department *Department
}

type Appointment struct {
	ID        int64
	DoctorID  int64
	ClinicID  int64
	PatientID int64
	Date      time.Time
	NextDate  *time.Time
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time

	Doctor  *Doctor
	Patient *User
	Clinic  *Clinic
}

type Vitals struct {
	BreathingRate   float64
	BodyTemperature float64
	PulseRate       float64
	MedicalNotes    string
	Prescription    string
}

type RoutineTest struct {
	ID        int64
	DoctorID  int64
	PatientID int64
	Vitals
	CreatedAt time.Time
	UpdatedAt time.Time

	Doctor  *Doctor
	Patient *User
}

// VerifyToken is the precheck token of an unconfirmed account.
type VerifyToken struct {
	UserID    int64
	Token     string
	Verified  bool
	CreatedAt time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *int64
	Payload       []byte
	CreatedAt     time.Time
}
