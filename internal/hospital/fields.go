package hospital

import (
	"time"

	"github.com/hackgods/hospital-management/internal/projection"
)

const (
	DateTimeLayout = "2006-01-02 15:04:05"
	DateLayout     = "2006-01-02"
)

func formatTime(t time.Time, layout string) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(layout)
}

func formatTimePtr(t *time.Time, layout string) any {
	if t == nil {
		return nil
	}
	return formatTime(*t, layout)
}

func int64Ptr(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func float64Ptr(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func (u *User) Field(name string) any {
	switch name {
	case "id":
		return u.ID
	case "first_name":
		return u.FirstName
	case "last_name":
		return u.LastName
	case "email":
		return u.Email
	case "phone_number":
		return u.PhoneNumber
	case "gender":
		return u.Gender
	case "address":
		return u.Address
	case "birth_date":
		return formatTimePtr(u.BirthDate, DateLayout)
	case "profile_picture":
		return u.ProfilePicture
	case "ssn":
		return u.SSN
	case "role":
		if u.Role == "" {
			return nil
		}
		return string(u.Role)
	case "email_verified_at":
		return formatTimePtr(u.EmailVerifiedAt, DateTimeLayout)
	case "created_at":
		return formatTime(u.CreatedAt, DateTimeLayout)
	}
	return nil
}

func (u *User) Related(string) projection.Entity { return nil }

// SubjectID makes a user the subject of its own patient profile.
func (u *User) SubjectID() int64 { return u.ID }

func (d *Department) Field(name string) any {
	switch name {
	case "id":
		return d.ID
	case "name":
		return d.Name
	case "specialization":
		return d.Specialization
	case "description":
		return d.Description
	case "created_at":
		return formatTime(d.CreatedAt, DateTimeLayout)
	}
	return nil
}

func (d *Department) Related(string) projection.Entity { return nil }

func (d *Doctor) Field(name string) any {
	switch name {
	case "id", "user_id":
		return d.UserID
	case "department_id":
		return int64Ptr(d.DepartmentID)
	case "assigned_at":
		return formatTime(d.AssignedAt, DateTimeLayout)
	case "specialization":
		return d.Specialization
	case "short_description":
		return d.ShortDescription
	case "rate":
		return string(d.Rate)
	}
	return nil
}

func (d *Doctor) Related(name string) projection.Entity {
	switch name {
	case "user":
		if d.User != nil {
			return d.User
		}
	case "department":
		if d.Department != nil {
			return d.Department
		}
	}
	return nil
}

func (d *Doctor) SubjectID() int64 { return d.UserID }

func (n *Nurse) Field(name string) any {
	switch name {
	case "id", "user_id":
		return n.UserID
	case "department_id":
		return n.DepartmentID
	case "doctor_id":
		return n.DoctorID
	case "assigned_at":
		return formatTime(n.AssignedAt, DateTimeLayout)
	case "specialization":
		return n.Specialization
	case "short_description":
		return n.ShortDescription
	case "rate":
		return string(n.Rate)
	}
	return nil
}

func (n *Nurse) Related(name string) projection.Entity {
	switch name {
	case "user":
		if n.User != nil {
			return n.User
		}
	case "department":
		if n.Department != nil {
			return n.Department
		}
	case "doctor":
		if n.Doctor != nil {
			return n.Doctor
		}
	}
	return nil
}

func (n *Nurse) SubjectID() int64    { return n.UserID }
func (n *Nurse) SupervisorID() int64 { return n.DoctorID }

func (c *Clinic) Field(name string) any {
	switch name {
	case "id":
		return c.ID
	case "clinic_type":
		return string(c.Type)
	case "doctor_id":
		return c.DoctorID
	case "department_id":
		return int64Ptr(c.DepartmentID)
	case "clinic_code":
		return c.Code
	case "latitude":
		return float64Ptr(c.Latitude)
	case "longitude":
		return float64Ptr(c.Longitude)
	}
	return nil
}

func (c *Clinic) Related(name string) projection.Entity {
	switch name {
	case "doctor":
		if c.Doctor != nil {
			return c.Doctor
		}
	case "department":
		if c.Department != nil {
			return c.Department
		}
	}
	return nil
}

func (c *Clinic) OwnerID() int64 { return c.DoctorID }

func (a *Appointment) Field(name string) any {
	switch name {
	case "id":
		return a.ID
	case "doctor_id":
		return a.DoctorID
	case "clinic_id":
		return a.ClinicID
	case "patient_id":
		return a.PatientID
	case "date":
		return formatTime(a.Date, DateTimeLayout)
	case "next_date":
		return formatTimePtr(a.NextDate, DateTimeLayout)
	case "status":
		return a.Status.String()
	}
	return nil
}

func (a *Appointment) Related(name string) projection.Entity {
	switch name {
	case "doctor":
		if a.Doctor != nil {
			return a.Doctor
		}
	case "patient":
		if a.Patient != nil {
			return a.Patient
		}
	case "clinic":
		if a.Clinic != nil {
			return a.Clinic
		}
	}
	return nil
}

func (a *Appointment) VisitParties() (int64, int64) { return a.PatientID, a.DoctorID }

func (t *RoutineTest) Field(name string) any {
	switch name {
	case "id":
		return t.ID
	case "doctor_id":
		return t.DoctorID
	case "patient_id":
		return t.PatientID
	case "breathing_rate":
		return t.BreathingRate
	case "body_temperature":
		return t.BodyTemperature
	case "pulse_rate":
		return t.PulseRate
	case "medical_notes":
		return t.MedicalNotes
	case "prescription":
		return t.Prescription
	case "created_at":
		return formatTime(t.CreatedAt, DateLayout)
	}
	return nil
}

func (t *RoutineTest) Related(name string) projection.Entity {
	switch name {
	case "doctor":
		if t.Doctor != nil {
			return t.Doctor
		}
	case "patient":
		if t.Patient != nil {
			return t.Patient
		}
	}
	return nil
}

func (t *RoutineTest) VisitParties() (int64, int64) { return t.PatientID, t.DoctorID }
