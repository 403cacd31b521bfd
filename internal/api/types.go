package api

import (
	"encoding/json"
	"net/mail"
	"strings"
	"time"

	"github.com/hackgods/hospital-management/internal/appointment"
	"github.com/hackgods/hospital-management/internal/auth"
	"github.com/hackgods/hospital-management/internal/hospital"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type MessageResponse struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        string    `json:"role"`
}

// UserRequest carries the account fields shared by patients, doctors and
// nurses. On updates, empty fields keep their current value.
type UserRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	PhoneNumber    string `json:"phone_number"`
	Gender         string `json:"gender"`
	Address        string `json:"address"`
	BirthDate      string `json:"birth_date"`
	SSN            string `json:"ssn"`
	ProfilePicture string `json:"profile_picture"`
}

func (req UserRequest) validate(v *hospital.ValidationError, creating bool) {
	if creating {
		if strings.TrimSpace(req.FirstName) == "" {
			v.Add("first_name", "is required")
		}
		if strings.TrimSpace(req.LastName) == "" {
			v.Add("last_name", "is required")
		}
		if req.Email == "" {
			v.Add("email", "is required")
		}
		if len(req.Password) < 8 {
			v.Add("password", "must be at least 8 characters")
		}
	} else if req.Password != "" && len(req.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}

	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			v.Add("email", "must be a valid email address")
		}
	}
	if g := strings.ToLower(req.Gender); g != "" && g != "male" && g != "female" {
		v.Add("gender", "must be male or female")
	}
	if req.BirthDate != "" {
		if _, err := time.Parse(hospital.DateLayout, req.BirthDate); err != nil {
			v.Add("birth_date", "must be a date formatted as YYYY-MM-DD")
		}
	}
}

// apply copies the non-empty fields onto u. The password is hashed.
func (req UserRequest) apply(u *hospital.User) error {
	set := func(dst *string, src string) {
		if src != "" {
			*dst = strings.TrimSpace(src)
		}
	}
	set(&u.FirstName, req.FirstName)
	set(&u.LastName, req.LastName)
	set(&u.Email, strings.ToLower(req.Email))
	set(&u.PhoneNumber, req.PhoneNumber)
	set(&u.Gender, strings.ToLower(req.Gender))
	set(&u.Address, req.Address)
	set(&u.SSN, req.SSN)
	set(&u.ProfilePicture, req.ProfilePicture)

	if req.BirthDate != "" {
		d, err := time.Parse(hospital.DateLayout, req.BirthDate)
		if err != nil {
			return hospital.Invalid("birth_date", "must be a date formatted as YYYY-MM-DD")
		}
		u.BirthDate = &d
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	return nil
}

type DoctorRequest struct {
	UserRequest
	DepartmentID     *int64 `json:"department_id"`
	Specialization   string `json:"specialization"`
	ShortDescription string `json:"short_description"`
	Rate             string `json:"rate"`
}

func (req DoctorRequest) validate(creating bool) error {
	v := hospital.NewValidationError()
	req.UserRequest.validate(v, creating)
	if creating && req.Specialization == "" {
		v.Add("specialization", "is required")
	}
	if req.Rate != "" && !hospital.Rate(req.Rate).Valid() {
		v.Add("rate", "must be one of weak, med, good")
	}
	return v.Err()
}

func (req DoctorRequest) apply(d *hospital.Doctor) {
	if req.DepartmentID != nil {
		d.DepartmentID = req.DepartmentID
	}
	if req.Specialization != "" {
		d.Specialization = req.Specialization
	}
	if req.ShortDescription != "" {
		d.ShortDescription = req.ShortDescription
	}
	if req.Rate != "" {
		d.Rate = hospital.Rate(req.Rate)
	}
	if d.Rate == "" {
		d.Rate = hospital.RateMed
	}
}

type NurseRequest struct {
	UserRequest
	DepartmentID     int64  `json:"department_id"`
	DoctorID         int64  `json:"doctor_id"`
	Specialization   string `json:"specialization"`
	ShortDescription string `json:"short_description"`
	Rate             string `json:"rate"`
}

func (req NurseRequest) validate(creating bool) error {
	v := hospital.NewValidationError()
	req.UserRequest.validate(v, creating)
	if creating {
		if req.DepartmentID == 0 {
			v.Add("department_id", "is required")
		}
		if req.DoctorID == 0 {
			v.Add("doctor_id", "is required")
		}
	}
	if req.Rate != "" && !hospital.Rate(req.Rate).Valid() {
		v.Add("rate", "must be one of weak, med, good")
	}
	return v.Err()
}

func (req NurseRequest) apply(n *hospital.Nurse) {
	if req.DepartmentID != 0 {
		n.DepartmentID = req.DepartmentID
	}
	if req.DoctorID != 0 {
		n.DoctorID = req.DoctorID
	}
	if req.Specialization != "" {
		n.Specialization = req.Specialization
	}
	if req.ShortDescription != "" {
		n.ShortDescription = req.ShortDescription
	}
	if req.Rate != "" {
		n.Rate = hospital.Rate(req.Rate)
	}
	if n.Rate == "" {
		n.Rate = hospital.RateMed
	}
}

type DepartmentRequest struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Description    string `json:"description"`
}

func (req DepartmentRequest) validate(creating bool) error {
	if creating && strings.TrimSpace(req.Name) == "" {
		return hospital.Invalid("name", "is required")
	}
	return nil
}

func (req DepartmentRequest) apply(d *hospital.Department) {
	if req.Name != "" {
		d.Name = strings.TrimSpace(req.Name)
	}
	if req.Specialization != "" {
		d.Specialization = req.Specialization
	}
	if req.Description != "" {
		d.Description = req.Description
	}
}

// ClinicRequest serves both clinic types: internal clinics use ClinicCode
// (their department comes from the URL), external ones the coordinates.
type ClinicRequest struct {
	DoctorID     int64    `json:"doctor_id"`
	DepartmentID *int64   `json:"department_id"`
	ClinicCode   string   `json:"clinic_code"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

func (req ClinicRequest) validate(t hospital.ClinicType, creating bool) error {
	v := hospital.NewValidationError()
	if creating && req.DoctorID == 0 {
		v.Add("doctor_id", "is required")
	}
	switch t {
	case hospital.ClinicInternal:
		if creating && strings.TrimSpace(req.ClinicCode) == "" {
			v.Add("clinic_code", "is required")
		}
	case hospital.ClinicExternal:
		if creating && (req.Latitude == nil || req.Longitude == nil) {
			v.Add("coordinates", "latitude and longitude are required")
		}
		if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90) {
			v.Add("latitude", "must be between -90 and 90")
		}
		if req.Longitude != nil && (*req.Longitude < -180 || *req.Longitude > 180) {
			v.Add("longitude", "must be between -180 and 180")
		}
	}
	return v.Err()
}

func (req ClinicRequest) apply(c *hospital.Clinic) {
	if req.DoctorID != 0 {
		c.DoctorID = req.DoctorID
	}
	switch c.Type {
	case hospital.ClinicInternal:
		if req.ClinicCode != "" {
			c.Code = strings.TrimSpace(req.ClinicCode)
		}
		if req.DepartmentID != nil {
			c.DepartmentID = req.DepartmentID
		}
	case hospital.ClinicExternal:
		if req.Latitude != nil {
			c.Latitude = req.Latitude
		}
		if req.Longitude != nil {
			c.Longitude = req.Longitude
		}
	}
}

type CreateAppointmentRequest struct {
	ClinicID  int64  `json:"clinic_id"`
	PatientID int64  `json:"patient_id"`
	Date      string `json:"date"`
}

func (req CreateAppointmentRequest) toService() (appointment.CreateRequest, error) {
	v := hospital.NewValidationError()
	if req.ClinicID == 0 {
		v.Add("clinic_id", "is required")
	}
	date, _ := parseDateTime(v, "date", req.Date)
	if err := v.Err(); err != nil {
		return appointment.CreateRequest{}, err
	}
	return appointment.CreateRequest{ClinicID: req.ClinicID, PatientID: req.PatientID, Date: date}, nil
}

type VitalsRequest struct {
	BreathingRate   *float64 `json:"breathing_rate"`
	BodyTemperature *float64 `json:"body_temperature"`
	PulseRate       *float64 `json:"pulse_rate"`
	MedicalNotes    string   `json:"medical_notes"`
	Prescription    string   `json:"prescription"`
}

func (req VitalsRequest) toVitals(v *hospital.ValidationError) hospital.Vitals {
	required := func(field string, f *float64) float64 {
		if f == nil {
			v.Add(field, "is required")
			return 0
		}
		return *f
	}
	return hospital.Vitals{
		BreathingRate:   required("breathing_rate", req.BreathingRate),
		BodyTemperature: required("body_temperature", req.BodyTemperature),
		PulseRate:       required("pulse_rate", req.PulseRate),
		MedicalNotes:    req.MedicalNotes,
		Prescription:    req.Prescription,
	}
}

type SubmitAppointmentRequest struct {
	// Status stays raw so an unknown value is reported on the field rather
	// than failing the whole body.
	Status   json.RawMessage `json:"status"`
	NextDate string          `json:"next_date"`
	Test     VitalsRequest   `json:"routine_test"`
}

func (req SubmitAppointmentRequest) toService() (appointment.SubmitRequest, error) {
	v := hospital.NewValidationError()
	status, _ := parseStatus(v, "status", req.Status)
	next, _ := parseDateTime(v, "next_date", req.NextDate)
	vitals := req.Test.toVitals(v)
	if err := v.Err(); err != nil {
		return appointment.SubmitRequest{}, err
	}
	return appointment.SubmitRequest{Status: status, NextDate: next, Vitals: vitals}, nil
}

// parseStatus accepts a status name in any case or its numeric code.
func parseStatus(v *hospital.ValidationError, field string, raw json.RawMessage) (hospital.Status, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		v.Add(field, "is required")
		return 0, false
	}
	var s hospital.Status
	if err := json.Unmarshal(raw, &s); err != nil {
		v.Add(field, "must be one of COMPLETED, CANCELED, DELAYED, WAITED")
		return 0, false
	}
	return s, true
}

type PrecheckRequest struct {
	Token string `json:"token"`
	// UserID names the account when front desk staff confirm on a patient's behalf.
	UserID int64 `json:"user_id"`
}

type PrecheckResponse struct {
	UserID          int64   `json:"user_id"`
	Verified        bool    `json:"verified"`
	EmailVerifiedAt *string `json:"email_verified_at,omitempty"`
}

// parseDateTime accepts "YYYY-MM-DD HH:MM:SS" (UTC) or RFC 3339.
func parseDateTime(v *hospital.ValidationError, field, raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		v.Add(field, "is required")
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation(hospital.DateTimeLayout, raw, time.UTC); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	v.Add(field, "must be a date formatted as YYYY-MM-DD HH:MM:SS")
	return time.Time{}, false
}
