package role

import (
	"errors"
	"strings"
)

// Role is the single role a principal holds at any time.
type Role string

const (
	// None marks an account that registered but has not confirmed its precheck token yet.
	None    Role = ""
	Admin   Role = "admin"
	Staff   Role = "staff"
	Doctor  Role = "doctor"
	Nurse   Role = "nurse"
	Patient Role = "patient"
)

var ErrUnknownRole = errors.New("unknown role")

// All lists the five assignable roles.
var All = []Role{Admin, Staff, Doctor, Nurse, Patient}

// Parse resolves a role name, ignoring case and surrounding spaces.
func Parse(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r.Valid() {
		return r, nil
	}
	return None, ErrUnknownRole
}

func (r Role) Valid() bool {
	switch r {
	case Admin, Staff, Doctor, Nurse, Patient:
		return true
	}
	return false
}

// IsAdministrative reports whether r is ADMIN or STAFF.
func (r Role) IsAdministrative() bool {
	return r.In(Admin, Staff)
}

// In is a set-membership test. None is never a member.
func (r Role) In(set ...Role) bool {
	if r == None {
		return false
	}
	for _, candidate := range set {
		if r == candidate {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	if r == None {
		return "unregistered"
	}
	return string(r)
}
