// Package policy decides whether a principal may act on an entity.
// Decisions are pure functions of the principal and the target instance;
// existence of the target must be established by the caller first.
package policy

import (
	"errors"
	"fmt"

	"github.com/hackgods/hospital-management/internal/auth"
)

var ErrAccessDenied = errors.New("access denied")

type Action string

const (
	ActionViewAny       Action = "viewAny"
	ActionView          Action = "view"
	ActionViewAsPatient Action = "viewAsPatient"
	ActionViewAsDoctor  Action = "viewAsDoctor"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionDelete        Action = "delete"
	// ActionViewRelated guards sub-collections of a record (a doctor's
	// nurses, a department's clinics) and follows the view rule.
	ActionViewRelated Action = "viewRelated"
	// ActionConfirm is the precheck confirmation of a new patient account.
	ActionConfirm Action = "confirm"
)

type EntityType string

const (
	Appointment EntityType = "appointment"
	Doctor      EntityType = "doctor"
	Patient     EntityType = "patient"
	Nurse       EntityType = "nurse"
	Clinic      EntityType = "clinic"
	Department  EntityType = "department"
	RoutineTest EntityType = "routine_test"
)

// Policy is the fixed set of checks every entity type answers.
// A nil target means the check is evaluated against the class.
type Policy interface {
	ViewAny(p auth.Principal) bool
	View(p auth.Principal, target any) bool
	ViewAsPatient(p auth.Principal, target any) bool
	ViewAsDoctor(p auth.Principal, target any) bool
	Create(p auth.Principal) bool
	Update(p auth.Principal, target any) bool
	Delete(p auth.Principal, target any) bool
}

// Confirmer is implemented by policies that gate account confirmation.
type Confirmer interface {
	Confirm(p auth.Principal, target any) bool
}

// Subject is a record describing a principal (doctor, nurse, patient profiles).
type Subject interface {
	SubjectID() int64
}

// Visit is a record shared by one patient and one doctor.
type Visit interface {
	VisitParties() (patientID, doctorID int64)
}

// Supervised is a record attached to a supervising doctor.
type Supervised interface {
	SupervisorID() int64
}

// Owned is a record that belongs to one doctor.
type Owned interface {
	OwnerID() int64
}

type Engine struct {
	policies map[EntityType]Policy
}

// NewEngine returns an engine with the policy of every entity type registered.
func NewEngine() *Engine {
	e := &Engine{policies: make(map[EntityType]Policy)}
	e.Register(Appointment, appointmentPolicy{})
	e.Register(RoutineTest, routineTestPolicy{})
	e.Register(Doctor, doctorPolicy{})
	e.Register(Nurse, nursePolicy{})
	e.Register(Patient, patientPolicy{})
	e.Register(Clinic, clinicPolicy{})
	e.Register(Department, departmentPolicy{})
	return e
}

func (e *Engine) Register(t EntityType, p Policy) {
	e.policies[t] = p
}

// Check evaluates action on entity type t. Unknown types and actions deny.
func (e *Engine) Check(p auth.Principal, action Action, t EntityType, target any) bool {
	pol, ok := e.policies[t]
	if !ok {
		return false
	}

	switch action {
	case ActionViewAny:
		return pol.ViewAny(p)
	case ActionView, ActionViewRelated:
		return pol.View(p, target)
	case ActionViewAsPatient:
		return pol.ViewAsPatient(p, target)
	case ActionViewAsDoctor:
		return pol.ViewAsDoctor(p, target)
	case ActionCreate:
		return pol.Create(p)
	case ActionUpdate:
		return pol.Update(p, target)
	case ActionDelete:
		return pol.Delete(p, target)
	case ActionConfirm:
		if c, ok := pol.(Confirmer); ok {
			return c.Confirm(p, target)
		}
	}
	return false
}

// Authorize is Check returning ErrAccessDenied on deny.
func (e *Engine) Authorize(p auth.Principal, action Action, t EntityType, target any) error {
	if e.Check(p, action, t, target) {
		return nil
	}
	return fmt.Errorf("%w: %s on %s", ErrAccessDenied, action, t)
}

// AuthorizeAny passes when at least one of the actions is allowed.
func (e *Engine) AuthorizeAny(p auth.Principal, t EntityType, target any, actions ...Action) error {
	for _, a := range actions {
		if e.Check(p, a, t, target) {
			return nil
		}
	}
	return fmt.Errorf("%w: %v on %s", ErrAccessDenied, actions, t)
}
