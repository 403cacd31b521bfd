package policy

import (
	"github.com/hackgods/hospital-management/internal/auth"
	"github.com/hackgods/hospital-management/internal/role"
)

func isAdmin(p auth.Principal) bool {
	return p.Authenticated() && p.Role.IsAdministrative()
}

func hasRole(p auth.Principal, roles ...role.Role) bool {
	return p.Authenticated() && p.Role.In(roles...)
}

func isSubject(p auth.Principal, target any) bool {
	s, ok := target.(Subject)
	return ok && p.Authenticated() && s.SubjectID() == p.ID
}

func isPatientOf(p auth.Principal, target any) bool {
	v, ok := target.(Visit)
	if !ok || !p.Authenticated() {
		return false
	}
	patientID, _ := v.VisitParties()
	return patientID == p.ID
}

func isDoctorOf(p auth.Principal, target any) bool {
	v, ok := target.(Visit)
	if !ok || !p.Authenticated() {
		return false
	}
	_, doctorID := v.VisitParties()
	return doctorID == p.ID
}

// appointmentPolicy: parties and administrators see and update; nobody deletes.
type appointmentPolicy struct{}

func (appointmentPolicy) ViewAny(p auth.Principal) bool { return isAdmin(p) }

func (appointmentPolicy) View(p auth.Principal, target any) bool {
	return isAdmin(p) || isPatientOf(p, target) || isDoctorOf(p, target)
}

func (appointmentPolicy) ViewAsPatient(p auth.Principal, target any) bool {
	if !hasRole(p, role.Patient) {
		return false
	}
	return target == nil || isPatientOf(p, target)
}

func (appointmentPolicy) ViewAsDoctor(p auth.Principal, target any) bool {
	if !hasRole(p, role.Doctor) {
		return false
	}
	return target == nil || isDoctorOf(p, target)
}

func (appointmentPolicy) Create(p auth.Principal) bool {
	return hasRole(p, role.Doctor, role.Patient)
}

func (appointmentPolicy) Update(p auth.Principal, target any) bool {
	return isAdmin(p) || isPatientOf(p, target) || isDoctorOf(p, target)
}

func (appointmentPolicy) Delete(auth.Principal, any) bool { return false }

// routineTestPolicy mirrors appointments, but only the authoring doctor may amend a test.
type routineTestPolicy struct{}

func (routineTestPolicy) ViewAny(p auth.Principal) bool { return isAdmin(p) }

func (routineTestPolicy) View(p auth.Principal, target any) bool {
	return isAdmin(p) || isPatientOf(p, target) || isDoctorOf(p, target)
}

func (routineTestPolicy) ViewAsPatient(p auth.Principal, target any) bool {
	if !hasRole(p, role.Patient) {
		return false
	}
	return target == nil || isPatientOf(p, target)
}

func (routineTestPolicy) ViewAsDoctor(p auth.Principal, target any) bool {
	if !hasRole(p, role.Doctor) {
		return false
	}
	return target == nil || isDoctorOf(p, target)
}

func (routineTestPolicy) Create(p auth.Principal) bool { return hasRole(p, role.Doctor) }

func (routineTestPolicy) Update(p auth.Principal, target any) bool {
	return isAdmin(p) || (hasRole(p, role.Doctor) && isDoctorOf(p, target))
}

func (routineTestPolicy) Delete(auth.Principal, any) bool { return false }

type doctorPolicy struct{}

func (doctorPolicy) ViewAny(p auth.Principal) bool { return isAdmin(p) }

func (doctorPolicy) View(p auth.Principal, target any) bool {
	return isAdmin(p) || isSubject(p, target)
}

// Patients browse doctors through the patient-facing format.
func (doctorPolicy) ViewAsPatient(p auth.Principal, _ any) bool {
	return hasRole(p, role.Patient)
}

func (doctorPolicy) ViewAsDoctor(p auth.Principal, target any) bool {
	return hasRole(p, role.Doctor) && (target == nil || isSubject(p, target))
}

func (doctorPolicy) Create(p auth.Principal) bool { return isAdmin(p) }

func (doctorPolicy) Update(p auth.Principal, _ any) bool { return isAdmin(p) }

func (doctorPolicy) Delete(p auth.Principal, _ any) bool { return isAdmin(p) }

type nursePolicy struct{}

func (nursePolicy) ViewAny(p auth.Principal) bool { return isAdmin(p) }

func (nursePolicy) View(p auth.Principal, target any) bool {
	return isAdmin(p) || isSubject(p, target)
}

func (nursePolicy) ViewAsPatient(p auth.Principal, _ any) bool {
	return hasRole(p, role.Patient)
}

// A doctor sees the nurses they supervise.
func (nursePolicy) ViewAsDoctor(p auth.Principal, target any) bool {
	if !hasRole(p, role.Doctor) {
		return false
	}
	if target == nil {
		return true
	}
	s, ok := target.(Supervised)
	return ok && s.SupervisorID() == p.ID
}

func (nursePolicy) Create(p auth.Principal) bool { return isAdmin(p) }

func (nursePolicy) Update(p auth.Principal, _ any) bool { return isAdmin(p) }

func (nursePolicy) Delete(p auth.Principal, _ any) bool { return isAdmin(p) }

type patientPolicy struct{}

func (patientPolicy) ViewAny(p auth.Principal) bool { return isAdmin(p) }

func (patientPolicy) View(p auth.Principal, target any) bool {
	return isAdmin(p) || isSubject(p, target)
}

func (patientPolicy) ViewAsPatient(p auth.Principal, target any) bool {
	return hasRole(p, role.Patient) && (target == nil || isSubject(p, target))
}

func (patientPolicy) ViewAsDoctor(p auth.Principal, _ any) bool {
	return hasRole(p, role.Doctor)
}

// Registration is open, including to anonymous callers.
func (patientPolicy) Create(auth.Principal) bool { return true }

func (patientPolicy) Update(p auth.Principal, _ any) bool { return isAdmin(p) }

func (patientPolicy) Delete(p auth.Principal, _ any) bool { return isAdmin(p) }

// Confirm lets a registered but unconfirmed account confirm itself. Front
// desk staff confirm accounts on the patient's behalf.
func (patientPolicy) Confirm(p auth.Principal, target any) bool {
	if isAdmin(p) {
		return true
	}
	if !p.Authenticated() || p.Role != role.None {
		return false
	}
	return target == nil || isSubject(p, target)
}

type clinicPolicy struct{}

func (clinicPolicy) ViewAny(p auth.Principal) bool { return isAdmin(p) }

func (clinicPolicy) View(p auth.Principal, target any) bool {
	if isAdmin(p) {
		return true
	}
	o, ok := target.(Owned)
	return ok && p.Authenticated() && o.OwnerID() == p.ID
}

func (clinicPolicy) ViewAsPatient(p auth.Principal, _ any) bool {
	return hasRole(p, role.Patient)
}

func (clinicPolicy) ViewAsDoctor(p auth.Principal, target any) bool {
	if !hasRole(p, role.Doctor) {
		return false
	}
	if target == nil {
		return true
	}
	o, ok := target.(Owned)
	return ok && o.OwnerID() == p.ID
}

func (clinicPolicy) Create(p auth.Principal) bool { return isAdmin(p) }

func (clinicPolicy) Update(p auth.Principal, _ any) bool { return isAdmin(p) }

func (clinicPolicy) Delete(p auth.Principal, _ any) bool { return isAdmin(p) }

type departmentPolicy struct{}

func (departmentPolicy) ViewAny(p auth.Principal) bool { return isAdmin(p) }

func (departmentPolicy) View(p auth.Principal, _ any) bool { return isAdmin(p) }

func (departmentPolicy) ViewAsPatient(p auth.Principal, _ any) bool {
	return hasRole(p, role.Patient)
}

func (departmentPolicy) ViewAsDoctor(p auth.Principal, _ any) bool {
	return hasRole(p, role.Doctor, role.Nurse)
}

func (departmentPolicy) Create(p auth.Principal) bool { return isAdmin(p) }

func (departmentPolicy) Update(p auth.Principal, _ any) bool { return isAdmin(p) }

func (departmentPolicy) Delete(p auth.Principal, _ any) bool { return isAdmin(p) }
