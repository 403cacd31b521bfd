package hospital

import (
	"context"
	"errors"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hackgods/hospital-management/internal/role"
)

// MemStore is an in-process Store for local runs and tests. Transactions
// are serialized and work on a private copy of the state; on commit only the
// rows they changed are merged back, on failure the copy is dropped.
type MemStore struct {
	mu    sync.RWMutex
	txMu  sync.Mutex
	state *memState
	now   func() time.Time
}

type memState struct {
	seq          *int64
	users        map[int64]User
	tokens       map[int64]VerifyToken
	departments  map[int64]Department
	doctors      map[int64]Doctor
	nurses       map[int64]Nurse
	clinics      map[int64]Clinic
	appointments map[int64]Appointment
	tests        map[int64]RoutineTest
	events       []EventLog
}

func newMemState() *memState {
	return &memState{
		seq:          new(int64),
		users:        make(map[int64]User),
		tokens:       make(map[int64]VerifyToken),
		departments:  make(map[int64]Department),
		doctors:      make(map[int64]Doctor),
		nurses:       make(map[int64]Nurse),
		clinics:      make(map[int64]Clinic),
		appointments: make(map[int64]Appointment),
		tests:        make(map[int64]RoutineTest),
	}
}

func (st *memState) clone() *memState {
	return &memState{
		seq:          st.seq,
		users:        maps.Clone(st.users),
		tokens:       maps.Clone(st.tokens),
		departments:  maps.Clone(st.departments),
		doctors:      maps.Clone(st.doctors),
		nurses:       maps.Clone(st.nurses),
		clinics:      maps.Clone(st.clinics),
		appointments: maps.Clone(st.appointments),
		tests:        maps.Clone(st.tests),
		events:       append([]EventLog(nil), st.events...),
	}
}

// nextID draws from the sequence shared by the store and its transaction
// copies, so ids never collide across a merge. Callers hold the write lock.
func (st *memState) nextID() int64 {
	*st.seq++
	return *st.seq
}

// merge applies the changes tx made relative to base.
func (st *memState) merge(base, tx *memState) {
	mergeRows(st.users, base.users, tx.users)
	mergeRows(st.tokens, base.tokens, tx.tokens)
	mergeRows(st.departments, base.departments, tx.departments)
	mergeRows(st.doctors, base.doctors, tx.doctors)
	mergeRows(st.nurses, base.nurses, tx.nurses)
	mergeRows(st.clinics, base.clinics, tx.clinics)
	mergeRows(st.appointments, base.appointments, tx.appointments)
	mergeRows(st.tests, base.tests, tx.tests)
	st.events = append(st.events, tx.events[len(base.events):]...)
}

func mergeRows[V comparable](dst, base, tx map[int64]V) {
	for id, row := range tx {
		if old, ok := base[id]; !ok || old != row {
			dst[id] = row
		}
	}
	for id := range base {
		if _, ok := tx[id]; !ok {
			delete(dst, id)
		}
	}
}

func NewMemStore() *MemStore {
	return &MemStore{state: newMemState(), now: time.Now}
}

type memTxKey struct{}

func (s *MemStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	base := s.state.clone()
	work := base.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, memTxKey{}, work)); err != nil {
		return err
	}

	s.mu.Lock()
	s.state.merge(base, work)
	s.mu.Unlock()
	return nil
}

// stateFor returns the transaction copy carried by ctx, or the live state.
func (s *MemStore) stateFor(ctx context.Context) *memState {
	if st, ok := ctx.Value(memTxKey{}).(*memState); ok {
		return st
	}
	return s.state
}

// Events returns the recorded event log.
func (s *MemStore) Events() []EventLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]EventLog(nil), s.state.events...)
}

// hydration, callers hold at least the read lock

func (st *memState) user(id int64) *User {
	u, ok := st.users[id]
	if !ok {
		return nil
	}
	return &u
}

func (st *memState) department(id int64) *Department {
	d, ok := st.departments[id]
	if !ok {
		return nil
	}
	return &d
}

func (st *memState) doctor(id int64) *Doctor {
	d, ok := st.doctors[id]
	if !ok {
		return nil
	}
	d.User = st.user(d.UserID)
	if d.DepartmentID != nil {
		d.Department = st.department(*d.DepartmentID)
	}
	return &d
}

func (st *memState) nurse(id int64) *Nurse {
	n, ok := st.nurses[id]
	if !ok {
		return nil
	}
	n.User = st.user(n.UserID)
	n.Department = st.department(n.DepartmentID)
	n.Doctor = st.doctor(n.DoctorID)
	return &n
}

func (st *memState) clinic(id int64) *Clinic {
	c, ok := st.clinics[id]
	if !ok {
		return nil
	}
	c.Doctor = st.doctor(c.DoctorID)
	if c.DepartmentID != nil {
		c.Department = st.department(*c.DepartmentID)
	}
	return &c
}

func (st *memState) appointment(id int64) *Appointment {
	a, ok := st.appointments[id]
	if !ok {
		return nil
	}
	a.Doctor = st.doctor(a.DoctorID)
	a.Patient = st.user(a.PatientID)
	a.Clinic = st.clinic(a.ClinicID)
	return &a
}

func (st *memState) routineTest(id int64) *RoutineTest {
	t, ok := st.tests[id]
	if !ok {
		return nil
	}
	t.Doctor = st.doctor(t.DoctorID)
	t.Patient = st.user(t.PatientID)
	return &t
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// users

func (s *MemStore) GetUser(ctx context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stateFor(ctx)
	if u := st.user(id); u != nil {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (s *MemStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stateFor(ctx)
	for _, id := range sortedIDs(st.users) {
		if strings.EqualFold(st.users[id].Email, email) {
			return st.user(id), nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *MemStore) ListUsersByRole(ctx context.Context, r role.Role) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stateFor(ctx)
	var out []*User
	for _, id := range sortedIDs(st.users) {
		if st.users[id].Role == r {
			out = append(out, st.user(id))
		}
	}
	return out, nil
}

func (st *memState) emailTaken(email string, except int64) bool {
	for id, u := range st.users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (s *MemStore) CreateUser(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	return s.createUserLocked(st, u)
}

func (s *MemStore) createUserLocked(st *memState, u *User) error {
	if st.emailTaken(u.Email, 0) {
		return ErrEmailTaken
	}
	now := s.now()
	u.ID = st.nextID()
	u.CreatedAt, u.UpdatedAt = now, now
	st.users[u.ID] = *u
	return nil
}

func (s *MemStore) UpdateUser(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	return s.updateUserLocked(st, u)
}

func (s *MemStore) updateUserLocked(st *memState, u *User) error {
	current, ok := st.users[u.ID]
	if !ok {
		return ErrUserNotFound
	}
	if st.emailTaken(u.Email, u.ID) {
		return ErrEmailTaken
	}
	// role and verification only change through MarkVerified
	u.Role = current.Role
	u.EmailVerifiedAt = current.EmailVerifiedAt
	u.CreatedAt = current.CreatedAt
	u.UpdatedAt = s.now()
	st.users[u.ID] = *u
	return nil
}

func (s *MemStore) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	return s.deleteUserLocked(st, id)
}

func (s *MemStore) deleteUserLocked(st *memState, id int64) error {
	if _, ok := st.users[id]; !ok {
		return ErrUserNotFound
	}
	for _, a := range st.appointments {
		if a.PatientID == id || a.DoctorID == id {
			return ErrInUse
		}
	}
	for _, t := range st.tests {
		if t.PatientID == id || t.DoctorID == id {
			return ErrInUse
		}
	}
	delete(st.users, id)
	delete(st.tokens, id)
	return nil
}

func (s *MemStore) CreateVerifyToken(ctx context.Context, t *VerifyToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	if _, ok := st.users[t.UserID]; !ok {
		return ErrUserNotFound
	}
	t.CreatedAt = s.now()
	st.tokens[t.UserID] = *t
	return nil
}

func (s *MemStore) GetVerifyToken(ctx context.Context, userID int64) (*VerifyToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stateFor(ctx)
	t, ok := st.tokens[userID]
	if !ok {
		return nil, ErrVerifyTokenNotFound
	}
	return &t, nil
}

func (s *MemStore) MarkVerified(ctx context.Context, userID int64, r role.Role, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	t, ok := st.tokens[userID]
	if !ok {
		return ErrVerifyTokenNotFound
	}
	u, ok := st.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	t.Verified = true
	u.Role = r
	u.EmailVerifiedAt = &at
	u.UpdatedAt = s.now()
	st.tokens[userID] = t
	st.users[userID] = u
	return nil
}

// doctors and nurses

func (s *MemStore) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stateFor(ctx)
	if d := st.doctor(id); d != nil {
		return d, nil
	}
	return nil, ErrDoctorNotFound
}

func (s *MemStore) ListDoctors(ctx context.Context, f DoctorFilter) ([]*Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stateFor(ctx)
	var out []*Doctor
	for _, id := range sortedIDs(st.doctors) {
		d := st.doctors[id]
		if f.DepartmentID != 0 && (d.DepartmentID == nil || *d.DepartmentID != f.DepartmentID) {
			continue
		}
		out = append(out, st.doctor(id))
	}
	return out, nil
}

func (s *MemStore) ListDoctorsOfPatient(ctx context.Context, patientID int64) ([]*Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stateFor(ctx)
	seen := make(map[int64]bool)
	for _, a := range st.appointments {
		if a.PatientID == patientID {
			seen[a.DoctorID] = true
		}
	}
	var out []*Doctor
	for _, id := range sortedIDs(seen) {
		if d := st.doctor(id); d != nil {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *MemStore) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.User == nil {
		return errors.New("create doctor: user is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	if d.DepartmentID != nil {
		if _, ok := st.departments[*d.DepartmentID]; !ok {
			return ErrDepartmentNotFound
		}
	}
	if err := s.createUserLocked(st, d.User); err != nil {
		return err
	}
	now := s.now()
	d.UserID = d.User.ID
	d.AssignedAt, d.CreatedAt, d.UpdatedAt = now, now, now
	row := *d
	row.User, row.Department = nil, nil
	st.doctors[d.UserID] = row

	hydrated := st.doctor(d.UserID)
	d.User, d.Department = hydrated.User, hydrated.Department
	return nil
}

func (s *MemStore) UpdateDoctor(ctx context.Context, d *Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	current, ok := st.doctors[d.UserID]
	if !ok {
		return ErrDoctorNotFound
	}
	if d.DepartmentID != nil {
		if _, ok := st.departments[*d.DepartmentID]; !ok {
			return ErrDepartmentNotFound
		}
	}
	if d.User != nil {
		if err := s.updateUserLocked(st, d.User); err != nil {
			return err
		}
	}
	d.AssignedAt, d.CreatedAt = current.AssignedAt, current.CreatedAt
	d.UpdatedAt = s.now()
	row := *d
	row.User, row.Department = nil, nil
	st.doctors[d.UserID] = row
	return nil
}

func (s *MemStore) DeleteDoctor(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	if _, ok := st.doctors[id]; !ok {
		return ErrDoctorNotFound
	}
	for _, c := range st.clinics {
		if c.DoctorID == id {
			return ErrInUse
		}
	}
	for _, n := range st.nurses {
		if n.DoctorID == id {
			return ErrInUse
		}
	}
	if err := s.deleteUserLocked(st, id); err != nil {
		return err
	}
	delete(st.doctors, id)
	return nil
}

func (s *MemStore) GetNurse(ctx context.Context, id int64) (*Nurse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stateFor(ctx)
	if n := st.nurse(id); n != nil {
		return n, nil
	}
	return nil, ErrNurseNotFound
}

func (s *MemStore) ListNurses(ctx context.Context, f NurseFilter) ([]*Nurse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stateFor(ctx)
	var out []*Nurse
	for _, id := range sortedIDs(st.nurses) {
		n := st.nurses[id]
		if f.DepartmentID != 0 && n.DepartmentID != f.DepartmentID {
			continue
		}
		if f.DoctorID != 0 && n.DoctorID != f.DoctorID {
			continue
		}
		out = append(out, st.nurse(id))
	}
	return out, nil
}

func (s *MemStore) checkNurseRefs(st *memState, n *Nurse) error {
	if _, ok := st.departments[n.DepartmentID]; !ok {
		return ErrDepartmentNotFound
	}
	if _, ok := st.doctors[n.DoctorID]; !ok {
		return ErrDoctorNotFound
	}
	return nil
}

func (s *MemStore) CreateNurse(ctx context.Context, n *Nurse) error {
	if n.User == nil {
		return errors.New("create nurse: user is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	if err := s.checkNurseRefs(st, n); err != nil {
		return err
	}
	if err := s.createUserLocked(st, n.User); err != nil {
		return err
	}
	now := s.now()
	n.UserID = n.User.ID
	n.AssignedAt, n.CreatedAt, n.UpdatedAt = now, now, now
	row := *n
	row.User, row.Department, row.Doctor = nil, nil, nil
	st.nurses[n.UserID] = row

	hydrated := st.nurse(n.UserID)
	n.User, n.Department, n.Doctor = hydrated.User, hydrated.Department, hydrated.Doctor
	return nil
}

func (s *MemStore) UpdateNurse(ctx context.Context, n *Nurse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	current, ok := st.nurses[n.UserID]
	if !ok {
		return ErrNurseNotFound
	}
	if err := s.checkNurseRefs(st, n); err != nil {
		return err
	}
	if n.User != nil {
		if err := s.updateUserLocked(st, n.User); err != nil {
			return err
		}
	}
	n.AssignedAt, n.CreatedAt = current.AssignedAt, current.CreatedAt
	n.UpdatedAt = s.now()
	row := *n
	row.User, row.Department, row.Doctor = nil, nil, nil
	st.nurses[n.UserID] = row
	return nil
}

func (s *MemStore) DeleteNurse(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	if _, ok := st.nurses[id]; !ok {
		return ErrNurseNotFound
	}
	if err := s.deleteUserLocked(st, id); err != nil {
		return err
	}
	delete(st.nurses, id)
	return nil
}

// departments and clinics

func (s *MemStore) GetDepartment(ctx context.Context, id int64) (*Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stateFor(ctx)
	if d := st.department(id); d != nil {
		return d, nil
	}
	return nil, ErrDepartmentNotFound
}

func (s *MemStore) ListDepartments(ctx context.Context) ([]*Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stateFor(ctx)
	var out []*Department
	for _, id := range sortedIDs(st.departments) {
		out = append(out, st.department(id))
	}
	return out, nil
}

func (s *MemStore) CreateDepartment(ctx context.Context, d *Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	now := s.now()
	d.ID = st.nextID()
	d.CreatedAt, d.UpdatedAt = now, now
	st.departments[d.ID] = *d
	return nil
}

func (s *MemStore) UpdateDepartment(ctx context.Context, d *Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	current, ok := st.departments[d.ID]
	if !ok {
		return ErrDepartmentNotFound
	}
	d.CreatedAt = current.CreatedAt
	d.UpdatedAt = s.now()
	st.departments[d.ID] = *d
	return nil
}

func (s *MemStore) DeleteDepartment(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	if _, ok := st.departments[id]; !ok {
		return ErrDepartmentNotFound
	}
	for _, n := range st.nurses {
		if n.DepartmentID == id {
			return ErrInUse
		}
	}
	for _, c := range st.clinics {
		if c.DepartmentID != nil && *c.DepartmentID == id {
			return ErrInUse
		}
	}
	for docID, d := range st.doctors {
		if d.DepartmentID != nil && *d.DepartmentID == id {
			d.DepartmentID = nil
			st.doctors[docID] = d
		}
	}
	delete(st.departments, id)
	return nil
}

func (s *MemStore) GetClinic(ctx context.Context, id int64) (*Clinic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stateFor(ctx)
	if c := st.clinic(id); c != nil {
		return c, nil
	}
	return nil, ErrClinicNotFound
}

func (s *MemStore) ListClinics(ctx context.Context, f ClinicFilter) ([]*Clinic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stateFor(ctx)
	var out []*Clinic
	for _, id := range sortedIDs(st.clinics) {
		c := st.clinics[id]
		if f.Type != "" && c.Type != f.Type {
			continue
		}
		if f.DoctorID != 0 && c.DoctorID != f.DoctorID {
			continue
		}
		if f.DepartmentID != 0 && (c.DepartmentID == nil || *c.DepartmentID != f.DepartmentID) {
			continue
		}
		out = append(out, st.clinic(id))
	}
	return out, nil
}

func (s *MemStore) checkClinicRefs(st *memState, c *Clinic) error {
	if _, ok := st.doctors[c.DoctorID]; !ok {
		return ErrDoctorNotFound
	}
	if c.DepartmentID != nil {
		if _, ok := st.departments[*c.DepartmentID]; !ok {
			return ErrDepartmentNotFound
		}
	}
	return nil
}

func (s *MemStore) CreateClinic(ctx context.Context, c *Clinic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	if err := s.checkClinicRefs(st, c); err != nil {
		return err
	}
	now := s.now()
	c.ID = st.nextID()
	c.CreatedAt, c.UpdatedAt = now, now
	row := *c
	row.Doctor, row.Department = nil, nil
	st.clinics[c.ID] = row

	hydrated := st.clinic(c.ID)
	c.Doctor, c.Department = hydrated.Doctor, hydrated.Department
	return nil
}

func (s *MemStore) UpdateClinic(ctx context.Context, c *Clinic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	current, ok := st.clinics[c.ID]
	if !ok {
		return ErrClinicNotFound
	}
	if err := s.checkClinicRefs(st, c); err != nil {
		return err
	}
	c.Type = current.Type
	c.CreatedAt = current.CreatedAt
	c.UpdatedAt = s.now()
	row := *c
	row.Doctor, row.Department = nil, nil
	st.clinics[c.ID] = row

	hydrated := st.clinic(c.ID)
	c.Doctor, c.Department = hydrated.Doctor, hydrated.Department
	return nil
}

func (s *MemStore) DeleteClinic(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	if _, ok := st.clinics[id]; !ok {
		return ErrClinicNotFound
	}
	for _, a := range st.appointments {
		if a.ClinicID == id {
			return ErrInUse
		}
	}
	delete(st.clinics, id)
	return nil
}

// appointments and routine tests

func (s *MemStore) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stateFor(ctx)
	if a := st.appointment(id); a != nil {
		return a, nil
	}
	return nil, ErrAppointmentNotFound
}

func (s *MemStore) ListAppointments(ctx context.Context, f AppointmentFilter) ([]*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stateFor(ctx)
	var out []*Appointment
	for _, id := range sortedIDs(st.appointments) {
		a := st.appointments[id]
		switch {
		case f.DoctorID != 0 && a.DoctorID != f.DoctorID,
			f.PatientID != 0 && a.PatientID != f.PatientID,
			f.ClinicID != 0 && a.ClinicID != f.ClinicID,
			!f.From.IsZero() && a.Date.Before(f.From),
			!f.To.IsZero() && a.Date.After(f.To),
			!f.After.IsZero() && !a.Date.After(f.After):
			continue
		}
		out = append(out, st.appointment(id))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *MemStore) CreateAppointment(ctx context.Context, a *Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	if _, ok := st.doctors[a.DoctorID]; !ok {
		return ErrDoctorNotFound
	}
	if _, ok := st.clinics[a.ClinicID]; !ok {
		return ErrClinicNotFound
	}
	if _, ok := st.users[a.PatientID]; !ok {
		return ErrPatientNotFound
	}
	now := s.now()
	a.ID = st.nextID()
	a.CreatedAt, a.UpdatedAt = now, now
	row := *a
	row.Doctor, row.Patient, row.Clinic = nil, nil, nil
	st.appointments[a.ID] = row
	return nil
}

func (s *MemStore) UpdateAppointmentStatus(ctx context.Context, id int64, status Status, nextDate *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	a, ok := st.appointments[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	a.Status = status
	a.NextDate = nextDate
	a.UpdatedAt = s.now()
	st.appointments[id] = a
	return nil
}

func (s *MemStore) InsertEvent(ctx context.Context, ev EventLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	ev.ID = st.nextID()
	st.events = append(st.events, ev)
	return nil
}

func (s *MemStore) GetRoutineTest(ctx context.Context, id int64) (*RoutineTest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stateFor(ctx)
	if t := st.routineTest(id); t != nil {
		return t, nil
	}
	return nil, ErrRoutineTestNotFound
}

func (s *MemStore) ListRoutineTests(ctx context.Context, f RoutineTestFilter) ([]*RoutineTest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stateFor(ctx)
	var out []*RoutineTest
	ids := sortedIDs(st.tests)
	for i := len(ids) - 1; i >= 0; i-- {
		t := st.tests[ids[i]]
		if f.DoctorID != 0 && t.DoctorID != f.DoctorID {
			continue
		}
		if f.PatientID != 0 && t.PatientID != f.PatientID {
			continue
		}
		out = append(out, st.routineTest(ids[i]))
	}
	return out, nil
}

func (s *MemStore) CreateRoutineTest(ctx context.Context, t *RoutineTest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	if _, ok := st.doctors[t.DoctorID]; !ok {
		return ErrDoctorNotFound
	}
	if _, ok := st.users[t.PatientID]; !ok {
		return ErrPatientNotFound
	}
	now := s.now()
	t.ID = st.nextID()
	t.CreatedAt, t.UpdatedAt = now, now
	row := *t
	row.Doctor, row.Patient = nil, nil
	st.tests[t.ID] = row
	return nil
}

func (s *MemStore) UpdateRoutineTest(ctx context.Context, t *RoutineTest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(ctx)
	current, ok := st.tests[t.ID]
	if !ok {
		return ErrRoutineTestNotFound
	}
	current.Vitals = t.Vitals
	current.UpdatedAt = s.now()
	st.tests[t.ID] = current
	t.DoctorID, t.PatientID = current.DoctorID, current.PatientID
	t.CreatedAt, t.UpdatedAt = current.CreatedAt, current.UpdatedAt
	return nil
}
