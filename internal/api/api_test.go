package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/hospital-management/internal/appointment"
	"github.com/hackgods/hospital-management/internal/auth"
	"github.com/hackgods/hospital-management/internal/hospital"
	"github.com/hackgods/hospital-management/internal/policy"
	redisclient "github.com/hackgods/hospital-management/internal/redis"
	"github.com/hackgods/hospital-management/internal/role"
	"github.com/hackgods/hospital-management/internal/views"
)

const testPassword = "correct-horse"

type testAPI struct {
	t       *testing.T
	store   *hospital.MemStore
	tokens  *auth.TokenIssuer
	handler http.Handler

	admin, doctor, patient, nurse *hospital.User
	dept                          *hospital.Department
	clinic                        *hospital.Clinic
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	store := hospital.NewMemStore()

	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)

	dept := &hospital.Department{Name: "Cardiology"}
	require.NoError(t, store.CreateDepartment(ctx, dept))

	admin := &hospital.User{FirstName: "Ada", LastName: "Admin", Email: "admin@example.com", PasswordHash: hash, Role: role.Admin}
	require.NoError(t, store.CreateUser(ctx, admin))

	doc := &hospital.Doctor{
		DepartmentID:   &dept.ID,
		Specialization: "cardiology",
		Rate:           hospital.RateGood,
		User: &hospital.User{
			FirstName: "Dan", LastName: "Doctor", Email: "doctor@example.com",
			PhoneNumber: "555-0100", Address: "1 Main St", PasswordHash: hash, Role: role.Doctor,
		},
	}
	require.NoError(t, store.CreateDoctor(ctx, doc))

	patient := &hospital.User{FirstName: "Pia", LastName: "Patient", Email: "patient@example.com", PasswordHash: hash, Role: role.Patient}
	require.NoError(t, store.CreateUser(ctx, patient))

	nurse := &hospital.Nurse{
		DepartmentID: dept.ID,
		DoctorID:     doc.UserID,
		Rate:         hospital.RateMed,
		User:         &hospital.User{FirstName: "Nia", LastName: "Nurse", Email: "nurse@example.com", PasswordHash: hash, Role: role.Nurse},
	}
	require.NoError(t, store.CreateNurse(ctx, nurse))

	clinic := &hospital.Clinic{Type: hospital.ClinicInternal, DoctorID: doc.UserID, DepartmentID: &dept.ID, Code: "C-1"}
	require.NoError(t, store.CreateClinic(ctx, clinic))

	authz := policy.NewEngine()
	tokens := auth.NewTokenIssuer("test-secret", "hospital-test", time.Hour)
	svc := appointment.NewService(store, redisclient.NewLocalLocker(), authz, zerolog.Nop(), 0)

	handler := NewRouter(RouterConfig{
		Store:    store,
		Service:  svc,
		Authz:    authz,
		Tokens:   tokens,
		Views:    views.New("http://localhost/", "http://localhost/storage/"),
		Logger:   zerolog.Nop(),
		PageSize: 5,
	})

	return &testAPI{
		t:       t,
		store:   store,
		tokens:  tokens,
		handler: handler,
		admin:   admin,
		doctor:  doc.User,
		patient: patient,
		nurse:   nurse.User,
		dept:    dept,
		clinic:  clinic,
	}
}

func (a *testAPI) tokenFor(u *hospital.User) string {
	a.t.Helper()
	token, _, err := a.tokens.Issue(auth.Principal{ID: u.ID, Role: u.Role})
	require.NoError(a.t, err)
	return token
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func pageData(t *testing.T, rec *httptest.ResponseRecorder) []any {
	t.Helper()
	data, ok := decodeBody(t, rec)["data"].([]any)
	require.True(t, ok, rec.Body.String())
	return data
}

func futureSlot(days int) string {
	return time.Now().UTC().Add(time.Duration(days) * 24 * time.Hour).Truncate(time.Hour).Format(hospital.DateTimeLayout)
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func TestLogin(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "doctor@example.com", Password: testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "doctor", body["role"])
	assert.Equal(t, "Bearer", body["token_type"])

	p, err := a.tokens.Parse(body["access_token"].(string))
	require.NoError(t, err)
	assert.Equal(t, a.doctor.ID, p.ID)

	rec = a.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "doctor@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "nobody@example.com", Password: testPassword})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterAndConfirmPrecheck(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodPost, "/api/patients", "", UserRequest{
		FirstName: "New", LastName: "Comer", Email: "new@example.com", Password: testPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "new@example.com", Password: testPassword})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decodeBody(t, rec)
	assert.Equal(t, "unregistered", login["role"])
	token := login["access_token"].(string)

	// an unconfirmed account has no patient access yet
	rec = a.do(http.MethodGet, "/api/appointments/me", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodGet, "/api/patients/prechecks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["verified"])

	rec = a.do(http.MethodPost, "/api/patients/prechecks", token, PrecheckRequest{Token: "0000000000"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(http.MethodPost, "/api/patients/prechecks", token, PrecheckRequest{Token: auth.VerifyToken("new@example.com")})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "patient", data["role"])
	confirmed := data["access_token"].(string)

	rec = a.do(http.MethodGet, "/api/appointments/me", confirmed, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodPost, "/api/patients/prechecks", confirmed, PrecheckRequest{Token: auth.VerifyToken("new@example.com")})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestFrontDeskConfirmsPrecheck(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodPost, "/api/patients", "", UserRequest{
		FirstName: "Walk", LastName: "In", Email: "walkin@example.com", Password: testPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	userID := int64(decodeBody(t, rec)["data"].(map[string]any)["id"].(float64))

	rec = a.do(http.MethodGet, "/api/patients/prechecks", a.tokenFor(a.admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pageData(t, rec), 1)

	rec = a.do(http.MethodPost, "/api/patients/prechecks", a.tokenFor(a.admin), PrecheckRequest{
		UserID: userID,
		Token:  auth.VerifyToken("walkin@example.com"),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	u, err := a.store.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, role.Patient, u.Role)
	assert.NotNil(t, u.EmailVerifiedAt)
}

func TestErrorMapping(t *testing.T) {
	a := newTestAPI(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		slug   string
	}{
		{"no credentials", http.MethodGet, "/api/doctors", "", nil, http.StatusUnauthorized, "unauthorized"},
		{"garbage token", http.MethodGet, "/api/doctors", "not-a-jwt", nil, http.StatusUnauthorized, "unauthorized"},
		{"missing doctor", http.MethodGet, "/api/doctors/999", a.tokenFor(a.admin), nil, http.StatusNotFound, "not_found"},
		{"malformed id", http.MethodGet, "/api/doctors/abc", a.tokenFor(a.admin), nil, http.StatusNotFound, "not_found"},
		{"patient lists patients", http.MethodGet, "/api/patients", a.tokenFor(a.patient), nil, http.StatusForbidden, "access_denied"},
		{"missing appointment before access check", http.MethodGet, "/api/appointments/999", a.tokenFor(a.nurse), nil, http.StatusNotFound, "not_found"},
		{"invalid department", http.MethodPost, "/api/departments", a.tokenFor(a.admin), map[string]any{}, http.StatusUnprocessableEntity, "validation_failed"},
		{"broken json", http.MethodPost, "/api/departments", a.tokenFor(a.admin), "{", http.StatusBadRequest, "invalid_request_body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(tt.method, tt.path, tt.token, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.slug, decodeBody(t, rec)["error"])
		})
	}
}

func TestValidationDetails(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodPost, "/api/doctors", a.tokenFor(a.admin), map[string]any{
		"first_name": "No",
		"email":      "not-an-email",
		"password":   "short",
		"rate":       "excellent",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	details := decodeBody(t, rec)["details"].(map[string]any)
	for _, field := range []string{"last_name", "email", "password", "rate", "specialization"} {
		assert.Contains(t, details, field)
	}
}

func TestDuplicateEmail(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodPost, "/api/patients", "", UserRequest{
		FirstName: "Dup", LastName: "Licate", Email: "patient@example.com", Password: testPassword,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["details"], "email")
}

func TestAppointmentLifecycle(t *testing.T) {
	a := newTestAPI(t)
	patientToken := a.tokenFor(a.patient)
	doctorToken := a.tokenFor(a.doctor)
	visit, followUp := futureSlot(3), futureSlot(10)

	rec := a.do(http.MethodPost, "/api/appointments", patientToken, map[string]any{
		"clinic_id": a.clinic.ID,
		"date":      visit,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody(t, rec)
	assert.Equal(t, "WAITED", created["status"])
	assert.NotContains(t, created["doctor"], "email")
	apptID := int64(created["id"].(float64))

	// too close to the booked visit
	rec = a.do(http.MethodPost, "/api/appointments", patientToken, map[string]any{
		"clinic_id": a.clinic.ID,
		"date":      visit[:14] + "30:00",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	submit := map[string]any{
		"status":    "DELAYED",
		"next_date": followUp,
		"routine_test": map[string]any{
			"breathing_rate":   16,
			"body_temperature": 37,
			"pulse_rate":       72,
			"prescription":     "rest",
		},
	}

	rec = a.do(http.MethodPut, "/api/appointments/me/patients/"+itoa(apptID), patientToken, submit)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodPut, "/api/appointments/me/patients/"+itoa(apptID), doctorToken, submit)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "DELAYED", decodeBody(t, rec)["status"])

	rec = a.do(http.MethodGet, "/api/appointments/me/patients", doctorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pageData(t, rec), 2)

	rec = a.do(http.MethodGet, "/api/tests/me/patients?patient_id="+itoa(a.patient.ID), doctorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tests := pageData(t, rec)
	require.Len(t, tests, 1)
	assert.EqualValues(t, 72, tests[0].(map[string]any)["pulse_rate"])

	rec = a.do(http.MethodGet, "/api/tests/me", patientToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pageData(t, rec), 1)

	// the follow-up visit now blocks its neighbourhood
	submit["next_date"] = followUp[:14] + "45:00"
	rec = a.do(http.MethodPut, "/api/appointments/me/patients/"+itoa(apptID), doctorToken, submit)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(http.MethodGet, "/api/appointments/me/"+itoa(apptID), patientToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DELAYED", decodeBody(t, rec)["status"])
}

func TestSubmitRejectsUnknownStatus(t *testing.T) {
	a := newTestAPI(t)
	doctorToken := a.tokenFor(a.doctor)

	rec := a.do(http.MethodPost, "/api/appointments", a.tokenFor(a.patient), map[string]any{
		"clinic_id": a.clinic.ID,
		"date":      futureSlot(3),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	path := "/api/appointments/me/patients/" + itoa(int64(decodeBody(t, rec)["id"].(float64)))

	for _, status := range []any{"FINISHED", 42, nil} {
		rec = a.do(http.MethodPut, path, doctorToken, map[string]any{
			"status":       status,
			"next_date":    futureSlot(10),
			"routine_test": map[string]any{"breathing_rate": 16, "body_temperature": 37, "pulse_rate": 72},
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		body := decodeBody(t, rec)
		assert.Equal(t, "validation_failed", body["error"])
		assert.Contains(t, body["details"], "status")
	}

	// numeric codes are still accepted
	rec = a.do(http.MethodPut, path, doctorToken, map[string]any{
		"status":       1,
		"next_date":    futureSlot(10),
		"routine_test": map[string]any{"breathing_rate": 16, "body_temperature": 37, "pulse_rate": 72},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CANCELED", decodeBody(t, rec)["status"])
}

func TestSubmitMissingAppointmentIsNotFound(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodPut, "/api/appointments/me/patients/999", a.tokenFor(a.doctor), map[string]any{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNurseCannotViewAppointment(t *testing.T) {
	a := newTestAPI(t)
	appt := &hospital.Appointment{
		DoctorID:  a.doctor.ID,
		ClinicID:  a.clinic.ID,
		PatientID: a.patient.ID,
		Date:      time.Now().Add(48 * time.Hour),
		Status:    hospital.StatusWaited,
	}
	require.NoError(t, a.store.CreateAppointment(context.Background(), appt))

	rec := a.do(http.MethodGet, "/api/appointments/"+itoa(appt.ID), a.tokenFor(a.nurse), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodGet, "/api/appointments/"+itoa(appt.ID), a.tokenFor(a.admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["patient"], "email")
}

func TestDoctorFormatsByCaller(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodGet, "/api/doctors", a.tokenFor(a.admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	adminView := pageData(t, rec)[0].(map[string]any)
	assert.Equal(t, "doctor@example.com", adminView["email"])
	assert.Equal(t, "555-0100", adminView["phone_number"])

	rec = a.do(http.MethodGet, "/api/doctors", a.tokenFor(a.patient), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	patientView := pageData(t, rec)[0].(map[string]any)
	assert.Equal(t, "Dan", patientView["first_name"])
	assert.NotContains(t, patientView, "email")
	assert.NotContains(t, patientView, "phone_number")
	assert.NotContains(t, patientView, "address")

	rec = a.do(http.MethodGet, "/api/doctors/me", a.tokenFor(a.doctor), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	self := decodeBody(t, rec)
	assert.Equal(t, "doctor@example.com", self["email"])
	assert.Equal(t, "Cardiology", self["department"].(map[string]any)["department_name"])

	rec = a.do(http.MethodGet, "/api/doctors", a.tokenFor(a.nurse), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDepartmentStaffing(t *testing.T) {
	a := newTestAPI(t)
	adminToken := a.tokenFor(a.admin)
	base := "/api/departments/" + itoa(a.dept.ID)

	rec := a.do(http.MethodPost, base+"/doctors", adminToken, map[string]any{
		"first_name":     "Second",
		"last_name":      "Doctor",
		"email":          "second@example.com",
		"password":       testPassword,
		"specialization": "surgery",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	newDoc := decodeBody(t, rec)
	assert.Equal(t, "med", newDoc["rate"])
	assert.Equal(t, "Cardiology", newDoc["department"].(map[string]any)["department_name"])

	rec = a.do(http.MethodPost, base+"/nurses", adminToken, map[string]any{
		"first_name": "Second",
		"last_name":  "Nurse",
		"email":      "second.nurse@example.com",
		"password":   testPassword,
		"doctor_id":  999,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["details"], "doctor_id")

	rec = a.do(http.MethodPost, base+"/clinics", adminToken, map[string]any{
		"doctor_id":   a.doctor.ID,
		"clinic_code": "C-2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "C-2", decodeBody(t, rec)["clinic_code"])

	rec = a.do(http.MethodGet, base+"/clinics", a.tokenFor(a.patient), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pageData(t, rec), 2)

	rec = a.do(http.MethodGet, base+"/doctors", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pageData(t, rec), 2)

	rec = a.do(http.MethodDelete, base, adminToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestExternalClinics(t *testing.T) {
	a := newTestAPI(t)
	adminToken := a.tokenFor(a.admin)

	rec := a.do(http.MethodPost, "/api/clinics", adminToken, map[string]any{"doctor_id": a.doctor.ID})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(http.MethodPost, "/api/clinics", adminToken, map[string]any{
		"doctor_id": a.doctor.ID,
		"latitude":  30.04,
		"longitude": 31.23,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	external := decodeBody(t, rec)
	assert.EqualValues(t, 31.23, external["clinic_longitude"])
	extID := int64(external["id"].(float64))

	rec = a.do(http.MethodGet, "/api/clinics/external/"+itoa(extID), a.tokenFor(a.patient), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// the id exists but names a clinic of the other type
	rec = a.do(http.MethodGet, "/api/clinics/internal/"+itoa(extID), a.tokenFor(a.patient), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodGet, "/api/clinics/external", a.tokenFor(a.patient), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pageData(t, rec), 1)
}

func TestPaging(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	for _, name := range []string{"Neurology", "Oncology", "Pediatrics"} {
		require.NoError(t, a.store.CreateDepartment(ctx, &hospital.Department{Name: name}))
	}

	rec := a.do(http.MethodGet, "/api/departments?per_page=3&page=2", a.tokenFor(a.admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 4, body["total"])
	assert.EqualValues(t, 2, body["last_page"])
	assert.Len(t, body["data"], 1)
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = a.do(http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	deps := decodeBody(t, rec)["dependencies"].(map[string]any)
	assert.Equal(t, "disabled", deps["postgres"])
	assert.Equal(t, "disabled", deps["redis"])
}
