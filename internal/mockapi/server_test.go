package mockapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Raheemullah8/hms-portal/internal/appointments"
	"github.com/Raheemullah8/hms-portal/internal/doctors"
	"github.com/Raheemullah8/hms-portal/internal/models"
	"github.com/Raheemullah8/hms-portal/internal/patients"
	"github.com/Raheemullah8/hms-portal/internal/records"
	"github.com/Raheemullah8/hms-portal/pkg/logging"
)

// Monday.
var clock = time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC)

func newSeededStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(WithClock(func() time.Time { return clock }), WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, Seed(s, 0, 1))
	return s
}

func newTestServer(t *testing.T) (*httptest.Server, *Store) {
	t.Helper()
	store := newSeededStore(t)
	srv := httptest.NewServer(NewServer(store, Config{JWTSecret: "test-secret", Logger: logging.Discard()}).Handler())
	t.Cleanup(srv.Close)
	return srv, store
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body any, header http.Header) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+APIPrefix+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func loginAs(t *testing.T, srv *httptest.Server, email, password string) string {
	t.Helper()
	status, out := call(t, srv, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password}, nil)
	require.Equal(t, http.StatusOK, status, "%v", out)
	return out["token"].(string)
}

func patientsAdminUpdate(active *bool) patients.AdminUpdateRequest {
	return patients.AdminUpdateRequest{IsActive: active}
}

func firstDoctorID(t *testing.T, s *Store, email string) string {
	t.Helper()
	for _, d := range s.Doctors() {
		if d.User.Email == email {
			return d.ID
		}
	}
	t.Fatalf("no doctor %s", email)
	return ""
}

func TestSlotsFollowTemplate(t *testing.T) {
	slots := Slots(doctors.AvailabilitySlot{Day: "Monday", StartTime: "09:00 AM", EndTime: "05:00 PM", IsAvailable: true})
	require.Len(t, slots, 16)
	assert.Equal(t, "09:00 AM", slots[0])
	assert.Equal(t, "04:30 PM", slots[15])
	assert.Nil(t, Slots(doctors.AvailabilitySlot{Day: "Sunday"}))
}

func TestBookRemovesSlotAndRejectsDoubleBooking(t *testing.T) {
	s := newSeededStore(t)
	patient, err := s.Authenticate(PatientEmail, PatientPassword)
	require.NoError(t, err)
	doctorID := firstDoctorID(t, s, DoctorEmail)

	before, err := s.AvailableSlots(doctorID, "2030-01-07")
	require.NoError(t, err)
	require.Contains(t, before, "10:00 AM")

	req := appointments.CreateRequest{DoctorID: doctorID, AppointmentDate: "2030-01-07", TimeSlot: "10:00 am", Reason: "Chest pain"}
	a, err := s.Book(patient.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "10:00 AM", a.TimeSlot)
	assert.Equal(t, appointments.StatusScheduled, a.Status)
	assert.Equal(t, "Dr. Sara Ahmed", a.Doctor.DisplayName())

	after, err := s.AvailableSlots(doctorID, "2030-01-07")
	require.NoError(t, err)
	assert.Len(t, after, len(before)-1)
	assert.NotContains(t, after, "10:00 AM")

	_, err = s.Book(patient.ID, req)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.Cancel(Viewer{UserID: patient.ID, Role: models.RolePatient}, a.ID)
	require.NoError(t, err)
	again, err := s.AvailableSlots(doctorID, "2030-01-07")
	require.NoError(t, err)
	assert.Contains(t, again, "10:00 AM", "cancelled slots open up again")
}

func TestBookRejections(t *testing.T) {
	s := newSeededStore(t)
	patient, err := s.Authenticate(PatientEmail, PatientPassword)
	require.NoError(t, err)
	doctorID := firstDoctorID(t, s, DoctorEmail)

	tests := []struct {
		name string
		req  appointments.CreateRequest
		want string
	}{
		{"past", appointments.CreateRequest{DoctorID: doctorID, AppointmentDate: "2030-01-06", TimeSlot: "10:00 AM", Reason: "x"}, "Cannot book an appointment in the past"},
		{"sunday", appointments.CreateRequest{DoctorID: doctorID, AppointmentDate: "2030-01-13", TimeSlot: "10:00 AM", Reason: "x"}, "Doctor is not available on this day"},
		{"off template", appointments.CreateRequest{DoctorID: doctorID, AppointmentDate: "2030-01-08", TimeSlot: "07:00 PM", Reason: "x"}, "Invalid time slot"},
		{"unknown doctor", appointments.CreateRequest{DoctorID: "nope", AppointmentDate: "2030-01-08", TimeSlot: "10:00 AM", Reason: "x"}, "Doctor not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Book(patient.ID, tt.req)
			var apiErr *Error
			require.True(t, errors.As(err, &apiErr), "%v", err)
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestLoginSetsCookieAndReturnsUser(t *testing.T) {
	srv, _ := newTestServer(t)
	body, _ := json.Marshal(map[string]string{"email": "SARA@hms.test", "password": DoctorPassword})
	resp, err := srv.Client().Post(srv.URL+APIPrefix+"/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	var out struct {
		Success bool               `json:"success"`
		User    models.UserProfile `json:"user"`
		Token   string             `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.Equal(t, models.RoleDoctor, out.User.Role)
	assert.Equal(t, cookie.Value, out.Token)
}

func TestLoginFailures(t *testing.T) {
	srv, store := newTestServer(t)
	status, out := call(t, srv, http.MethodPost, "/auth/login", "", map[string]string{"email": PatientEmail, "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid email or password", out["message"])

	patient := store.Patients()[0]
	inactive := false
	_, err := store.AdminUpdatePatient(patient.ID, patientsAdminUpdate(&inactive))
	require.NoError(t, err)
	status, out = call(t, srv, http.MethodPost, "/auth/login", "", map[string]string{"email": PatientEmail, "password": PatientPassword}, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Your account has been deactivated", out["message"])
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	srv, _ := newTestServer(t)
	body := map[string]string{"name": "Amna Again", "email": PatientEmail, "password": "secret1"}
	status, out := call(t, srv, http.MethodPost, "/auth/register", "", body, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User already exists", out["message"])
}

func TestRoleGuards(t *testing.T) {
	srv, _ := newTestServer(t)
	patient := loginAs(t, srv, PatientEmail, PatientPassword)
	doctor := loginAs(t, srv, DoctorEmail, DoctorPassword)

	status, _ := call(t, srv, http.MethodGet, "/patient/", patient, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = call(t, srv, http.MethodGet, "/doctors/profile", patient, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = call(t, srv, http.MethodGet, "/doctors/profile", doctor, nil, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, srv, http.MethodGet, "/appointments/my-appointments", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestIdempotentBookingReplays(t *testing.T) {
	srv, store := newTestServer(t)
	patient := loginAs(t, srv, PatientEmail, PatientPassword)
	body := appointments.CreateRequest{
		DoctorID:        firstDoctorID(t, store, DoctorEmail),
		AppointmentDate: "2030-01-08",
		TimeSlot:        "11:00 AM",
		Reason:          "Follow-up",
	}
	key := http.Header{"Idempotency-Key": []string{"k-1"}}

	status, first := call(t, srv, http.MethodPost, "/appointments/", patient, body, key)
	require.Equal(t, http.StatusCreated, status, "%v", first)
	status, second := call(t, srv, http.MethodPost, "/appointments/", patient, body, key)
	require.Equal(t, http.StatusCreated, status, "%v", second)
	assert.Equal(t,
		first["data"].(map[string]any)["appointment"].(map[string]any)["_id"],
		second["data"].(map[string]any)["appointment"].(map[string]any)["_id"])
	assert.Len(t, store.AllAppointments(), 1)

	status, out := call(t, srv, http.MethodPost, "/appointments/", patient, body, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "This time slot is already booked", out["message"])
}

func TestRecordMustMatchDoctorAppointment(t *testing.T) {
	s := newSeededStore(t)
	patient, err := s.Authenticate(PatientEmail, PatientPassword)
	require.NoError(t, err)
	sara, err := s.Authenticate(DoctorEmail, DoctorPassword)
	require.NoError(t, err)
	omar, err := s.Authenticate(SecondDoctor, DoctorPassword)
	require.NoError(t, err)

	a, err := s.Book(patient.ID, appointments.CreateRequest{
		DoctorID: firstDoctorID(t, s, DoctorEmail), AppointmentDate: "2030-01-09", TimeSlot: "09:30 AM", Reason: "Palpitations",
	})
	require.NoError(t, err)

	req := records.CreateRequest{PatientID: a.Patient.ID, AppointmentID: a.ID, Diagnosis: "Arrhythmia", Symptoms: []string{"palpitations", " "}}
	_, err = s.CreateRecord(omar.ID, req)
	assert.ErrorIs(t, err, ErrForbidden)

	rec, err := s.CreateRecord(sara.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Sara Ahmed", rec.DoctorName)
	assert.Equal(t, []string{"palpitations"}, rec.Symptoms)
	assert.Equal(t, a.AppointmentDate, rec.Appointment.AppointmentDate)
	assert.Equal(t, "Amna Khan", rec.PatientName())

	mine, err := s.RecordsForPatient(patient.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = s.Record(Viewer{UserID: omar.ID, Role: models.RoleDoctor}, rec.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSeedFakeIsDeterministic(t *testing.T) {
	fixed := WithClock(func() time.Time { return clock })
	a := NewStore(fixed, WithBcryptCost(bcrypt.MinCost))
	b := NewStore(fixed, WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, Seed(a, 4, 42))
	require.NoError(t, Seed(b, 4, 42))
	require.Len(t, a.Doctors(), 4)
	require.Len(t, a.Patients(), 3)
	for i, d := range a.Doctors() {
		assert.Equal(t, d.User.Name, b.Doctors()[i].User.Name)
	}
}
