package appointments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raheemullah8/hms-portal/internal/apicache"
	"github.com/Raheemullah8/hms-portal/internal/transport"
	"github.com/Raheemullah8/hms-portal/pkg/logging"
)

type fakeBackend struct {
	mu      sync.Mutex
	hits    map[string]int
	status  map[string]Status
	created []CreateRequest
	keys    []string
}

func (f *fakeBackend) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func (f *fakeBackend) appointmentJSON(id string) string {
	return fmt.Sprintf(`{"_id":%q,
		"patientId":{"_id":"p1","userId":{"_id":"u1","name":"Amna","email":"amna@hms.test"}},
		"doctorId":{"_id":"d1","specialization":"Cardiology","userId":{"_id":"u2","name":"Dr. Sara"}},
		"appointmentDate":"2030-01-07T00:00:00.000Z","timeSlot":"09:30 AM","reason":"checkup","status":%q}`,
		id, f.status[id])
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[r.Method+" "+r.URL.Path]++

	path := strings.TrimPrefix(r.URL.Path, "/api/v1/appointments")
	switch {
	case strings.HasPrefix(path, "/available-slots/"):
		if r.URL.Query().Get("date") == "" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"success":false,"message":"Date is required"}`)
			return
		}
		fmt.Fprint(w, `{"success":true,"data":{"availableSlots":["09:00 AM","09:30 AM"]}}`)
	case r.Method == http.MethodPost && path == "/":
		var body CreateRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.created = append(f.created, body)
		f.keys = append(f.keys, r.Header.Get(apicache.IdempotencyHeader))
		f.status["a2"] = StatusScheduled
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"success":true,"message":"Appointment booked","data":{"appointment":%s}}`, f.appointmentJSON("a2"))
	case path == "/my-appointments" || path == "/doctor/my-appointments" || path == "/":
		fmt.Fprintf(w, `{"success":true,"data":{"appointments":[%s]}}`, f.appointmentJSON("a1"))
	case r.Method == http.MethodPut && strings.HasSuffix(path, "/cancel"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/"), "/cancel")
		f.status[id] = StatusCancelled
		fmt.Fprintf(w, `{"success":true,"data":{"appointment":%s}}`, f.appointmentJSON(id))
	case r.Method == http.MethodPut && strings.HasSuffix(path, "/status"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/"), "/status")
		var body StatusData
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.status[id] = body.Status
		fmt.Fprintf(w, `{"success":true,"data":{"appointment":%s}}`, f.appointmentJSON(id))
	case r.Method == http.MethodGet:
		id := strings.TrimPrefix(path, "/")
		if _, ok := f.status[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"success":false,"message":"Appointment not found"}`)
			return
		}
		fmt.Fprintf(w, `{"success":true,"data":{"appointment":%s}}`, f.appointmentJSON(id))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestAPI(t *testing.T) (*API, *fakeBackend) {
	t.Helper()
	fake := &fakeBackend{hits: map[string]int{}, status: map[string]Status{"a1": StatusScheduled, "a3": StatusConfirmed}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	base := transport.New(srv.URL+"/api/v1", transport.WithLogger(logging.Discard()))
	return New(base, apicache.Options{Logger: logging.Discard()}), fake
}

func waitIdle(t *testing.T, api *apicache.API) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, api.WaitIdle(ctx))
}

func TestListDecodesPopulatedParties(t *testing.T) {
	api, _ := newTestAPI(t)
	res := api.Mine(context.Background())
	require.True(t, res.IsSuccess(), "%v", res.Error)
	require.Len(t, res.Data.Data.Appointments, 1)

	appt := res.Data.Data.Appointments[0]
	assert.Equal(t, "Amna", appt.Patient.DisplayName())
	assert.Equal(t, "Dr. Sara", appt.Doctor.DisplayName())
	assert.Equal(t, "Cardiology", appt.Doctor.Specialization)
	assert.Equal(t, "2030-01-07", appt.Day())
	assert.Equal(t, StatusScheduled, appt.Status)
	assert.True(t, appt.Status.Open())
}

func TestAvailableSlotsSendsDateAndProvidesNoTags(t *testing.T) {
	api, fake := newTestAPI(t)
	ctx := context.Background()

	res := api.GetAvailableSlots(ctx, "d1", "2030-01-07")
	require.True(t, res.IsSuccess())
	assert.Equal(t, []string{"09:00 AM", "09:30 AM"}, res.Data.Data.AvailableSlots)

	missing := api.GetAvailableSlots(ctx, "d1", "")
	require.True(t, missing.IsError())
	assert.Equal(t, "Date is required", missing.Error.Message)

	require.True(t, api.Book(ctx, CreateRequest{DoctorID: "d1", AppointmentDate: "2030-01-07", TimeSlot: "09:00 AM", Reason: "flu"}).IsSuccess())
	waitIdle(t, api.API)

	api.GetAvailableSlots(ctx, "d1", "2030-01-07")
	assert.Equal(t, 2, fake.count("GET /api/v1/appointments/available-slots/d1"), "cached slots survive a booking")
}

func TestCreateInvalidatesPatientAndDoctorListsOnly(t *testing.T) {
	api, fake := newTestAPI(t)
	ctx := context.Background()

	mine := api.PatientAppointments.Subscribe(ctx, struct{}{})
	defer mine.Unsubscribe()
	doctor := api.DoctorAppointments.Subscribe(ctx, struct{}{})
	defer doctor.Unsubscribe()
	all := api.All.Subscribe(ctx, struct{}{})
	defer all.Unsubscribe()

	res := api.Book(ctx, CreateRequest{DoctorID: " d1 ", AppointmentDate: "2030-01-07", TimeSlot: "09:00 AM", Reason: " flu "})
	require.True(t, res.IsSuccess(), "%v", res.Error)
	assert.Equal(t, "Appointment booked", res.Data.Message)
	waitIdle(t, api.API)

	assert.Equal(t, 2, fake.count("GET /api/v1/appointments/my-appointments"))
	assert.Equal(t, 2, fake.count("GET /api/v1/appointments/doctor/my-appointments"))
	assert.Equal(t, 1, fake.count("GET /api/v1/appointments/"))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.created, 1)
	assert.Equal(t, CreateRequest{DoctorID: "d1", AppointmentDate: "2030-01-07", TimeSlot: "09:00 AM", Reason: "flu"}, fake.created[0])
	assert.NotEmpty(t, fake.keys[0])
}

func TestBookValidatesLocally(t *testing.T) {
	api, fake := newTestAPI(t)
	res := api.Book(context.Background(), CreateRequest{DoctorID: "d1", AppointmentDate: "07/01/2030", TimeSlot: "09:00 AM"})
	require.True(t, res.IsError())
	assert.Equal(t, transport.KindValidation, res.Error.Kind)
	assert.Equal(t, "Date must be YYYY-MM-DD", res.Error.Fields["appointmentDate"])
	assert.Contains(t, res.Error.Fields, "reason")
	assert.Zero(t, fake.count("POST /api/v1/appointments/"))
}

func TestCancelInvalidatesThatAppointment(t *testing.T) {
	api, fake := newTestAPI(t)
	ctx := context.Background()

	a1 := api.ByID.Subscribe(ctx, "a1")
	defer a1.Unsubscribe()
	a3 := api.ByID.Subscribe(ctx, "a3")
	defer a3.Unsubscribe()
	all := api.All.Subscribe(ctx, struct{}{})
	defer all.Unsubscribe()

	require.True(t, api.CancelAppointment(ctx, "a1").IsSuccess())
	waitIdle(t, api.API)

	assert.Equal(t, 2, fake.count("GET /api/v1/appointments/a1"))
	assert.Equal(t, 1, fake.count("GET /api/v1/appointments/a3"))
	assert.Equal(t, 1, fake.count("GET /api/v1/appointments/"), "cancel leaves the admin list alone")
	assert.Equal(t, StatusCancelled, a1.Current().Data.Data.Appointment.Status)
}

func TestStatusUpdateInvalidatesEveryList(t *testing.T) {
	api, fake := newTestAPI(t)
	ctx := context.Background()

	a1 := api.ByID.Subscribe(ctx, "a1")
	defer a1.Unsubscribe()
	all := api.All.Subscribe(ctx, struct{}{})
	defer all.Unsubscribe()
	mine := api.DoctorAppointments.Subscribe(ctx, struct{}{})
	defer mine.Unsubscribe()

	res := api.SetStatus(ctx, "a1", StatusConfirmed, "see you")
	require.True(t, res.IsSuccess(), "%v", res.Error)
	waitIdle(t, api.API)

	assert.Equal(t, 2, fake.count("GET /api/v1/appointments/a1"))
	assert.Equal(t, 2, fake.count("GET /api/v1/appointments/"))
	assert.Equal(t, 2, fake.count("GET /api/v1/appointments/doctor/my-appointments"))
	assert.Equal(t, StatusConfirmed, a1.Current().Data.Data.Appointment.Status)
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	api, fake := newTestAPI(t)
	res := api.SetStatus(context.Background(), "a1", "postponed", "")
	require.True(t, res.IsError())
	assert.Equal(t, "Unknown appointment status", res.Error.Message)
	assert.Zero(t, fake.count("PUT /api/v1/appointments/a1/status"))
}

func TestGetUnknownAppointment(t *testing.T) {
	api, _ := newTestAPI(t)
	res := api.Get(context.Background(), "zzz")
	require.True(t, res.IsError())
	assert.True(t, transport.IsStatus(res.Error, http.StatusNotFound))
	assert.Equal(t, "Appointment not found", transport.MessageOr(res.Error, "Failed"))
}
