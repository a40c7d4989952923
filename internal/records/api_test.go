package records

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

type fakeRecords struct {
	mu        sync.Mutex
	hits      map[string]int
	diagnosis map[string]string
	created   []map[string]any
}

func (f *fakeRecords) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func (f *fakeRecords) recordJSON(id string) string {
	return fmt.Sprintf(`{"_id":%q,"patientId":{"_id":"p1","userId":{"_id":"u1","name":"Amna"}},"doctorId":"d1",
		"appointmentId":{"_id":"a1","appointmentDate":"2030-01-07T00:00:00.000Z","timeSlot":"09:00 AM"},
		"doctorName":"Dr. Sara","diagnosis":%q,"symptoms":["cough"],
		"prescription":[{"medicine":"Paracetamol","dosage":"500mg","frequency":"twice daily"}],
		"createdAt":"2030-01-07T10:00:00Z"}`, id, f.diagnosis[id])
}

func (f *fakeRecords) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[r.Method+" "+r.URL.Path]++

	path := strings.TrimPrefix(r.URL.Path, "/api/v1/medcial")
	switch {
	case r.Method == http.MethodPost && path == "/":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.created = append(f.created, body)
		f.diagnosis["r2"], _ = body["diagnosis"].(string)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"success":true,"data":{"record":%s}}`, f.recordJSON("r2"))
	case path == "/doctor/my-records" || path == "/patient/my-records":
		fmt.Fprintf(w, `{"success":true,"data":{"records":[%s]}}`, f.recordJSON("r1"))
	case r.Method == http.MethodPut:
		id := strings.TrimPrefix(path, "/")
		var body UpdateRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.diagnosis[id] = body.Diagnosis
		fmt.Fprintf(w, `{"success":true,"data":{"record":%s}}`, f.recordJSON(id))
	case r.Method == http.MethodGet:
		fmt.Fprintf(w, `{"success":true,"data":{"record":%s}}`, f.recordJSON(strings.TrimPrefix(path, "/")))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestAPI(t *testing.T) (*API, *fakeRecords) {
	t.Helper()
	fake := &fakeRecords{hits: map[string]int{}, diagnosis: map[string]string{"r1": "Flu", "r3": "Migraine"}}
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

func TestRecordDecodesMixedReferences(t *testing.T) {
	api, _ := newTestAPI(t)
	res := api.ForPatient(context.Background())
	require.True(t, res.IsSuccess(), "%v", res.Error)
	require.Len(t, res.Data.Data.Records, 1)

	rec := res.Data.Data.Records[0]
	assert.Equal(t, "Amna", rec.PatientName())
	assert.Equal(t, "d1", rec.Doctor.ID)
	assert.Equal(t, "Dr. Sara", rec.DoctorDisplayName())
	assert.Equal(t, "a1", rec.Appointment.ID)
	assert.Equal(t, time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC), rec.VisitDate().UTC())
	assert.Equal(t, "Paracetamol", rec.Prescription[0].Medicine)
}

func TestAppointmentRefAcceptsBareID(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"r9","appointmentId":"a9","createdAt":"2030-02-01T08:00:00Z"}`), &rec))
	assert.Equal(t, "a9", rec.Appointment.ID)
	assert.Equal(t, 2030, rec.VisitDate().Year())
	assert.Equal(t, time.February, rec.VisitDate().Month())
}

func TestWriteNormalizesAndInvalidatesBothLists(t *testing.T) {
	api, fake := newTestAPI(t)
	ctx := context.Background()

	doctor := api.DoctorRecords.Subscribe(ctx, struct{}{})
	defer doctor.Unsubscribe()
	patient := api.PatientRecords.Subscribe(ctx, struct{}{})
	defer patient.Unsubscribe()
	r1 := api.ByID.Subscribe(ctx, "r1")
	defer r1.Unsubscribe()

	res := api.Write(ctx, CreateRequest{
		PatientID:     "p1",
		AppointmentID: "a1",
		Diagnosis:     "  Flu ",
		Symptoms:      []string{"fever", " ", ""},
		Prescription: []Prescription{
			{Medicine: "Paracetamol", Dosage: "500mg"},
			{Medicine: "Syrup"},
			{Dosage: "5ml"},
		},
		TestsRecommended: []string{""},
	})
	require.True(t, res.IsSuccess(), "%v", res.Error)
	waitIdle(t, api.API)

	assert.Equal(t, 2, fake.count("GET /api/v1/medcial/doctor/my-records"))
	assert.Equal(t, 2, fake.count("GET /api/v1/medcial/patient/my-records"))
	assert.Equal(t, 1, fake.count("GET /api/v1/medcial/r1"))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.created, 1)
	body := fake.created[0]
	assert.Equal(t, "Flu", body["diagnosis"])
	assert.Equal(t, []any{"fever"}, body["symptoms"])
	assert.Len(t, body["prescription"], 1)
	assert.Equal(t, []any{}, body["testsRecommended"])
}

func TestWriteRequiresDiagnosis(t *testing.T) {
	api, fake := newTestAPI(t)
	res := api.Write(context.Background(), CreateRequest{PatientID: "p1", AppointmentID: "a1", Diagnosis: "   "})
	require.True(t, res.IsError())
	assert.Equal(t, "Please enter diagnosis", transport.MessageOr(res.Error, "Error creating medical record"))
	assert.Zero(t, fake.count("POST /api/v1/medcial/"))
}

func TestEditInvalidatesOnlyThatRecord(t *testing.T) {
	api, fake := newTestAPI(t)
	ctx := context.Background()

	r1 := api.ByID.Subscribe(ctx, "r1")
	defer r1.Unsubscribe()
	r3 := api.ByID.Subscribe(ctx, "r3")
	defer r3.Unsubscribe()

	require.True(t, api.Edit(ctx, "r1", UpdateRequest{Diagnosis: "Bronchitis"}).IsSuccess())
	waitIdle(t, api.API)

	assert.Equal(t, 2, fake.count("GET /api/v1/medcial/r1"))
	assert.Equal(t, 1, fake.count("GET /api/v1/medcial/r3"))
	assert.Equal(t, "Bronchitis", r1.Current().Data.Data.Record.Diagnosis)
}
