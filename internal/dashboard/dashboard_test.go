package dashboard

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raheemullah8/hms-portal/internal/appointments"
	"github.com/Raheemullah8/hms-portal/internal/doctors"
	"github.com/Raheemullah8/hms-portal/internal/models"
	"github.com/Raheemullah8/hms-portal/internal/patients"
	"github.com/Raheemullah8/hms-portal/internal/records"
)

var now = time.Date(2030, 1, 7, 15, 0, 0, 0, time.UTC)

func boolPtr(b bool) *bool { return &b }

func party(id, name string) models.Party {
	return models.Party{ID: id, User: &models.UserProfile{Name: name}}
}

func appt(id string, status appointments.Status, day int, slot string, created time.Time) appointments.Appointment {
	return appointments.Appointment{
		ID:              id,
		Patient:         party("p-"+id, "Patient "+id),
		Doctor:          party("d1", "Dr. Sara"),
		AppointmentDate: time.Date(2030, 1, day, 0, 0, 0, 0, time.UTC),
		TimeSlot:        slot,
		Status:          status,
		CreatedAt:       created,
	}
}

func TestAdminStats(t *testing.T) {
	docs := []doctors.Doctor{
		{ID: "d1", User: models.UserRef{UserProfile: models.UserProfile{IsActive: boolPtr(true)}}},
		{ID: "d2", User: models.UserRef{UserProfile: models.UserProfile{IsActive: boolPtr(false)}}},
		{ID: "d3"},
	}
	pats := []patients.Patient{
		{ID: "p1", CreatedAt: now.AddDate(0, 0, -2)},
		{ID: "p2", CreatedAt: now.AddDate(0, 0, -30)},
	}
	var appts []appointments.Appointment
	for i := 0; i < 12; i++ {
		status := appointments.StatusScheduled
		if i%3 == 0 {
			status = appointments.StatusCompleted
		}
		appts = append(appts, appt(fmt.Sprintf("a%02d", i), status, 7+i%2, "09:00 AM", now.Add(-time.Duration(i+1)*time.Hour)))
	}
	appts[11].Patient = models.Party{ID: "bare"}
	original := append([]appointments.Appointment(nil), appts...)

	got := AdminStats(docs, pats, appts, now)
	assert.Equal(t, 3, got.TotalDoctors)
	assert.Equal(t, 1, got.ActiveDoctors, "a missing flag is not active")
	assert.Equal(t, 1, got.NewPatientsThisWeek)
	assert.Equal(t, 6, got.TodayAppointments)
	assert.Equal(t, StatusCounts{Scheduled: 8, Completed: 4}, got.Statuses)
	assert.Equal(t, 33, got.CompletionRate)

	require.Len(t, got.RecentActivities, recentLimit)
	assert.Equal(t, "a00", got.RecentActivities[0].ID)
	assert.Equal(t, "Appointment completed", got.RecentActivities[0].Action)
	assert.Equal(t, "Dr. Sara", got.RecentActivities[0].Doctor)
	assert.Equal(t, "60 minutes ago", got.RecentActivities[0].Time)
	assert.Equal(t, "a09", got.RecentActivities[9].ID)

	assert.Equal(t, original, appts, "input must not be reordered")
}

func TestAdminStatsEmpty(t *testing.T) {
	got := AdminStats(nil, nil, nil, now)
	assert.Zero(t, got.CompletionRate)
	assert.Empty(t, got.RecentActivities)
}

func TestActivityUnknownNames(t *testing.T) {
	a := appointments.Appointment{ID: "x", Status: appointments.StatusCancelled, CreatedAt: now}
	got := AdminStats(nil, nil, []appointments.Appointment{a}, now)
	require.Len(t, got.RecentActivities, 1)
	assert.Equal(t, "Unknown", got.RecentActivities[0].Patient)
	assert.Equal(t, "Unknown", got.RecentActivities[0].Doctor)
}

func TestDoctorStats(t *testing.T) {
	appts := []appointments.Appointment{
		appt("a1", appointments.StatusCompleted, 7, "11:00 AM", now),
		appt("a2", appointments.StatusScheduled, 7, "09:30 AM", now),
		appt("a3", appointments.StatusConfirmed, 9, "10:00 AM", now),
		appt("a4", appointments.StatusScheduled, 10, "02:00 PM", now),
		appt("a5", appointments.StatusScheduled, 8, "04:00 PM", now),
		appt("a6", appointments.StatusCancelled, 8, "09:00 AM", now),
	}
	appts[5].Patient = appts[0].Patient

	got := DoctorStats(appts, now)
	assert.Equal(t, 2, got.TodayAppointments)
	assert.Equal(t, 1, got.CompletedToday)
	assert.Equal(t, 4, got.Pending)
	assert.Equal(t, 5, got.TotalPatients)
	require.Len(t, got.TodaySchedule, 2)
	assert.Equal(t, "a2", got.TodaySchedule[0].ID)

	ids := make([]string, 0, len(got.Upcoming))
	for _, a := range got.Upcoming {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a5", "a4"}, ids, "today's midnight has passed and confirmed is not scheduled")
}

func TestPatientStats(t *testing.T) {
	appts := []appointments.Appointment{
		appt("a1", appointments.StatusScheduled, 9, "09:00 AM", now),
		appt("a2", appointments.StatusConfirmed, 7, "04:00 PM", now),
		appt("a3", appointments.StatusScheduled, 6, "09:00 AM", now),
		appt("a4", appointments.StatusCancelled, 10, "09:00 AM", now),
	}
	recs := []records.Record{{DoctorName: "Dr. Sara"}, {DoctorName: "Dr. Sara"}, {DoctorName: "Dr. Omar"}}

	got := PatientStats(appts, recs, now)
	require.Len(t, got.Upcoming, 2)
	assert.Equal(t, "a2", got.Upcoming[0].ID)
	assert.Equal(t, "a1", got.Upcoming[1].ID)
	assert.Equal(t, 3, got.RecordCount)
	assert.Equal(t, 2, got.Doctors)
}

func TestTimeAgo(t *testing.T) {
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "30 seconds ago"},
		{60 * time.Second, "60 seconds ago"},
		{90 * time.Second, "1 minutes ago"},
		{2 * time.Hour, "2 hours ago"},
		{36 * time.Hour, "1 days ago"},
		{24 * time.Hour, "24 hours ago"},
		{40 * 24 * time.Hour, "1 months ago"},
		{800 * 24 * time.Hour, "2 years ago"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeAgo(now.Add(-tt.ago), now))
		})
	}
}

func TestAge(t *testing.T) {
	assert.Equal(t, 29, Age(time.Date(2000, 1, 8, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, 30, Age(time.Date(2000, 1, 7, 0, 0, 0, 0, time.UTC), now))
}
