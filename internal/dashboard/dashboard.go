// Package dashboard turns query results into the numbers and lists the role
// dashboards show. Nothing here mutates its input; slices are copied before
// they are sorted.
package dashboard

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/Raheemullah8/hms-portal/internal/appointments"
	"github.com/Raheemullah8/hms-portal/internal/doctors"
	"github.com/Raheemullah8/hms-portal/internal/models"
	"github.com/Raheemullah8/hms-portal/internal/patients"
	"github.com/Raheemullah8/hms-portal/internal/records"
)

const recentLimit = 10

// StatusCounts tallies appointments per status.
type StatusCounts struct {
	Scheduled int `json:"scheduled"`
	Confirmed int `json:"confirmed"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

func countStatuses(appts []appointments.Appointment) StatusCounts {
	var c StatusCounts
	for _, a := range appts {
		switch a.Status {
		case appointments.StatusScheduled:
			c.Scheduled++
		case appointments.StatusConfirmed:
			c.Confirmed++
		case appointments.StatusCompleted:
			c.Completed++
		case appointments.StatusCancelled:
			c.Cancelled++
		}
	}
	return c
}

// Activity is one line of the admin's recent activity feed.
type Activity struct {
	ID      string              `json:"id"`
	Action  string              `json:"action"`
	Patient string              `json:"patient"`
	Doctor  string              `json:"doctor"`
	Time    string              `json:"time"`
	Status  appointments.Status `json:"status"`
}

// Admin is the admin dashboard.
type Admin struct {
	TotalDoctors        int          `json:"totalDoctors"`
	TotalPatients       int          `json:"totalPatients"`
	TotalAppointments   int          `json:"totalAppointments"`
	ActiveDoctors       int          `json:"activeDoctors"`
	TodayAppointments   int          `json:"todayAppointments"`
	NewPatientsThisWeek int          `json:"newPatientsThisWeek"`
	CompletionRate      int          `json:"appointmentCompletionRate"`
	Statuses            StatusCounts `json:"statuses"`
	RecentActivities    []Activity   `json:"recentActivities"`
}

// AdminStats computes the admin dashboard as of now. "Today" is now's
// calendar day in now's location.
func AdminStats(docs []doctors.Doctor, pats []patients.Patient, appts []appointments.Appointment, now time.Time) Admin {
	out := Admin{
		TotalDoctors:      len(docs),
		TotalPatients:     len(pats),
		TotalAppointments: len(appts),
		Statuses:          countStatuses(appts),
	}
	for _, d := range docs {
		if flagged(d.User.IsActive) {
			out.ActiveDoctors++
		}
	}
	for _, a := range appts {
		if sameDay(a.AppointmentDate, now) {
			out.TodayAppointments++
		}
	}
	weekAgo := now.AddDate(0, 0, -7)
	for _, p := range pats {
		if p.CreatedAt.After(weekAgo) {
			out.NewPatientsThisWeek++
		}
	}
	if len(appts) > 0 {
		out.CompletionRate = int(math.Round(float64(out.Statuses.Completed) / float64(len(appts)) * 100))
	}

	recent := slices.Clone(appts)
	slices.SortStableFunc(recent, func(a, b appointments.Appointment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	out.RecentActivities = make([]Activity, 0, len(recent))
	for _, a := range recent {
		out.RecentActivities = append(out.RecentActivities, Activity{
			ID:      a.ID,
			Action:  "Appointment " + string(a.Status),
			Patient: nameOr(a.Patient, "Unknown"),
			Doctor:  nameOr(a.Doctor, "Unknown"),
			Time:    TimeAgo(a.CreatedAt, now),
			Status:  a.Status,
		})
	}
	return out
}

// Doctor is the doctor dashboard.
type Doctor struct {
	Statuses          StatusCounts               `json:"statuses"`
	TodayAppointments int                        `json:"todayAppointments"`
	CompletedToday    int                        `json:"completedToday"`
	Pending           int                        `json:"pendingAppointments"`
	TotalPatients     int                        `json:"totalPatients"`
	TodaySchedule     []appointments.Appointment `json:"todaySchedule"`
	Upcoming          []appointments.Appointment `json:"upcoming"`
}

// DoctorStats computes the doctor dashboard from the doctor's appointments.
func DoctorStats(appts []appointments.Appointment, now time.Time) Doctor {
	out := Doctor{Statuses: countStatuses(appts)}
	seen := map[string]bool{}
	for _, a := range appts {
		if a.Status.Open() {
			out.Pending++
		}
		if id := a.Patient.ID; id != "" && !seen[id] {
			seen[id] = true
			out.TotalPatients++
		}
		if sameDay(a.AppointmentDate, now) {
			out.TodayAppointments++
			out.TodaySchedule = append(out.TodaySchedule, a)
			if a.Status == appointments.StatusCompleted {
				out.CompletedToday++
			}
		}
		if a.Status == appointments.StatusScheduled && !a.AppointmentDate.Before(now) {
			out.Upcoming = append(out.Upcoming, a)
		}
	}
	slices.SortStableFunc(out.TodaySchedule, bySlot)
	slices.SortStableFunc(out.Upcoming, byDateThenSlot)
	return out
}

// Patient is the patient dashboard.
type Patient struct {
	Statuses    StatusCounts               `json:"statuses"`
	Upcoming    []appointments.Appointment `json:"upcoming"`
	RecordCount int                        `json:"recordCount"`
	Doctors     int                        `json:"doctorsVisited"`
}

// PatientStats computes the patient dashboard. Upcoming appointments are the
// open ones from today on.
func PatientStats(appts []appointments.Appointment, recs []records.Record, now time.Time) Patient {
	out := Patient{Statuses: countStatuses(appts), RecordCount: len(recs)}
	today := startOfDay(now)
	for _, a := range appts {
		if a.Status.Open() && !a.AppointmentDate.Before(today) {
			out.Upcoming = append(out.Upcoming, a)
		}
	}
	slices.SortStableFunc(out.Upcoming, byDateThenSlot)
	doctorsSeen := map[string]bool{}
	for _, r := range recs {
		doctorsSeen[r.DoctorDisplayName()] = true
	}
	out.Doctors = len(doctorsSeen)
	return out
}

// TimeAgo renders the gap between then and now the way the activity feed
// does. A unit is only used once more than one of it has passed.
func TimeAgo(then, now time.Time) string {
	seconds := math.Floor(now.Sub(then).Seconds())
	units := []struct {
		name string
		size float64
	}{
		{"years", 31536000},
		{"months", 2592000},
		{"days", 86400},
		{"hours", 3600},
		{"minutes", 60},
	}
	for _, u := range units {
		if n := seconds / u.size; n > 1 {
			return fmt.Sprintf("%d %s ago", int(math.Floor(n)), u.name)
		}
	}
	return fmt.Sprintf("%d seconds ago", int(seconds))
}

// Age is the whole years between dob and now.
func Age(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

func flagged(b *bool) bool { return b != nil && *b }

func nameOr(p models.Party, fallback string) string {
	if p.User != nil && p.User.Name != "" {
		return p.User.Name
	}
	return fallback
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, now time.Time) bool {
	if a.IsZero() {
		return false
	}
	ay, am, ad := a.In(now.Location()).Date()
	ny, nm, nd := now.Date()
	return ay == ny && am == nm && ad == nd
}

func slotMinutes(slot string) int {
	t, err := doctors.ParseClock(slot)
	if err != nil {
		return math.MaxInt
	}
	return t.Hour()*60 + t.Minute()
}

func bySlot(a, b appointments.Appointment) int {
	return cmp.Compare(slotMinutes(a.TimeSlot), slotMinutes(b.TimeSlot))
}

func byDateThenSlot(a, b appointments.Appointment) int {
	if c := a.AppointmentDate.Compare(b.AppointmentDate); c != 0 {
		return c
	}
	return bySlot(a, b)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
