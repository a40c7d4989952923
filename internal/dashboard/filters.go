package dashboard

import (
	"strings"
	"time"

	"github.com/Raheemullah8/hms-portal/internal/appointments"
	"github.com/Raheemullah8/hms-portal/internal/doctors"
	"github.com/Raheemullah8/hms-portal/internal/patients"
	"github.com/Raheemullah8/hms-portal/internal/records"
)

// All is the filter value that matches everything.
const All = "all"

// FilterAppointments keeps appointments with the given status. An empty
// status or "all" keeps everything. Search matches patient or doctor name,
// and a non-empty date (YYYY-MM-DD) must equal the appointment's UTC day.
func FilterAppointments(appts []appointments.Appointment, status, search, date string) []appointments.Appointment {
	search = strings.TrimSpace(search)
	out := make([]appointments.Appointment, 0, len(appts))
	for _, a := range appts {
		if status != "" && status != All && string(a.Status) != status {
			continue
		}
		if search != "" && !containsFold(a.Patient.DisplayName(), search) && !containsFold(a.Doctor.DisplayName(), search) {
			continue
		}
		if date != "" && a.Day() != date {
			continue
		}
		out = append(out, a)
	}
	return out
}

// FilterPatients matches name or email and the account state, one of
// all, active or inactive.
func FilterPatients(pats []patients.Patient, search, state string) []patients.Patient {
	search = strings.TrimSpace(search)
	out := make([]patients.Patient, 0, len(pats))
	for _, p := range pats {
		if search != "" && !containsFold(p.Name(), search) && !containsFold(p.Email(), search) {
			continue
		}
		active := flagged(p.User.IsActive)
		switch state {
		case "active":
			if !active {
				continue
			}
		case "inactive":
			if active {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// FilterDoctors matches name or specialization and the state, one of all,
// active, inactive or available.
func FilterDoctors(docs []doctors.Doctor, search, state string) []doctors.Doctor {
	search = strings.TrimSpace(search)
	out := make([]doctors.Doctor, 0, len(docs))
	for _, d := range docs {
		if search != "" && !containsFold(d.Name(), search) && !containsFold(d.DisplaySpecialization(), search) {
			continue
		}
		active := flagged(d.User.IsActive)
		switch state {
		case "active":
			if !active {
				continue
			}
		case "inactive":
			if active {
				continue
			}
		case "available":
			if !d.IsAvailable {
				continue
			}
		}
		out = append(out, d)
	}
	return out
}

// Record date windows.
const (
	WindowToday = "today"
	WindowWeek  = "week"
	WindowMonth = "month"
)

// FilterRecords matches patient name or diagnosis and a visit-date window
// relative to now: all, today, week (last 7 days) or month (last month).
func FilterRecords(recs []records.Record, search, window string, now time.Time) []records.Record {
	search = strings.TrimSpace(search)
	out := make([]records.Record, 0, len(recs))
	for _, r := range recs {
		if search != "" && !containsFold(r.PatientName(), search) && !containsFold(r.Diagnosis, search) {
			continue
		}
		visit := r.VisitDate()
		switch window {
		case WindowToday:
			if !sameDay(visit, now) {
				continue
			}
		case WindowWeek:
			if visit.Before(now.AddDate(0, 0, -7)) {
				continue
			}
		case WindowMonth:
			if visit.Before(now.AddDate(0, -1, 0)) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}
