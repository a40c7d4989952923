package mockapi

import (
	"slices"
	"strings"
	"time"

	"github.com/Raheemullah8/hms-portal/internal/appointments"
	"github.com/Raheemullah8/hms-portal/internal/booking"
	"github.com/Raheemullah8/hms-portal/internal/doctors"
	"github.com/Raheemullah8/hms-portal/internal/models"
)

// SlotLength is the length of one bookable slot.
const SlotLength = 30 * time.Minute

// Slots enumerates the slot starts of one template day. A slot must end by
// the day's end time.
func Slots(day doctors.AvailabilitySlot) []string {
	if !day.IsAvailable {
		return nil
	}
	start, err := doctors.ParseClock(day.StartTime)
	if err != nil {
		return nil
	}
	end, err := doctors.ParseClock(day.EndTime)
	if err != nil {
		return nil
	}
	var out []string
	for t := start; !t.Add(SlotLength).After(end); t = t.Add(SlotLength) {
		out = append(out, t.Format("03:04 PM"))
	}
	return out
}

func canonicalSlot(slot string) string {
	t, err := doctors.ParseClock(slot)
	if err != nil {
		return strings.TrimSpace(slot)
	}
	return t.Format("03:04 PM")
}

func templateDay(d *doctors.Doctor, weekday string) (doctors.AvailabilitySlot, bool) {
	for _, day := range d.AvailableSlots {
		if day.Day == weekday && day.IsAvailable {
			return day, true
		}
	}
	return doctors.AvailabilitySlot{}, false
}

// openSlotsLocked is the template's slots for date minus the booked ones.
// It returns false when the doctor does not work that day.
func (s *Store) openSlotsLocked(d *doctors.Doctor, date time.Time) ([]string, bool) {
	if !d.IsAvailable {
		return nil, false
	}
	day, ok := templateDay(d, date.Weekday().String())
	if !ok {
		return nil, false
	}
	taken := map[string]bool{}
	for _, a := range s.appointments {
		if a.Doctor.ID == d.ID && a.Status != appointments.StatusCancelled && a.AppointmentDate.Equal(date) {
			taken[canonicalSlot(a.TimeSlot)] = true
		}
	}
	var open []string
	for _, slot := range Slots(day) {
		if !taken[slot] {
			open = append(open, slot)
		}
	}
	return open, true
}

// parseDay reads a date as its UTC calendar day.
func parseDay(value string) (time.Time, bool) {
	t, ok := booking.ParseDate(value)
	if !ok {
		return time.Time{}, false
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
}

// AvailableSlots lists the open slots of a doctor on a YYYY-MM-DD date.
func (s *Store) AvailableSlots(doctorID, date string) ([]string, error) {
	day, ok := parseDay(date)
	if !ok {
		return nil, invalid("Please provide a valid date")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, found := s.doctors[doctorID]
	if !found {
		return nil, notFound("Doctor not found")
	}
	open, _ := s.openSlotsLocked(d, day)
	if open == nil {
		open = []string{}
	}
	return open, nil
}

func (s *Store) populateAppointmentLocked(a *appointments.Appointment) appointments.Appointment {
	out := *a
	if p, ok := s.patients[a.Patient.ID]; ok {
		out.Patient = models.Party{ID: p.ID, User: s.userLocked(p.User.ID)}
	}
	if d, ok := s.doctors[a.Doctor.ID]; ok {
		out.Doctor = models.Party{ID: d.ID, Specialization: d.Specialization, User: s.userLocked(d.User.ID)}
	}
	return out
}

// Book creates a scheduled appointment for a patient account.
func (s *Store) Book(patientUserID string, req appointments.CreateRequest) (appointments.Appointment, error) {
	req = req.Normalize()
	if verr := req.Validate(); verr != nil {
		return appointments.Appointment{}, invalid(verr.Message)
	}
	date, ok := parseDay(req.AppointmentDate)
	if !ok {
		return appointments.Appointment{}, invalid("Please provide a valid date")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	y, m, d := now.UTC().Date()
	if date.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
		return appointments.Appointment{}, invalid("Cannot book an appointment in the past")
	}
	p, err := s.patientByUserLocked(patientUserID)
	if err != nil {
		return appointments.Appointment{}, err
	}
	doc, found := s.doctors[req.DoctorID]
	if !found {
		return appointments.Appointment{}, notFound("Doctor not found")
	}
	open, works := s.openSlotsLocked(doc, date)
	if !works {
		return appointments.Appointment{}, invalid("Doctor is not available on this day")
	}
	slot := canonicalSlot(req.TimeSlot)
	if !slices.Contains(open, slot) {
		day, _ := templateDay(doc, date.Weekday().String())
		if slices.Contains(Slots(day), slot) {
			return appointments.Appointment{}, conflict("This time slot is already booked")
		}
		return appointments.Appointment{}, invalid("Invalid time slot")
	}

	a := &appointments.Appointment{
		ID:              newID(),
		Patient:         models.Party{ID: p.ID},
		Doctor:          models.Party{ID: doc.ID},
		AppointmentDate: date,
		TimeSlot:        slot,
		Reason:          req.Reason,
		Status:          appointments.StatusScheduled,
		CreatedAt:       now,
	}
	s.appointments[a.ID] = a
	s.appointmentIDs = append(s.appointmentIDs, a.ID)
	return s.populateAppointmentLocked(a), nil
}

// newestFirst walks ids from the most recent insert back.
func newestFirst[T any](ids []string, docs map[string]*T, keep func(*T) bool, render func(*T) T) []T {
	out := []T{}
	for i := len(ids) - 1; i >= 0; i-- {
		if doc := docs[ids[i]]; keep(doc) {
			out = append(out, render(doc))
		}
	}
	return out
}

// AppointmentsForPatient lists a patient account's appointments, newest first.
func (s *Store) AppointmentsForPatient(userID string) ([]appointments.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.patientByUserLocked(userID)
	if err != nil {
		return nil, err
	}
	return newestFirst(s.appointmentIDs, s.appointments,
		func(a *appointments.Appointment) bool { return a.Patient.ID == p.ID },
		s.populateAppointmentLocked), nil
}

// AppointmentsForDoctor lists a doctor account's appointments, newest first.
func (s *Store) AppointmentsForDoctor(userID string) ([]appointments.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, err := s.doctorByUserLocked(userID)
	if err != nil {
		return nil, err
	}
	return newestFirst(s.appointmentIDs, s.appointments,
		func(a *appointments.Appointment) bool { return a.Doctor.ID == d.ID },
		s.populateAppointmentLocked), nil
}

// AllAppointments lists every appointment, newest first.
func (s *Store) AllAppointments() []appointments.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.appointmentIDs, s.appointments,
		func(*appointments.Appointment) bool { return true },
		s.populateAppointmentLocked)
}

// Viewer is who is asking.
type Viewer struct {
	UserID string
	Role   models.Role
}

// canSeeLocked reports whether v is the appointment's patient or doctor, or
// an admin.
func (s *Store) canSeeLocked(v Viewer, a *appointments.Appointment) bool {
	switch v.Role {
	case models.RoleAdmin:
		return true
	case models.RolePatient:
		p, err := s.patientByUserLocked(v.UserID)
		return err == nil && p.ID == a.Patient.ID
	case models.RoleDoctor:
		d, err := s.doctorByUserLocked(v.UserID)
		return err == nil && d.ID == a.Doctor.ID
	}
	return false
}

// Appointment returns one appointment its viewer may see.
func (s *Store) Appointment(v Viewer, id string) (appointments.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[id]
	if !ok {
		return appointments.Appointment{}, notFound("Appointment not found")
	}
	if !s.canSeeLocked(v, a) {
		return appointments.Appointment{}, forbidden("Not allowed to view this appointment")
	}
	return s.populateAppointmentLocked(a), nil
}

// Cancel cancels an appointment on behalf of its patient or an admin.
func (s *Store) Cancel(v Viewer, id string) (appointments.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return appointments.Appointment{}, notFound("Appointment not found")
	}
	if v.Role == models.RoleDoctor || !s.canSeeLocked(v, a) {
		return appointments.Appointment{}, forbidden("Not allowed to cancel this appointment")
	}
	switch a.Status {
	case appointments.StatusCompleted:
		return appointments.Appointment{}, invalid("Cannot cancel a completed appointment")
	case appointments.StatusCancelled:
		return appointments.Appointment{}, invalid("Appointment is already cancelled")
	}
	a.Status = appointments.StatusCancelled
	return s.populateAppointmentLocked(a), nil
}

// SetStatus changes an appointment's status on behalf of its doctor or an
// admin. Notes replace the old ones when given.
func (s *Store) SetStatus(v Viewer, id string, data appointments.StatusData) (appointments.Appointment, error) {
	if !data.Status.Valid() {
		return appointments.Appointment{}, invalid("Invalid status")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return appointments.Appointment{}, notFound("Appointment not found")
	}
	if v.Role == models.RolePatient || !s.canSeeLocked(v, a) {
		return appointments.Appointment{}, forbidden("Not allowed to update this appointment")
	}
	a.Status = data.Status
	if notes := strings.TrimSpace(data.Notes); notes != "" {
		a.Notes = notes
	}
	return s.populateAppointmentLocked(a), nil
}
