package appointments

import (
	"strings"
	"time"

	"github.com/Raheemullah8/hms-portal/internal/models"
	"github.com/Raheemullah8/hms-portal/internal/transport"
)

// Status is an appointment's lifecycle state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Statuses in the order the status filter offers them.
var Statuses = []Status{StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Open reports whether the appointment can still be cancelled or moved on.
func (s Status) Open() bool { return s == StatusScheduled || s == StatusConfirmed }

// Appointment is an appointment document. Patient and doctor may arrive as
// bare ids or populated documents depending on the endpoint.
type Appointment struct {
	ID              string       `json:"_id"`
	Patient         models.Party `json:"patientId"`
	Doctor          models.Party `json:"doctorId"`
	AppointmentDate time.Time    `json:"appointmentDate"`
	TimeSlot        string       `json:"timeSlot"`
	Reason          string       `json:"reason,omitempty"`
	Status          Status       `json:"status"`
	Notes           string       `json:"notes,omitempty"`
	CreatedAt       time.Time    `json:"createdAt,omitempty"`
}

// Day is the appointment's calendar date in UTC, as YYYY-MM-DD.
func (a Appointment) Day() string {
	return a.AppointmentDate.UTC().Format(DateLayout)
}

// AppointmentList is the data of the list endpoints.
type AppointmentList struct {
	Appointments []Appointment `json:"appointments"`
}

// AppointmentData is the data of the single appointment endpoints.
type AppointmentData struct {
	Appointment Appointment `json:"appointment"`
}

// SlotsData is the data of GET /appointments/available-slots/:doctorId.
type SlotsData struct {
	AvailableSlots []string `json:"availableSlots"`
}

type (
	ListResponse        = transport.Envelope[AppointmentList]
	AppointmentResponse = transport.Envelope[AppointmentData]
	SlotsResponse       = transport.Envelope[SlotsData]
)

// DateLayout is the calendar date format the backend accepts.
const DateLayout = "2006-01-02"

// SlotsArgs selects the open slots of one doctor on one date.
type SlotsArgs struct {
	DoctorID string `json:"doctorId"`
	Date     string `json:"date"`
}

// CreateRequest is the body of POST /appointments.
type CreateRequest struct {
	DoctorID        string `json:"doctorId"`
	AppointmentDate string `json:"appointmentDate"`
	TimeSlot        string `json:"timeSlot"`
	Reason          string `json:"reason"`
}

func (r CreateRequest) Normalize() CreateRequest {
	r.DoctorID = strings.TrimSpace(r.DoctorID)
	r.AppointmentDate = strings.TrimSpace(r.AppointmentDate)
	r.TimeSlot = strings.TrimSpace(r.TimeSlot)
	r.Reason = strings.TrimSpace(r.Reason)
	return r
}

// Validate checks the required fields. Whether the date and slot can be
// booked is decided by the booking flow and the backend.
func (r CreateRequest) Validate() *transport.Error {
	fields := map[string]string{}
	if r.DoctorID == "" {
		fields["doctorId"] = "Doctor selection is required"
	}
	if r.AppointmentDate == "" {
		fields["appointmentDate"] = "Appointment date is required"
	} else if _, err := time.Parse(DateLayout, r.AppointmentDate); err != nil {
		fields["appointmentDate"] = "Date must be YYYY-MM-DD"
	}
	if r.TimeSlot == "" {
		fields["timeSlot"] = "Please select a time slot"
	}
	if r.Reason == "" {
		fields["reason"] = "Reason is required"
	}
	if len(fields) > 0 {
		return transport.Validation(fields)
	}
	return nil
}

// StatusData is the body of PUT /appointments/:id/status.
type StatusData struct {
	Status Status `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// StatusUpdate addresses a status change to one appointment.
type StatusUpdate struct {
	ID         string     `json:"id"`
	StatusData StatusData `json:"statusData"`
}

func (u StatusUpdate) Validate() *transport.Error {
	fields := map[string]string{}
	if strings.TrimSpace(u.ID) == "" {
		fields["id"] = "Appointment id is required"
	}
	if !u.StatusData.Status.Valid() {
		fields["status"] = "Unknown appointment status"
	}
	if len(fields) > 0 {
		return transport.Validation(fields)
	}
	return nil
}
