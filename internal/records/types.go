package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Raheemullah8/hms-portal/internal/models"
	"github.com/Raheemullah8/hms-portal/internal/transport"
)

// Prescription is one medicine line of a record.
type Prescription struct {
	Medicine  string `json:"medicine"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// AppointmentRef is the appointment a record was written for, either a bare
// id or the populated document.
type AppointmentRef struct {
	ID              string    `json:"_id,omitempty"`
	AppointmentDate time.Time `json:"appointmentDate,omitempty"`
	TimeSlot        string    `json:"timeSlot,omitempty"`
}

type appointmentRefAlias AppointmentRef

func (r *AppointmentRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = AppointmentRef{}
		return nil
	case data[0] == '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("records: decode appointment id: %w", err)
		}
		*r = AppointmentRef{ID: id}
		return nil
	}
	var alias appointmentRefAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return fmt.Errorf("records: decode appointment: %w", err)
	}
	*r = AppointmentRef(alias)
	return nil
}

// Record is a medical record document.
type Record struct {
	ID               string         `json:"_id"`
	Patient          models.Party   `json:"patientId"`
	Doctor           models.Party   `json:"doctorId"`
	Appointment      AppointmentRef `json:"appointmentId"`
	DoctorName       string         `json:"doctorName,omitempty"`
	Specialization   string         `json:"specialization,omitempty"`
	Diagnosis        string         `json:"diagnosis"`
	Symptoms         []string       `json:"symptoms,omitempty"`
	Prescription     []Prescription `json:"prescription,omitempty"`
	TestsRecommended []string       `json:"testsRecommended,omitempty"`
	Notes            string         `json:"notes,omitempty"`
	CreatedAt        time.Time      `json:"createdAt,omitempty"`
}

// PatientName is the populated patient's name, if any.
func (r Record) PatientName() string { return r.Patient.DisplayName() }

// DoctorDisplayName prefers the denormalized doctorName.
func (r Record) DoctorDisplayName() string {
	if r.DoctorName != "" {
		return r.DoctorName
	}
	return r.Doctor.DisplayName()
}

// VisitDate is the appointment date when populated, else the creation time.
func (r Record) VisitDate() time.Time {
	if !r.Appointment.AppointmentDate.IsZero() {
		return r.Appointment.AppointmentDate
	}
	return r.CreatedAt
}

type RecordList struct {
	Records []Record `json:"records"`
}

type RecordData struct {
	Record Record `json:"record"`
}

type (
	ListResponse   = transport.Envelope[RecordList]
	RecordResponse = transport.Envelope[RecordData]
)

// CreateRequest is the body of POST /medcial.
type CreateRequest struct {
	PatientID        string         `json:"patientId"`
	AppointmentID    string         `json:"appointmentId"`
	Diagnosis        string         `json:"diagnosis"`
	Symptoms         []string       `json:"symptoms"`
	Prescription     []Prescription `json:"prescription"`
	TestsRecommended []string       `json:"testsRecommended"`
	Notes            string         `json:"notes"`
}

// Normalize drops blank symptoms and tests, and prescriptions missing a
// medicine or a dosage.
func (r CreateRequest) Normalize() CreateRequest {
	r.Diagnosis = strings.TrimSpace(r.Diagnosis)
	r.Symptoms = nonBlank(r.Symptoms)
	r.TestsRecommended = nonBlank(r.TestsRecommended)
	rx := make([]Prescription, 0, len(r.Prescription))
	for _, p := range r.Prescription {
		if strings.TrimSpace(p.Medicine) == "" || strings.TrimSpace(p.Dosage) == "" {
			continue
		}
		rx = append(rx, p)
	}
	r.Prescription = rx
	return r
}

func (r CreateRequest) Validate() *transport.Error {
	fields := map[string]string{}
	if r.Diagnosis == "" {
		fields["diagnosis"] = "Please enter diagnosis"
	}
	if r.PatientID == "" {
		fields["patientId"] = "Patient is required"
	}
	if r.AppointmentID == "" {
		fields["appointmentId"] = "Appointment is required"
	}
	if len(fields) > 0 {
		return transport.Validation(fields)
	}
	return nil
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// UpdateRequest carries the fields a doctor may change later.
type UpdateRequest struct {
	Diagnosis        string         `json:"diagnosis,omitempty"`
	Symptoms         []string       `json:"symptoms,omitempty"`
	Prescription     []Prescription `json:"prescription,omitempty"`
	TestsRecommended []string       `json:"testsRecommended,omitempty"`
	Notes            string         `json:"notes,omitempty"`
}

// UpdateArgs addresses an update to one record.
type UpdateArgs struct {
	ID   string        `json:"id"`
	Data UpdateRequest `json:"data"`
}
