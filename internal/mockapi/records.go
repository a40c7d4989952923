package mockapi

import (
	"slices"
	"strings"

	"github.com/Raheemullah8/hms-portal/internal/models"
	"github.com/Raheemullah8/hms-portal/internal/records"
)

func (s *Store) populateRecordLocked(r *records.Record) records.Record {
	out := *r
	out.Symptoms = slices.Clone(r.Symptoms)
	out.Prescription = slices.Clone(r.Prescription)
	out.TestsRecommended = slices.Clone(r.TestsRecommended)
	if p, ok := s.patients[r.Patient.ID]; ok {
		out.Patient = models.Party{ID: p.ID, User: s.userLocked(p.User.ID)}
	}
	if d, ok := s.doctors[r.Doctor.ID]; ok {
		out.Doctor = models.Party{ID: d.ID, Specialization: d.Specialization, User: s.userLocked(d.User.ID)}
	}
	if a, ok := s.appointments[r.Appointment.ID]; ok {
		out.Appointment = records.AppointmentRef{ID: a.ID, AppointmentDate: a.AppointmentDate, TimeSlot: a.TimeSlot}
	}
	return out
}

// CreateRecord writes a record for one of the doctor's appointments.
func (s *Store) CreateRecord(doctorUserID string, req records.CreateRequest) (records.Record, error) {
	req = req.Normalize()
	if verr := req.Validate(); verr != nil {
		return records.Record{}, invalid(verr.Message)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.doctorByUserLocked(doctorUserID)
	if err != nil {
		return records.Record{}, err
	}
	if _, ok := s.patients[req.PatientID]; !ok {
		return records.Record{}, notFound("Patient not found")
	}
	a, ok := s.appointments[req.AppointmentID]
	if !ok {
		return records.Record{}, notFound("Appointment not found")
	}
	if a.Doctor.ID != d.ID || a.Patient.ID != req.PatientID {
		return records.Record{}, forbidden("Appointment does not belong to this doctor and patient")
	}

	doctorName := ""
	if u := s.userLocked(d.User.ID); u != nil {
		doctorName = u.Name
	}
	r := &records.Record{
		ID:               newID(),
		Patient:          models.Party{ID: req.PatientID},
		Doctor:           models.Party{ID: d.ID},
		Appointment:      records.AppointmentRef{ID: a.ID},
		DoctorName:       doctorName,
		Specialization:   d.Specialization,
		Diagnosis:        req.Diagnosis,
		Symptoms:         req.Symptoms,
		Prescription:     req.Prescription,
		TestsRecommended: req.TestsRecommended,
		Notes:            req.Notes,
		CreatedAt:        s.now(),
	}
	s.records[r.ID] = r
	s.recordIDs = append(s.recordIDs, r.ID)
	return s.populateRecordLocked(r), nil
}

// UpdateRecord applies the set fields of req to one of the doctor's records.
func (s *Store) UpdateRecord(doctorUserID, id string, req records.UpdateRequest) (records.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return records.Record{}, notFound("Medical record not found")
	}
	d, err := s.doctorByUserLocked(doctorUserID)
	if err != nil {
		return records.Record{}, err
	}
	if r.Doctor.ID != d.ID {
		return records.Record{}, forbidden("Not allowed to update this record")
	}
	if diagnosis := strings.TrimSpace(req.Diagnosis); diagnosis != "" {
		r.Diagnosis = diagnosis
	}
	if req.Symptoms != nil {
		r.Symptoms = slices.Clone(req.Symptoms)
	}
	if req.Prescription != nil {
		r.Prescription = slices.Clone(req.Prescription)
	}
	if req.TestsRecommended != nil {
		r.TestsRecommended = slices.Clone(req.TestsRecommended)
	}
	if req.Notes != "" {
		r.Notes = req.Notes
	}
	return s.populateRecordLocked(r), nil
}

// RecordsForDoctor lists a doctor account's records, newest first.
func (s *Store) RecordsForDoctor(userID string) ([]records.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, err := s.doctorByUserLocked(userID)
	if err != nil {
		return nil, err
	}
	return newestFirst(s.recordIDs, s.records,
		func(r *records.Record) bool { return r.Doctor.ID == d.ID },
		s.populateRecordLocked), nil
}

// RecordsForPatient lists a patient account's records, newest first.
func (s *Store) RecordsForPatient(userID string) ([]records.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.patientByUserLocked(userID)
	if err != nil {
		return nil, err
	}
	return newestFirst(s.recordIDs, s.records,
		func(r *records.Record) bool { return r.Patient.ID == p.ID },
		s.populateRecordLocked), nil
}

// Record returns one record to its patient, its doctor or an admin.
func (s *Store) Record(v Viewer, id string) (records.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return records.Record{}, notFound("Medical record not found")
	}
	allowed := v.Role == models.RoleAdmin
	switch v.Role {
	case models.RolePatient:
		p, err := s.patientByUserLocked(v.UserID)
		allowed = err == nil && p.ID == r.Patient.ID
	case models.RoleDoctor:
		d, err := s.doctorByUserLocked(v.UserID)
		allowed = err == nil && d.ID == r.Doctor.ID
	}
	if !allowed {
		return records.Record{}, forbidden("Not allowed to view this record")
	}
	return s.populateRecordLocked(r), nil
}
