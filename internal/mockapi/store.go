// Package mockapi is an in-memory stand-in for the hospital backend. It serves
// the same REST contract the portal client consumes so the CLI and the
// integration tests have a real server to talk to. It is a fixture: the
// business rules are only as deep as the client needs.
package mockapi

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Raheemullah8/hms-portal/internal/appointments"
	"github.com/Raheemullah8/hms-portal/internal/doctors"
	"github.com/Raheemullah8/hms-portal/internal/models"
	"github.com/Raheemullah8/hms-portal/internal/patients"
	"github.com/Raheemullah8/hms-portal/internal/records"
)

type account struct {
	profile models.UserProfile
	hash    []byte
}

// Store holds every collection behind one lock. Documents keep their
// references as bare ids and are populated on the way out.
type Store struct {
	mu sync.RWMutex

	accounts     map[string]*account
	emails       map[string]string
	doctors      map[string]*doctors.Doctor
	patients     map[string]*patients.Patient
	appointments map[string]*appointments.Appointment
	records      map[string]*records.Record

	// insertion order per collection
	doctorIDs, patientIDs, appointmentIDs, recordIDs []string

	now  func() time.Time
	cost int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithBcryptCost sets the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) StoreOption {
	return func(s *Store) { s.cost = cost }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		accounts:     map[string]*account{},
		emails:       map[string]string{},
		doctors:      map[string]*doctors.Doctor{},
		patients:     map[string]*patients.Patient{},
		appointments: map[string]*appointments.Appointment{},
		records:      map[string]*records.Record{},
		now:          time.Now,
		cost:         bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newID() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:24] }

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// DoctorProfile is the doctor-only part of a new doctor account.
type DoctorProfile struct {
	Specialization  string
	Qualification   string
	Experience      int
	ConsultationFee float64
	RoomNumber      string
}

// CreateUser adds an account. Patients and doctors also get their role
// document; doctors start with the default weekly template.
func (s *Store) CreateUser(profile models.UserProfile, password string, doc *DoctorProfile) (models.UserProfile, error) {
	email := normalizeEmail(profile.Email)
	if email == "" {
		return models.UserProfile{}, invalid("Email is required")
	}
	if !profile.Role.Valid() {
		profile.Role = models.RolePatient
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.UserProfile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.emails[email]; taken {
		return models.UserProfile{}, invalid("User already exists")
	}
	active := true
	profile.ID = newID()
	profile.Email = email
	profile.IsActive = &active
	s.accounts[profile.ID] = &account{profile: profile, hash: hash}
	s.emails[email] = profile.ID

	now := s.now()
	switch profile.Role {
	case models.RolePatient:
		p := &patients.Patient{ID: newID(), CreatedAt: now}
		p.User.ID = profile.ID
		s.patients[p.ID] = p
		s.patientIDs = append(s.patientIDs, p.ID)
	case models.RoleDoctor:
		if doc == nil {
			doc = &DoctorProfile{}
		}
		d := &doctors.Doctor{
			ID:                newID(),
			Specialization:    doc.Specialization,
			Qualification:     doc.Qualification,
			Experience:        doc.Experience,
			ConsultationFee:   doc.ConsultationFee,
			RoomNumber:        doc.RoomNumber,
			MaxPatientsPerDay: 20,
			IsAvailable:       true,
			AvailableSlots:    doctors.DefaultWeeklyTemplate(),
			CreatedAt:         now,
		}
		d.User.ID = profile.ID
		s.doctors[d.ID] = d
		s.doctorIDs = append(s.doctorIDs, d.ID)
	}
	return profile, nil
}

// Authenticate checks an email and password.
func (s *Store) Authenticate(email, password string) (models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[s.emails[normalizeEmail(email)]]
	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return models.UserProfile{}, unauthorized("Invalid email or password")
	}
	if !acc.profile.Active() {
		return models.UserProfile{}, forbidden("Your account has been deactivated")
	}
	return acc.profile, nil
}

// User returns an account's profile.
func (s *Store) User(id string) (models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return models.UserProfile{}, notFound("User not found")
	}
	return acc.profile, nil
}

func (s *Store) userLocked(id string) *models.UserProfile {
	acc, ok := s.accounts[id]
	if !ok {
		return nil
	}
	profile := acc.profile
	return &profile
}

// applyUserFields copies the editable account fields that are set.
func applyUserFields(u *models.UserProfile, name, phone, address, dob, gender, image string) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&u.Name, name)
	set(&u.Phone, phone)
	set(&u.Address, address)
	set(&u.DateOfBirth, dob)
	set(&u.Gender, gender)
	set(&u.ProfileImage, image)
}

// doctors

func (s *Store) populateDoctorLocked(d *doctors.Doctor) doctors.Doctor {
	out := *d
	out.AvailableSlots = slices.Clone(d.AvailableSlots)
	if u := s.userLocked(d.User.ID); u != nil {
		out.User = models.UserRef{UserProfile: *u}
	}
	return out
}

func (s *Store) doctorByUserLocked(userID string) (*doctors.Doctor, error) {
	for _, id := range s.doctorIDs {
		if d := s.doctors[id]; d.User.ID == userID {
			return d, nil
		}
	}
	return nil, notFound("Doctor profile not found")
}

// DoctorByUser returns the doctor document of a doctor account.
func (s *Store) DoctorByUser(userID string) (doctors.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, err := s.doctorByUserLocked(userID)
	if err != nil {
		return doctors.Doctor{}, err
	}
	return s.populateDoctorLocked(d), nil
}

// Doctors lists every doctor in creation order.
func (s *Store) Doctors() []doctors.Doctor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]doctors.Doctor, 0, len(s.doctorIDs))
	for _, id := range s.doctorIDs {
		out = append(out, s.populateDoctorLocked(s.doctors[id]))
	}
	return out
}

// Doctor returns one doctor by document id.
func (s *Store) Doctor(id string) (doctors.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.doctors[id]
	if !ok {
		return doctors.Doctor{}, notFound("Doctor not found")
	}
	return s.populateDoctorLocked(d), nil
}

// UpdateDoctorProfile applies the non-empty fields of req.
func (s *Store) UpdateDoctorProfile(userID string, req doctors.UpdateProfileRequest) (doctors.Doctor, error) {
	if verr := req.Validate(); verr != nil {
		return doctors.Doctor{}, invalid(verr.Message)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.doctorByUserLocked(userID)
	if err != nil {
		return doctors.Doctor{}, err
	}
	acc := s.accounts[userID]
	applyUserFields(&acc.profile, req.Name, req.Phone, req.Address, "", "", req.ProfileImage)
	if req.Specialization != "" {
		d.Specialization = req.Specialization
	}
	if req.Qualification != "" {
		d.Qualification = req.Qualification
	}
	if req.Experience > 0 {
		d.Experience = req.Experience
	}
	if req.ConsultationFee > 0 {
		d.ConsultationFee = req.ConsultationFee
	}
	if req.RoomNumber != "" {
		d.RoomNumber = req.RoomNumber
	}
	if req.MaxPatientsPerDay > 0 {
		d.MaxPatientsPerDay = req.MaxPatientsPerDay
	}
	return s.populateDoctorLocked(d), nil
}

// SetAvailability replaces a doctor's weekly template.
func (s *Store) SetAvailability(userID string, req doctors.UpdateAvailabilityRequest) (doctors.AvailabilityData, error) {
	if verr := req.Validate(); verr != nil {
		return doctors.AvailabilityData{}, invalid(verr.Message)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.doctorByUserLocked(userID)
	if err != nil {
		return doctors.AvailabilityData{}, err
	}
	d.AvailableSlots = slices.Clone(req.AvailableSlots)
	d.IsAvailable = req.IsAvailable
	return doctors.AvailabilityData{AvailableSlots: slices.Clone(d.AvailableSlots), IsAvailable: d.IsAvailable}, nil
}

// patients

func (s *Store) populatePatientLocked(p *patients.Patient) patients.Patient {
	out := *p
	out.Allergies = slices.Clone(p.Allergies)
	if u := s.userLocked(p.User.ID); u != nil {
		out.User = models.UserRef{UserProfile: *u}
	}
	return out
}

func (s *Store) patientByUserLocked(userID string) (*patients.Patient, error) {
	for _, id := range s.patientIDs {
		if p := s.patients[id]; p.User.ID == userID {
			return p, nil
		}
	}
	return nil, notFound("Patient profile not found")
}

// PatientByUser returns the patient document of a patient account.
func (s *Store) PatientByUser(userID string) (patients.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.patientByUserLocked(userID)
	if err != nil {
		return patients.Patient{}, err
	}
	return s.populatePatientLocked(p), nil
}

// Patients lists every patient in creation order.
func (s *Store) Patients() []patients.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]patients.Patient, 0, len(s.patientIDs))
	for _, id := range s.patientIDs {
		out = append(out, s.populatePatientLocked(s.patients[id]))
	}
	return out
}

// Patient returns one patient by document id.
func (s *Store) Patient(id string) (patients.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patients[id]
	if !ok {
		return patients.Patient{}, notFound("Patient not found")
	}
	return s.populatePatientLocked(p), nil
}

func (s *Store) applyPatientLocked(p *patients.Patient, req patients.UpdateProfileRequest) *Error {
	req = req.Normalize()
	if verr := req.Validate(); verr != nil {
		return invalid(verr.Message)
	}
	acc, ok := s.accounts[p.User.ID]
	if !ok {
		return notFound("User not found")
	}
	applyUserFields(&acc.profile, req.Name, req.Phone, req.Address, req.DateOfBirth, req.Gender, req.ProfileImage)
	if req.BloodGroup != "" {
		p.BloodGroup = req.BloodGroup
	}
	if req.Allergies != nil {
		p.Allergies = slices.Clone(req.Allergies)
	}
	if req.EmergencyContact != nil {
		ec := *req.EmergencyContact
		p.EmergencyContact = &ec
	}
	return nil
}

// UpdatePatientProfile applies a patient's own edits.
func (s *Store) UpdatePatientProfile(userID string, req patients.UpdateProfileRequest) (patients.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.patientByUserLocked(userID)
	if err != nil {
		return patients.Patient{}, err
	}
	if err := s.applyPatientLocked(p, req); err != nil {
		return patients.Patient{}, err
	}
	return s.populatePatientLocked(p), nil
}

// AdminUpdatePatient applies an admin's edits, including the active flag.
func (s *Store) AdminUpdatePatient(id string, req patients.AdminUpdateRequest) (patients.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[id]
	if !ok {
		return patients.Patient{}, notFound("Patient not found")
	}
	if err := s.applyPatientLocked(p, req.UpdateProfileRequest); err != nil {
		return patients.Patient{}, err
	}
	if req.IsActive != nil {
		active := *req.IsActive
		s.accounts[p.User.ID].profile.IsActive = &active
	}
	return s.populatePatientLocked(p), nil
}
