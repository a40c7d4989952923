package mockapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Raheemullah8/hms-portal/internal/appointments"
	"github.com/Raheemullah8/hms-portal/internal/auth"
	"github.com/Raheemullah8/hms-portal/internal/doctors"
	httpmiddleware "github.com/Raheemullah8/hms-portal/internal/http/middleware"
	"github.com/Raheemullah8/hms-portal/internal/models"
	"github.com/Raheemullah8/hms-portal/internal/patients"
	"github.com/Raheemullah8/hms-portal/internal/records"
)

// auth

func (s *Server) issue(w http.ResponseWriter, r *http.Request, status int, message string, user models.UserProfile) {
	token, err := httpmiddleware.IssueToken(s.cfg.JWTSecret, user.ID, string(user.Role), s.cfg.TokenTTL, s.store.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     httpmiddleware.TokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.cfg.TokenTTL.Seconds()),
	})
	writeJSON(w, status, auth.Response{Success: true, Message: message, User: &user, Token: token})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		s.fail(w, r, invalid("Please provide email and password"))
		return
	}
	user, err := s.store.Authenticate(req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.issue(w, r, http.StatusOK, "Login successful", user)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || len(req.Password) < 6 {
		s.fail(w, r, invalid("Name, email and a password of at least 6 characters are required"))
		return
	}
	role := models.Role(req.Role)
	if role != models.RolePatient && role != models.RoleDoctor {
		role = models.RolePatient
	}
	user, err := s.store.CreateUser(models.UserProfile{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		DateOfBirth:  req.DateOfBirth,
		Gender:       req.Gender,
		ProfileImage: req.ProfileImage,
		Role:         role,
	}, req.Password, nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.issue(w, r, http.StatusCreated, "User registered successfully", user)
}

func (s *Server) logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: httpmiddleware.TokenCookie, Value: "", Path: "/", HttpOnly: true, MaxAge: -1})
	respond(w, http.StatusOK, "Logged out successfully", nil)
}

// doctors

func (s *Server) listDoctors(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, "", doctors.DoctorList{Doctors: s.store.Doctors()})
}

func (s *Server) getDoctor(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.Doctor(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", doctors.DoctorData{Doctor: d})
}

func (s *Server) doctorProfile(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.DoctorByUser(viewer(r).UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", doctors.DoctorData{Doctor: d})
}

func (s *Server) updateDoctorProfile(w http.ResponseWriter, r *http.Request) {
	var req doctors.UpdateProfileRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	d, err := s.store.UpdateDoctorProfile(viewer(r).UserID, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Profile updated successfully", doctors.DoctorData{Doctor: d})
}

func (s *Server) doctorAvailability(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.DoctorByUser(viewer(r).UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", doctors.AvailabilityData{AvailableSlots: d.AvailableSlots, IsAvailable: d.IsAvailable})
}

func (s *Server) updateDoctorAvailability(w http.ResponseWriter, r *http.Request) {
	var req doctors.UpdateAvailabilityRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := s.store.SetAvailability(viewer(r).UserID, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Availability updated successfully", data)
}

// patients

func (s *Server) patientProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.PatientByUser(viewer(r).UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", p)
}

func (s *Server) updatePatientProfile(w http.ResponseWriter, r *http.Request) {
	var req patients.UpdateProfileRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.store.UpdatePatientProfile(viewer(r).UserID, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Profile updated successfully", p)
}

func (s *Server) listPatients(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, "", patients.PatientList{Patients: s.store.Patients()})
}

func (s *Server) getPatient(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Patient(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", patients.PatientData{Patient: p})
}

func (s *Server) updatePatient(w http.ResponseWriter, r *http.Request) {
	var req patients.AdminUpdateRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.store.AdminUpdatePatient(chi.URLParam(r, "id"), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Patient updated successfully", patients.PatientData{Patient: p})
}

// appointments

func (s *Server) availableSlots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		s.fail(w, r, invalid("Date is required"))
		return
	}
	slots, err := s.store.AvailableSlots(chi.URLParam(r, "doctorId"), date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", appointments.SlotsData{AvailableSlots: slots})
}

func (s *Server) book(w http.ResponseWriter, r *http.Request) {
	v := viewer(r)
	replayKey := ""
	if key := strings.TrimSpace(r.Header.Get("Idempotency-Key")); key != "" {
		replayKey = v.UserID + "|" + key
		if id, ok := s.replays.Get(replayKey); ok {
			if a, err := s.store.Appointment(v, id.(string)); err == nil {
				respond(w, http.StatusCreated, "Appointment booked successfully", appointments.AppointmentData{Appointment: a})
				return
			}
		}
	}
	var req appointments.CreateRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	a, err := s.store.Book(v.UserID, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if replayKey != "" {
		s.replays.SetDefault(replayKey, a.ID)
	}
	respond(w, http.StatusCreated, "Appointment booked successfully", appointments.AppointmentData{Appointment: a})
}

func (s *Server) listAppointments(w http.ResponseWriter, r *http.Request, list []appointments.Appointment, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", appointments.AppointmentList{Appointments: list})
}

func (s *Server) patientAppointments(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.AppointmentsForPatient(viewer(r).UserID)
	s.listAppointments(w, r, list, err)
}

func (s *Server) doctorAppointments(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.AppointmentsForDoctor(viewer(r).UserID)
	s.listAppointments(w, r, list, err)
}

func (s *Server) allAppointments(w http.ResponseWriter, r *http.Request) {
	s.listAppointments(w, r, s.store.AllAppointments(), nil)
}

func (s *Server) getAppointment(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.Appointment(viewer(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", appointments.AppointmentData{Appointment: a})
}

func (s *Server) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.Cancel(viewer(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Appointment cancelled successfully", appointments.AppointmentData{Appointment: a})
}

func (s *Server) setAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	var data appointments.StatusData
	if err := decode(w, r, &data); err != nil {
		s.fail(w, r, err)
		return
	}
	a, err := s.store.SetStatus(viewer(r), chi.URLParam(r, "id"), data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Appointment status updated", appointments.AppointmentData{Appointment: a})
}

// medical records

func (s *Server) createRecord(w http.ResponseWriter, r *http.Request) {
	var req records.CreateRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	rec, err := s.store.CreateRecord(viewer(r).UserID, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "Medical record created successfully", records.RecordData{Record: rec})
}

func (s *Server) updateRecord(w http.ResponseWriter, r *http.Request) {
	var req records.UpdateRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	rec, err := s.store.UpdateRecord(viewer(r).UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Medical record updated successfully", records.RecordData{Record: rec})
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request, list []records.Record, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", records.RecordList{Records: list})
}

func (s *Server) doctorRecords(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.RecordsForDoctor(viewer(r).UserID)
	s.listRecords(w, r, list, err)
}

func (s *Server) patientRecords(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.RecordsForPatient(viewer(r).UserID)
	s.listRecords(w, r, list, err)
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Record(viewer(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", records.RecordData{Record: rec})
}
