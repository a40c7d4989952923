package mockapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/patrickmn/go-cache"

	httpmiddleware "github.com/Raheemullah8/hms-portal/internal/http/middleware"
	"github.com/Raheemullah8/hms-portal/internal/models"
	"github.com/Raheemullah8/hms-portal/internal/observability/metrics"
	"github.com/Raheemullah8/hms-portal/pkg/logging"
)

// APIPrefix is where the REST contract is mounted.
const APIPrefix = "/api/v1"

const maxBodyBytes = 1 << 20

// Config holds server configuration
type Config struct {
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
	// AuthRate limits login and register per client IP, in requests per
	// second. Zero disables the limit.
	AuthRate  float64
	AuthBurst int

	Logger         *logging.Logger
	Metrics        *metrics.HTTPMetrics
	MetricsHandler http.Handler
}

// Server serves the REST contract from a Store.
type Server struct {
	cfg    Config
	store  *Store
	logger *logging.Logger
	// Idempotency-Key -> appointment id, so a retried booking replays
	// instead of double booking.
	replays *cache.Cache
}

func NewServer(store *Store, cfg Config) *Server {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Server{cfg: cfg, store: store, logger: logger, replays: cache.New(24*time.Hour, time.Hour)}
}

// Store returns the backing store.
func (s *Server) Store() *Store { return s.store }

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(httpmiddleware.RequestLogger(s.logger, s.cfg.Metrics))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.cfg.MetricsHandler != nil {
		r.Handle("/metrics", s.cfg.MetricsHandler)
	}

	secret := s.cfg.JWTSecret
	authed := httpmiddleware.RequireAuth(secret)
	patient := httpmiddleware.RequireAuth(secret, string(models.RolePatient))
	doctor := httpmiddleware.RequireAuth(secret, string(models.RoleDoctor))
	admin := httpmiddleware.RequireAuth(secret, string(models.RoleAdmin))
	staff := httpmiddleware.RequireAuth(secret, string(models.RoleDoctor), string(models.RoleAdmin))

	r.Route(APIPrefix, func(api chi.Router) {
		api.Route("/auth", func(a chi.Router) {
			a.Use(httpmiddleware.RateLimit(s.cfg.AuthRate, s.cfg.AuthBurst))
			a.Post("/login", s.login)
			a.Post("/register", s.register)
			a.Post("/logout", s.logout)
		})

		api.Route("/doctors", func(d chi.Router) {
			d.With(authed).Get("/alldoctors", s.listDoctors)
			d.Group(func(own chi.Router) {
				own.Use(doctor)
				own.Get("/profile", s.doctorProfile)
				own.Put("/profile", s.updateDoctorProfile)
				own.Get("/availability", s.doctorAvailability)
				own.Put("/availability", s.updateDoctorAvailability)
			})
			d.With(authed).Get("/{id}", s.getDoctor)
		})

		api.Route("/patient", func(p chi.Router) {
			p.With(patient).Get("/profile", s.patientProfile)
			p.With(patient).Put("/profile", s.updatePatientProfile)
			p.Group(func(adm chi.Router) {
				adm.Use(admin)
				adm.Get("/", s.listPatients)
				adm.Get("/{id}", s.getPatient)
				adm.Put("/{id}", s.updatePatient)
			})
		})

		api.Route("/appointments", func(a chi.Router) {
			a.Use(authed)
			a.Get("/available-slots/{doctorId}", s.availableSlots)
			a.With(patient).Post("/", s.book)
			a.With(patient).Get("/my-appointments", s.patientAppointments)
			a.With(doctor).Get("/doctor/my-appointments", s.doctorAppointments)
			a.With(admin).Get("/", s.allAppointments)
			a.Get("/{id}", s.getAppointment)
			a.Put("/{id}/cancel", s.cancelAppointment)
			a.With(staff).Put("/{id}/status", s.setAppointmentStatus)
		})

		api.Route("/medcial", func(m chi.Router) {
			m.Use(authed)
			m.With(doctor).Post("/", s.createRecord)
			m.With(doctor).Get("/doctor/my-records", s.doctorRecords)
			m.With(patient).Get("/patient/my-records", s.patientRecords)
			m.With(doctor).Put("/{id}", s.updateRecord)
			m.Get("/{id}", s.getRecord)
		})
	})
	return r
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respond(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		s.logger.Error("mock handler failed", "path", r.URL.Path, "error", logging.Redact(err.Error()))
		apiErr = &Error{Status: http.StatusInternalServerError, Message: "Server error"}
	}
	writeJSON(w, apiErr.Status, envelope{Success: false, Message: apiErr.Message})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return invalid(fmt.Sprintf("Invalid request body: %v", err))
	}
	return nil
}

func viewer(r *http.Request) Viewer {
	claims, _ := httpmiddleware.ClaimsFromContext(r.Context())
	return Viewer{UserID: claims.UserID, Role: models.Role(claims.Role)}
}
