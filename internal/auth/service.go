package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/Raheemullah8/hms-portal/internal/models"
	"github.com/Raheemullah8/hms-portal/internal/session"
	"github.com/Raheemullah8/hms-portal/internal/transport"
	"github.com/Raheemullah8/hms-portal/pkg/logging"
)

const (
	LoginFallback    = "Login Failed"
	RegisterFallback = "Registration Failed"
)

// ErrMissingCredentials is returned when a 2xx auth response carries no
// user or token.
var ErrMissingCredentials = errors.New("auth: response has no user or token")

// Outcome is what a successful login or registration leads to.
type Outcome struct {
	User    *models.UserProfile
	Route   string
	Message string
	// Persisted is false when the session could not be written to storage
	// and will not survive a restart.
	Persisted bool
}

// FlowError carries the message a form shows for a failed attempt.
type FlowError struct {
	Message string
	Err     error
}

func (e *FlowError) Error() string { return e.Message }

func (e *FlowError) Unwrap() error { return e.Err }

// Service runs the login and register forms against the session store.
type Service struct {
	api    *API
	store  *session.Store
	logger *logging.Logger
}

func NewService(api *API, store *session.Store, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{api: api, store: store, logger: logger}
}

// Login validates the form, authenticates and records the session. The
// returned route is the landing page for the user's role.
func (s *Service) Login(ctx context.Context, req LoginRequest) (Outcome, error) {
	req.Email = strings.TrimSpace(req.Email)
	if verr := req.Validate(); verr != nil {
		return Outcome{}, &FlowError{Message: verr.Message, Err: verr}
	}
	res := s.api.Login.Do(ctx, req)
	if res.IsError() {
		s.logger.Debug("login rejected", "email", logging.MaskEmail(req.Email), "error", res.Error)
		return Outcome{}, &FlowError{Message: transport.MessageOr(res.Error, LoginFallback), Err: res.Error}
	}
	return s.complete(ctx, res.Data, s.store.LoginSuccess, LoginFallback)
}

// Register validates the form and creates a patient account. The role is
// always patient regardless of what the caller set.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Outcome, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Role = models.RolePatient
	if verr := req.Validate(); verr != nil {
		return Outcome{}, &FlowError{Message: verr.Message, Err: verr}
	}
	res := s.api.Register.Do(ctx, req)
	if res.IsError() {
		return Outcome{}, &FlowError{Message: transport.MessageOr(res.Error, RegisterFallback), Err: res.Error}
	}
	return s.complete(ctx, res.Data, s.store.RegisterSuccess, RegisterFallback)
}

func (s *Service) complete(ctx context.Context, resp Response, record func(context.Context, *models.UserProfile, string) error, fallback string) (Outcome, error) {
	if resp.User == nil || resp.Token == "" {
		return Outcome{}, &FlowError{Message: fallback, Err: ErrMissingCredentials}
	}
	out := Outcome{User: resp.User, Route: resp.User.Role.LandingRoute(), Message: resp.Message, Persisted: true}
	if err := record(ctx, resp.User, resp.Token); err != nil {
		s.logger.Warn("session kept in memory only", "error", err)
		out.Persisted = false
	}
	return out, nil
}
