// Package portal assembles the session store, the shared transport and every
// resource API into one client.
package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Raheemullah8/hms-portal/internal/apicache"
	"github.com/Raheemullah8/hms-portal/internal/appointments"
	"github.com/Raheemullah8/hms-portal/internal/auth"
	"github.com/Raheemullah8/hms-portal/internal/booking"
	"github.com/Raheemullah8/hms-portal/internal/doctors"
	"github.com/Raheemullah8/hms-portal/internal/observability/metrics"
	"github.com/Raheemullah8/hms-portal/internal/patients"
	"github.com/Raheemullah8/hms-portal/internal/records"
	"github.com/Raheemullah8/hms-portal/internal/session"
	"github.com/Raheemullah8/hms-portal/internal/transport"
	"github.com/Raheemullah8/hms-portal/pkg/logging"
)

// RecordFallback is shown when writing a record fails without a server message.
const RecordFallback = "Error creating medical record"

// Options configure a Client.
type Options struct {
	BaseURL       string
	HTTPTimeout   time.Duration
	KeepUnusedFor time.Duration
	HTTPClient    *http.Client
	Logger        *logging.Logger
	Metrics       *metrics.CacheMetrics
}

// Client is the whole data layer. The session store is the token source for
// every request, and all APIs share one cookie jar.
type Client struct {
	Session      *session.Store
	Transport    *transport.Client
	Auth         *auth.API
	Doctors      *doctors.API
	Patients     *patients.API
	Appointments *appointments.API
	Records      *records.API

	AuthFlow *auth.Service
	Booker   *booking.Booker

	logger *logging.Logger
}

func New(store *session.Store, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	base := transport.New(opts.BaseURL,
		transport.WithHTTPClient(opts.HTTPClient),
		transport.WithTimeout(opts.HTTPTimeout),
		transport.WithTokenSource(store),
		transport.WithLogger(logger),
		transport.WithMetrics(opts.Metrics),
		transport.WithOnUnauthorized(func(err *transport.Error) {
			if store.State().IsAuthenticated {
				logger.Warn("backend rejected the stored session", "message", err.Message)
			}
		}),
	)
	cacheOpts := apicache.Options{KeepUnusedFor: opts.KeepUnusedFor, Logger: logger, Metrics: opts.Metrics}

	c := &Client{
		Session:      store,
		Transport:    base,
		Auth:         auth.New(base, cacheOpts),
		Doctors:      doctors.New(base, cacheOpts),
		Patients:     patients.New(base, cacheOpts),
		Appointments: appointments.New(base, cacheOpts),
		Records:      records.New(base, cacheOpts),
		logger:       logger,
	}
	c.AuthFlow = auth.NewService(c.Auth, store, logger)
	c.Booker = booking.NewBooker(c.Appointments, booking.WithLogger(logger))
	return c
}

// APIs lists every resource cache.
func (c *Client) APIs() []*apicache.API {
	return []*apicache.API{c.Auth.API, c.Doctors.API, c.Patients.API, c.Appointments.API, c.Records.API}
}

// Login runs the login form.
func (c *Client) Login(ctx context.Context, email, password string) (auth.Outcome, error) {
	return c.AuthFlow.Login(ctx, auth.LoginRequest{Email: email, Password: password})
}

// Logout clears the session and drops every cached result so the next user
// starts from an empty cache. The backend call that expires the token cookie
// is best effort; an offline logout still signs out locally.
func (c *Client) Logout(ctx context.Context) error {
	if res := c.Auth.Logout.Do(ctx, struct{}{}); res.IsError() {
		c.logger.Warn("backend logout failed", "error", res.Error)
	}
	err := c.Session.Logout(ctx)
	for _, api := range c.APIs() {
		api.Reset()
	}
	if err != nil {
		return fmt.Errorf("portal: logout: %w", err)
	}
	return nil
}

// WaitIdle waits for every API to settle.
func (c *Client) WaitIdle(ctx context.Context) error {
	var errs []error
	for _, api := range c.APIs() {
		if err := api.WaitIdle(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", api.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// CompleteAppointment writes the visit's medical record and then marks the
// appointment completed. If the record fails the status is left alone.
func (c *Client) CompleteAppointment(ctx context.Context, appt appointments.Appointment, rec records.CreateRequest) (records.Record, error) {
	rec.PatientID = appt.Patient.ID
	rec.AppointmentID = appt.ID
	written := c.Records.Write(ctx, rec)
	if written.IsError() {
		return records.Record{}, written.Error
	}
	status := c.Appointments.SetStatus(ctx, appt.ID, appointments.StatusCompleted, "")
	if status.IsError() {
		c.logger.Warn("record written but appointment not completed", "appointment", appt.ID, "error", status.Error)
		return written.Data.Data.Record, status.Error
	}
	return written.Data.Data.Record, nil
}
