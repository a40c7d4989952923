package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/Raheemullah8/hms-portal/internal/apicache"
	"github.com/Raheemullah8/hms-portal/internal/appointments"
	"github.com/Raheemullah8/hms-portal/internal/doctors"
	"github.com/Raheemullah8/hms-portal/internal/transport"
	"github.com/Raheemullah8/hms-portal/pkg/logging"
)

const (
	// FailureFallback is shown when a booking fails without a server message.
	FailureFallback = "Failed to book appointment. Please try again."

	msgDayUnavailable  = "Doctor is not available on this selected day!"
	msgPastDate        = "Appointment date cannot be in the past"
	msgSlotUnavailable = "Selected time slot is no longer available"
)

// ErrDuplicateSubmit is returned while an identical booking is in flight.
var ErrDuplicateSubmit = errors.New("booking: already submitting")

// Appointments is the part of the appointment API the booking form uses.
type Appointments interface {
	RefreshAvailableSlots(ctx context.Context, doctorID, date string) apicache.Result[appointments.SlotsResponse]
	Book(ctx context.Context, req appointments.CreateRequest) apicache.Result[appointments.AppointmentResponse]
}

// SubmitGuard admits one submission per key at a time.
type SubmitGuard struct {
	inflight mapset.Set[string]
}

func NewSubmitGuard() *SubmitGuard {
	return &SubmitGuard{inflight: mapset.NewSet[string]()}
}

// Acquire claims key. The returned release must be called when the
// submission settles.
func (g *SubmitGuard) Acquire(key string) (release func(), err error) {
	if !g.inflight.Add(key) {
		return nil, ErrDuplicateSubmit
	}
	return func() { g.inflight.Remove(key) }, nil
}

// Form is what the booking page collects.
type Form struct {
	Doctor   doctors.Doctor
	Date     string
	TimeSlot string
	Reason   string
}

func (f Form) key() string {
	return f.Doctor.ID + "|" + f.Date + "|" + f.TimeSlot
}

// Option configures a Booker.
type Option func(*Booker)

// WithClock replaces time.Now for the past-date check.
func WithClock(now func() time.Time) Option {
	return func(b *Booker) { b.now = now }
}

func WithLogger(logger *logging.Logger) Option {
	return func(b *Booker) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Booker runs the booking form: local checks, the weekday check against the
// doctor's template, the slot check against the backend, then the create.
type Booker struct {
	api    Appointments
	guard  *SubmitGuard
	now    func() time.Time
	logger *logging.Logger
}

func NewBooker(api Appointments, opts ...Option) *Booker {
	b := &Booker{api: api, guard: NewSubmitGuard(), now: time.Now, logger: logging.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Submit books form. Failures are *transport.Error values, or
// ErrDuplicateSubmit when the same form is already being submitted.
func (b *Booker) Submit(ctx context.Context, form Form) (appointments.Appointment, error) {
	req := appointments.CreateRequest{
		DoctorID:        form.Doctor.ID,
		AppointmentDate: form.Date,
		TimeSlot:        form.TimeSlot,
		Reason:          form.Reason,
	}.Normalize()
	if verr := req.Validate(); verr != nil {
		return appointments.Appointment{}, verr
	}
	if req.AppointmentDate < b.now().UTC().Format(appointments.DateLayout) {
		return appointments.Appointment{}, transport.Validation(map[string]string{"appointmentDate": msgPastDate})
	}
	if !IsDateBookable(form.Doctor.AvailableSlots, req.AppointmentDate) {
		return appointments.Appointment{}, transport.Validation(map[string]string{"appointmentDate": msgDayUnavailable})
	}

	release, err := b.guard.Acquire(form.key())
	if err != nil {
		return appointments.Appointment{}, err
	}
	defer release()

	slots := b.api.RefreshAvailableSlots(ctx, req.DoctorID, req.AppointmentDate)
	if slots.IsError() {
		return appointments.Appointment{}, slots.Error
	}
	if !containsSlot(slots.Data.Data.AvailableSlots, req.TimeSlot) {
		return appointments.Appointment{}, transport.Validation(map[string]string{"timeSlot": msgSlotUnavailable})
	}

	res := b.api.Book(ctx, req)
	if res.IsError() {
		b.logger.Warn("booking failed", "doctor", req.DoctorID, "date", req.AppointmentDate, "slot", req.TimeSlot, "error", res.Error)
		return appointments.Appointment{}, res.Error
	}
	return res.Data.Data.Appointment, nil
}

// FailureMessage is the text the booking page shows for err.
func FailureMessage(err error) string {
	if errors.Is(err, ErrDuplicateSubmit) {
		return "Your booking is already being submitted"
	}
	return transport.MessageOr(err, FailureFallback)
}

func containsSlot(slots []string, slot string) bool {
	for _, s := range slots {
		if strings.EqualFold(strings.TrimSpace(s), slot) {
			return true
		}
	}
	return false
}
