package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raheemullah8/hms-portal/internal/apicache"
	"github.com/Raheemullah8/hms-portal/internal/appointments"
	"github.com/Raheemullah8/hms-portal/internal/doctors"
	"github.com/Raheemullah8/hms-portal/internal/transport"
	"github.com/Raheemullah8/hms-portal/pkg/logging"
)

func TestIsDateBookable(t *testing.T) {
	template := doctors.DefaultWeeklyTemplate()
	tests := []struct {
		date string
		want bool
	}{
		{"2030-01-07", true},                 // Monday
		{"2030-01-11", true},                 // Friday
		{"2030-01-12", false},                // Saturday, off in the default template
		{"2030-01-13", false},                // Sunday
		{"2025-03-09", false},                // Sunday, US clocks change that night
		{"2025-03-10", true},                 // Monday after the change
		{"2025-03-09T23:30:00-05:00", true},  // Monday in UTC
		{"2025-03-10T00:30:00+05:00", false}, // still Sunday in UTC
		{"07/01/2030", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDateBookable(template, tt.date))
		})
	}
}

func TestIsDateBookableIgnoresLocalZone(t *testing.T) {
	template := []doctors.AvailabilitySlot{
		{Day: "Monday", StartTime: "09:00 AM", EndTime: "05:00 PM", IsAvailable: true},
		{Day: "Wednesday", StartTime: "09:00 AM", EndTime: "05:00 PM", IsAvailable: true},
	}
	for _, zone := range []string{"UTC", "America/New_York", "Pacific/Kiritimati", "Pacific/Pago_Pago"} {
		t.Run(zone, func(t *testing.T) {
			loc, err := time.LoadLocation(zone)
			require.NoError(t, err)
			saved := time.Local
			time.Local = loc
			defer func() { time.Local = saved }()

			assert.True(t, IsDateBookable(template, "2030-01-07"), "Monday")
			assert.False(t, IsDateBookable(template, "2030-01-08"), "Tuesday")
			assert.True(t, IsDateBookable(template, "2030-01-09"), "Wednesday")
			assert.Equal(t, "Tuesday", Weekday("2030-01-08"))
		})
	}
}

func TestIsDateBookableEmptyTemplate(t *testing.T) {
	assert.False(t, IsDateBookable(nil, "2030-01-07"))
}

func TestAvailableDaysKeepsTemplateOrder(t *testing.T) {
	template := []doctors.AvailabilitySlot{
		{Day: "Saturday", IsAvailable: true},
		{Day: "Monday", IsAvailable: true},
		{Day: "Tuesday"},
	}
	assert.Equal(t, []string{"Saturday", "Monday"}, AvailableDays(template))
	assert.Empty(t, AvailableDays(nil))
}

type fakeAppointments struct {
	mu       sync.Mutex
	slots    []string
	slotsErr *transport.Error
	bookErr  *transport.Error
	gate     chan struct{}
	entered  chan struct{}
	booked   []appointments.CreateRequest
}

func (f *fakeAppointments) RefreshAvailableSlots(_ context.Context, doctorID, date string) apicache.Result[appointments.SlotsResponse] {
	if f.slotsErr != nil {
		return apicache.Result[appointments.SlotsResponse]{Error: f.slotsErr, Status: apicache.StatusRejected}
	}
	var res apicache.Result[appointments.SlotsResponse]
	res.Status = apicache.StatusFulfilled
	res.Data.Data.AvailableSlots = f.slots
	return res
}

func (f *fakeAppointments) Book(_ context.Context, req appointments.CreateRequest) apicache.Result[appointments.AppointmentResponse] {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.bookErr != nil {
		return apicache.Result[appointments.AppointmentResponse]{Error: f.bookErr, Status: apicache.StatusRejected}
	}
	f.mu.Lock()
	f.booked = append(f.booked, req)
	f.mu.Unlock()
	var res apicache.Result[appointments.AppointmentResponse]
	res.Status = apicache.StatusFulfilled
	res.Data.Data.Appointment = appointments.Appointment{ID: "a1", TimeSlot: req.TimeSlot, Status: appointments.StatusScheduled}
	return res
}

func fixedClock() time.Time { return time.Date(2030, 1, 5, 23, 0, 0, 0, time.UTC) }

func newBooker(api Appointments) *Booker {
	return NewBooker(api, WithClock(fixedClock), WithLogger(logging.Discard()))
}

func drSara() doctors.Doctor {
	return doctors.Doctor{ID: "d1", AvailableSlots: doctors.DefaultWeeklyTemplate()}
}

func TestSubmitBooksAnOfferedSlot(t *testing.T) {
	api := &fakeAppointments{slots: []string{"09:00 AM", "09:30 AM"}}
	appt, err := newBooker(api).Submit(context.Background(), Form{Doctor: drSara(), Date: "2030-01-07", TimeSlot: "09:30 am", Reason: " fever "})
	require.NoError(t, err)
	assert.Equal(t, "a1", appt.ID)
	require.Len(t, api.booked, 1)
	assert.Equal(t, appointments.CreateRequest{DoctorID: "d1", AppointmentDate: "2030-01-07", TimeSlot: "09:30 am", Reason: "fever"}, api.booked[0])
}

func TestSubmitRejections(t *testing.T) {
	tests := []struct {
		name string
		form Form
		api  *fakeAppointments
		want string
	}{
		{
			name: "missing reason",
			form: Form{Doctor: drSara(), Date: "2030-01-07", TimeSlot: "09:00 AM"},
			want: "Reason is required",
		},
		{
			name: "past date",
			form: Form{Doctor: drSara(), Date: "2030-01-04", TimeSlot: "09:00 AM", Reason: "x"},
			want: msgPastDate,
		},
		{
			name: "day off",
			form: Form{Doctor: drSara(), Date: "2030-01-06", TimeSlot: "09:00 AM", Reason: "x"},
			want: msgDayUnavailable,
		},
		{
			name: "slot taken",
			form: Form{Doctor: drSara(), Date: "2030-01-07", TimeSlot: "10:00 AM", Reason: "x"},
			api:  &fakeAppointments{slots: []string{"09:00 AM"}},
			want: msgSlotUnavailable,
		},
		{
			name: "server message",
			form: Form{Doctor: drSara(), Date: "2030-01-07", TimeSlot: "09:00 AM", Reason: "x"},
			api:  &fakeAppointments{slots: []string{"09:00 AM"}, bookErr: &transport.Error{Kind: transport.KindServer, Status: 409, Message: "Slot already booked"}},
			want: "Slot already booked",
		},
		{
			name: "network failure",
			form: Form{Doctor: drSara(), Date: "2030-01-07", TimeSlot: "09:00 AM", Reason: "x"},
			api:  &fakeAppointments{slotsErr: &transport.Error{Kind: transport.KindNetwork, Err: errors.New("dial tcp: refused")}},
			want: FailureFallback,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := tt.api
			if api == nil {
				api = &fakeAppointments{}
			}
			_, err := newBooker(api).Submit(context.Background(), tt.form)
			require.Error(t, err)
			assert.Equal(t, tt.want, FailureMessage(err))
			assert.Empty(t, api.booked)
		})
	}
}

func TestSubmitTodayIsAllowed(t *testing.T) {
	api := &fakeAppointments{slots: []string{"09:00 AM"}}
	b := NewBooker(api, WithClock(func() time.Time { return time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC) }), WithLogger(logging.Discard()))
	_, err := b.Submit(context.Background(), Form{Doctor: drSara(), Date: "2030-01-07", TimeSlot: "09:00 AM", Reason: "x"})
	require.NoError(t, err)
}

func TestSubmitRejectsDuplicateWhileInFlight(t *testing.T) {
	api := &fakeAppointments{
		slots:   []string{"09:00 AM"},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	b := newBooker(api)
	form := Form{Doctor: drSara(), Date: "2030-01-07", TimeSlot: "09:00 AM", Reason: "x"}

	done := make(chan error, 1)
	go func() {
		_, err := b.Submit(context.Background(), form)
		done <- err
	}()
	<-api.entered

	_, err := b.Submit(context.Background(), form)
	require.ErrorIs(t, err, ErrDuplicateSubmit)
	assert.Equal(t, "Your booking is already being submitted", FailureMessage(err))

	close(api.gate)
	require.NoError(t, <-done)

	// the guard is released once the first submit settles
	api.entered = nil
	_, err = b.Submit(context.Background(), form)
	require.NoError(t, err)
	assert.Len(t, api.booked, 2)
}
