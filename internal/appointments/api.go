package appointments

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Raheemullah8/hms-portal/internal/apicache"
	"github.com/Raheemullah8/hms-portal/internal/transport"
)

const (
	Name = "AppointmentApi"

	TagAppointment         = "Appointment"
	TagPatientAppointments = "PatientAppointments"
	TagDoctorAppointments  = "DoctorAppointments"
	TagAllAppointments     = "AllAppointments"
)

type none = struct{}

// API is the appointment resource module, mounted at /appointments.
type API struct {
	*apicache.API

	AvailableSlots      *apicache.Query[SlotsArgs, SlotsResponse]
	Create              *apicache.Mutation[CreateRequest, AppointmentResponse]
	PatientAppointments *apicache.Query[none, ListResponse]
	Cancel              *apicache.Mutation[string, AppointmentResponse]
	DoctorAppointments  *apicache.Query[none, ListResponse]
	UpdateStatus        *apicache.Mutation[StatusUpdate, AppointmentResponse]
	All                 *apicache.Query[none, ListResponse]
	ByID                *apicache.Query[string, AppointmentResponse]
}

func idTag(id string) apicache.Tag { return apicache.TagID(TagAppointment, id) }

func New(base *transport.Client, opts apicache.Options) *API {
	api := apicache.New(Name, base.Sub("/appointments"), opts,
		TagAppointment, TagPatientAppointments, TagDoctorAppointments, TagAllAppointments)

	return &API{
		API: api,
		AvailableSlots: apicache.NewQuery(api, apicache.QueryDef[SlotsArgs, SlotsResponse]{
			Name: "getAvailableSlots",
			Query: func(a SlotsArgs) transport.Request {
				return transport.Request{
					Path:   "/available-slots/" + url.PathEscape(a.DoctorID),
					Params: url.Values{"date": {a.Date}},
				}
			},
		}),
		// the admin list is not invalidated by a new booking
		Create: apicache.NewMutation(api, apicache.MutationDef[CreateRequest, AppointmentResponse]{
			Name: "createAppointment",
			Query: func(body CreateRequest) transport.Request {
				return transport.Request{Method: http.MethodPost, Path: "/", Body: body}
			},
			Invalidates: []apicache.Tag{apicache.T(TagPatientAppointments), apicache.T(TagDoctorAppointments)},
		}),
		PatientAppointments: apicache.NewQuery(api, apicache.QueryDef[none, ListResponse]{
			Name:     "getPatientAppointments",
			Query:    func(none) transport.Request { return transport.Request{Path: "/my-appointments"} },
			Provides: []apicache.Tag{apicache.T(TagPatientAppointments)},
		}),
		Cancel: apicache.NewMutation(api, apicache.MutationDef[string, AppointmentResponse]{
			Name: "cancelAppointment",
			Query: func(id string) transport.Request {
				return transport.Request{Method: http.MethodPut, Path: "/" + url.PathEscape(id) + "/cancel"}
			},
			Invalidates: []apicache.Tag{apicache.T(TagPatientAppointments), apicache.T(TagDoctorAppointments)},
			InvalidatesFn: func(_ AppointmentResponse, _ *transport.Error, id string) []apicache.Tag {
				return []apicache.Tag{idTag(id)}
			},
		}),
		DoctorAppointments: apicache.NewQuery(api, apicache.QueryDef[none, ListResponse]{
			Name:     "getDoctorAppointments",
			Query:    func(none) transport.Request { return transport.Request{Path: "/doctor/my-appointments"} },
			Provides: []apicache.Tag{apicache.T(TagDoctorAppointments)},
		}),
		UpdateStatus: apicache.NewMutation(api, apicache.MutationDef[StatusUpdate, AppointmentResponse]{
			Name: "updateAppointmentStatus",
			Query: func(u StatusUpdate) transport.Request {
				return transport.Request{Method: http.MethodPut, Path: "/" + url.PathEscape(u.ID) + "/status", Body: u.StatusData}
			},
			Invalidates: []apicache.Tag{
				apicache.T(TagPatientAppointments),
				apicache.T(TagDoctorAppointments),
				apicache.T(TagAllAppointments),
			},
			InvalidatesFn: func(_ AppointmentResponse, _ *transport.Error, u StatusUpdate) []apicache.Tag {
				return []apicache.Tag{idTag(u.ID)}
			},
		}),
		All: apicache.NewQuery(api, apicache.QueryDef[none, ListResponse]{
			Name:     "getAllAppointments",
			Query:    func(none) transport.Request { return transport.Request{Path: "/"} },
			Provides: []apicache.Tag{apicache.T(TagAllAppointments)},
		}),
		ByID: apicache.NewQuery(api, apicache.QueryDef[string, AppointmentResponse]{
			Name:  "getAppointmentById",
			Query: func(id string) transport.Request { return transport.Request{Path: "/" + url.PathEscape(id)} },
			ProvidesFn: func(_ AppointmentResponse, _ *transport.Error, id string) []apicache.Tag {
				return []apicache.Tag{idTag(id)}
			},
		}),
	}
}

// GetAvailableSlots returns the backend's open slots for a doctor on a date.
func (a *API) GetAvailableSlots(ctx context.Context, doctorID, date string) apicache.Result[SlotsResponse] {
	return a.AvailableSlots.Fetch(ctx, SlotsArgs{DoctorID: doctorID, Date: date})
}

// Book validates and creates an appointment.
func (a *API) Book(ctx context.Context, req CreateRequest) apicache.Result[AppointmentResponse] {
	req = req.Normalize()
	if verr := req.Validate(); verr != nil {
		return apicache.Result[AppointmentResponse]{Error: verr, Status: apicache.StatusRejected}
	}
	return a.Create.Do(ctx, req)
}

// Mine lists the signed-in patient's appointments.
func (a *API) Mine(ctx context.Context) apicache.Result[ListResponse] {
	return a.PatientAppointments.Fetch(ctx, none{})
}

// ForDoctor lists the signed-in doctor's appointments.
func (a *API) ForDoctor(ctx context.Context) apicache.Result[ListResponse] {
	return a.DoctorAppointments.Fetch(ctx, none{})
}

// WatchMine mounts the signed-in patient's list so invalidations refetch it.
func (a *API) WatchMine(ctx context.Context) *apicache.Subscription[ListResponse] {
	return a.PatientAppointments.Subscribe(ctx, none{})
}

// WatchForDoctor mounts the signed-in doctor's list.
func (a *API) WatchForDoctor(ctx context.Context) *apicache.Subscription[ListResponse] {
	return a.DoctorAppointments.Subscribe(ctx, none{})
}

func (a *API) GetAll(ctx context.Context) apicache.Result[ListResponse] {
	return a.All.Fetch(ctx, none{})
}

func (a *API) Get(ctx context.Context, id string) apicache.Result[AppointmentResponse] {
	return a.ByID.Fetch(ctx, id)
}

func (a *API) CancelAppointment(ctx context.Context, id string) apicache.Result[AppointmentResponse] {
	return a.Cancel.Do(ctx, id)
}

// SetStatus validates and sends a status change.
func (a *API) SetStatus(ctx context.Context, id string, status Status, notes string) apicache.Result[AppointmentResponse] {
	u := StatusUpdate{ID: id, StatusData: StatusData{Status: status, Notes: notes}}
	if verr := u.Validate(); verr != nil {
		return apicache.Result[AppointmentResponse]{Error: verr, Status: apicache.StatusRejected}
	}
	return a.UpdateStatus.Do(ctx, u)
}

// RefreshAvailableSlots bypasses the cache. Slots carry no tags, so a cached
// list is never invalidated by a booking.
func (a *API) RefreshAvailableSlots(ctx context.Context, doctorID, date string) apicache.Result[SlotsResponse] {
	return a.AvailableSlots.Refetch(ctx, SlotsArgs{DoctorID: doctorID, Date: date})
}
