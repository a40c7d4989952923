package doctors

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Raheemullah8/hms-portal/internal/apicache"
	"github.com/Raheemullah8/hms-portal/internal/transport"
)

const (
	Name = "DoctorApi"

	TagDoctors    = "Doctors"
	TagDoctorList = "DoctorList"
)

type none = struct{}

// API is the doctor resource module, mounted at /doctors.
type API struct {
	*apicache.API

	Profile            *apicache.Query[none, DoctorResponse]
	UpdateProfile      *apicache.Mutation[UpdateProfileRequest, DoctorResponse]
	Availability       *apicache.Query[none, AvailabilityResponse]
	UpdateAvailability *apicache.Mutation[UpdateAvailabilityRequest, AvailabilityResponse]
	All                *apicache.Query[none, ListResponse]
	ByID               *apicache.Query[string, DoctorResponse]
}

func New(base *transport.Client, opts apicache.Options) *API {
	api := apicache.New(Name, base.Sub("/doctors"), opts, TagDoctors, TagDoctorList)
	doctors := []apicache.Tag{apicache.T(TagDoctors)}

	return &API{
		API: api,
		Profile: apicache.NewQuery(api, apicache.QueryDef[none, DoctorResponse]{
			Name:     "getDoctorProfile",
			Query:    func(none) transport.Request { return transport.Request{Path: "/profile"} },
			Provides: doctors,
		}),
		UpdateProfile: apicache.NewMutation(api, apicache.MutationDef[UpdateProfileRequest, DoctorResponse]{
			Name: "updateDoctorProfile",
			Query: func(body UpdateProfileRequest) transport.Request {
				return transport.Request{Method: http.MethodPut, Path: "/profile", Body: body}
			},
			Invalidates: doctors,
		}),
		Availability: apicache.NewQuery(api, apicache.QueryDef[none, AvailabilityResponse]{
			Name:     "getDoctorAvailability",
			Query:    func(none) transport.Request { return transport.Request{Path: "/availability"} },
			Provides: doctors,
		}),
		UpdateAvailability: apicache.NewMutation(api, apicache.MutationDef[UpdateAvailabilityRequest, AvailabilityResponse]{
			Name: "updateDoctorAvailability",
			Query: func(body UpdateAvailabilityRequest) transport.Request {
				return transport.Request{Method: http.MethodPut, Path: "/availability", Body: body}
			},
			Invalidates: doctors,
		}),
		All: apicache.NewQuery(api, apicache.QueryDef[none, ListResponse]{
			Name:     "getAllDoctors",
			Query:    func(none) transport.Request { return transport.Request{Path: "/alldoctors"} },
			Provides: doctors,
		}),
		ByID: apicache.NewQuery(api, apicache.QueryDef[string, DoctorResponse]{
			Name:     "getDoctorById",
			Query:    func(id string) transport.Request { return transport.Request{Path: "/" + url.PathEscape(id)} },
			Provides: doctors,
			ProvidesFn: func(_ DoctorResponse, _ *transport.Error, id string) []apicache.Tag {
				return []apicache.Tag{apicache.TagID(TagDoctorList, id)}
			},
		}),
	}
}

// GetProfile returns the signed-in doctor's profile.
func (a *API) GetProfile(ctx context.Context) apicache.Result[DoctorResponse] {
	return a.Profile.Fetch(ctx, none{})
}

// SaveProfile validates and sends a profile update.
func (a *API) SaveProfile(ctx context.Context, req UpdateProfileRequest) apicache.Result[DoctorResponse] {
	if verr := req.Validate(); verr != nil {
		return apicache.Result[DoctorResponse]{Error: verr, Status: apicache.StatusRejected}
	}
	return a.UpdateProfile.Do(ctx, req)
}

// GetAvailability returns the signed-in doctor's weekly template.
func (a *API) GetAvailability(ctx context.Context) apicache.Result[AvailabilityResponse] {
	return a.Availability.Fetch(ctx, none{})
}

// SaveAvailability validates and sends the weekly template.
func (a *API) SaveAvailability(ctx context.Context, req UpdateAvailabilityRequest) apicache.Result[AvailabilityResponse] {
	if verr := req.Validate(); verr != nil {
		return apicache.Result[AvailabilityResponse]{Error: verr, Status: apicache.StatusRejected}
	}
	return a.UpdateAvailability.Do(ctx, req)
}

// GetAll lists every doctor.
func (a *API) GetAll(ctx context.Context) apicache.Result[ListResponse] {
	return a.All.Fetch(ctx, none{})
}

// Get returns one doctor.
func (a *API) Get(ctx context.Context, id string) apicache.Result[DoctorResponse] {
	return a.ByID.Fetch(ctx, id)
}
