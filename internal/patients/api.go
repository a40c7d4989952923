package patients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Raheemullah8/hms-portal/internal/apicache"
	"github.com/Raheemullah8/hms-portal/internal/transport"
)

const (
	Name = "PatientApi"

	TagPatientProfile = "PatientProfile"
	TagAllPatients    = "AllPatients"
)

type none = struct{}

// API is the patient resource module, mounted at /patient.
type API struct {
	*apicache.API

	Profile       *apicache.Query[none, ProfileResponse]
	UpdateProfile *apicache.Mutation[UpdateProfileRequest, ProfileResponse]
	AllAdmin      *apicache.Query[none, ListResponse]
	ByIDAdmin     *apicache.Query[string, PatientResponse]
	UpdateByAdmin *apicache.Mutation[AdminUpdate, PatientResponse]
}

func New(base *transport.Client, opts apicache.Options) *API {
	api := apicache.New(Name, base.Sub("/patient"), opts, TagPatientProfile, TagAllPatients)

	return &API{
		API: api,
		Profile: apicache.NewQuery(api, apicache.QueryDef[none, ProfileResponse]{
			Name:     "getPatientProfile",
			Query:    func(none) transport.Request { return transport.Request{Path: "/profile"} },
			Provides: []apicache.Tag{apicache.T(TagPatientProfile)},
		}),
		UpdateProfile: apicache.NewMutation(api, apicache.MutationDef[UpdateProfileRequest, ProfileResponse]{
			Name: "updatePatientProfile",
			Query: func(body UpdateProfileRequest) transport.Request {
				return transport.Request{Method: http.MethodPut, Path: "/profile", Body: body}
			},
			Invalidates: []apicache.Tag{apicache.T(TagPatientProfile)},
		}),
		AllAdmin: apicache.NewQuery(api, apicache.QueryDef[none, ListResponse]{
			Name:     "getAllPatientsAdmin",
			Query:    func(none) transport.Request { return transport.Request{Path: "/"} },
			Provides: []apicache.Tag{apicache.T(TagAllPatients)},
		}),
		ByIDAdmin: apicache.NewQuery(api, apicache.QueryDef[string, PatientResponse]{
			Name:  "getPatientByIdAdmin",
			Query: func(id string) transport.Request { return transport.Request{Path: "/" + url.PathEscape(id)} },
			ProvidesFn: func(_ PatientResponse, _ *transport.Error, id string) []apicache.Tag {
				return []apicache.Tag{apicache.TagID(TagAllPatients, id)}
			},
		}),
		UpdateByAdmin: apicache.NewMutation(api, apicache.MutationDef[AdminUpdate, PatientResponse]{
			Name: "updatePatientByIdAdmin",
			Query: func(u AdminUpdate) transport.Request {
				return transport.Request{Method: http.MethodPut, Path: "/" + url.PathEscape(u.ID), Body: u.Data}
			},
			Invalidates: []apicache.Tag{apicache.T(TagAllPatients)},
			InvalidatesFn: func(_ PatientResponse, _ *transport.Error, u AdminUpdate) []apicache.Tag {
				return []apicache.Tag{apicache.TagID(TagAllPatients, u.ID)}
			},
		}),
	}
}

func (a *API) GetProfile(ctx context.Context) apicache.Result[ProfileResponse] {
	return a.Profile.Fetch(ctx, none{})
}

// SaveProfile normalizes, validates and sends the patient's own profile.
func (a *API) SaveProfile(ctx context.Context, req UpdateProfileRequest) apicache.Result[ProfileResponse] {
	req = req.Normalize()
	if verr := req.Validate(); verr != nil {
		return apicache.Result[ProfileResponse]{Error: verr, Status: apicache.StatusRejected}
	}
	return a.UpdateProfile.Do(ctx, req)
}

func (a *API) GetAll(ctx context.Context) apicache.Result[ListResponse] {
	return a.AllAdmin.Fetch(ctx, none{})
}

func (a *API) Get(ctx context.Context, id string) apicache.Result[PatientResponse] {
	return a.ByIDAdmin.Fetch(ctx, id)
}

// Update changes a patient as an admin.
func (a *API) Update(ctx context.Context, id string, req AdminUpdateRequest) apicache.Result[PatientResponse] {
	req.UpdateProfileRequest = req.UpdateProfileRequest.Normalize()
	if verr := req.Validate(); verr != nil {
		return apicache.Result[PatientResponse]{Error: verr, Status: apicache.StatusRejected}
	}
	return a.UpdateByAdmin.Do(ctx, AdminUpdate{ID: id, Data: req})
}

// SetActive toggles a patient's account.
func (a *API) SetActive(ctx context.Context, id string, active bool) apicache.Result[PatientResponse] {
	return a.Update(ctx, id, AdminUpdateRequest{IsActive: &active})
}
