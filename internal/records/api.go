package records

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Raheemullah8/hms-portal/internal/apicache"
	"github.com/Raheemullah8/hms-portal/internal/transport"
)

const (
	Name = "MedicalRecordApi"

	// BasePath is the backend's mount point, spelling included.
	BasePath = "/medcial"

	TagMedicalRecord  = "MedicalRecord"
	TagDoctorRecords  = "DoctorRecords"
	TagPatientRecords = "PatientRecords"
)

type none = struct{}

// API is the medical record resource module.
type API struct {
	*apicache.API

	Create         *apicache.Mutation[CreateRequest, RecordResponse]
	DoctorRecords  *apicache.Query[none, ListResponse]
	Update         *apicache.Mutation[UpdateArgs, RecordResponse]
	PatientRecords *apicache.Query[none, ListResponse]
	ByID           *apicache.Query[string, RecordResponse]
}

func New(base *transport.Client, opts apicache.Options) *API {
	api := apicache.New(Name, base.Sub(BasePath), opts, TagMedicalRecord, TagDoctorRecords, TagPatientRecords)
	lists := []apicache.Tag{apicache.T(TagDoctorRecords), apicache.T(TagPatientRecords)}

	return &API{
		API: api,
		Create: apicache.NewMutation(api, apicache.MutationDef[CreateRequest, RecordResponse]{
			Name: "createMedicalRecord",
			Query: func(body CreateRequest) transport.Request {
				return transport.Request{Method: http.MethodPost, Path: "/", Body: body}
			},
			Invalidates: lists,
		}),
		DoctorRecords: apicache.NewQuery(api, apicache.QueryDef[none, ListResponse]{
			Name:     "getDoctorMedicalRecords",
			Query:    func(none) transport.Request { return transport.Request{Path: "/doctor/my-records"} },
			Provides: []apicache.Tag{apicache.T(TagDoctorRecords)},
		}),
		Update: apicache.NewMutation(api, apicache.MutationDef[UpdateArgs, RecordResponse]{
			Name: "updateMedicalRecord",
			Query: func(u UpdateArgs) transport.Request {
				return transport.Request{Method: http.MethodPut, Path: "/" + url.PathEscape(u.ID), Body: u.Data}
			},
			Invalidates: lists,
			InvalidatesFn: func(_ RecordResponse, _ *transport.Error, u UpdateArgs) []apicache.Tag {
				return []apicache.Tag{apicache.TagID(TagMedicalRecord, u.ID)}
			},
		}),
		PatientRecords: apicache.NewQuery(api, apicache.QueryDef[none, ListResponse]{
			Name:     "getPatientMedicalRecords",
			Query:    func(none) transport.Request { return transport.Request{Path: "/patient/my-records"} },
			Provides: []apicache.Tag{apicache.T(TagPatientRecords)},
		}),
		ByID: apicache.NewQuery(api, apicache.QueryDef[string, RecordResponse]{
			Name:  "getMedicalRecordById",
			Query: func(id string) transport.Request { return transport.Request{Path: "/" + url.PathEscape(id)} },
			ProvidesFn: func(_ RecordResponse, _ *transport.Error, id string) []apicache.Tag {
				return []apicache.Tag{apicache.TagID(TagMedicalRecord, id)}
			},
		}),
	}
}

// Write normalizes, validates and creates a record.
func (a *API) Write(ctx context.Context, req CreateRequest) apicache.Result[RecordResponse] {
	req = req.Normalize()
	if verr := req.Validate(); verr != nil {
		return apicache.Result[RecordResponse]{Error: verr, Status: apicache.StatusRejected}
	}
	return a.Create.Do(ctx, req)
}

func (a *API) Edit(ctx context.Context, id string, req UpdateRequest) apicache.Result[RecordResponse] {
	return a.Update.Do(ctx, UpdateArgs{ID: id, Data: req})
}

func (a *API) ForDoctor(ctx context.Context) apicache.Result[ListResponse] {
	return a.DoctorRecords.Fetch(ctx, none{})
}

func (a *API) ForPatient(ctx context.Context) apicache.Result[ListResponse] {
	return a.PatientRecords.Fetch(ctx, none{})
}

func (a *API) Get(ctx context.Context, id string) apicache.Result[RecordResponse] {
	return a.ByID.Fetch(ctx, id)
}
