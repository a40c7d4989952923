package auth

import (
	"net/http"

	"github.com/Raheemullah8/hms-portal/internal/apicache"
	"github.com/Raheemullah8/hms-portal/internal/transport"
)

const (
	Name    = "AuthApi"
	TagAuth = "Auth"
)

// API holds the auth mutations. Nothing provides the Auth tag, so their
// invalidations never refetch anything.
type API struct {
	*apicache.API

	Login    *apicache.Mutation[LoginRequest, Response]
	Register *apicache.Mutation[RegisterRequest, Response]
	// Logout asks the backend to expire the token cookie.
	Logout *apicache.Mutation[struct{}, transport.Envelope[struct{}]]
}

func New(base *transport.Client, opts apicache.Options) *API {
	api := apicache.New(Name, base.Named(Name), opts, TagAuth)
	auth := []apicache.Tag{apicache.T(TagAuth)}

	return &API{
		API: api,
		Login: apicache.NewMutation(api, apicache.MutationDef[LoginRequest, Response]{
			Name: "LoginUser",
			Query: func(body LoginRequest) transport.Request {
				return transport.Request{Method: http.MethodPost, Path: "/auth/login", Body: body}
			},
			Invalidates: auth,
		}),
		Register: apicache.NewMutation(api, apicache.MutationDef[RegisterRequest, Response]{
			Name: "registerUser",
			Query: func(body RegisterRequest) transport.Request {
				return transport.Request{Method: http.MethodPost, Path: "/auth/register", Body: body}
			},
			Invalidates: auth,
		}),
		Logout: apicache.NewMutation(api, apicache.MutationDef[struct{}, transport.Envelope[struct{}]]{
			Name: "logoutUser",
			Query: func(struct{}) transport.Request {
				return transport.Request{Method: http.MethodPost, Path: "/auth/logout"}
			},
			Invalidates: auth,
		}),
	}
}
