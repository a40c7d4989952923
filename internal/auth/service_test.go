package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raheemullah8/hms-portal/internal/apicache"
	"github.com/Raheemullah8/hms-portal/internal/models"
	"github.com/Raheemullah8/hms-portal/internal/session"
	"github.com/Raheemullah8/hms-portal/internal/transport"
	"github.com/Raheemullah8/hms-portal/pkg/logging"
)

type authBackend struct {
	mu         sync.Mutex
	calls      int
	registered []RegisterRequest
	roles      map[string]models.Role
}

func (b *authBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++

	switch r.URL.Path {
	case "/api/v1/auth/login":
		var body LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		role, ok := b.roles[body.Email]
		switch {
		case body.Email == "down@hms.test":
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, "<html>bad gateway</html>")
		case body.Email == "empty@hms.test":
			fmt.Fprint(w, `{"success":true,"message":"ok"}`)
		case !ok || body.Password != "secret1":
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"success":false,"message":"Invalid credentials"}`)
		default:
			fmt.Fprintf(w, `{"success":true,"message":"Login successful","token":"tok-%s","user":{"_id":"u1","email":%q,"role":%q,"department":"ER"}}`,
				role, body.Email, role)
		}
	case "/api/v1/auth/register":
		var body RegisterRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.registered = append(b.registered, body)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"success":true,"token":"tok-new","user":{"_id":"u9","name":%q,"email":%q,"role":%q}}`,
			body.Name, body.Email, body.Role)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestService(t *testing.T) (*Service, *session.Store, *authBackend) {
	t.Helper()
	backend := &authBackend{roles: map[string]models.Role{
		"sara@hms.test":  models.RoleDoctor,
		"admin@hms.test": models.RoleAdmin,
		"amna@hms.test":  models.RolePatient,
	}}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	store := session.NewStore(session.NewMemoryStorage(), session.WithLogger(logging.Discard()))
	base := transport.New(srv.URL+"/api/v1", transport.WithLogger(logging.Discard()), transport.WithTokenSource(store))
	api := New(base, apicache.Options{Logger: logging.Discard()})
	return NewService(api, store, logging.Discard()), store, backend
}

func TestLoginRoutesByRole(t *testing.T) {
	tests := []struct {
		email string
		route string
	}{
		{"sara@hms.test", "/doctor/dashboard"},
		{"admin@hms.test", "/admin/dashboard"},
		{"amna@hms.test", "/patient/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			svc, store, _ := newTestService(t)
			out, err := svc.Login(context.Background(), LoginRequest{Email: " " + tt.email, Password: "secret1"})
			require.NoError(t, err)
			assert.Equal(t, tt.route, out.Route)
			assert.True(t, out.Persisted)

			state := store.State()
			assert.True(t, state.IsAuthenticated)
			assert.Equal(t, tt.email, state.User.Email)
			assert.Contains(t, state.User.Extra, "department")
			assert.NotEmpty(t, store.Token())
		})
	}
}

func TestLoginFailureMessages(t *testing.T) {
	tests := []struct {
		name  string
		req   LoginRequest
		want  string
		calls int
	}{
		{"server message", LoginRequest{Email: "sara@hms.test", Password: "wrong12"}, "Invalid credentials", 1},
		{"non json error body", LoginRequest{Email: "down@hms.test", Password: "secret1"}, LoginFallback, 1},
		{"missing token", LoginRequest{Email: "empty@hms.test", Password: "secret1"}, LoginFallback, 1},
		{"bad email", LoginRequest{Email: "sara.hms.test", Password: "secret1"}, "Invalid email address", 0},
		{"short password", LoginRequest{Email: "sara@hms.test", Password: "12345"}, "Password must be at least 6 characters", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, backend := newTestService(t)
			_, err := svc.Login(context.Background(), tt.req)
			require.Error(t, err)

			var flow *FlowError
			require.True(t, errors.As(err, &flow))
			assert.Equal(t, tt.want, flow.Message)
			assert.False(t, store.State().IsAuthenticated)
			assert.Equal(t, tt.calls, backend.calls)
		})
	}
}

func TestRegisterForcesPatientRole(t *testing.T) {
	svc, store, backend := newTestService(t)
	out, err := svc.Register(context.Background(), RegisterRequest{
		Name:        " Bilal ",
		Email:       "bilal@hms.test",
		Password:    "secret1",
		Phone:       "0300123456",
		Address:     "Lahore",
		DateOfBirth: "1990-04-02",
		Gender:      "male",
		Role:        models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "/patient/dashboard", out.Route)
	assert.Equal(t, models.RolePatient, store.State().Role())

	require.Len(t, backend.registered, 1)
	assert.Equal(t, models.RolePatient, backend.registered[0].Role)
	assert.Equal(t, "Bilal", backend.registered[0].Name)
}

func TestRegisterValidation(t *testing.T) {
	verr := RegisterRequest{Email: "x@y", Password: "secret1", Phone: "12ab"}.Validate()
	require.NotNil(t, verr)
	assert.Equal(t, "Invalid phone number", verr.Fields["phone"])
	assert.Equal(t, "Name is required", verr.Fields["name"])
	assert.Equal(t, "Gender is required", verr.Fields["gender"])
	assert.NotContains(t, verr.Fields, "email")
}
