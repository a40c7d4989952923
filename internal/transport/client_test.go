package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raheemullah8/hms-portal/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	return New(srv.URL+"/api/v1", opts...)
}

func TestDoDecodesEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/doctors/alldoctors", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":true,"data":{"doctors":[{"_id":"d1"}]}}`)
	})

	var out Envelope[struct {
		Doctors []struct {
			ID string `json:"_id"`
		} `json:"doctors"`
	}]
	terr := client.Sub("/doctors").Do(context.Background(), Request{Path: "/alldoctors"}, &out)
	require.Nil(t, terr)
	assert.True(t, out.Success)
	require.Len(t, out.Data.Doctors, 1)
	assert.Equal(t, "d1", out.Data.Doctors[0].ID)
}

func TestDoSendsBearerBodyAndParams(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "2025-03-03", r.URL.Query().Get("date"))
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["reason"])
		w.WriteHeader(http.StatusCreated)
	}, WithTokenSource(TokenFunc(func() string { return "tok-1" })))

	terr := client.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/appointments/",
		Params: url.Values{"date": {"2025-03-03"}},
		Body:   map[string]string{"reason": "hello"},
		Header: http.Header{"Idempotency-Key": {"key-1"}},
	}, nil)
	require.Nil(t, terr)
}

func TestDoServerErrorKeepsMessageVerbatim(t *testing.T) {
	var unauthorized int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"success":false,"message":"Invalid credentials"}`)
	}, WithOnUnauthorized(func(*Error) { unauthorized++ }))

	terr := client.Do(context.Background(), Request{Method: http.MethodPost, Path: "/auth/login"}, nil)
	require.NotNil(t, terr)
	assert.Equal(t, KindServer, terr.Kind)
	assert.Equal(t, http.StatusUnauthorized, terr.Status)
	assert.Equal(t, "Invalid credentials", terr.Message)
	assert.JSONEq(t, `{"success":false,"message":"Invalid credentials"}`, string(terr.Data))
	assert.Equal(t, "Invalid credentials", MessageOr(terr, "Login Failed"))
	assert.Equal(t, 1, unauthorized)
	assert.True(t, IsStatus(terr, http.StatusUnauthorized))
}

func TestDoServerErrorWithoutJSONFallsBack(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	terr := client.Do(context.Background(), Request{Path: "/doctors/profile"}, nil)
	require.NotNil(t, terr)
	assert.Equal(t, KindServer, terr.Kind)
	assert.Empty(t, terr.Message)
	assert.Nil(t, terr.Data)
	assert.Contains(t, terr.Error(), "upstream exploded")
	assert.Equal(t, "Something went wrong", MessageOr(terr, "Something went wrong"))
}

func TestDoDecodeError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":tru`)
	})

	var out Envelope[json.RawMessage]
	terr := client.Do(context.Background(), Request{Path: "/patient/profile"}, &out)
	require.NotNil(t, terr)
	assert.Equal(t, KindDecode, terr.Kind)
	assert.Equal(t, "fallback", MessageOr(terr, "fallback"))
}

func TestDoNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	client := New(base, WithLogger(logging.Discard()), WithTimeout(time.Second))
	terr := client.Do(context.Background(), Request{Path: "/doctors/alldoctors"}, nil)
	require.NotNil(t, terr)
	assert.Equal(t, KindNetwork, terr.Kind)
	assert.Zero(t, terr.Status)
}

func TestSubSharesCookieJar(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "from-cookie", Path: "/", HttpOnly: true})
		fmt.Fprint(w, `{"success":true}`)
	})
	mux.HandleFunc("/api/v1/patient/profile", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("token")
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "from-cookie", cookie.Value)
		fmt.Fprint(w, `{"success":true}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	root := New(srv.URL+"/api/v1", WithLogger(logging.Discard()))
	require.Nil(t, root.Do(context.Background(), Request{Method: http.MethodPost, Path: "/auth/login"}, nil))

	patient := root.Sub("patient")
	assert.Equal(t, "patient", patient.Name())
	require.Nil(t, patient.Do(context.Background(), Request{Path: "/profile"}, nil))
	assert.Same(t, root.HTTPClient(), patient.HTTPClient())
}

func TestResolve(t *testing.T) {
	client := New("http://example.test/api/v1/", WithLogger(logging.Discard())).Sub("appointments")
	assert.Equal(t, "http://example.test/api/v1/appointments/", client.resolve("/", nil))
	assert.Equal(t, "http://example.test/api/v1/appointments/my-appointments", client.resolve("/my-appointments", nil))
	assert.Equal(t, "http://example.test/api/v1/appointments", client.resolve("", nil))
	assert.Equal(t, "http://example.test/api/v1/appointments/available-slots/d1?date=2025-01-06",
		client.resolve("/available-slots/d1", url.Values{"date": {"2025-01-06"}}))
}

func TestValidationAndMessageOr(t *testing.T) {
	verr := Validation(map[string]string{"password": "Password must be at least 6 characters", "email": "Invalid email address"})
	assert.Equal(t, KindValidation, verr.Kind)
	assert.Equal(t, "Invalid email address", verr.Message)
	assert.Equal(t, "Invalid email address", MessageOr(verr, "Login Failed"))

	wrapped := fmt.Errorf("login: %w", verr)
	got, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Same(t, verr, got)

	assert.Equal(t, "Login Failed", MessageOr(errors.New("boom"), "Login Failed"))
	assert.Equal(t, "Login Failed", MessageOr(nil, "Login Failed"))
}

func TestWithHTTPClientLeavesCallerClientAlone(t *testing.T) {
	caller := &http.Client{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true}`)
	}, WithHTTPClient(caller), WithTimeout(3*time.Second))

	require.Nil(t, client.Do(context.Background(), Request{Path: "/health"}, nil))
	assert.NotSame(t, caller, client.HTTPClient())
	assert.Equal(t, 3*time.Second, client.HTTPClient().Timeout)
	assert.NotNil(t, client.HTTPClient().Jar)
	assert.Zero(t, caller.Timeout)
	assert.Nil(t, caller.Jar)
	assert.Zero(t, http.DefaultClient.Timeout)
}
