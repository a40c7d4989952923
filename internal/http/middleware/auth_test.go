package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, mw func(http.Handler) http.Handler, req *http.Request) (*httptest.ResponseRecorder, *Claims) {
	t.Helper()
	var seen *Claims
	rec := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok, "expected claims in context")
		seen = &claims
	})).ServeHTTP(rec, req)
	return rec, seen
}

func signed(t *testing.T, secret, role string) string {
	t.Helper()
	token, err := IssueToken(secret, "u1", role, time.Hour, time.Now())
	require.NoError(t, err)
	return token
}

func TestRequireAuthMissingSecret(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/doctors/profile", nil)
	rec, seen := serve(t, RequireAuth(""), req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, seen)
}

func TestRequireAuthMissingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/doctors/profile", nil)
	rec, _ := serve(t, RequireAuth("secret"), req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Not authorized, no token"}`, rec.Body.String())
}

func TestRequireAuthInvalidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/doctors/profile", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, "wrong", "doctor"))
	rec, _ := serve(t, RequireAuth("secret"), req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthExpiredToken(t *testing.T) {
	token, err := IssueToken("secret", "u1", "doctor", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/doctors/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec, _ := serve(t, RequireAuth("secret"), req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthBearer(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/doctors/profile", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, "secret", "doctor"))
	rec, seen := serve(t, RequireAuth("secret", "doctor"), req)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.UserID)
	assert.Equal(t, "doctor", seen.Role)
}

func TestRequireAuthCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/patient/profile", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: signed(t, "secret", "patient")})
	rec, seen := serve(t, RequireAuth("secret"), req)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
}

func TestRequireAuthWrongRole(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/patient/", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, "secret", "patient"))
	rec, seen := serve(t, RequireAuth("secret", "admin"), req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, seen)
}
