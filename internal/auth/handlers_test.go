package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, Middleware) {
	t.Helper()
	svc := newTestService(t, newFakeStore())
	return &Handler{Service: svc, Logger: zerolog.Nop()}, Middleware{Service: svc}
}

func postJSON(t *testing.T, h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRegisterHandlerResponseShape(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := postJSON(t, h.Register, validRegistration())
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["accessToken"])
	require.NotEmpty(t, body["refreshToken"])
	user := body["user"].(map[string]any)
	require.Equal(t, "buyer@example.com", user["email"])
	require.Equal(t, "DE", user["country"])
	require.NotContains(t, user, "contact_person")
}

func TestLoginHandlerErrorBody(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := postJSON(t, h.Login, map[string]string{"email": "nobody@example.com", "password": "whatever1"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"Invalid email or password","code":"UNAUTHORIZED"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	rec = httptest.NewRecorder()
	h.Login(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMeRequiresBearerToken(t *testing.T) {
	h, mw := newTestHandler(t)
	me := mw.RequireAuth(http.HandlerFunc(h.Me))

	rec := httptest.NewRecorder()
	me.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Access token required")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	me.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid token")

	registered := postJSON(t, h.Register, validRegistration())
	var session Session
	require.NoError(t, json.Unmarshal(registered.Body.Bytes(), &session))

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	rec = httptest.NewRecorder()
	me.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	require.Equal(t, session.User.ID, profile.ID)
	require.Equal(t, "Kim Müller", profile.ContactPerson)
}

func TestRefreshHandler(t *testing.T) {
	h, _ := newTestHandler(t)
	registered := postJSON(t, h.Register, validRegistration())
	var session Session
	require.NoError(t, json.Unmarshal(registered.Body.Bytes(), &session))

	rec := postJSON(t, h.Refresh, map[string]string{"refreshToken": session.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["accessToken"])

	rec = postJSON(t, h.Refresh, map[string]string{"refreshToken": "bogus"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
