package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roller-shop/internal/common"
)

type parserFunc func(string) (Claims, error)

func (f parserFunc) ParseAccessToken(token string) (Claims, error) { return f(token) }

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		header string
		token  string
		ok     bool
	}{
		"standard":     {"Bearer abc.def", "abc.def", true},
		"lower scheme": {"bearer   abc.def ", "abc.def", true},
		"basic":        {"Basic dXNlcjpwdw==", "", false},
		"no token":     {"Bearer ", "", false},
		"empty":        {"", "", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			token, ok := bearerToken(tc.header)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.token, token)
		})
	}
}

func TestRequireAuthPopulatesContext(t *testing.T) {
	mw := Middleware{Service: parserFunc(func(token string) (Claims, error) {
		if token != "good" {
			return Claims{}, errors.New("bad signature")
		}
		return Claims{UserID: "u-1", Email: "buyer@example.com"}, nil
	})}
	var gotUser, gotEmail string
	h := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = common.UserID(r.Context())
		gotEmail, _ = EmailFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/addresses", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u-1", gotUser)
	require.Equal(t, "buyer@example.com", gotEmail)

	req.Header.Set("Authorization", "Bearer forged")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_token"`)
}

func TestRequireAuthWithoutService(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/addresses", nil)
	req.Header.Set("Authorization", "Bearer x")
	rec := httptest.NewRecorder()
	Middleware{}.RequireAuth(http.NotFoundHandler()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
