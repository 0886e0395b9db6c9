package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roller-shop/internal/common"
)

func validRegistration() RegisterInput {
	return RegisterInput{
		Email:         " Buyer@Example.com ",
		Password:      "correct-horse",
		CompanyName:   "Fenster Müller GmbH",
		ContactPerson: "Kim Müller",
		Phone:         "+49 30 1234567",
		Country:       "DE",
	}
}

func requireAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, status, appErr.HTTPStatus)
	require.Equal(t, message, appErr.Message)
}

func TestRegisterCreatesUserAndTokens(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)

	session, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	require.Equal(t, "buyer@example.com", session.User.Email)
	require.Equal(t, "Fenster Müller GmbH", session.User.CompanyName)
	require.Equal(t, "DE", session.User.Country)
	require.NotEmpty(t, session.AccessToken)
	require.NotEmpty(t, session.RefreshToken)
	require.Equal(t, 1, store.tokenCount())

	claims, err := svc.ParseAccessToken(session.AccessToken)
	require.NoError(t, err)
	require.Equal(t, session.User.ID, claims.UserID)
	require.Equal(t, "buyer@example.com", claims.Email)

	stored, err := store.GetUserByEmail(context.Background(), "buyer@example.com")
	require.NoError(t, err)
	require.NotEqual(t, "correct-horse", stored.PasswordHash)
	require.False(t, stored.VatID.Valid)
}

func TestRegisterCreatesDefaultShippingAddress(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)

	in := validRegistration()
	in.Street = "Hauptstraße 1"
	in.PostalCode = "10115"
	in.City = "Berlin"
	in.VatID = "DE123456789"
	session, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	uid, err := pgUUIDFromString(session.User.ID)
	require.NoError(t, err)
	addresses, err := store.ListAddressesByUser(context.Background(), uid)
	require.NoError(t, err)
	require.Len(t, addresses, 1)
	require.Equal(t, "shipping", addresses[0].AddressType)
	require.True(t, addresses[0].IsDefault)
	require.Equal(t, "DE", addresses[0].Country)
}

func TestRegisterWithoutCompleteAddressSkipsIt(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)

	in := validRegistration()
	in.Street = "Hauptstraße 1"
	_, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	require.Empty(t, store.addresses)
}

func TestRegisterRollsBackWhenAddressFails(t *testing.T) {
	store := newFakeStore()
	store.failAddr = errors.New("disk full")
	svc := newTestService(t, store)

	in := validRegistration()
	in.Street, in.PostalCode, in.City = "Hauptstraße 1", "10115", "Berlin"
	_, err := svc.Register(context.Background(), in)
	require.Error(t, err)
	require.Empty(t, store.users)
	require.Zero(t, store.tokenCount())
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newTestService(t, newFakeStore())
	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validRegistration())
	requireAppError(t, err, http.StatusConflict, "Email already registered")
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, newFakeStore())
	cases := map[string]struct {
		mutate  func(*RegisterInput)
		message string
	}{
		"bad email":  {func(in *RegisterInput) { in.Email = "not-an-email" }, "Invalid email address"},
		"short pass": {func(in *RegisterInput) { in.Password = "short" }, "password must be at least 8 characters"},
		"no company": {func(in *RegisterInput) { in.CompanyName = "" }, "company_name is required"},
		"no contact": {func(in *RegisterInput) { in.ContactPerson = "" }, "contact_person is required"},
		"no phone":   {func(in *RegisterInput) { in.Phone = "" }, "phone is required"},
		"no country": {func(in *RegisterInput) { in.Country = "" }, "country is required"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := validRegistration()
			tc.mutate(&in)
			_, err := svc.Register(context.Background(), in)
			requireAppError(t, err, http.StatusBadRequest, tc.message)
		})
	}
}

func TestLoginIssuesTokensAndTouchesLastLogin(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)
	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	session, err := svc.Login(context.Background(), "BUYER@example.com", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, "Kim Müller", session.User.ContactPerson)
	require.NotEmpty(t, session.RefreshToken)
	require.Equal(t, 2, store.tokenCount())

	user, err := store.GetUserByEmail(context.Background(), "buyer@example.com")
	require.NoError(t, err)
	require.True(t, user.LastLogin.Valid)
}

func TestLoginErrorsAreGeneric(t *testing.T) {
	svc := newTestService(t, newFakeStore())
	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "buyer@example.com", "wrong-password")
	requireAppError(t, err, http.StatusUnauthorized, "Invalid email or password")

	_, err = svc.Login(context.Background(), "nobody@example.com", "correct-horse")
	requireAppError(t, err, http.StatusUnauthorized, "Invalid email or password")

	_, err = svc.Login(context.Background(), "", "")
	requireAppError(t, err, http.StatusBadRequest, "Email and password are required")
}

func TestRefreshAcceptsOnlyLatestToken(t *testing.T) {
	svc := newTestService(t, newFakeStore())
	first, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	access, err := svc.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	claims, err := svc.ParseAccessToken(access)
	require.NoError(t, err)
	require.Equal(t, first.User.ID, claims.UserID)

	second, err := svc.Login(context.Background(), "buyer@example.com", "correct-horse")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), first.RefreshToken)
	requireAppError(t, err, http.StatusUnauthorized, "Invalid refresh token")

	_, err = svc.Refresh(context.Background(), second.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsAccessTokenAndGarbage(t *testing.T) {
	svc := newTestService(t, newFakeStore())
	session, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), session.AccessToken)
	requireAppError(t, err, http.StatusUnauthorized, "Invalid refresh token")

	_, err = svc.Refresh(context.Background(), "garbage")
	requireAppError(t, err, http.StatusUnauthorized, "Invalid refresh token")

	_, err = svc.Refresh(context.Background(), "")
	requireAppError(t, err, http.StatusUnauthorized, "Refresh token required")
}

func TestLogoutRevokesRefreshTokens(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)
	session, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), session.User.ID))
	require.Zero(t, store.tokenCount())

	_, err = svc.Refresh(context.Background(), session.RefreshToken)
	requireAppError(t, err, http.StatusUnauthorized, "Invalid refresh token")
}

func TestMeReturnsProfileOrNotFound(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)
	in := validRegistration()
	in.VatID = "DE123456789"
	session, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	profile, err := svc.Me(context.Background(), session.User.ID)
	require.NoError(t, err)
	require.Equal(t, "+49 30 1234567", profile.Phone)
	require.NotNil(t, profile.VatID)
	require.Equal(t, "DE123456789", *profile.VatID)

	uid, err := pgUUIDFromString(session.User.ID)
	require.NoError(t, err)
	store.deleteUser(uid)
	_, err = svc.Me(context.Background(), session.User.ID)
	requireAppError(t, err, http.StatusNotFound, "User not found")
}
