package address

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/roller-shop/internal/common"
)

func requireStatus(t *testing.T, err error, status int, message string) {
	t.Helper()
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, status, appErr.HTTPStatus)
	require.Equal(t, message, appErr.Message)
}

func shipping(street string, def bool) Input {
	return Input{AddressType: TypeShipping, Street: street, PostalCode: "10115", City: "Berlin", Country: "DE", IsDefault: def}
}

func TestCreateValidates(t *testing.T) {
	svc := NewService(&fakeStore{})
	user := uuid.NewString()

	in := shipping("Hauptstraße 1", false)
	in.AddressType = "office"
	_, err := svc.Create(context.Background(), user, in)
	requireStatus(t, err, http.StatusBadRequest, "Invalid address type")

	in = shipping("", false)
	_, err = svc.Create(context.Background(), user, in)
	requireStatus(t, err, http.StatusBadRequest, "Missing required fields")
}

func TestCreateDefaultClearsOthersOfSameType(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)
	user := uuid.NewString()
	ctx := context.Background()

	first, err := svc.Create(ctx, user, shipping("Alte Straße 1", true))
	require.NoError(t, err)
	billing := Input{AddressType: TypeBilling, Street: "Rechnungsweg 2", PostalCode: "20095", City: "Hamburg", Country: "DE", IsDefault: true}
	_, err = svc.Create(ctx, user, billing)
	require.NoError(t, err)
	second, err := svc.Create(ctx, user, shipping("Neue Straße 2", true))
	require.NoError(t, err)

	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, TypeBilling, list[0].AddressType)
	require.True(t, list[0].IsDefault)
	require.Equal(t, second.ID, list[1].ID)
	require.True(t, list[1].IsDefault)
	require.Equal(t, first.ID, list[2].ID)
	require.False(t, list[2].IsDefault)
}

func TestCreateRollsBackDefaultClearingOnFailure(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)
	user := uuid.NewString()
	ctx := context.Background()

	_, err := svc.Create(ctx, user, shipping("Alte Straße 1", true))
	require.NoError(t, err)
	store.failNext = errors.New("connection reset")
	_, err = svc.Create(ctx, user, shipping("Neue Straße 2", true))
	require.Error(t, err)

	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, list[0].IsDefault)
}

func TestOwnershipIsEnforced(t *testing.T) {
	svc := NewService(&fakeStore{})
	owner, other := uuid.NewString(), uuid.NewString()
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, shipping("Hauptstraße 1", false))
	require.NoError(t, err)

	_, err = svc.Get(ctx, other, created.ID)
	requireStatus(t, err, http.StatusNotFound, "Address not found")
	_, err = svc.Update(ctx, other, created.ID, shipping("Gestohlen 1", false))
	requireStatus(t, err, http.StatusNotFound, "Address not found")
	err = svc.Delete(ctx, other, created.ID)
	requireStatus(t, err, http.StatusNotFound, "Address not found")

	_, err = svc.Get(ctx, owner, "not-a-uuid")
	requireStatus(t, err, http.StatusNotFound, "Address not found")

	got, err := svc.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Hauptstraße 1", got.Street)
}

func TestUpdateKeepsTypeAndMovesDefault(t *testing.T) {
	svc := NewService(&fakeStore{})
	user := uuid.NewString()
	ctx := context.Background()

	a, err := svc.Create(ctx, user, shipping("Erste 1", true))
	require.NoError(t, err)
	b, err := svc.Create(ctx, user, shipping("Zweite 2", false))
	require.NoError(t, err)

	in := shipping("Zweite 2a", true)
	in.AddressType = TypeBilling
	updated, err := svc.Update(ctx, user, b.ID, in)
	require.NoError(t, err)
	require.Equal(t, TypeShipping, updated.AddressType)
	require.Equal(t, "Zweite 2a", updated.Street)
	require.True(t, updated.IsDefault)

	got, err := svc.Get(ctx, user, a.ID)
	require.NoError(t, err)
	require.False(t, got.IsDefault)
}

func TestDelete(t *testing.T) {
	svc := NewService(&fakeStore{})
	user := uuid.NewString()
	ctx := context.Background()

	created, err := svc.Create(ctx, user, shipping("Hauptstraße 1", false))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, user, created.ID))
	err = svc.Delete(ctx, user, created.ID)
	requireStatus(t, err, http.StatusNotFound, "Address not found")
}
