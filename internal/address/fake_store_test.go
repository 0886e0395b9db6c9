package address

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/roller-shop/internal/db"
)

type fakeStore struct {
	mu        sync.Mutex
	addresses []db.Address
	failNext  error
}

var _ db.Store = (*fakeStore)(nil)

func (f *fakeStore) InTx(ctx context.Context, fn func(db.Querier) error) error {
	f.mu.Lock()
	snapshot := append([]db.Address(nil), f.addresses...)
	f.mu.Unlock()
	if err := fn(f); err != nil {
		f.mu.Lock()
		f.addresses = snapshot
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) ListAddressesByUser(_ context.Context, userID pgtype.UUID) ([]db.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []db.Address{}
	for _, a := range f.addresses {
		if a.UserID.Bytes == userID.Bytes {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AddressType != out[j].AddressType {
			return out[i].AddressType < out[j].AddressType
		}
		return out[i].IsDefault && !out[j].IsDefault
	})
	return out, nil
}

func (f *fakeStore) GetAddress(_ context.Context, arg db.GetAddressParams) (db.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.addresses {
		if a.ID.Bytes == arg.ID.Bytes && a.UserID.Bytes == arg.UserID.Bytes {
			return a, nil
		}
	}
	return db.Address{}, pgx.ErrNoRows
}

func (f *fakeStore) CreateAddress(_ context.Context, arg db.CreateAddressParams) (db.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failNext; err != nil {
		f.failNext = nil
		return db.Address{}, err
	}
	now := pgtype.Timestamptz{Time: time.Now(), Valid: true}
	a := db.Address{
		ID:          pgtype.UUID{Bytes: uuid.New(), Valid: true},
		UserID:      arg.UserID,
		AddressType: arg.AddressType,
		Street:      arg.Street,
		PostalCode:  arg.PostalCode,
		City:        arg.City,
		Country:     arg.Country,
		IsDefault:   arg.IsDefault,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.addresses = append(f.addresses, a)
	return a, nil
}

func (f *fakeStore) UpdateAddress(_ context.Context, arg db.UpdateAddressParams) (db.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.addresses {
		if a.ID.Bytes == arg.ID.Bytes && a.UserID.Bytes == arg.UserID.Bytes {
			a.Street, a.PostalCode, a.City, a.Country, a.IsDefault = arg.Street, arg.PostalCode, arg.City, arg.Country, arg.IsDefault
			a.UpdatedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
			f.addresses[i] = a
			return a, nil
		}
	}
	return db.Address{}, pgx.ErrNoRows
}

func (f *fakeStore) DeleteAddress(_ context.Context, arg db.DeleteAddressParams) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.addresses {
		if a.ID.Bytes == arg.ID.Bytes && a.UserID.Bytes == arg.UserID.Bytes {
			f.addresses = append(f.addresses[:i], f.addresses[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeStore) UnsetDefaultAddresses(_ context.Context, arg db.UnsetDefaultAddressesParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.addresses {
		if a.UserID.Bytes != arg.UserID.Bytes || a.AddressType != arg.AddressType {
			continue
		}
		if arg.ExcludeID.Valid && a.ID.Bytes == arg.ExcludeID.Bytes {
			continue
		}
		f.addresses[i].IsDefault = false
	}
	return nil
}

func (f *fakeStore) CreateUser(context.Context, db.CreateUserParams) (db.User, error) {
	return db.User{}, nil
}

func (f *fakeStore) GetUserByEmail(context.Context, string) (db.User, error) {
	return db.User{}, pgx.ErrNoRows
}

func (f *fakeStore) GetUserByID(context.Context, pgtype.UUID) (db.User, error) {
	return db.User{}, pgx.ErrNoRows
}

func (f *fakeStore) TouchLastLogin(context.Context, pgtype.UUID) error { return nil }

func (f *fakeStore) CreateRefreshToken(context.Context, db.CreateRefreshTokenParams) (db.RefreshToken, error) {
	return db.RefreshToken{}, nil
}

func (f *fakeStore) GetLatestRefreshToken(context.Context, pgtype.UUID) (db.RefreshToken, error) {
	return db.RefreshToken{}, pgx.ErrNoRows
}

func (f *fakeStore) DeleteRefreshTokensByUser(context.Context, pgtype.UUID) error { return nil }

func (f *fakeStore) DeleteExpiredRefreshTokens(context.Context) (int64, error) { return 0, nil }
