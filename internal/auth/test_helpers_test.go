package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/roller-shop/internal/db"
)

type fakeStore struct {
	mu        sync.Mutex
	users     map[[16]byte]db.User
	addresses []db.Address
	tokens    []db.RefreshToken
	failAddr  error
}

var _ db.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[[16]byte]db.User)}
}

func newID() pgtype.UUID {
	return pgtype.UUID{Bytes: uuid.New(), Valid: true}
}

func ts(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func (f *fakeStore) InTx(ctx context.Context, fn func(db.Querier) error) error {
	f.mu.Lock()
	users := make(map[[16]byte]db.User, len(f.users))
	for k, v := range f.users {
		users[k] = v
	}
	addresses := append([]db.Address(nil), f.addresses...)
	tokens := append([]db.RefreshToken(nil), f.tokens...)
	f.mu.Unlock()

	if err := fn(f); err != nil {
		f.mu.Lock()
		f.users, f.addresses, f.tokens = users, addresses, tokens
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) CreateUser(_ context.Context, arg db.CreateUserParams) (db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == arg.Email {
			return db.User{}, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
		}
	}
	now := time.Now()
	u := db.User{
		ID:            newID(),
		Email:         arg.Email,
		PasswordHash:  arg.PasswordHash,
		CompanyName:   arg.CompanyName,
		ContactPerson: arg.ContactPerson,
		Phone:         arg.Phone,
		Country:       arg.Country,
		VatID:         arg.VatID,
		CreatedAt:     ts(now),
		UpdatedAt:     ts(now),
	}
	f.users[u.ID.Bytes] = u
	return u, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return db.User{}, pgx.ErrNoRows
}

func (f *fakeStore) GetUserByID(_ context.Context, id pgtype.UUID) (db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id.Bytes]
	if !ok {
		return db.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeStore) TouchLastLogin(_ context.Context, id pgtype.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id.Bytes]
	if !ok {
		return pgx.ErrNoRows
	}
	u.LastLogin = ts(time.Now())
	f.users[id.Bytes] = u
	return nil
}

func (f *fakeStore) deleteUser(id pgtype.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id.Bytes)
}

func (f *fakeStore) CreateRefreshToken(_ context.Context, arg db.CreateRefreshTokenParams) (db.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := db.RefreshToken{ID: newID(), UserID: arg.UserID, TokenHash: arg.TokenHash, ExpiresAt: arg.ExpiresAt, CreatedAt: ts(time.Now())}
	f.tokens = append(f.tokens, t)
	return t, nil
}

func (f *fakeStore) GetLatestRefreshToken(_ context.Context, userID pgtype.UUID) (db.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for i := len(f.tokens) - 1; i >= 0; i-- {
		t := f.tokens[i]
		if t.UserID.Bytes == userID.Bytes && t.ExpiresAt.Time.After(now) {
			return t, nil
		}
	}
	return db.RefreshToken{}, pgx.ErrNoRows
}

func (f *fakeStore) DeleteRefreshTokensByUser(_ context.Context, userID pgtype.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.tokens[:0]
	for _, t := range f.tokens {
		if t.UserID.Bytes != userID.Bytes {
			kept = append(kept, t)
		}
	}
	f.tokens = kept
	return nil
}

func (f *fakeStore) DeleteExpiredRefreshTokens(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	kept := f.tokens[:0]
	var n int64
	for _, t := range f.tokens {
		if t.ExpiresAt.Time.After(now) {
			kept = append(kept, t)
			continue
		}
		n++
	}
	f.tokens = kept
	return n, nil
}

func (f *fakeStore) tokenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

func (f *fakeStore) CreateAddress(_ context.Context, arg db.CreateAddressParams) (db.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAddr != nil {
		return db.Address{}, f.failAddr
	}
	a := db.Address{
		ID:          newID(),
		UserID:      arg.UserID,
		AddressType: arg.AddressType,
		Street:      arg.Street,
		PostalCode:  arg.PostalCode,
		City:        arg.City,
		Country:     arg.Country,
		IsDefault:   arg.IsDefault,
	}
	f.addresses = append(f.addresses, a)
	return a, nil
}

func (f *fakeStore) ListAddressesByUser(_ context.Context, userID pgtype.UUID) ([]db.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Address
	for _, a := range f.addresses {
		if a.UserID.Bytes == userID.Bytes {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) GetAddress(context.Context, db.GetAddressParams) (db.Address, error) {
	return db.Address{}, pgx.ErrNoRows
}

func (f *fakeStore) UpdateAddress(context.Context, db.UpdateAddressParams) (db.Address, error) {
	return db.Address{}, pgx.ErrNoRows
}

func (f *fakeStore) DeleteAddress(context.Context, db.DeleteAddressParams) (int64, error) {
	return 0, nil
}

func (f *fakeStore) UnsetDefaultAddresses(context.Context, db.UnsetDefaultAddressesParams) error {
	return nil
}
