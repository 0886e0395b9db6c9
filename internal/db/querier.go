package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type Querier interface {
	CreateAddress(ctx context.Context, arg CreateAddressParams) (Address, error)
	CreateRefreshToken(ctx context.Context, arg CreateRefreshTokenParams) (RefreshToken, error)
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)
	DeleteAddress(ctx context.Context, arg DeleteAddressParams) (int64, error)
	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)
	DeleteRefreshTokensByUser(ctx context.Context, userID pgtype.UUID) error
	GetAddress(ctx context.Context, arg GetAddressParams) (Address, error)
	GetLatestRefreshToken(ctx context.Context, userID pgtype.UUID) (RefreshToken, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (User, error)
	ListAddressesByUser(ctx context.Context, userID pgtype.UUID) ([]Address, error)
	TouchLastLogin(ctx context.Context, id pgtype.UUID) error
	UnsetDefaultAddresses(ctx context.Context, arg UnsetDefaultAddressesParams) error
	UpdateAddress(ctx context.Context, arg UpdateAddressParams) (Address, error)
}

var _ Querier = (*Queries)(nil)
