package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const addressColumns = `id, user_id, address_type, street, postal_code, city, country, is_default, created_at, updated_at`

func scanAddress(row interface{ Scan(...interface{}) error }) (Address, error) {
	var i Address
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.AddressType,
		&i.Street,
		&i.PostalCode,
		&i.City,
		&i.Country,
		&i.IsDefault,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listAddressesByUser = `-- name: ListAddressesByUser :many
SELECT ` + addressColumns + `
FROM addresses
WHERE user_id = $1
ORDER BY address_type, is_default DESC`

func (q *Queries) ListAddressesByUser(ctx context.Context, userID pgtype.UUID) ([]Address, error) {
	rows, err := q.db.Query(ctx, listAddressesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Address{}
	for rows.Next() {
		i, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getAddress = `-- name: GetAddress :one
SELECT ` + addressColumns + ` FROM addresses WHERE id = $1 AND user_id = $2`

type GetAddressParams struct {
	ID     pgtype.UUID `json:"id"`
	UserID pgtype.UUID `json:"user_id"`
}

func (q *Queries) GetAddress(ctx context.Context, arg GetAddressParams) (Address, error) {
	return scanAddress(q.db.QueryRow(ctx, getAddress, arg.ID, arg.UserID))
}

const createAddress = `-- name: CreateAddress :one
INSERT INTO addresses (user_id, address_type, street, postal_code, city, country, is_default)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + addressColumns

type CreateAddressParams struct {
	UserID      pgtype.UUID `json:"user_id"`
	AddressType string      `json:"address_type"`
	Street      string      `json:"street"`
	PostalCode  string      `json:"postal_code"`
	City        string      `json:"city"`
	Country     string      `json:"country"`
	IsDefault   bool        `json:"is_default"`
}

func (q *Queries) CreateAddress(ctx context.Context, arg CreateAddressParams) (Address, error) {
	row := q.db.QueryRow(ctx, createAddress,
		arg.UserID,
		arg.AddressType,
		arg.Street,
		arg.PostalCode,
		arg.City,
		arg.Country,
		arg.IsDefault,
	)
	return scanAddress(row)
}

const updateAddress = `-- name: UpdateAddress :one
UPDATE addresses
SET street = $3, postal_code = $4, city = $5, country = $6, is_default = $7, updated_at = NOW()
WHERE id = $1 AND user_id = $2
RETURNING ` + addressColumns

type UpdateAddressParams struct {
	ID         pgtype.UUID `json:"id"`
	UserID     pgtype.UUID `json:"user_id"`
	Street     string      `json:"street"`
	PostalCode string      `json:"postal_code"`
	City       string      `json:"city"`
	Country    string      `json:"country"`
	IsDefault  bool        `json:"is_default"`
}

func (q *Queries) UpdateAddress(ctx context.Context, arg UpdateAddressParams) (Address, error) {
	row := q.db.QueryRow(ctx, updateAddress,
		arg.ID,
		arg.UserID,
		arg.Street,
		arg.PostalCode,
		arg.City,
		arg.Country,
		arg.IsDefault,
	)
	return scanAddress(row)
}

const deleteAddress = `-- name: DeleteAddress :execrows
DELETE FROM addresses WHERE id = $1 AND user_id = $2`

type DeleteAddressParams struct {
	ID     pgtype.UUID `json:"id"`
	UserID pgtype.UUID `json:"user_id"`
}

func (q *Queries) DeleteAddress(ctx context.Context, arg DeleteAddressParams) (int64, error) {
	result, err := q.db.Exec(ctx, deleteAddress, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const unsetDefaultAddresses = `-- name: UnsetDefaultAddresses :exec
UPDATE addresses SET is_default = FALSE
WHERE user_id = $1 AND address_type = $2 AND ($3::uuid IS NULL OR id <> $3)`

type UnsetDefaultAddressesParams struct {
	UserID      pgtype.UUID `json:"user_id"`
	AddressType string      `json:"address_type"`
	ExcludeID   pgtype.UUID `json:"exclude_id"`
}

func (q *Queries) UnsetDefaultAddresses(ctx context.Context, arg UnsetDefaultAddressesParams) error {
	_, err := q.db.Exec(ctx, unsetDefaultAddresses, arg.UserID, arg.AddressType, arg.ExcludeID)
	return err
}
