package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, email, password_hash, company_name, contact_person, phone, country, vat_id, last_login, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.PasswordHash,
		&i.CompanyName,
		&i.ContactPerson,
		&i.Phone,
		&i.Country,
		&i.VatID,
		&i.LastLogin,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (email, password_hash, company_name, contact_person, phone, country, vat_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns

type CreateUserParams struct {
	Email         string      `json:"email"`
	PasswordHash  string      `json:"password_hash"`
	CompanyName   string      `json:"company_name"`
	ContactPerson string      `json:"contact_person"`
	Phone         string      `json:"phone"`
	Country       string      `json:"country"`
	VatID         pgtype.Text `json:"vat_id"`
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.Email,
		arg.PasswordHash,
		arg.CompanyName,
		arg.ContactPerson,
		arg.Phone,
		arg.Country,
		arg.VatID,
	)
	return scanUser(row)
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + ` FROM users WHERE email = $1`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id pgtype.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

const touchLastLogin = `-- name: TouchLastLogin :exec
UPDATE users SET last_login = NOW() WHERE id = $1`

func (q *Queries) TouchLastLogin(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, touchLastLogin, id)
	return err
}
