package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID            pgtype.UUID        `json:"id"`
	Email         string             `json:"email"`
	PasswordHash  string             `json:"password_hash"`
	CompanyName   string             `json:"company_name"`
	ContactPerson string             `json:"contact_person"`
	Phone         string             `json:"phone"`
	Country       string             `json:"country"`
	VatID         pgtype.Text        `json:"vat_id"`
	LastLogin     pgtype.Timestamptz `json:"last_login"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

type Address struct {
	ID          pgtype.UUID        `json:"id"`
	UserID      pgtype.UUID        `json:"user_id"`
	AddressType string             `json:"address_type"`
	Street      string             `json:"street"`
	PostalCode  string             `json:"postal_code"`
	City        string             `json:"city"`
	Country     string             `json:"country"`
	IsDefault   bool               `json:"is_default"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

type RefreshToken struct {
	ID        pgtype.UUID        `json:"id"`
	UserID    pgtype.UUID        `json:"user_id"`
	TokenHash string             `json:"token_hash"`
	ExpiresAt pgtype.Timestamptz `json:"expires_at"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}
