// Package address manages the shipping and billing addresses of an account.
package address

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/roller-shop/internal/common"
	"github.com/noah-isme/roller-shop/internal/db"
)

const (
	TypeShipping = "shipping"
	TypeBilling  = "billing"
)

var errNotFound = common.NotFound("Address not found")

// Address is the API form of a stored address.
type Address struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	AddressType string    `json:"address_type"`
	Street      string    `json:"street"`
	PostalCode  string    `json:"postal_code"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Input is the body of create and update requests. AddressType is ignored on
// update; an address keeps its type for life.
type Input struct {
	AddressType string `json:"address_type"`
	Street      string `json:"street"`
	PostalCode  string `json:"postal_code"`
	City        string `json:"city"`
	Country     string `json:"country"`
	IsDefault   bool   `json:"is_default"`
}

func (in Input) trimmed() Input {
	in.AddressType = strings.ToLower(strings.TrimSpace(in.AddressType))
	in.Street = strings.TrimSpace(in.Street)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.City = strings.TrimSpace(in.City)
	in.Country = strings.TrimSpace(in.Country)
	return in
}

func (in Input) missingFields() bool {
	return in.Street == "" || in.PostalCode == "" || in.City == "" || in.Country == ""
}

// Service orchestrates address book operations.
type Service struct {
	store db.Store
}

// NewService constructs a new address service.
func NewService(store db.Store) *Service {
	return &Service{store: store}
}

// List returns the user's addresses, shipping and billing grouped with the
// default of each type first.
func (s *Service) List(ctx context.Context, userID string) ([]Address, error) {
	uid, err := toUUID(userID)
	if err != nil {
		return nil, common.Unauthorized("Invalid token")
	}
	rows, err := s.store.ListAddressesByUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	addresses := make([]Address, 0, len(rows))
	for _, row := range rows {
		addresses = append(addresses, convertAddress(row))
	}
	return addresses, nil
}

// Get returns one address owned by the user.
func (s *Service) Get(ctx context.Context, userID, addressID string) (Address, error) {
	uid, err := toUUID(userID)
	if err != nil {
		return Address{}, common.Unauthorized("Invalid token")
	}
	aid, err := toUUID(addressID)
	if err != nil {
		return Address{}, errNotFound
	}
	row, err := s.store.GetAddress(ctx, db.GetAddressParams{ID: aid, UserID: uid})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Address{}, errNotFound
		}
		return Address{}, fmt.Errorf("get address: %w", err)
	}
	return convertAddress(row), nil
}

// Create inserts a new address. A default address clears the default flag of
// the user's other addresses of the same type in the same transaction.
func (s *Service) Create(ctx context.Context, userID string, input Input) (Address, error) {
	uid, err := toUUID(userID)
	if err != nil {
		return Address{}, common.Unauthorized("Invalid token")
	}
	input = input.trimmed()
	if input.AddressType != TypeShipping && input.AddressType != TypeBilling {
		return Address{}, common.BadRequest("Invalid address type")
	}
	if input.missingFields() {
		return Address{}, common.BadRequest("Missing required fields")
	}

	var created db.Address
	err = s.store.InTx(ctx, func(q db.Querier) error {
		if input.IsDefault {
			if err := q.UnsetDefaultAddresses(ctx, db.UnsetDefaultAddressesParams{UserID: uid, AddressType: input.AddressType}); err != nil {
				return err
			}
		}
		row, err := q.CreateAddress(ctx, db.CreateAddressParams{
			UserID:      uid,
			AddressType: input.AddressType,
			Street:      input.Street,
			PostalCode:  input.PostalCode,
			City:        input.City,
			Country:     input.Country,
			IsDefault:   input.IsDefault,
		})
		created = row
		return err
	})
	if err != nil {
		return Address{}, fmt.Errorf("create address: %w", err)
	}
	return convertAddress(created), nil
}

// Update replaces the fields of an address owned by the user.
func (s *Service) Update(ctx context.Context, userID, addressID string, input Input) (Address, error) {
	uid, err := toUUID(userID)
	if err != nil {
		return Address{}, common.Unauthorized("Invalid token")
	}
	aid, err := toUUID(addressID)
	if err != nil {
		return Address{}, errNotFound
	}
	input = input.trimmed()
	if input.missingFields() {
		return Address{}, common.BadRequest("Missing required fields")
	}

	var updated db.Address
	err = s.store.InTx(ctx, func(q db.Querier) error {
		existing, err := q.GetAddress(ctx, db.GetAddressParams{ID: aid, UserID: uid})
		if err != nil {
			return err
		}
		if input.IsDefault {
			if err := q.UnsetDefaultAddresses(ctx, db.UnsetDefaultAddressesParams{
				UserID:      uid,
				AddressType: existing.AddressType,
				ExcludeID:   aid,
			}); err != nil {
				return err
			}
		}
		row, err := q.UpdateAddress(ctx, db.UpdateAddressParams{
			ID:         aid,
			UserID:     uid,
			Street:     input.Street,
			PostalCode: input.PostalCode,
			City:       input.City,
			Country:    input.Country,
			IsDefault:  input.IsDefault,
		})
		updated = row
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Address{}, errNotFound
		}
		return Address{}, fmt.Errorf("update address: %w", err)
	}
	return convertAddress(updated), nil
}

// Delete removes an address owned by the user.
func (s *Service) Delete(ctx context.Context, userID, addressID string) error {
	uid, err := toUUID(userID)
	if err != nil {
		return common.Unauthorized("Invalid token")
	}
	aid, err := toUUID(addressID)
	if err != nil {
		return errNotFound
	}
	n, err := s.store.DeleteAddress(ctx, db.DeleteAddressParams{ID: aid, UserID: uid})
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if n == 0 {
		return errNotFound
	}
	return nil
}

func convertAddress(row db.Address) Address {
	return Address{
		ID:          uuidString(row.ID),
		UserID:      uuidString(row.UserID),
		AddressType: row.AddressType,
		Street:      row.Street,
		PostalCode:  row.PostalCode,
		City:        row.City,
		Country:     row.Country,
		IsDefault:   row.IsDefault,
		CreatedAt:   timeFromPG(row.CreatedAt),
		UpdatedAt:   timeFromPG(row.UpdatedAt),
	}
}

func toUUID(value string) (pgtype.UUID, error) {
	var id pgtype.UUID
	if err := id.Scan(strings.TrimSpace(value)); err != nil {
		return pgtype.UUID{}, err
	}
	return id, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	u, err := uuid.FromBytes(id.Bytes[:])
	if err != nil {
		return ""
	}
	return u.String()
}

func timeFromPG(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time
}
