package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/coregatekit/microservices/internal/domain"
	apperrors "github.com/coregatekit/microservices/pkg/errors"
)

// AddressRepository implements repository.AddressRepository using PostgreSQL.
//
// Every write that flags an address as default clears the sibling default of
// the same (user_id, type) in the same transaction, so at most one default per
// pair exists at any commit point. A partial unique index on the table backs
// this up.
type AddressRepository struct {
	db DB
}

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(db DB) *AddressRepository {
	return &AddressRepository{db: db}
}

const addressColumns = `id, user_id, type, address_line1, address_line2, city, state, postal_code, country, is_default, created_at, updated_at`

// Create inserts a new address. A default-flagged address displaces the
// current default of its (user, type) pair atomically.
func (r *AddressRepository) Create(ctx context.Context, a *domain.Address) error {
	insert := `
		INSERT INTO addresses (id, user_id, type, address_line1, address_line2, city, state, postal_code, country, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	args := []any{
		a.ID,
		a.UserID,
		a.Type,
		a.AddressLine1,
		a.AddressLine2,
		a.City,
		a.State,
		a.PostalCode,
		a.Country,
		a.IsDefault,
		a.CreatedAt,
		a.UpdatedAt,
	}

	if !a.IsDefault {
		if _, err := r.db.Exec(ctx, insert, args...); err != nil {
			return fmt.Errorf("insert address: %w", err)
		}
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Clear the current default of this (user, type) before inserting the
	// replacement, so the partial unique index never trips.
	_, err = tx.Exec(ctx,
		`UPDATE addresses SET is_default = false WHERE user_id = $1 AND type = $2 AND is_default = true`,
		a.UserID, a.Type,
	)
	if err != nil {
		return fmt.Errorf("clear default address: %w", err)
	}

	if _, err := tx.Exec(ctx, insert, args...); err != nil {
		return fmt.Errorf("insert address: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an address scoped to its owner. An id belonging to a
// different user is indistinguishable from a missing one.
func (r *AddressRepository) GetByID(ctx context.Context, addressID, userID string) (*domain.Address, error) {
	query := `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE id = $1 AND user_id = $2`

	var a domain.Address
	err := r.db.QueryRow(ctx, query, addressID, userID).Scan(
		&a.ID,
		&a.UserID,
		&a.Type,
		&a.AddressLine1,
		&a.AddressLine2,
		&a.City,
		&a.State,
		&a.PostalCode,
		&a.Country,
		&a.IsDefault,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan address: %w", err)
	}

	return &a, nil
}

// ListByUser returns all addresses for the given user, optionally filtered by
// type when typ is non-empty.
func (r *AddressRepository) ListByUser(ctx context.Context, userID string, typ domain.AddressType) ([]domain.Address, error) {
	query := `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC`
	args := []any{userID}

	if typ != "" {
		query = `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE user_id = $1 AND type = $2
		ORDER BY is_default DESC, created_at DESC`
		args = append(args, typ)
	}

	return r.listAddresses(ctx, query, args...)
}

// ListDefaults returns the user's default addresses, at most one per type.
func (r *AddressRepository) ListDefaults(ctx context.Context, userID string) ([]domain.Address, error) {
	query := `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE user_id = $1 AND is_default = true
		ORDER BY type`

	return r.listAddresses(ctx, query, userID)
}

// Update rewrites the stored row, scoped to its owner. A default-flagged
// update clears sibling defaults of the row's type in the same transaction.
func (r *AddressRepository) Update(ctx context.Context, a *domain.Address) error {
	a.UpdatedAt = time.Now().UTC()

	update := `
		UPDATE addresses
		SET type = $1, address_line1 = $2, address_line2 = $3, city = $4, state = $5,
		    postal_code = $6, country = $7, is_default = $8, updated_at = $9
		WHERE id = $10 AND user_id = $11`

	args := []any{
		a.Type,
		a.AddressLine1,
		a.AddressLine2,
		a.City,
		a.State,
		a.PostalCode,
		a.Country,
		a.IsDefault,
		a.UpdatedAt,
		a.ID,
		a.UserID,
	}

	if !a.IsDefault {
		ct, err := r.db.Exec(ctx, update, args...)
		if err != nil {
			return fmt.Errorf("update address: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return apperrors.NotFound("address", a.ID)
		}
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Clear any other default of the target type. The row itself is excluded
	// so a no-op update stays idempotent.
	_, err = tx.Exec(ctx,
		`UPDATE addresses SET is_default = false WHERE user_id = $1 AND type = $2 AND is_default = true AND id <> $3`,
		a.UserID, a.Type, a.ID,
	)
	if err != nil {
		return fmt.Errorf("clear default address: %w", err)
	}

	ct, err := tx.Exec(ctx, update, args...)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("address", a.ID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// SetDefault re-points the default of the given type to addressID, unsetting
// any previous default within a transaction. The (id, user, type) triple must
// match an existing row; a mismatch on any of the three reads as not-found.
func (r *AddressRepository) SetDefault(ctx context.Context, userID, addressID string, typ domain.AddressType) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Verify the target and lock it for the duration of the swap.
	var id string
	err = tx.QueryRow(ctx,
		`SELECT id FROM addresses WHERE id = $1 AND user_id = $2 AND type = $3 FOR UPDATE`,
		addressID, userID, typ,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("address", addressID)
		}
		return fmt.Errorf("lock default address: %w", err)
	}

	// Unset every default of this type, the target included; re-running the
	// same call lands in the same end state.
	_, err = tx.Exec(ctx,
		`UPDATE addresses SET is_default = false WHERE user_id = $1 AND type = $2 AND is_default = true`,
		userID, typ,
	)
	if err != nil {
		return fmt.Errorf("unset default address: %w", err)
	}

	// Set the new default.
	_, err = tx.Exec(ctx,
		`UPDATE addresses SET is_default = true WHERE id = $1 AND user_id = $2`,
		addressID, userID,
	)
	if err != nil {
		return fmt.Errorf("set default address: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// DeleteByUser removes all addresses for the user and reports how many rows
// were deleted. Zero rows is not an error.
func (r *AddressRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM addresses WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete addresses: %w", err)
	}

	return ct.RowsAffected(), nil
}

func (r *AddressRepository) listAddresses(ctx context.Context, query string, args ...any) ([]domain.Address, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []domain.Address
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.Type,
			&a.AddressLine1,
			&a.AddressLine2,
			&a.City,
			&a.State,
			&a.PostalCode,
			&a.Country,
			&a.IsDefault,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan address row: %w", err)
		}
		addresses = append(addresses, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate address rows: %w", err)
	}

	if addresses == nil {
		addresses = []domain.Address{}
	}

	return addresses, nil
}
