package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"listing-auction-service/internal/domain/shared"
	"listing-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
)

var _ outbound.ListingRepository = (*ListingRepository)(nil)

// ListingRepository implements the listing repository interface
type ListingRepository struct {
	conn *Connection
}

// NewListingRepository creates a new listing repository
func NewListingRepository(conn *Connection) *ListingRepository {
	return &ListingRepository{conn: conn}
}

// Create creates a new listing
func (r *ListingRepository) Create(ctx context.Context, listing *shared.Listing) error {
	query := `
		INSERT INTO listings (id, title, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.conn.GetDB().ExecContext(ctx, query,
		listing.ID,
		listing.Title,
		listing.Description,
		listing.CreatedAt,
		listing.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	return nil
}

// GetByID retrieves a listing by ID
func (r *ListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*shared.Listing, error) {
	query := `
		SELECT id, title, description, created_at, updated_at
		FROM listings
		WHERE id = $1
	`

	var listing shared.Listing
	err := r.conn.GetDB().QueryRowContext(ctx, query, id).Scan(
		&listing.ID,
		&listing.Title,
		&listing.Description,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	return &listing, nil
}

// Delete deletes a listing; the auction and its bids cascade
func (r *ListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.conn.GetDB().ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return shared.ErrListingNotFound
	}

	return nil
}
