package outbound

//go:generate mockgen -destination=mocks/mock_repositories.go -package=mocks listing-auction-service/internal/ports/outbound AuctionRepository,ListingRepository,EventEmitter

import (
	"context"

	"listing-auction-service/internal/domain/auction"
	"listing-auction-service/internal/domain/shared"

	"github.com/google/uuid"
)

// AuctionRepository defines the interface for auction persistence
type AuctionRepository interface {
	// Create attaches a new auction to its listing. Returns ErrListingNotFound
	// or ErrAuctionAlreadyExists.
	Create(ctx context.Context, a *auction.Auction) error

	// GetByListingID retrieves the auction of a listing
	GetByListingID(ctx context.Context, listingID uuid.UUID) (*auction.Auction, error)

	// Find retrieves auctions matching the filter ordered by start time
	Find(ctx context.Context, filter auction.Filter) ([]*auction.Auction, error)

	// Save overwrites the auction if its stored version equals expectedVersion.
	// On success a.Version is advanced. Returns ErrVersionConflict or ErrAuctionNotFound.
	Save(ctx context.Context, a *auction.Auction, expectedVersion int64) error
}

// ListingRepository defines the interface for listing persistence
type ListingRepository interface {
	// Create creates a new listing
	Create(ctx context.Context, listing *shared.Listing) error

	// GetByID retrieves a listing by ID
	GetByID(ctx context.Context, id uuid.UUID) (*shared.Listing, error)

	// Delete deletes a listing together with its auction
	Delete(ctx context.Context, id uuid.UUID) error
}
