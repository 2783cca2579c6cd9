package inbound

import (
	"context"
	"time"

	"listing-auction-service/internal/domain/auction"
	"listing-auction-service/internal/domain/bid"
	"listing-auction-service/internal/domain/shared"

	"github.com/google/uuid"
)

// AuctionService defines the interface for auction administration and queries
type AuctionService interface {
	// CreateAuction attaches a new auction to a listing
	CreateAuction(ctx context.Context, req CreateAuctionRequest) (*auction.Auction, error)

	// GetAuction retrieves an auction with its bid history and winner
	GetAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error)

	// ListAuctions retrieves auctions in the given statuses ordered by start time
	ListAuctions(ctx context.Context, req ListAuctionsRequest) ([]*auction.Auction, error)

	// EditAuction applies an administrative partial update
	EditAuction(ctx context.Context, auctionID uuid.UUID, req EditAuctionRequest) (*auction.Auction, error)

	// CancelAuction moves an auction to Cancelled
	CancelAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error)
}

// BidService defines the interface for bid operations
type BidService interface {
	// PlaceBid admits a bid into the auction's ledger
	PlaceBid(ctx context.Context, req PlaceBidRequest) (*auction.Auction, error)

	// ListBids returns the ledger in insertion order
	ListBids(ctx context.Context, auctionID uuid.UUID) (bid.Ledger, error)
}

// ListingService defines the interface for the minimal listing surface
type ListingService interface {
	CreateListing(ctx context.Context, req CreateListingRequest) (*shared.Listing, error)
	GetListing(ctx context.Context, listingID uuid.UUID) (*shared.Listing, error)
	DeleteListing(ctx context.Context, listingID uuid.UUID) error
}

// request to create an auction
type CreateAuctionRequest struct {
	ListingID     uuid.UUID `json:"listing_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	StartingPrice float64   `json:"starting_price"`
	ReservePrice  float64   `json:"reserve_price"`
}

// request to list auctions; an empty Statuses lists every status
type ListAuctionsRequest struct {
	Statuses []auction.Status `json:"statuses,omitempty"`
}

// request to edit an auction; nil fields are left unchanged
type EditAuctionRequest struct {
	StartTime     *time.Time      `json:"start_time,omitempty"`
	EndTime       *time.Time      `json:"end_time,omitempty"`
	StartingPrice *float64        `json:"starting_price,omitempty"`
	ReservePrice  *float64        `json:"reserve_price,omitempty"`
	Status        *auction.Status `json:"status,omitempty"`
}

// request to place a bid
type PlaceBidRequest struct {
	AuctionID uuid.UUID `json:"auction_id"`
	BidderID  uuid.UUID `json:"bidder_id"`
	Amount    float64   `json:"amount"`
}

// request to create a listing
type CreateListingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
