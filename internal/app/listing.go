package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"listing-auction-service/internal/domain/shared"
	"listing-auction-service/internal/ports/inbound"
	"listing-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var _ inbound.ListingService = (*ListingService)(nil)

// ListingService implements the listing use cases
type ListingService struct {
	listingRepo outbound.ListingRepository
	timeout     time.Duration
	now         func() time.Time
	logger      zerolog.Logger
}

type ListingServiceParams struct {
	ListingRepo  outbound.ListingRepository
	StoreTimeout time.Duration
	Clock        func() time.Time
	Logger       zerolog.Logger
}

// NewListingService creates a new listing service
func NewListingService(params ListingServiceParams) *ListingService {
	return &ListingService{
		listingRepo: params.ListingRepo,
		timeout:     params.StoreTimeout,
		now:         clockOrNow(params.Clock),
		logger:      params.Logger.With().Str("component", "listing_service").Logger(),
	}
}

func (s *ListingService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// CreateListing creates a new listing
func (s *ListingService) CreateListing(ctx context.Context, req inbound.CreateListingRequest) (*shared.Listing, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, shared.ErrTitleRequired
	}

	now := s.now()
	listing := &shared.Listing{
		ID:          uuid.New(),
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.listingRepo.Create(ctx, listing); err != nil {
		s.logger.Error().Err(err).Str("title", title).Msg("Failed to create listing")
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.logger.Info().Str("listing_id", listing.ID.String()).Str("title", title).Msg("Listing created")
	return listing, nil
}

// GetListing retrieves a listing by ID
func (s *ListingService) GetListing(ctx context.Context, listingID uuid.UUID) (*shared.Listing, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.listingRepo.GetByID(ctx, listingID)
}

// DeleteListing deletes a listing and its auction
func (s *ListingService) DeleteListing(ctx context.Context, listingID uuid.UUID) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.listingRepo.Delete(ctx, listingID); err != nil {
		return fmt.Errorf("failed to delete listing %s: %w", listingID, err)
	}

	s.logger.Info().Str("listing_id", listingID.String()).Msg("Listing deleted")
	return nil
}

// SeedListings creates n demo listings, used by the in-memory backend at startup
func (s *ListingService) SeedListings(ctx context.Context, n int) ([]*shared.Listing, error) {
	listings := make([]*shared.Listing, 0, n)
	for i := 1; i <= n; i++ {
		listing, err := s.CreateListing(ctx, inbound.CreateListingRequest{
			Title:       fmt.Sprintf("Demo listing %d", i),
			Description: "Seeded at startup",
		})
		if err != nil {
			return listings, err
		}
		listings = append(listings, listing)
	}
	return listings, nil
}
