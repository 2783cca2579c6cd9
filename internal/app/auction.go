package app

import (
	"context"
	"fmt"
	"time"

	"listing-auction-service/internal/domain/auction"
	"listing-auction-service/internal/domain/shared"
	"listing-auction-service/internal/metrics"
	"listing-auction-service/internal/ports/inbound"
	"listing-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var _ inbound.AuctionService = (*AuctionService)(nil)

// AuctionService implements the auction administration and query use cases
type AuctionService struct {
	store       *auctionStore
	listingRepo outbound.ListingRepository
	emitter     outbound.EventEmitter
	now         func() time.Time
	logger      zerolog.Logger
}

type AuctionServiceParams struct {
	AuctionRepo  outbound.AuctionRepository
	ListingRepo  outbound.ListingRepository
	Emitter      outbound.EventEmitter
	StoreTimeout time.Duration
	Clock        func() time.Time
	Logger       zerolog.Logger
}

// NewAuctionService creates a new auction service
func NewAuctionService(params AuctionServiceParams) *AuctionService {
	logger := params.Logger.With().Str("component", "auction_service").Logger()
	return &AuctionService{
		store:       &auctionStore{repo: params.AuctionRepo, timeout: params.StoreTimeout, logger: logger},
		listingRepo: params.ListingRepo,
		emitter:     emitterOrNoop(params.Emitter),
		now:         clockOrNow(params.Clock),
		logger:      logger,
	}
}

// CreateAuction attaches a new auction to a listing
func (service *AuctionService) CreateAuction(ctx context.Context, req inbound.CreateAuctionRequest) (*auction.Auction, error) {
	service.logger.Info().
		Str("listing_id", req.ListingID.String()).
		Time("start_time", req.StartTime).
		Time("end_time", req.EndTime).
		Float64("starting_price", req.StartingPrice).
		Float64("reserve_price", req.ReservePrice).
		Msg("Attempting to create auction")

	a, err := auction.New(req.ListingID, auction.Schedule{
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		StartingPrice: req.StartingPrice,
		ReservePrice:  req.ReservePrice,
	}, service.now())
	if err != nil {
		service.logger.Warn().Err(err).Str("listing_id", req.ListingID.String()).Msg("Invalid auction schedule")
		return nil, err
	}

	if err := service.ensureListing(ctx, req.ListingID); err != nil {
		return nil, err
	}

	if err := service.store.create(ctx, a); err != nil {
		service.logger.Error().Err(err).Str("listing_id", req.ListingID.String()).Msg("Failed to save auction")
		return nil, err
	}

	service.logger.Info().
		Str("auction_id", a.ListingID.String()).
		Str("status", string(a.Status)).
		Msg("Auction created successfully")

	return a, nil
}

func (service *AuctionService) ensureListing(ctx context.Context, listingID uuid.UUID) error {
	ctx, cancel := service.store.withTimeout(ctx)
	defer cancel()

	if _, err := service.listingRepo.GetByID(ctx, listingID); err != nil {
		service.logger.Warn().Err(err).Str("listing_id", listingID.String()).Msg("Listing lookup failed")
		return fmt.Errorf("failed to load listing %s: %w", listingID, err)
	}
	return nil
}

// GetAuction retrieves an auction by its listing ID
func (service *AuctionService) GetAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error) {
	a, err := service.store.get(ctx, auctionID)
	if err != nil {
		service.logger.Debug().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to retrieve auction")
		return nil, err
	}
	return a, nil
}

// ListAuctions retrieves auctions in the requested statuses ordered by start time
func (service *AuctionService) ListAuctions(ctx context.Context, req inbound.ListAuctionsRequest) ([]*auction.Auction, error) {
	for _, status := range req.Statuses {
		if _, err := auction.ParseStatus(string(status)); err != nil {
			return nil, err
		}
	}
	auctions, err := service.store.find(ctx, auction.Filter{Statuses: req.Statuses})
	if err != nil {
		return nil, err
	}
	if auctions == nil {
		auctions = []*auction.Auction{}
	}
	return auctions, nil
}

// EditAuction applies an administrative partial update
func (service *AuctionService) EditAuction(ctx context.Context, auctionID uuid.UUID, req inbound.EditAuctionRequest) (*auction.Auction, error) {
	edit := auction.Edit{
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		StartingPrice: req.StartingPrice,
		ReservePrice:  req.ReservePrice,
		Status:        req.Status,
	}
	if edit.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", shared.ErrInvalidRequest)
	}

	var from auction.Status
	updated, _, err := service.store.mutate(ctx, metrics.OpEdit, auctionID, func(a *auction.Auction) (bool, error) {
		from = a.Status
		return true, a.ApplyEdit(edit, service.now())
	})
	if err != nil {
		service.logger.Warn().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to edit auction")
		return nil, err
	}

	if updated.Status != from {
		service.emitter.EmitStatusChange(auctionID, updated.Status)
	}

	service.logger.Info().
		Str("auction_id", auctionID.String()).
		Str("from", string(from)).
		Str("status", string(updated.Status)).
		Int64("version", updated.Version).
		Msg("Auction edited")

	return updated, nil
}

// CancelAuction moves an auction to Cancelled
func (service *AuctionService) CancelAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error) {
	updated, changed, err := service.store.mutate(ctx, metrics.OpCancel, auctionID, func(a *auction.Auction) (bool, error) {
		return a.Cancel(service.now())
	})
	if err != nil {
		service.logger.Warn().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to cancel auction")
		return nil, err
	}

	if changed {
		service.emitter.EmitStatusChange(auctionID, updated.Status)
		service.logger.Info().Str("auction_id", auctionID.String()).Msg("Auction cancelled")
	}
	return updated, nil
}
