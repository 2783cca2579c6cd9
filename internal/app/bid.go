package app

import (
	"context"
	"time"

	"listing-auction-service/internal/domain/auction"
	"listing-auction-service/internal/domain/bid"
	"listing-auction-service/internal/domain/shared"
	"listing-auction-service/internal/metrics"
	"listing-auction-service/internal/ports/inbound"
	"listing-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var _ inbound.BidService = (*BidService)(nil)

// BidService implements the bid use cases
type BidService struct {
	store   *auctionStore
	emitter outbound.EventEmitter
	now     func() time.Time
	logger  zerolog.Logger
}

type BidServiceParams struct {
	AuctionRepo  outbound.AuctionRepository
	Emitter      outbound.EventEmitter
	StoreTimeout time.Duration
	Clock        func() time.Time
	Logger       zerolog.Logger
}

// NewBidService creates a new bid service
func NewBidService(params BidServiceParams) *BidService {
	logger := params.Logger.With().Str("component", "bid_service").Logger()
	return &BidService{
		store:   &auctionStore{repo: params.AuctionRepo, timeout: params.StoreTimeout, logger: logger},
		emitter: emitterOrNoop(params.Emitter),
		now:     clockOrNow(params.Clock),
		logger:  logger,
	}
}

// PlaceBid places a new bid on an auction and returns the updated auction
func (s *BidService) PlaceBid(ctx context.Context, req inbound.PlaceBidRequest) (*auction.Auction, error) {
	s.logger.Debug().
		Str("auction_id", req.AuctionID.String()).
		Str("user_id", req.BidderID.String()).
		Float64("amount", req.Amount).
		Msg("Attempting to place bid")

	if !bid.ValidAmount(req.Amount) {
		metrics.BidsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, shared.ErrInvalidAmount
	}

	var accepted bid.Bid
	updated, _, err := s.store.mutate(ctx, metrics.OpBid, req.AuctionID, func(a *auction.Auction) (bool, error) {
		b, err := a.PlaceBid(req.BidderID, req.Amount, s.now())
		if err != nil {
			return false, err
		}
		accepted = b
		return true, nil
	})
	if err != nil {
		s.recordFailure(req, err)
		return nil, err
	}

	metrics.BidsTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()
	s.emitter.EmitBidUpdate(req.AuctionID, updated.Clone())

	s.logger.Info().
		Str("bid_id", accepted.ID.String()).
		Str("auction_id", req.AuctionID.String()).
		Str("user_id", req.BidderID.String()).
		Float64("amount", accepted.Amount).
		Int64("version", updated.Version).
		Msg("Bid placed successfully")

	return updated, nil
}

func (s *BidService) recordFailure(req inbound.PlaceBidRequest, err error) {
	event := s.logger.Warn()
	switch shared.KindOf(err) {
	case shared.KindValidation, shared.KindNotFound, shared.KindConflict:
		metrics.BidsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		event = s.logger.Info()
	case shared.KindTransient:
		metrics.BidsTotal.WithLabelValues(metrics.OutcomeBusy).Inc()
	default:
		metrics.BidsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		event = s.logger.Error()
	}

	event.Err(err).
		Str("auction_id", req.AuctionID.String()).
		Str("user_id", req.BidderID.String()).
		Float64("amount", req.Amount).
		Msg("Bid not placed")
}

// ListBids retrieves the bids of an auction in insertion order
func (s *BidService) ListBids(ctx context.Context, auctionID uuid.UUID) (bid.Ledger, error) {
	a, err := s.store.get(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	return a.Bids.Clone(), nil
}
