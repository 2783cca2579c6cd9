package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"listing-auction-service/internal/domain/auction"
	"listing-auction-service/internal/domain/shared"
	"listing-auction-service/internal/metrics"
	"listing-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// saveAttempts is the first save plus one transparent retry on a version conflict
const saveAttempts = 2

// auctionStore bounds every repository call by the store timeout and runs
// versioned read-modify-write cycles against the repository.
type auctionStore struct {
	repo    outbound.AuctionRepository
	timeout time.Duration
	logger  zerolog.Logger
}

func (s *auctionStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *auctionStore) get(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	a, err := s.repo.GetByListingID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load auction %s: %w", id, err)
	}
	return a, nil
}

func (s *auctionStore) find(ctx context.Context, filter auction.Filter) ([]*auction.Auction, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	auctions, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find auctions: %w", err)
	}
	return auctions, nil
}

func (s *auctionStore) create(ctx context.Context, a *auction.Auction) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.repo.Create(ctx, a); err != nil {
		return fmt.Errorf("failed to create auction %s: %w", a.ListingID, err)
	}
	return nil
}

func (s *auctionStore) save(ctx context.Context, a *auction.Auction, expectedVersion int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.Save(ctx, a, expectedVersion)
}

// mutate loads the auction, applies fn and saves it against the loaded
// version. fn reports whether it changed the record; unchanged records are
// not saved. A version conflict reloads and re-runs fn once, a second
// conflict returns ErrConcurrentModification. Retries are counted under op.
func (s *auctionStore) mutate(ctx context.Context, op string, id uuid.UUID, fn func(a *auction.Auction) (bool, error)) (*auction.Auction, bool, error) {
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		a, err := s.get(ctx, id)
		if err != nil {
			return nil, false, err
		}

		expected := a.Version
		changed, err := fn(a)
		if err != nil {
			return nil, false, err
		}
		if !changed {
			return a, false, nil
		}

		err = s.save(ctx, a, expected)
		if err == nil {
			return a, true, nil
		}
		if !errors.Is(err, shared.ErrVersionConflict) {
			return nil, false, fmt.Errorf("failed to save auction %s: %w", id, err)
		}

		s.logger.Debug().
			Str("auction_id", id.String()).
			Str("operation", op).
			Int64("expected_version", expected).
			Int("attempt", attempt).
			Msg("Version conflict on save")
		if attempt < saveAttempts {
			metrics.SaveRetries.WithLabelValues(op).Inc()
		}
	}
	return nil, false, shared.ErrConcurrentModification
}

type noopEmitter struct{}

func (noopEmitter) EmitBidUpdate(uuid.UUID, *auction.Auction) {}

func (noopEmitter) EmitStatusChange(uuid.UUID, auction.Status) {}

func emitterOrNoop(e outbound.EventEmitter) outbound.EventEmitter {
	if e == nil {
		return noopEmitter{}
	}
	return e
}

func clockOrNow(clock func() time.Time) func() time.Time {
	if clock == nil {
		return time.Now
	}
	return clock
}
