package app

import (
	"context"
	"errors"
	"time"

	"listing-auction-service/internal/domain/auction"
	"listing-auction-service/internal/domain/shared"
	"listing-auction-service/internal/metrics"
	"listing-auction-service/internal/ports/outbound"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

const defaultSweepWorkers = 4

// LifecycleService applies the time-driven status transitions
type LifecycleService struct {
	store   *auctionStore
	emitter outbound.EventEmitter
	workers int
	now     func() time.Time
	logger  zerolog.Logger
}

type LifecycleServiceParams struct {
	AuctionRepo  outbound.AuctionRepository
	Emitter      outbound.EventEmitter
	StoreTimeout time.Duration
	Workers      int
	Clock        func() time.Time
	Logger       zerolog.Logger
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(params LifecycleServiceParams) *LifecycleService {
	logger := params.Logger.With().Str("component", "lifecycle_service").Logger()
	workers := params.Workers
	if workers <= 0 {
		workers = defaultSweepWorkers
	}
	return &LifecycleService{
		store:   &auctionStore{repo: params.AuctionRepo, timeout: params.StoreTimeout, logger: logger},
		emitter: emitterOrNoop(params.Emitter),
		workers: workers,
		now:     clockOrNow(params.Clock),
		logger:  logger,
	}
}

// StartDueAuctions moves Upcoming auctions whose window has opened to Live
func (s *LifecycleService) StartDueAuctions(ctx context.Context) (shared.SweepReport, error) {
	now := s.now()
	return s.sweep(ctx, metrics.SweepStart, auction.DueToStartFilter(now), func(a *auction.Auction) bool {
		return a.Start(now)
	})
}

// EndDueAuctions moves Upcoming and Live auctions whose end has passed to
// Ended and settles their winner
func (s *LifecycleService) EndDueAuctions(ctx context.Context) (shared.SweepReport, error) {
	now := s.now()
	return s.sweep(ctx, metrics.SweepEnd, auction.DueToEndFilter(now), func(a *auction.Auction) bool {
		return a.End(now)
	})
}

type sweepOutcome struct {
	result  *shared.TransitionResult
	skipped bool
	failed  bool
}

func (s *LifecycleService) sweep(ctx context.Context, kind string, filter auction.Filter, transition func(a *auction.Auction) bool) (shared.SweepReport, error) {
	started := time.Now()
	defer func() {
		metrics.SweepDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
	}()

	candidates, err := s.store.find(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Str("sweep", kind).Msg("Failed to select auctions")
		return shared.SweepReport{}, err
	}

	outcomes := make([]sweepOutcome, len(candidates))
	p := pool.New().WithMaxGoroutines(s.workers)
	for i, candidate := range candidates {
		i, candidate := i, candidate
		p.Go(func() {
			var catcher panics.Catcher
			catcher.Try(func() {
				outcomes[i] = s.sweepOne(ctx, kind, candidate, transition)
			})
			if recovered := catcher.Recovered(); recovered != nil {
				s.logger.Error().
					Str("sweep", kind).
					Str("auction_id", candidate.ListingID.String()).
					Interface("panic", recovered.Value).
					Msg("Recovered panic while sweeping auction")
				outcomes[i] = sweepOutcome{failed: true}
			}
		})
	}
	p.Wait()

	report := shared.SweepReport{Selected: len(candidates)}
	for _, outcome := range outcomes {
		switch {
		case outcome.failed:
			report.Failed++
			metrics.SweepFailures.WithLabelValues(kind).Inc()
		case outcome.skipped:
			report.Skipped++
		case outcome.result != nil:
			report.Transitions = append(report.Transitions, *outcome.result)
			metrics.SweepTransitions.WithLabelValues(kind, outcome.result.To).Inc()
		}
	}

	if report.Selected > 0 {
		s.logger.Info().
			Str("sweep", kind).
			Int("selected", report.Selected).
			Int("transitioned", len(report.Transitions)).
			Int("skipped", report.Skipped).
			Int("failed", report.Failed).
			Msg("Sweep completed")
	}
	return report, nil
}

func retryOp(kind string) string {
	if kind == metrics.SweepStart {
		return metrics.OpSweepStart
	}
	return metrics.OpSweepEnd
}

// sweepOne re-checks the predicate inside a versioned read-modify-write so
// a concurrent bid or admin change is never overwritten
func (s *LifecycleService) sweepOne(ctx context.Context, kind string, candidate *auction.Auction, transition func(a *auction.Auction) bool) sweepOutcome {
	id := candidate.ListingID
	from := candidate.Status

	updated, changed, err := s.store.mutate(ctx, retryOp(kind), id, func(a *auction.Auction) (bool, error) {
		from = a.Status
		return transition(a), nil
	})
	if errors.Is(err, shared.ErrAuctionNotFound) {
		return sweepOutcome{skipped: true}
	}
	if err != nil {
		s.logger.Error().Err(err).Str("sweep", kind).Str("auction_id", id.String()).Msg("Failed to transition auction")
		return sweepOutcome{failed: true}
	}
	if !changed {
		return sweepOutcome{skipped: true}
	}

	result := &shared.TransitionResult{
		AuctionID: id,
		From:      string(from),
		To:        string(updated.Status),
		WinnerID:  updated.Winner,
	}
	if best, ok := updated.HighestBid(); ok {
		price := best.Amount
		result.FinalPrice = &price
	}

	s.emitter.EmitStatusChange(id, updated.Status)

	event := s.logger.Info().
		Str("sweep", kind).
		Str("auction_id", id.String()).
		Str("from", result.From).
		Str("to", result.To)
	if result.WinnerID != nil {
		event = event.Str("winner_id", result.WinnerID.String())
	}
	if result.FinalPrice != nil && updated.Status == auction.StatusEnded {
		event = event.Float64("final_price", *result.FinalPrice)
	}
	event.Msg("Auction transitioned")

	return sweepOutcome{result: result}
}
