package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"listing-auction-service/internal/domain/shared"
	"listing-auction-service/internal/metrics"
	"listing-auction-service/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// LifecycleSweeper applies the due status transitions
type LifecycleSweeper interface {
	StartDueAuctions(ctx context.Context) (shared.SweepReport, error)
	EndDueAuctions(ctx context.Context) (shared.SweepReport, error)
}

// Sweeper runs the start and end sweeps once at startup and then on every
// tick. A tick that finds the previous one still running is skipped.
type Sweeper struct {
	lifecycle LifecycleSweeper
	lock      outbound.SweepLock
	interval  time.Duration
	running   atomic.Bool
	logger    zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

type SweeperParams struct {
	Lifecycle LifecycleSweeper
	// Lock is optional; without it only the in-process guard applies
	Lock     outbound.SweepLock
	Interval time.Duration
	Logger   zerolog.Logger
}

func NewSweeper(params SweeperParams) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())

	return &Sweeper{
		lifecycle: params.Lifecycle,
		lock:      params.Lock,
		interval:  params.Interval,
		logger:    params.Logger.With().Str("component", "auction_sweeper").Logger(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins the sweep loop
func (s *Sweeper) Start() {
	s.logger.Info().Dur("interval", s.interval).Msg("Starting auction sweeper")

	s.wg.Add(1)
	go s.sweepLoop()
}

// Stop cancels an in-flight sweep and waits for the loop to exit
func (s *Sweeper) Stop() {
	s.logger.Info().Msg("Stopping auction sweeper")
	s.cancel()
	s.wg.Wait()
}

func (s *Sweeper) sweepLoop() {
	defer s.wg.Done()

	s.tick()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.tick()
			}()
		case <-s.ctx.Done():
			s.logger.Info().Msg("Sweeper loop stopped")
			return
		}
	}
}

func (s *Sweeper) tick() {
	if _, _, err := s.RunOnce(s.ctx); err != nil {
		switch err {
		case shared.ErrSweepAlreadyRunning, shared.ErrSweepLeaseHeldElsewhere:
			metrics.SweepsSkipped.Inc()
			s.logger.Debug().Err(err).Msg("Sweep skipped")
		default:
			s.logger.Error().Err(err).Msg("Sweep failed")
		}
	}
}

// RunOnce runs the start sweep followed by the end sweep. It returns
// ErrSweepAlreadyRunning when another sweep of this process is in flight and
// ErrSweepLeaseHeldElsewhere when another instance holds the lease.
func (s *Sweeper) RunOnce(ctx context.Context) (started, ended shared.SweepReport, err error) {
	if !s.running.CompareAndSwap(false, true) {
		return started, ended, shared.ErrSweepAlreadyRunning
	}
	defer s.running.Store(false)

	if s.lock != nil {
		release, acquired, err := s.lock.TryAcquire(ctx)
		if err != nil {
			return started, ended, err
		}
		if !acquired {
			return started, ended, shared.ErrSweepLeaseHeldElsewhere
		}
		defer release()
	}

	started, err = s.lifecycle.StartDueAuctions(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Start sweep failed")
	}

	// The end sweep runs even when the start sweep failed.
	var endErr error
	ended, endErr = s.lifecycle.EndDueAuctions(ctx)
	if endErr != nil {
		s.logger.Error().Err(endErr).Msg("End sweep failed")
		if err == nil {
			err = endErr
		}
	}
	return started, ended, err
}
