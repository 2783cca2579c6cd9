package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"listing-auction-service/internal/adapters/memory"
	"listing-auction-service/internal/domain/auction"
	"listing-auction-service/internal/domain/shared"
	"listing-auction-service/internal/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type statusEvent struct {
	AuctionID uuid.UUID
	Status    auction.Status
}

type recordingEmitter struct {
	mu       sync.Mutex
	bids     []*auction.Auction
	statuses []statusEvent
}

func (e *recordingEmitter) EmitBidUpdate(_ uuid.UUID, snapshot *auction.Auction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bids = append(e.bids, snapshot)
}

func (e *recordingEmitter) EmitStatusChange(auctionID uuid.UUID, status auction.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statuses = append(e.statuses, statusEvent{AuctionID: auctionID, Status: status})
}

func (e *recordingEmitter) bidUpdates() []*auction.Auction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*auction.Auction(nil), e.bids...)
}

func (e *recordingEmitter) statusChanges() []statusEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]statusEvent(nil), e.statuses...)
}

func saveRetries(op string) float64 {
	return testutil.ToFloat64(metrics.SaveRetries.WithLabelValues(op))
}

// clock is a settable test clock
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(at time.Time) *clock { return &clock{now: at} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at
}

type fixture struct {
	store     *memory.Store
	emitter   *recordingEmitter
	clock     *clock
	auctions  *AuctionService
	bids      *BidService
	listings  *ListingService
	lifecycle *LifecycleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   memory.NewStore(),
		emitter: &recordingEmitter{},
		clock:   newClock(t0),
	}
	logger := zerolog.Nop()
	f.auctions = NewAuctionService(AuctionServiceParams{
		AuctionRepo:  f.store.Auctions(),
		ListingRepo:  f.store.Listings(),
		Emitter:      f.emitter,
		StoreTimeout: time.Second,
		Clock:        f.clock.Now,
		Logger:       logger,
	})
	f.bids = NewBidService(BidServiceParams{
		AuctionRepo:  f.store.Auctions(),
		Emitter:      f.emitter,
		StoreTimeout: time.Second,
		Clock:        f.clock.Now,
		Logger:       logger,
	})
	f.listings = NewListingService(ListingServiceParams{
		ListingRepo:  f.store.Listings(),
		StoreTimeout: time.Second,
		Clock:        f.clock.Now,
		Logger:       logger,
	})
	f.lifecycle = NewLifecycleService(LifecycleServiceParams{
		AuctionRepo:  f.store.Auctions(),
		Emitter:      f.emitter,
		StoreTimeout: time.Second,
		Workers:      2,
		Clock:        f.clock.Now,
		Logger:       logger,
	})
	return f
}

func (f *fixture) listing(t *testing.T) *shared.Listing {
	t.Helper()
	l := &shared.Listing{ID: uuid.New(), Title: "Flat", CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, f.store.Listings().Create(context.Background(), l))
	return l
}

// newAuction creates an auction running from start to end with the given prices
func (f *fixture) newAuction(t *testing.T, start, end time.Time, startingPrice, reserve float64) *auction.Auction {
	t.Helper()
	l := f.listing(t)
	a, err := auction.New(l.ID, auction.Schedule{
		StartTime:     start,
		EndTime:       end,
		StartingPrice: startingPrice,
		ReservePrice:  reserve,
	}, f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, f.store.Auctions().Create(context.Background(), a))
	return a
}

func (f *fixture) stored(t *testing.T, id uuid.UUID) *auction.Auction {
	t.Helper()
	a, err := f.store.Auctions().GetByListingID(context.Background(), id)
	require.NoError(t, err)
	return a
}
