package broadcaster

import (
	"context"
	"errors"
	"testing"
	"time"

	"listing-auction-service/internal/domain/auction"
	"listing-auction-service/internal/domain/shared"
	"listing-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newLocal() *LocalBroadcaster {
	return NewLocalBroadcaster(LocalBroadcasterParams{Logger: zerolog.Nop()})
}

func TestLocalBroadcaster_FanOut(t *testing.T) {
	ctx := context.Background()
	b := newLocal()
	auctionID := uuid.New()
	other := uuid.New()

	first := make(chan outbound.Event, 4)
	second := make(chan outbound.Event, 4)
	require.NoError(t, b.Subscribe(ctx, auctionID, "c1", first))
	require.NoError(t, b.Subscribe(ctx, auctionID, "c2", second))
	require.NoError(t, b.Subscribe(ctx, other, "c2", second))
	require.True(t, b.IsSubscribed(ctx, auctionID, "c1"))

	event := StatusChangeEvent(auctionID, auction.StatusLive, time.Unix(100, 0))
	require.NoError(t, b.Publish(ctx, auctionID, event))

	require.Equal(t, event, <-first)
	require.Equal(t, event, <-second)

	require.NoError(t, b.Unsubscribe(ctx, auctionID, "c1"))
	require.False(t, b.IsSubscribed(ctx, auctionID, "c1"))
	require.NoError(t, b.Publish(ctx, auctionID, event))
	require.Empty(t, first)
	require.Len(t, second, 1)
}

func TestLocalBroadcaster_UnsubscribeAll(t *testing.T) {
	ctx := context.Background()
	b := newLocal()
	a1, a2 := uuid.New(), uuid.New()

	ch := make(chan outbound.Event, 4)
	require.NoError(t, b.Subscribe(ctx, a1, "c1", ch))
	require.NoError(t, b.Subscribe(ctx, a2, "c1", ch))
	require.NoError(t, b.UnsubscribeAll(ctx, "c1"))

	require.False(t, b.IsSubscribed(ctx, a1, "c1"))
	require.False(t, b.IsSubscribed(ctx, a2, "c1"))
	require.NoError(t, b.Publish(ctx, a1, StatusChangeEvent(a1, auction.StatusEnded, time.Now())))
	require.Empty(t, ch)
}

func TestLocalBroadcaster_FullChannelDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	b := newLocal()
	auctionID := uuid.New()

	ch := make(chan outbound.Event, 1)
	require.NoError(t, b.Subscribe(ctx, auctionID, "slow", ch))

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Publish(ctx, auctionID, StatusChangeEvent(auctionID, auction.StatusLive, time.Now())))
	}
	require.Len(t, ch, 1)
}

func TestLocalBroadcaster_Closed(t *testing.T) {
	ctx := context.Background()
	b := newLocal()
	require.NoError(t, b.Close())

	err := b.Subscribe(ctx, uuid.New(), "c1", make(chan outbound.Event, 1))
	require.ErrorIs(t, err, shared.ErrBroadcasterClosed)
	require.ErrorIs(t, b.Publish(ctx, uuid.New(), outbound.Event{}), shared.ErrBroadcasterClosed)
}

type failingBroadcaster struct {
	*LocalBroadcaster
	calls chan struct{}
}

func (f *failingBroadcaster) Publish(context.Context, uuid.UUID, outbound.Event) error {
	f.calls <- struct{}{}
	return errors.New("redis down")
}

func TestEmitter_DeliversAsynchronously(t *testing.T) {
	ctx := context.Background()
	b := newLocal()
	auctionID := uuid.New()
	ch := make(chan outbound.Event, 4)
	require.NoError(t, b.Subscribe(ctx, auctionID, "c1", ch))

	e := NewEmitter(EmitterParams{Broadcaster: b, Timeout: time.Second, Logger: zerolog.Nop()})

	a, err := auction.New(auctionID, auction.Schedule{
		StartTime: time.Now().Add(-time.Minute),
		EndTime:   time.Now().Add(time.Hour),
	}, time.Now())
	require.NoError(t, err)
	_, err = a.PlaceBid(uuid.New(), 42, time.Now())
	require.NoError(t, err)

	e.EmitBidUpdate(auctionID, a)
	e.EmitStatusChange(auctionID, auction.StatusEnded)
	e.Close()

	require.Len(t, ch, 2)
	got := []outbound.Event{<-ch, <-ch}
	types := []outbound.EventType{got[0].Type, got[1].Type}
	require.ElementsMatch(t, []outbound.EventType{outbound.EventTypeBidUpdate, outbound.EventTypeStatusChange}, types)

	for _, event := range got {
		require.Equal(t, auctionID, event.AuctionID)
		if event.Type == outbound.EventTypeBidUpdate {
			require.Equal(t, 42.0, event.Data["current_bid"])
			require.Equal(t, a.Version, event.Data["version"])
		} else {
			require.Equal(t, auction.StatusEnded, event.Data["status"])
		}
	}
}

func TestEmitter_PreservesOrderPerAuction(t *testing.T) {
	const updates = 200
	ctx := context.Background()
	b := newLocal()
	first, second := uuid.New(), uuid.New()
	firstCh := make(chan outbound.Event, updates)
	secondCh := make(chan outbound.Event, updates)
	require.NoError(t, b.Subscribe(ctx, first, "c1", firstCh))
	require.NoError(t, b.Subscribe(ctx, second, "c2", secondCh))

	e := NewEmitter(EmitterParams{Broadcaster: b, Timeout: time.Second, Logger: zerolog.Nop()})

	newLive := func(id uuid.UUID) *auction.Auction {
		a, err := auction.New(id, auction.Schedule{
			StartTime: time.Now().Add(-time.Minute),
			EndTime:   time.Now().Add(time.Hour),
		}, time.Now())
		require.NoError(t, err)
		return a
	}
	a1, a2 := newLive(first), newLive(second)
	for i := 1; i <= updates; i++ {
		_, err := a1.PlaceBid(uuid.New(), float64(i), time.Now())
		require.NoError(t, err)
		_, err = a2.PlaceBid(uuid.New(), float64(i), time.Now())
		require.NoError(t, err)
		e.EmitBidUpdate(first, a1.Clone())
		e.EmitBidUpdate(second, a2.Clone())
	}
	e.Close()

	for _, ch := range []chan outbound.Event{firstCh, secondCh} {
		require.Len(t, ch, updates)
		last := 0.0
		for i := 0; i < updates; i++ {
			bid := (<-ch).Data["current_bid"].(float64)
			require.Greater(t, bid, last)
			last = bid
		}
		require.Equal(t, float64(updates), last)
	}
}

func TestEmitter_PublishFailureIsSwallowed(t *testing.T) {
	failing := &failingBroadcaster{LocalBroadcaster: newLocal(), calls: make(chan struct{}, 1)}
	e := NewEmitter(EmitterParams{Broadcaster: failing, Logger: zerolog.Nop()})

	e.EmitStatusChange(uuid.New(), auction.StatusCancelled)
	e.Close()

	require.Len(t, failing.calls, 1)
}
