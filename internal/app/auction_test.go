package app

import (
	"context"
	"testing"
	"time"

	"listing-auction-service/internal/domain/auction"
	"listing-auction-service/internal/domain/shared"
	"listing-auction-service/internal/ports/inbound"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCreateAuction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.listing(t)

	created, err := f.auctions.CreateAuction(ctx, inbound.CreateAuctionRequest{
		ListingID:     l.ID,
		StartTime:     t0.Add(time.Hour),
		EndTime:       t0.Add(2 * time.Hour),
		StartingPrice: 1000,
		ReservePrice:  1500,
	})
	require.NoError(t, err)
	require.Equal(t, l.ID, created.ListingID)
	require.Equal(t, auction.StatusUpcoming, created.Status)
	require.Equal(t, 1000.0, created.CurrentBid)
	require.Empty(t, created.Bids)
	require.Nil(t, created.Winner)

	_, err = f.auctions.CreateAuction(ctx, inbound.CreateAuctionRequest{
		ListingID: l.ID,
		StartTime: t0,
		EndTime:   t0.Add(time.Hour),
	})
	require.ErrorIs(t, err, shared.ErrAuctionAlreadyExists)

	stored := f.stored(t, l.ID)
	require.Equal(t, 1000.0, stored.StartingPrice)
}

func TestCreateAuction_StartingNowIsLive(t *testing.T) {
	f := newFixture(t)
	l := f.listing(t)

	created, err := f.auctions.CreateAuction(context.Background(), inbound.CreateAuctionRequest{
		ListingID: l.ID,
		StartTime: t0,
		EndTime:   t0.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, auction.StatusLive, created.Status)
}

func TestCreateAuction_Rejections(t *testing.T) {
	f := newFixture(t)
	l := f.listing(t)

	tests := []struct {
		name string
		req  inbound.CreateAuctionRequest
		want error
	}{
		{
			name: "unknown_listing",
			req:  inbound.CreateAuctionRequest{ListingID: uuid.New(), StartTime: t0, EndTime: t0.Add(time.Hour)},
			want: shared.ErrListingNotFound,
		},
		{
			name: "start_equals_end",
			req:  inbound.CreateAuctionRequest{ListingID: l.ID, StartTime: t0, EndTime: t0},
			want: shared.ErrInvalidSchedule,
		},
		{
			name: "negative_reserve",
			req:  inbound.CreateAuctionRequest{ListingID: l.ID, StartTime: t0, EndTime: t0.Add(time.Hour), ReservePrice: -1},
			want: shared.ErrInvalidPrice,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.auctions.CreateAuction(context.Background(), tc.req)
			require.ErrorIs(t, err, tc.want)
		})
	}

	_, err := f.auctions.GetAuction(context.Background(), l.ID)
	require.ErrorIs(t, err, shared.ErrAuctionNotFound)
}

func TestListAuctions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	second := f.newAuction(t, t0.Add(-time.Minute), t0.Add(time.Hour), 10, 0)
	first := f.newAuction(t, t0.Add(-time.Hour), t0.Add(time.Hour), 10, 0)
	upcoming := f.newAuction(t, t0.Add(time.Hour), t0.Add(2*time.Hour), 10, 0)
	cancelled := f.newAuction(t, t0.Add(-2*time.Hour), t0.Add(time.Hour), 10, 0)
	_, err := f.auctions.CancelAuction(ctx, cancelled.ListingID)
	require.NoError(t, err)

	public, err := f.auctions.ListAuctions(ctx, inbound.ListAuctionsRequest{
		Statuses: []auction.Status{auction.StatusLive, auction.StatusUpcoming},
	})
	require.NoError(t, err)
	require.Len(t, public, 3)
	require.Equal(t, first.ListingID, public[0].ListingID)
	require.Equal(t, second.ListingID, public[1].ListingID)
	require.Equal(t, upcoming.ListingID, public[2].ListingID)

	all, err := f.auctions.ListAuctions(ctx, inbound.ListAuctionsRequest{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, cancelled.ListingID, all[0].ListingID)

	none, err := f.auctions.ListAuctions(ctx, inbound.ListAuctionsRequest{Statuses: []auction.Status{auction.StatusEnded}})
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)

	_, err = f.auctions.ListAuctions(ctx, inbound.ListAuctionsRequest{Statuses: []auction.Status{"live"}})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestEditAuction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.newAuction(t, t0.Add(-time.Hour), t0.Add(time.Hour), 10, 0)

	newEnd := t0.Add(4 * time.Hour)
	reserve := 250.0
	updated, err := f.auctions.EditAuction(ctx, a.ListingID, inbound.EditAuctionRequest{
		EndTime:      &newEnd,
		ReservePrice: &reserve,
	})
	require.NoError(t, err)
	require.Equal(t, newEnd, updated.EndTime)
	require.Equal(t, 250.0, updated.ReservePrice)
	require.Empty(t, f.emitter.statusChanges())

	badEnd := t0.Add(-2 * time.Hour)
	_, err = f.auctions.EditAuction(ctx, a.ListingID, inbound.EditAuctionRequest{EndTime: &badEnd})
	require.ErrorIs(t, err, shared.ErrInvalidSchedule)
	require.Equal(t, newEnd, f.stored(t, a.ListingID).EndTime)

	_, err = f.auctions.EditAuction(ctx, a.ListingID, inbound.EditAuctionRequest{})
	require.ErrorIs(t, err, shared.ErrInvalidRequest)

	paused := auction.StatusPaused
	updated, err = f.auctions.EditAuction(ctx, a.ListingID, inbound.EditAuctionRequest{Status: &paused})
	require.NoError(t, err)
	require.Equal(t, auction.StatusPaused, updated.Status)
	require.Equal(t, []statusEvent{{AuctionID: a.ListingID, Status: auction.StatusPaused}}, f.emitter.statusChanges())

	_, err = f.bids.PlaceBid(ctx, inbound.PlaceBidRequest{AuctionID: a.ListingID, BidderID: uuid.New(), Amount: 50})
	require.ErrorIs(t, err, shared.ErrAuctionNotLive)

	_, err = f.auctions.EditAuction(ctx, uuid.New(), inbound.EditAuctionRequest{Status: &paused})
	require.ErrorIs(t, err, shared.ErrAuctionNotFound)
}

func TestEditAuction_StartingPriceLockedByBids(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.newAuction(t, t0.Add(-time.Hour), t0.Add(time.Hour), 10, 0)

	_, err := f.bids.PlaceBid(ctx, inbound.PlaceBidRequest{AuctionID: a.ListingID, BidderID: uuid.New(), Amount: 50})
	require.NoError(t, err)

	price := 5.0
	_, err = f.auctions.EditAuction(ctx, a.ListingID, inbound.EditAuctionRequest{StartingPrice: &price})
	require.ErrorIs(t, err, shared.ErrStartingPriceImmutable)
	require.Equal(t, shared.KindConflict, shared.KindOf(err))
}

func TestCancelAuction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.newAuction(t, t0.Add(-time.Hour), t0.Add(time.Hour), 10, 0)

	cancelled, err := f.auctions.CancelAuction(ctx, a.ListingID)
	require.NoError(t, err)
	require.Equal(t, auction.StatusCancelled, cancelled.Status)

	again, err := f.auctions.CancelAuction(ctx, a.ListingID)
	require.NoError(t, err)
	require.Equal(t, auction.StatusCancelled, again.Status)
	require.Len(t, f.emitter.statusChanges(), 1)

	ended := f.newAuction(t, t0.Add(-2*time.Hour), t0.Add(-time.Hour), 10, 0)
	_, err = f.lifecycle.EndDueAuctions(ctx)
	require.NoError(t, err)

	_, err = f.auctions.CancelAuction(ctx, ended.ListingID)
	require.ErrorIs(t, err, shared.ErrAuctionTerminal)
	require.Equal(t, auction.StatusEnded, f.stored(t, ended.ListingID).Status)
}
