package auction

import (
	"errors"
	"testing"
	"time"

	"listing-auction-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/check"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func liveAuction(t *testing.T, reserve float64) *Auction {
	t.Helper()
	a, err := New(uuid.New(), Schedule{
		StartTime:     t0.Add(-time.Hour),
		EndTime:       t0.Add(time.Hour),
		StartingPrice: 50,
		ReservePrice:  reserve,
	}, t0)
	check.NoError(t, err)
	check.Equal(t, StatusLive, a.Status)
	return a
}

func TestNew_StatusFromStartTime(t *testing.T) {
	upcoming, err := New(uuid.New(), Schedule{StartTime: t0.Add(time.Minute), EndTime: t0.Add(time.Hour)}, t0)
	check.NoError(t, err)
	check.Equal(t, StatusUpcoming, upcoming.Status)

	startsNow, err := New(uuid.New(), Schedule{StartTime: t0, EndTime: t0.Add(time.Hour)}, t0)
	check.NoError(t, err)
	check.Equal(t, StatusLive, startsNow.Status)
	check.Equal(t, 0.0, startsNow.CurrentBid)
	check.Equal(t, 0, len(startsNow.Bids))
	check.Nil(t, startsNow.Winner)
}

func TestNew_RejectsBadSchedule(t *testing.T) {
	tests := []struct {
		name string
		s    Schedule
		want error
	}{
		{name: "start_equals_end", s: Schedule{StartTime: t0, EndTime: t0}, want: shared.ErrInvalidSchedule},
		{name: "start_after_end", s: Schedule{StartTime: t0.Add(time.Hour), EndTime: t0}, want: shared.ErrInvalidSchedule},
		{name: "missing_start", s: Schedule{EndTime: t0}, want: shared.ErrStartTimeRequired},
		{name: "missing_end", s: Schedule{StartTime: t0}, want: shared.ErrEndTimeRequired},
		{name: "negative_price", s: Schedule{StartTime: t0, EndTime: t0.Add(time.Hour), StartingPrice: -1}, want: shared.ErrInvalidPrice},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, err := New(uuid.New(), tc.s, t0)
			check.Nil(t, a)
			check.True(t, errors.Is(err, tc.want))
		})
	}
}

func TestPlaceBid_MonotonicLedger(t *testing.T) {
	a := liveAuction(t, 0)

	_, err := a.PlaceBid(uuid.New(), 100, t0)
	check.NoError(t, err)
	_, err = a.PlaceBid(uuid.New(), 100, t0)
	check.True(t, errors.Is(err, shared.ErrBidTooLow))
	_, err = a.PlaceBid(uuid.New(), 99, t0)
	check.True(t, errors.Is(err, shared.ErrBidTooLow))
	_, err = a.PlaceBid(uuid.New(), 150, t0.Add(time.Second))
	check.NoError(t, err)

	check.Equal(t, 2, len(a.Bids))
	check.Equal(t, 150.0, a.CurrentBid)
	check.True(t, a.Bids.StrictlyIncreasing())
}

func TestPlaceBid_MustExceedStartingPrice(t *testing.T) {
	a := liveAuction(t, 0)
	_, err := a.PlaceBid(uuid.New(), 50, t0)
	check.True(t, errors.Is(err, shared.ErrBidTooLow))
}

func TestPlaceBid_RejectedOutsideLiveWindow(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		at     time.Time
	}{
		{name: "upcoming_status", status: StatusUpcoming, at: t0},
		{name: "paused", status: StatusPaused, at: t0},
		{name: "ended", status: StatusEnded, at: t0},
		{name: "cancelled", status: StatusCancelled, at: t0},
		{name: "live_but_before_start", status: StatusLive, at: t0.Add(-2 * time.Hour)},
		{name: "live_but_at_end", status: StatusLive, at: t0.Add(time.Hour)},
		{name: "live_but_after_end", status: StatusLive, at: t0.Add(2 * time.Hour)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := liveAuction(t, 0)
			a.Status = tc.status
			_, err := a.PlaceBid(uuid.New(), 1_000_000, tc.at)
			check.True(t, errors.Is(err, shared.ErrAuctionNotLive))
			check.Equal(t, 0, len(a.Bids))
		})
	}
}

func TestPlaceBid_InvalidAmountCheckedFirst(t *testing.T) {
	a := liveAuction(t, 0)
	a.Status = StatusEnded
	_, err := a.PlaceBid(uuid.New(), -1, t0)
	check.True(t, errors.Is(err, shared.ErrInvalidAmount))
}

func TestEnd_WinnerDetermination(t *testing.T) {
	tests := []struct {
		name         string
		reserve      float64
		expectWinner bool
	}{
		{name: "reserve_met", reserve: 300, expectWinner: true},
		{name: "reserve_exactly_met", reserve: 400, expectWinner: true},
		{name: "reserve_not_met", reserve: 500, expectWinner: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := liveAuction(t, tc.reserve)
			top := uuid.New()
			_, err := a.PlaceBid(uuid.New(), 100, t0)
			check.NoError(t, err)
			_, err = a.PlaceBid(uuid.New(), 250, t0.Add(time.Second))
			check.NoError(t, err)
			_, err = a.PlaceBid(top, 400, t0.Add(2*time.Second))
			check.NoError(t, err)

			check.False(t, a.End(t0))
			check.True(t, a.End(a.EndTime))

			check.Equal(t, StatusEnded, a.Status)
			check.Equal(t, 400.0, a.CurrentBid)
			if tc.expectWinner {
				check.NotNil(t, a.Winner)
				check.Equal(t, top, *a.Winner)
			} else {
				check.Nil(t, a.Winner)
			}
		})
	}
}

func TestEnd_NoBidsIsNoSale(t *testing.T) {
	a := liveAuction(t, 0)
	check.True(t, a.End(t0.Add(2*time.Hour)))
	check.Equal(t, StatusEnded, a.Status)
	check.Nil(t, a.Winner)
	check.Equal(t, 50.0, a.CurrentBid)
}

func TestStartAndEnd_Idempotent(t *testing.T) {
	a, err := New(uuid.New(), Schedule{StartTime: t0.Add(time.Minute), EndTime: t0.Add(time.Hour)}, t0)
	check.NoError(t, err)

	now := t0.Add(2 * time.Minute)
	check.True(t, a.Start(now))
	check.False(t, a.Start(now))
	check.Equal(t, StatusLive, a.Status)

	end := t0.Add(time.Hour)
	check.True(t, a.End(end))
	check.False(t, a.End(end))
	check.False(t, a.Start(end))
}

func TestEnd_SafetyForUpcomingPastEnd(t *testing.T) {
	a, err := New(uuid.New(), Schedule{StartTime: t0.Add(time.Minute), EndTime: t0.Add(time.Hour)}, t0)
	check.NoError(t, err)

	late := t0.Add(3 * time.Hour)
	check.False(t, a.DueToStart(late))
	check.True(t, a.End(late))
	check.Equal(t, StatusEnded, a.Status)
}

func TestPausedIsNotSwept(t *testing.T) {
	a := liveAuction(t, 0)
	a.Status = StatusPaused
	check.False(t, a.End(t0.Add(2*time.Hour)))
	check.False(t, a.Start(t0))
}

func TestCancel(t *testing.T) {
	a := liveAuction(t, 0)
	changed, err := a.Cancel(t0)
	check.NoError(t, err)
	check.True(t, changed)
	check.Equal(t, StatusCancelled, a.Status)

	changed, err = a.Cancel(t0)
	check.NoError(t, err)
	check.False(t, changed)

	ended := liveAuction(t, 0)
	ended.End(t0.Add(2 * time.Hour))
	_, err = ended.Cancel(t0)
	check.True(t, errors.Is(err, shared.ErrAuctionTerminal))
	check.Equal(t, StatusEnded, ended.Status)
}

func TestPhaseAt(t *testing.T) {
	a := liveAuction(t, 0)
	check.Equal(t, PhaseLive, a.PhaseAt(t0))
	check.Equal(t, PhaseUpcoming, a.PhaseAt(t0.Add(-2*time.Hour)))
	check.Equal(t, PhaseEnded, a.PhaseAt(t0.Add(time.Hour)))

	a.Status = StatusUpcoming
	check.Equal(t, PhaseUpcoming, a.PhaseAt(t0))

	a.Status = StatusPaused
	check.Equal(t, PhasePaused, a.PhaseAt(t0))
}

func TestCanBid_OnlyInLivePhase(t *testing.T) {
	statuses := []Status{StatusUpcoming, StatusLive, StatusPaused, StatusEnded, StatusCancelled}
	times := []time.Time{
		t0.Add(-2 * time.Hour),
		t0.Add(-time.Hour),
		t0,
		t0.Add(time.Hour).Add(-time.Nanosecond),
		t0.Add(time.Hour),
		t0.Add(2 * time.Hour),
	}
	for _, status := range statuses {
		for _, now := range times {
			a := liveAuction(t, 0)
			a.Status = status
			check.Equal(t, a.PhaseAt(now) == PhaseLive, a.CanBid(now))
		}
	}

	a := liveAuction(t, 0)
	check.True(t, a.CanBid(t0.Add(-time.Hour)))
	check.False(t, a.CanBid(t0.Add(time.Hour)))
}

func TestApplyEdit(t *testing.T) {
	a := liveAuction(t, 0)
	newEnd := t0.Add(3 * time.Hour)
	reserve := 75.0
	err := a.ApplyEdit(Edit{EndTime: &newEnd, ReservePrice: &reserve}, t0)
	check.NoError(t, err)
	check.Equal(t, newEnd, a.EndTime)
	check.Equal(t, 75.0, a.ReservePrice)

	badStart := newEnd
	err = a.ApplyEdit(Edit{StartTime: &badStart}, t0)
	check.True(t, errors.Is(err, shared.ErrInvalidSchedule))

	bogus := Status("live")
	err = a.ApplyEdit(Edit{Status: &bogus}, t0)
	check.True(t, errors.Is(err, shared.ErrInvalidStatus))
	check.Equal(t, StatusLive, a.Status)
}

func TestApplyEdit_StartingPrice(t *testing.T) {
	a := liveAuction(t, 0)
	price := 80.0
	check.NoError(t, a.ApplyEdit(Edit{StartingPrice: &price}, t0))
	check.Equal(t, 80.0, a.CurrentBid)

	_, err := a.PlaceBid(uuid.New(), 90, t0)
	check.NoError(t, err)

	other := 60.0
	err = a.ApplyEdit(Edit{StartingPrice: &other}, t0)
	check.True(t, errors.Is(err, shared.ErrStartingPriceImmutable))
	check.Equal(t, 90.0, a.CurrentBid)
}

func TestApplyEdit_StatusEndedSettlesWinner(t *testing.T) {
	a := liveAuction(t, 0)
	bidder := uuid.New()
	_, err := a.PlaceBid(bidder, 120, t0)
	check.NoError(t, err)

	ended := StatusEnded
	check.NoError(t, a.ApplyEdit(Edit{Status: &ended}, t0))
	check.NotNil(t, a.Winner)
	check.Equal(t, bidder, *a.Winner)

	live := StatusLive
	check.NoError(t, a.ApplyEdit(Edit{Status: &live}, t0))
	check.Nil(t, a.Winner)
}

func TestClone_IsDeep(t *testing.T) {
	a := liveAuction(t, 0)
	_, err := a.PlaceBid(uuid.New(), 100, t0)
	check.NoError(t, err)
	a.End(t0.Add(2 * time.Hour))

	c := a.Clone()
	c.Bids[0].Amount = 1
	*c.Winner = uuid.Nil

	check.Equal(t, 100.0, a.Bids[0].Amount)
	check.NotEqual(t, uuid.Nil, *a.Winner)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("Cancelled")
	check.NoError(t, err)
	check.Equal(t, StatusCancelled, s)

	_, err = ParseStatus("cancelled")
	check.True(t, errors.Is(err, shared.ErrInvalidStatus))
}
