package auction

import (
	"math"
	"time"

	"listing-auction-service/internal/domain/bid"
	"listing-auction-service/internal/domain/shared"

	"github.com/google/uuid"
)

// Phase is the logical state derived from the stored status and the clock.
// The stored status may lag by up to one sweep interval; Phase does not.
type Phase string

const (
	PhaseUpcoming  Phase = "Upcoming"
	PhaseLive      Phase = "Live"
	PhasePaused    Phase = "Paused"
	PhaseEnded     Phase = "Ended"
	PhaseCancelled Phase = "Cancelled"
)

// PhaseAt derives the phase of the auction at now
func (a *Auction) PhaseAt(now time.Time) Phase {
	switch a.Status {
	case StatusCancelled:
		return PhaseCancelled
	case StatusEnded:
		return PhaseEnded
	case StatusPaused:
		return PhasePaused
	}

	switch {
	case !now.Before(a.EndTime):
		return PhaseEnded
	case now.Before(a.StartTime):
		return PhaseUpcoming
	case a.Status == StatusLive:
		return PhaseLive
	default:
		// Upcoming inside its window: due to start, not yet started.
		return PhaseUpcoming
	}
}

// CanBid returns true only in the Live phase
func (a *Auction) CanBid(now time.Time) bool {
	return a.PhaseAt(now) == PhaseLive
}

// PlaceBid runs the acceptance guards and appends the bid to the ledger
func (a *Auction) PlaceBid(bidderID uuid.UUID, amount float64, now time.Time) (bid.Bid, error) {
	if !bid.ValidAmount(amount) {
		return bid.Bid{}, shared.ErrInvalidAmount
	}
	if !a.CanBid(now) {
		return bid.Bid{}, shared.ErrAuctionNotLive
	}
	if !bid.Exceeds(amount, a.CurrentBid) {
		return bid.Bid{}, shared.ErrBidTooLow
	}

	accepted := bid.New(bidderID, amount, now)
	a.Bids = a.Bids.Append(accepted)
	a.CurrentBid = amount
	a.UpdatedAt = now
	return accepted, nil
}

// DueToStart matches the start sweep predicate
func (a *Auction) DueToStart(now time.Time) bool {
	return a.Status == StatusUpcoming && !a.StartTime.After(now) && a.EndTime.After(now)
}

// DueToEnd matches the end sweep predicate, including Upcoming auctions
// whose whole window passed between two sweeps.
func (a *Auction) DueToEnd(now time.Time) bool {
	return (a.Status == StatusLive || a.Status == StatusUpcoming) && !a.EndTime.After(now)
}

// Start moves a due Upcoming auction to Live
func (a *Auction) Start(now time.Time) bool {
	if !a.DueToStart(now) {
		return false
	}
	a.Status = StatusLive
	a.UpdatedAt = now
	return true
}

// End moves a due auction to Ended and settles the winner
func (a *Auction) End(now time.Time) bool {
	if !a.DueToEnd(now) {
		return false
	}
	a.settle(now)
	return true
}

// settle sets status Ended and the winner against the reserve price
func (a *Auction) settle(now time.Time) {
	a.Status = StatusEnded
	a.Winner = nil
	if best, ok := a.Bids.Highest(); ok && bid.Meets(best.Amount, a.ReservePrice) {
		w := best.UserID
		a.Winner = &w
	}
	a.UpdatedAt = now
}

// Cancel moves a non-terminal auction to Cancelled. Cancelling a cancelled
// auction is a no-op.
func (a *Auction) Cancel(now time.Time) (bool, error) {
	switch a.Status {
	case StatusCancelled:
		return false, nil
	case StatusEnded:
		return false, shared.ErrAuctionTerminal
	}
	a.Status = StatusCancelled
	a.UpdatedAt = now
	return true, nil
}

// Edit is an administrative partial update; nil fields are left unchanged
type Edit struct {
	StartTime     *time.Time
	EndTime       *time.Time
	StartingPrice *float64
	ReservePrice  *float64
	Status        *Status
}

// Empty reports whether the edit changes nothing
func (e Edit) Empty() bool {
	return e.StartTime == nil && e.EndTime == nil && e.StartingPrice == nil && e.ReservePrice == nil && e.Status == nil
}

// ApplyEdit validates and applies an administrative edit
func (a *Auction) ApplyEdit(e Edit, now time.Time) error {
	start, end := a.StartTime, a.EndTime
	if e.StartTime != nil {
		start = *e.StartTime
	}
	if e.EndTime != nil {
		end = *e.EndTime
	}
	if !start.Before(end) {
		return shared.ErrInvalidSchedule
	}

	if e.StartingPrice != nil && !validPrice(*e.StartingPrice) {
		return shared.ErrInvalidPrice
	}
	if e.ReservePrice != nil && !validPrice(*e.ReservePrice) {
		return shared.ErrInvalidPrice
	}
	if e.StartingPrice != nil && len(a.Bids) > 0 && !bid.Equal(*e.StartingPrice, a.StartingPrice) {
		return shared.ErrStartingPriceImmutable
	}
	if e.Status != nil {
		if _, err := ParseStatus(string(*e.Status)); err != nil {
			return err
		}
	}

	a.StartTime, a.EndTime = start, end
	if e.StartingPrice != nil && len(a.Bids) == 0 {
		a.StartingPrice = *e.StartingPrice
		a.CurrentBid = *e.StartingPrice
	}
	if e.ReservePrice != nil {
		a.ReservePrice = *e.ReservePrice
	}
	if e.Status != nil && *e.Status != a.Status {
		if *e.Status == StatusEnded {
			a.settle(now)
		} else {
			a.Status = *e.Status
			a.Winner = nil
		}
	}
	a.UpdatedAt = now
	return nil
}

func validPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 0
}
