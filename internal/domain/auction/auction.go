package auction

import (
	"time"

	"listing-auction-service/internal/domain/bid"
	"listing-auction-service/internal/domain/shared"

	"github.com/google/uuid"
)

// Status represents the stored status of an auction
type Status string

const (
	StatusUpcoming  Status = "Upcoming"
	StatusLive      Status = "Live"
	StatusPaused    Status = "Paused"
	StatusEnded     Status = "Ended"
	StatusCancelled Status = "Cancelled"
)

// Statuses lists every valid status value
var Statuses = []Status{StatusUpcoming, StatusLive, StatusPaused, StatusEnded, StatusCancelled}

// ParseStatus validates s against the status enum
func ParseStatus(s string) (Status, error) {
	for _, status := range Statuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", shared.ErrInvalidStatus
}

// Terminal returns true for Ended and Cancelled
func (s Status) Terminal() bool {
	return s == StatusEnded || s == StatusCancelled
}

// Auction is the auction embedded in a listing. ListingID doubles as the auction id.
type Auction struct {
	ListingID     uuid.UUID  `json:"listing_id"`
	Status        Status     `json:"status"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       time.Time  `json:"end_time"`
	StartingPrice float64    `json:"starting_price"`
	CurrentBid    float64    `json:"current_bid"`
	ReservePrice  float64    `json:"reserve_price"`
	Bids          bid.Ledger `json:"bids"`
	Winner        *uuid.UUID `json:"winner"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Schedule holds the validated input of a new auction
type Schedule struct {
	StartTime     time.Time
	EndTime       time.Time
	StartingPrice float64
	ReservePrice  float64
}

// Validate checks the schedule window and prices
func (s Schedule) Validate() error {
	if s.StartTime.IsZero() {
		return shared.ErrStartTimeRequired
	}
	if s.EndTime.IsZero() {
		return shared.ErrEndTimeRequired
	}
	if !s.StartTime.Before(s.EndTime) {
		return shared.ErrInvalidSchedule
	}
	if !validPrice(s.StartingPrice) || !validPrice(s.ReservePrice) {
		return shared.ErrInvalidPrice
	}
	return nil
}

// New creates an auction for a listing. It starts Live when the start time
// has already passed and Upcoming otherwise.
func New(listingID uuid.UUID, s Schedule, now time.Time) (*Auction, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	status := StatusUpcoming
	if !s.StartTime.After(now) {
		status = StatusLive
	}

	return &Auction{
		ListingID:     listingID,
		Status:        status,
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		StartingPrice: s.StartingPrice,
		CurrentBid:    s.StartingPrice,
		ReservePrice:  s.ReservePrice,
		Bids:          bid.Ledger{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Clone returns a deep copy so callers never share the ledger or winner
func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	c := *a
	c.Bids = a.Bids.Clone()
	if a.Winner != nil {
		w := *a.Winner
		c.Winner = &w
	}
	return &c
}

// HighestBid returns the winning candidate of the ledger
func (a *Auction) HighestBid() (bid.Bid, bool) {
	return a.Bids.Highest()
}
