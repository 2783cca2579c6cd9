package shared

import (
	"context"
	"errors"
)

// Domain-specific errors
var (
	// Auction errors
	ErrAuctionNotFound        = errors.New("auction not found")
	ErrAuctionAlreadyExists   = errors.New("listing already has an auction")
	ErrAuctionNotLive         = errors.New("auction is not live")
	ErrAuctionTerminal        = errors.New("auction is already ended")
	ErrInvalidSchedule        = errors.New("start time must be before end time")
	ErrStartTimeRequired      = errors.New("start_time is required")
	ErrEndTimeRequired        = errors.New("end_time is required")
	ErrInvalidPrice           = errors.New("prices must be finite and not negative")
	ErrInvalidStatus          = errors.New("invalid auction status")
	ErrStartingPriceImmutable = errors.New("starting price cannot change once bids exist")

	// Bid errors
	ErrInvalidAmount = errors.New("bid amount must be a finite number greater than 0")
	ErrBidTooLow     = errors.New("bid amount must be higher than the current bid")

	// Listing errors
	ErrListingNotFound = errors.New("listing not found")
	ErrTitleRequired   = errors.New("title is required")

	// Persistence errors
	ErrVersionConflict         = errors.New("auction was modified concurrently")
	ErrConcurrentModification  = errors.New("auction is busy, retry the request")
	ErrStoreUnavailable        = errors.New("auction store unavailable")
	ErrInvalidTimeFormat       = errors.New("invalid time format")
	ErrInvalidRequest          = errors.New("invalid request")
	ErrUnauthenticated         = errors.New("caller identity is required")
	ErrForbidden               = errors.New("admin role is required")
	ErrInvalidAuctionIDFormat  = errors.New("invalid auction id format")
	ErrInvalidListingIDFormat  = errors.New("invalid listing id format")
	ErrBroadcasterClosed       = errors.New("broadcaster closed")
	ErrMessageTypeRequired     = errors.New("message type is required")
	ErrAuctionIDRequired       = errors.New("auction_id is required")
	ErrUnknownMessageType      = errors.New("unknown message type")
	ErrSweepAlreadyRunning     = errors.New("sweep already running")
	ErrSweepLeaseHeldElsewhere = errors.New("sweep lease held by another instance")
)

// Kind classifies an error for transports
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindTransient
	KindUnauthorized
	KindForbidden
)

var kinds = map[error]Kind{
	ErrInvalidSchedule:        KindValidation,
	ErrStartTimeRequired:      KindValidation,
	ErrEndTimeRequired:        KindValidation,
	ErrInvalidPrice:           KindValidation,
	ErrInvalidStatus:          KindValidation,
	ErrInvalidAmount:          KindValidation,
	ErrTitleRequired:          KindValidation,
	ErrInvalidTimeFormat:      KindValidation,
	ErrInvalidRequest:         KindValidation,
	ErrInvalidAuctionIDFormat: KindValidation,
	ErrInvalidListingIDFormat: KindValidation,
	ErrMessageTypeRequired:    KindValidation,
	ErrAuctionIDRequired:      KindValidation,
	ErrUnknownMessageType:     KindValidation,

	ErrAuctionNotFound: KindNotFound,
	ErrListingNotFound: KindNotFound,

	ErrAuctionAlreadyExists:   KindConflict,
	ErrAuctionNotLive:         KindConflict,
	ErrAuctionTerminal:        KindConflict,
	ErrBidTooLow:              KindConflict,
	ErrStartingPriceImmutable: KindConflict,

	ErrVersionConflict:        KindTransient,
	ErrConcurrentModification: KindTransient,
	ErrStoreUnavailable:       KindTransient,

	ErrUnauthenticated: KindUnauthorized,
	ErrForbidden:       KindForbidden,
}

// KindOf returns the classification of err, walking its wrap chain
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	for sentinel, kind := range kinds {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindInternal
}
