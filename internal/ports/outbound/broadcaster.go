package outbound

import (
	"context"

	"listing-auction-service/internal/domain/auction"

	"github.com/google/uuid"
)

// EventType represents the type of event being broadcasted
type EventType string

const (
	EventTypeBidUpdate    EventType = "bid.update"
	EventTypeStatusChange EventType = "auction.status"
)

// Event represents a broadcast event
type Event struct {
	Type      EventType              `json:"type"`
	AuctionID uuid.UUID              `json:"auction_id"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
}

// Broadcaster defines the interface for fanning events out to realtime clients
type Broadcaster interface {
	// Subscribe subscribes a client to events for a specific auction
	// When a client subscribes to multiple auctions, all events are delivered to the same channel
	Subscribe(ctx context.Context, auctionID uuid.UUID, clientID string, eventChan chan Event) error

	// Unsubscribe unsubscribes a client from events for a specific auction
	Unsubscribe(ctx context.Context, auctionID uuid.UUID, clientID string) error

	// UnsubscribeAll drops every subscription of a client
	UnsubscribeAll(ctx context.Context, clientID string) error

	// Publish publishes an event to all subscribers of an auction
	Publish(ctx context.Context, auctionID uuid.UUID, event Event) error

	// IsSubscribed checks if a client is subscribed to an auction
	IsSubscribed(ctx context.Context, auctionID uuid.UUID, clientID string) bool

	Close() error
}

// EventEmitter is the fire-and-forget output port of the auction core.
// Implementations must not block the caller on delivery.
type EventEmitter interface {
	EmitBidUpdate(auctionID uuid.UUID, snapshot *auction.Auction)
	EmitStatusChange(auctionID uuid.UUID, status auction.Status)
}

// SweepLock is a lease that keeps several service instances from sweeping at once
type SweepLock interface {
	// TryAcquire returns a release func and true when the lease was taken
	TryAcquire(ctx context.Context) (release func(), acquired bool, err error)
}
