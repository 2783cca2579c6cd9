package broadcaster

import (
	"context"
	"time"

	"listing-auction-service/internal/domain/shared"
	"listing-auction-service/internal/ports/outbound"
	"listing-auction-service/internal/syncutils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var _ outbound.Broadcaster = (*LocalBroadcaster)(nil)

// LocalBroadcaster fans events out to clients of this process only. It is
// used when no Redis address is configured.
type LocalBroadcaster struct {
	mu          syncutils.RWMutex
	subscribers map[uuid.UUID]map[string]chan outbound.Event // auctionID -> clientID -> channel
	clients     map[string]map[uuid.UUID]bool
	closed      bool
	logger      zerolog.Logger
}

type LocalBroadcasterParams struct {
	Logger zerolog.Logger
}

func NewLocalBroadcaster(params LocalBroadcasterParams) *LocalBroadcaster {
	return &LocalBroadcaster{
		subscribers: make(map[uuid.UUID]map[string]chan outbound.Event),
		clients:     make(map[string]map[uuid.UUID]bool),
		logger:      params.Logger.With().Str("component", "local_broadcaster").Logger(),
	}
}

// Subscribe subscribes a client to events for a specific auction
func (b *LocalBroadcaster) Subscribe(_ context.Context, auctionID uuid.UUID, clientID string, eventChan chan outbound.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return shared.ErrBroadcasterClosed
	}

	if b.subscribers[auctionID] == nil {
		b.subscribers[auctionID] = make(map[string]chan outbound.Event)
	}
	b.subscribers[auctionID][clientID] = eventChan

	if b.clients[clientID] == nil {
		b.clients[clientID] = make(map[uuid.UUID]bool)
	}
	b.clients[clientID][auctionID] = true
	return nil
}

// Unsubscribe unsubscribes a client from events for a specific auction
func (b *LocalBroadcaster) Unsubscribe(_ context.Context, auctionID uuid.UUID, clientID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.unsubscribeLocked(auctionID, clientID)
	return nil
}

// UnsubscribeAll drops every subscription of a client. No event is sent to
// the client channel once it returns.
func (b *LocalBroadcaster) UnsubscribeAll(_ context.Context, clientID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for auctionID := range b.clients[clientID] {
		b.unsubscribeLocked(auctionID, clientID)
	}
	return nil
}

func (b *LocalBroadcaster) unsubscribeLocked(auctionID uuid.UUID, clientID string) {
	if subs, ok := b.subscribers[auctionID]; ok {
		delete(subs, clientID)
		if len(subs) == 0 {
			delete(b.subscribers, auctionID)
		}
	}
	if auctions, ok := b.clients[clientID]; ok {
		delete(auctions, auctionID)
		if len(auctions) == 0 {
			delete(b.clients, clientID)
		}
	}
}

// Publish delivers an event to every subscriber of the auction without
// blocking; events for a full client channel are dropped.
func (b *LocalBroadcaster) Publish(_ context.Context, auctionID uuid.UUID, event outbound.Event) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return shared.ErrBroadcasterClosed
	}

	for clientID, ch := range b.subscribers[auctionID] {
		select {
		case ch <- event:
		default:
			b.logger.Warn().
				Str("client_id", clientID).
				Str("auction_id", auctionID.String()).
				Msg("Client channel full, dropping event")
		}
	}
	return nil
}

// IsSubscribed checks if a client is subscribed to an auction
func (b *LocalBroadcaster) IsSubscribed(_ context.Context, auctionID uuid.UUID, clientID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.clients[clientID][auctionID]
}

func (b *LocalBroadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.subscribers = make(map[uuid.UUID]map[string]chan outbound.Event)
	b.clients = make(map[string]map[uuid.UUID]bool)
	return nil
}
