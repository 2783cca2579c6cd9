package broadcaster

import (
	"context"
	"time"

	"listing-auction-service/internal/domain/auction"
	"listing-auction-service/internal/ports/outbound"

	"github.com/alitto/pond"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	emitShards        = 4
	emitShardCapacity = 256
)

var _ outbound.EventEmitter = (*Emitter)(nil)

// Emitter publishes domain events off the caller's goroutine. Each auction
// hashes to one single-worker shard, so its events are published in the
// order they were emitted. Failures and overflow are logged and dropped.
type Emitter struct {
	broadcaster outbound.Broadcaster
	timeout     time.Duration
	shards      []*pond.WorkerPool
	logger      zerolog.Logger
}

type EmitterParams struct {
	Broadcaster outbound.Broadcaster
	Timeout     time.Duration
	Logger      zerolog.Logger
}

func NewEmitter(params EmitterParams) *Emitter {
	shards := make([]*pond.WorkerPool, emitShards)
	for i := range shards {
		shards[i] = pond.New(1, emitShardCapacity)
	}
	return &Emitter{
		broadcaster: params.Broadcaster,
		timeout:     params.Timeout,
		shards:      shards,
		logger:      params.Logger.With().Str("component", "event_emitter").Logger(),
	}
}

// EmitBidUpdate broadcasts the auction snapshot after an accepted bid
func (e *Emitter) EmitBidUpdate(auctionID uuid.UUID, snapshot *auction.Auction) {
	e.submit(BidUpdateEvent(auctionID, snapshot, time.Now()))
}

// EmitStatusChange broadcasts a status transition
func (e *Emitter) EmitStatusChange(auctionID uuid.UUID, status auction.Status) {
	e.submit(StatusChangeEvent(auctionID, status, time.Now()))
}

func (e *Emitter) shardFor(auctionID uuid.UUID) *pond.WorkerPool {
	return e.shards[xxhash.Sum64(auctionID[:])%uint64(len(e.shards))]
}

func (e *Emitter) submit(event outbound.Event) {
	ok := e.shardFor(event.AuctionID).TrySubmit(func() {
		e.publish(event)
	})
	if !ok {
		e.logger.Warn().
			Str("event_type", string(event.Type)).
			Str("auction_id", event.AuctionID.String()).
			Msg("Emit queue full, dropping event")
	}
}

func (e *Emitter) publish(event outbound.Event) {
	ctx := context.Background()
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	if err := e.broadcaster.Publish(ctx, event.AuctionID, event); err != nil {
		e.logger.Error().
			Err(err).
			Str("event_type", string(event.Type)).
			Str("auction_id", event.AuctionID.String()).
			Msg("Failed to broadcast event")
	}
}

// Close waits for queued events to be published
func (e *Emitter) Close() {
	for _, shard := range e.shards {
		shard.StopAndWait()
	}
}

// BidUpdateEvent builds the event sent after an accepted bid
func BidUpdateEvent(auctionID uuid.UUID, snapshot *auction.Auction, at time.Time) outbound.Event {
	data := map[string]interface{}{
		"auction": snapshot,
	}
	if snapshot != nil {
		data["current_bid"] = snapshot.CurrentBid
		data["version"] = snapshot.Version
		data["status"] = snapshot.Status
		if best, ok := snapshot.HighestBid(); ok {
			data["bid"] = best
		}
	}
	return outbound.Event{
		Type:      outbound.EventTypeBidUpdate,
		AuctionID: auctionID,
		Data:      data,
		Timestamp: at.Unix(),
	}
}

// StatusChangeEvent builds the event sent after a status transition
func StatusChangeEvent(auctionID uuid.UUID, status auction.Status, at time.Time) outbound.Event {
	return outbound.Event{
		Type:      outbound.EventTypeStatusChange,
		AuctionID: auctionID,
		Data: map[string]interface{}{
			"status": status,
		},
		Timestamp: at.Unix(),
	}
}
