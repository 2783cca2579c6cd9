package memory

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"listing-auction-service/internal/domain/auction"
	"listing-auction-service/internal/domain/shared"
	"listing-auction-service/internal/ports/outbound"
	"listing-auction-service/internal/syncutils"

	"github.com/google/btree"
	"github.com/google/uuid"
)

// startKey orders auctions by start time, then listing id
type startKey struct {
	start time.Time
	id    uuid.UUID
}

func lessStartKey(a, b startKey) bool {
	if !a.start.Equal(b.start) {
		return a.start.Before(b.start)
	}
	return bytes.Compare(a.id[:], b.id[:]) < 0
}

// Store is a concurrency-safe in-memory listing and auction store.
// Auctions are stored as private copies; every read returns a clone.
type Store struct {
	mu       syncutils.RWMutex
	listings map[uuid.UUID]shared.Listing
	auctions map[uuid.UUID]*auction.Auction
	byStart  *btree.BTreeG[startKey]
}

// NewStore creates a new in-memory store
func NewStore() *Store {
	return &Store{
		listings: make(map[uuid.UUID]shared.Listing),
		auctions: make(map[uuid.UUID]*auction.Auction),
		byStart:  btree.NewG[startKey](16, lessStartKey),
	}
}

// Auctions returns the auction repository view of the store
func (s *Store) Auctions() *AuctionRepository {
	return &AuctionRepository{store: s}
}

// Listings returns the listing repository view of the store
func (s *Store) Listings() *ListingRepository {
	return &ListingRepository{store: s}
}

var (
	_ outbound.AuctionRepository = (*AuctionRepository)(nil)
	_ outbound.ListingRepository = (*ListingRepository)(nil)
)

// AuctionRepository implements the auction repository interface in memory
type AuctionRepository struct {
	store *Store
}

// Create attaches a new auction to its listing
func (r *AuctionRepository) Create(ctx context.Context, a *auction.Auction) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to create auction: %w", err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[a.ListingID]; !ok {
		return shared.ErrListingNotFound
	}
	if _, ok := s.auctions[a.ListingID]; ok {
		return shared.ErrAuctionAlreadyExists
	}

	a.Version = 1
	s.auctions[a.ListingID] = a.Clone()
	s.byStart.ReplaceOrInsert(startKey{start: a.StartTime, id: a.ListingID})
	return nil
}

// GetByListingID retrieves the auction of a listing
func (r *AuctionRepository) GetByListingID(ctx context.Context, listingID uuid.UUID) (*auction.Auction, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[listingID]
	if !ok {
		return nil, shared.ErrAuctionNotFound
	}
	return a.Clone(), nil
}

// Find retrieves auctions matching the filter ordered by start time
func (r *AuctionRepository) Find(ctx context.Context, filter auction.Filter) ([]*auction.Auction, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to find auctions: %w", err)
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var auctions []*auction.Auction
	s.byStart.Ascend(func(key startKey) bool {
		if !filter.StartedBy.IsZero() && key.start.After(filter.StartedBy) {
			return false
		}
		if a, ok := s.auctions[key.id]; ok && filter.Matches(a) {
			auctions = append(auctions, a.Clone())
		}
		return true
	})
	return auctions, nil
}

// Save overwrites the auction if the stored version equals expectedVersion
func (r *AuctionRepository) Save(ctx context.Context, a *auction.Auction, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to save auction: %w", err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.auctions[a.ListingID]
	if !ok {
		return shared.ErrAuctionNotFound
	}
	if current.Version != expectedVersion {
		return shared.ErrVersionConflict
	}

	if !current.StartTime.Equal(a.StartTime) {
		s.byStart.Delete(startKey{start: current.StartTime, id: current.ListingID})
		s.byStart.ReplaceOrInsert(startKey{start: a.StartTime, id: a.ListingID})
	}

	a.Version = expectedVersion + 1
	s.auctions[a.ListingID] = a.Clone()
	return nil
}

// ListingRepository implements the listing repository interface in memory
type ListingRepository struct {
	store *Store
}

// Create creates a new listing
func (r *ListingRepository) Create(ctx context.Context, listing *shared.Listing) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[listing.ID]; ok {
		return fmt.Errorf("listing %s already exists", listing.ID)
	}
	s.listings[listing.ID] = *listing
	return nil
}

// GetByID retrieves a listing by ID
func (r *ListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*shared.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, ok := s.listings[id]
	if !ok {
		return nil, shared.ErrListingNotFound
	}
	return &listing, nil
}

// Delete deletes a listing together with its auction
func (r *ListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[id]; !ok {
		return shared.ErrListingNotFound
	}
	delete(s.listings, id)

	if a, ok := s.auctions[id]; ok {
		s.byStart.Delete(startKey{start: a.StartTime, id: id})
		delete(s.auctions, id)
	}
	return nil
}
