package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"listing-auction-service/internal/domain/auction"
	"listing-auction-service/internal/domain/bid"
	"listing-auction-service/internal/domain/shared"
	"listing-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const auctionColumns = `listing_id, status, start_time, end_time, starting_price, current_bid, reserve_price, winner, version, created_at, updated_at`

var _ outbound.AuctionRepository = (*AuctionRepository)(nil)

// AuctionRepository implements the auction repository interface. The bid
// ledger lives in the bids table, ordered by its insertion sequence.
type AuctionRepository struct {
	conn *Connection
}

// NewAuctionRepository creates a new auction repository
func NewAuctionRepository(conn *Connection) *AuctionRepository {
	return &AuctionRepository{conn: conn}
}

// Create attaches a new auction to its listing
func (r *AuctionRepository) Create(ctx context.Context, a *auction.Auction) error {
	return r.conn.ExecuteTransaction(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM listings WHERE id = $1 FOR SHARE`, a.ListingID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return shared.ErrListingNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check listing: %w", err)
		}

		query := `
			INSERT INTO auctions (` + auctionColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, $9, $10)
			ON CONFLICT (listing_id) DO NOTHING
		`
		result, err := tx.ExecContext(ctx, query,
			a.ListingID,
			string(a.Status),
			a.StartTime,
			a.EndTime,
			a.StartingPrice,
			a.CurrentBid,
			a.ReservePrice,
			nullUUID(a.Winner),
			a.CreatedAt,
			a.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create auction: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return shared.ErrAuctionAlreadyExists
		}

		if err := insertBids(ctx, tx, a.ListingID, a.Bids); err != nil {
			return err
		}
		a.Version = 1
		return nil
	})
}

// GetByListingID retrieves the auction of a listing with its bid ledger
func (r *AuctionRepository) GetByListingID(ctx context.Context, listingID uuid.UUID) (*auction.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE listing_id = $1`

	var a *auction.Auction
	err := r.conn.ExecuteSnapshot(ctx, func(tx *sql.Tx) error {
		var err error
		a, err = scanAuction(tx.QueryRowContext(ctx, query, listingID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return shared.ErrAuctionNotFound
			}
			return fmt.Errorf("failed to get auction: %w", err)
		}
		return attachBids(ctx, tx, []*auction.Auction{a})
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Find retrieves auctions matching the filter ordered by start time
func (r *AuctionRepository) Find(ctx context.Context, filter auction.Filter) ([]*auction.Auction, error) {
	var auctions []*auction.Auction
	err := r.conn.ExecuteSnapshot(ctx, func(tx *sql.Tx) error {
		var err error
		auctions, err = findAuctions(ctx, tx, filter)
		if err != nil {
			return err
		}
		return attachBids(ctx, tx, auctions)
	})
	if err != nil {
		return nil, err
	}
	return auctions, nil
}

func findAuctions(ctx context.Context, tx *sql.Tx, filter auction.Filter) ([]*auction.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE (cardinality($1::text[]) = 0 OR status = ANY($1::text[]))
		  AND ($2::timestamptz IS NULL OR start_time <= $2)
		  AND ($3::timestamptz IS NULL OR end_time > $3)
		  AND ($4::timestamptz IS NULL OR end_time <= $4)
		ORDER BY start_time ASC, listing_id ASC
	`

	rows, err := tx.QueryContext(ctx, query,
		pq.Array(statusStrings(filter.Statuses)),
		nullTime(filter.StartedBy),
		nullTime(filter.EndsAfter),
		nullTime(filter.EndedBy),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find auctions: %w", err)
	}
	defer rows.Close()

	var auctions []*auction.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auction: %w", err)
		}
		auctions = append(auctions, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auctions: %w", err)
	}
	return auctions, nil
}

// Save overwrites the auction if its stored version equals expectedVersion and
// appends the ledger entries not yet stored
func (r *AuctionRepository) Save(ctx context.Context, a *auction.Auction, expectedVersion int64) error {
	return r.conn.ExecuteTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE auctions
			SET status = $3, start_time = $4, end_time = $5, starting_price = $6,
			    current_bid = $7, reserve_price = $8, winner = $9, version = version + 1, updated_at = $10
			WHERE listing_id = $1 AND version = $2
		`
		result, err := tx.ExecContext(ctx, query,
			a.ListingID,
			expectedVersion,
			string(a.Status),
			a.StartTime,
			a.EndTime,
			a.StartingPrice,
			a.CurrentBid,
			a.ReservePrice,
			nullUUID(a.Winner),
			a.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update auction: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM auctions WHERE listing_id = $1)`, a.ListingID).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check auction: %w", err)
			}
			if !exists {
				return shared.ErrAuctionNotFound
			}
			return shared.ErrVersionConflict
		}

		var stored int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM bids WHERE auction_id = $1`, a.ListingID).Scan(&stored); err != nil {
			return fmt.Errorf("failed to count bids: %w", err)
		}
		if stored < len(a.Bids) {
			if err := insertBids(ctx, tx, a.ListingID, a.Bids[stored:]); err != nil {
				return err
			}
		}

		a.Version = expectedVersion + 1
		return nil
	})
}

func insertBids(ctx context.Context, tx *sql.Tx, auctionID uuid.UUID, bids bid.Ledger) error {
	for _, b := range bids {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bids (id, auction_id, user_id, amount, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, b.ID, auctionID, b.UserID, b.Amount, b.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert bid: %w", err)
		}
	}
	return nil
}

// attachBids loads the ledgers of the given auctions in one query
func attachBids(ctx context.Context, tx *sql.Tx, auctions []*auction.Auction) error {
	if len(auctions) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*auction.Auction, len(auctions))
	ids := make([]string, 0, len(auctions))
	for _, a := range auctions {
		a.Bids = bid.Ledger{}
		byID[a.ListingID] = a
		ids = append(ids, a.ListingID.String())
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT auction_id, id, user_id, amount, created_at
		FROM bids
		WHERE auction_id = ANY($1::uuid[])
		ORDER BY seq ASC
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to get bids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var auctionID uuid.UUID
		var b bid.Bid
		if err := rows.Scan(&auctionID, &b.ID, &b.UserID, &b.Amount, &b.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan bid: %w", err)
		}
		if a, ok := byID[auctionID]; ok {
			a.Bids = a.Bids.Append(b)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating bids: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuction(row rowScanner) (*auction.Auction, error) {
	var a auction.Auction
	var status string
	var winner uuid.NullUUID

	err := row.Scan(
		&a.ListingID,
		&status,
		&a.StartTime,
		&a.EndTime,
		&a.StartingPrice,
		&a.CurrentBid,
		&a.ReservePrice,
		&winner,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Status = auction.Status(status)
	if winner.Valid {
		w := winner.UUID
		a.Winner = &w
	}
	return &a, nil
}

func statusStrings(statuses []auction.Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
