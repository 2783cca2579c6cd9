package bid

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Bid is one accepted entry of an auction's ledger
type Bid struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates a bid accepted at the given time
func New(userID uuid.UUID, amount float64, at time.Time) Bid {
	return Bid{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		CreatedAt: at,
	}
}

// ValidAmount returns true if amount is finite and greater than 0
func ValidAmount(amount float64) bool {
	return !math.IsNaN(amount) && !math.IsInf(amount, 0) && amount > 0
}

// Ledger is the append-only, insertion-ordered bid history of one auction.
type Ledger []Bid

// Append returns the ledger with b added at the end
func (l Ledger) Append(b Bid) Ledger {
	return append(l, b)
}

// Highest returns the bid with the maximum amount. Ties go to the earliest
// created_at, then to the earliest insertion.
func (l Ledger) Highest() (Bid, bool) {
	if len(l) == 0 {
		return Bid{}, false
	}

	best := l[0]
	for _, b := range l[1:] {
		if Exceeds(b.Amount, best.Amount) {
			best = b
			continue
		}
		if Equal(b.Amount, best.Amount) && b.CreatedAt.Before(best.CreatedAt) {
			best = b
		}
	}
	return best, true
}

// StrictlyIncreasing reports whether every entry exceeds all entries before it
func (l Ledger) StrictlyIncreasing() bool {
	for i := 1; i < len(l); i++ {
		if !Exceeds(l[i].Amount, l[i-1].Amount) {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no backing array with l
func (l Ledger) Clone() Ledger {
	c := make(Ledger, len(l))
	copy(c, l)
	return c
}
