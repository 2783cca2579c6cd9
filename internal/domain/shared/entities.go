package shared

import (
	"time"

	"github.com/google/uuid"
)

// Caller is the identity handed to the core by the gateway
type Caller struct {
	UserID uuid.UUID `json:"user_id"`
	Admin  bool      `json:"admin"`
}

// Listing represents a property listing that may carry one auction
type Listing struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
