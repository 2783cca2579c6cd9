package shared

import "github.com/google/uuid"

// TransitionResult describes a single lifecycle transition applied by a sweep
type TransitionResult struct {
	AuctionID  uuid.UUID
	From       string
	To         string
	WinnerID   *uuid.UUID
	FinalPrice *float64
}

// SweepReport summarises one start or end sweep
type SweepReport struct {
	Selected    int
	Transitions []TransitionResult
	Skipped     int
	Failed      int
}
