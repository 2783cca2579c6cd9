package auction

import "time"

// Filter selects auctions by status and time window. Zero-valued fields do
// not constrain the result.
type Filter struct {
	Statuses []Status
	// StartedBy matches start_time <= StartedBy
	StartedBy time.Time
	// EndsAfter matches end_time > EndsAfter
	EndsAfter time.Time
	// EndedBy matches end_time <= EndedBy
	EndedBy time.Time
}

// DueToStartFilter is the selection predicate of the start sweep
func DueToStartFilter(now time.Time) Filter {
	return Filter{Statuses: []Status{StatusUpcoming}, StartedBy: now, EndsAfter: now}
}

// DueToEndFilter is the selection predicate of the end sweep
func DueToEndFilter(now time.Time) Filter {
	return Filter{Statuses: []Status{StatusUpcoming, StatusLive}, EndedBy: now}
}

// Matches reports whether a satisfies the filter
func (f Filter) Matches(a *Auction) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if a.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.StartedBy.IsZero() && a.StartTime.After(f.StartedBy) {
		return false
	}
	if !f.EndsAfter.IsZero() && !a.EndTime.After(f.EndsAfter) {
		return false
	}
	if !f.EndedBy.IsZero() && a.EndTime.After(f.EndedBy) {
		return false
	}
	return true
}
