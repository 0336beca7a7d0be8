package booking

import (
	"time"
)

// Status enumerates booking statuses.
type Status string

const (
	StatusPending    Status = "pending"
	StatusReserved   Status = "reserved"
	StatusConfirmed  Status = "confirmed"
	StatusCanceled   Status = "canceled"
	StatusCheckedOut Status = "checked_out"
)

// Booking model. Beds and buildings belong to the catalog; only the id is
// carried here.
type Booking struct {
	ID         int64
	TenantID   int64
	Status     Status
	BedID      int64 // zero when unassigned
	BuildingID string
	StartDate  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AllowedTransitions returns the legal next statuses for the current one.
// Confirmed bookings can only be canceled or checked out. Every other
// status, including unknown values from older records, keeps the full set;
// canceled bookings may be reinstated through it.
func AllowedTransitions(current Status) []Status {
	if current == StatusConfirmed {
		return []Status{StatusCanceled, StatusCheckedOut}
	}
	return []Status{StatusPending, StatusReserved, StatusConfirmed, StatusCanceled}
}

// CanTransition reports whether next is reachable from current.
func CanTransition(current, next Status) bool {
	for _, s := range AllowedTransitions(current) {
		if s == next {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known booking status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusReserved, StatusConfirmed, StatusCanceled, StatusCheckedOut:
		return true
	}
	return false
}

// TransitionResult carries the updated booking plus advisory signals the
// caller must act on.
type TransitionResult struct {
	Booking Booking
	// BedAffected holds the bed id whose availability needs recomputing,
	// zero when no bed is assigned. This service never mutates beds itself.
	BedAffected int64
	// Warnings are non-blocking inconsistencies, e.g. demoting a booking to
	// pending while a bed is still assigned.
	Warnings []string
}
