package bookings

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
	StatusCompleted Status = "COMPLETED"
	StatusRefunded  Status = "REFUNDED"
)

// transitions holds the allowed moves. A status missing from the map is
// terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled, StatusExpired},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
	StatusCancelled: {StatusRefunded},
}

// IsValid checks if the booking status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusExpired, StatusCompleted, StatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks whether the move to target is allowed
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition can leave this status
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// HoldsCapacity reports whether a booking in this status still occupies its
// resources. Expiry and cancellation of these statuses must release them.
func (s Status) HoldsCapacity() bool {
	return s == StatusPending || s == StatusConfirmed
}
