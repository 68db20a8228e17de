package domain

// ProductStatus is the review state of a product. Visibility (IsActive) is a
// separate flag constrained by the status: a product can only be active while
// it is approved.
type ProductStatus string

const (
	StatusPending   ProductStatus = "pending"
	StatusApproved  ProductStatus = "approved"
	StatusRejected  ProductStatus = "rejected"
	StatusSuspended ProductStatus = "suspended"
)

// Valid reports whether s is a known product status.
func (s ProductStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusSuspended:
		return true
	}
	return false
}

// CanActivate reports whether a product in this status may be made visible.
func (s ProductStatus) CanActivate() bool {
	return s == StatusApproved
}

// statusTransitions is the admin review state machine. Products start out
// pending, get approved or rejected, and approved products can be suspended
// or sent back to pending for re-review. Rejected and suspended products are
// recoverable.
var statusTransitions = map[ProductStatus][]ProductStatus{
	StatusPending:   {StatusApproved, StatusRejected},
	StatusApproved:  {StatusPending, StatusRejected, StatusSuspended},
	StatusRejected:  {StatusApproved, StatusPending},
	StatusSuspended: {StatusApproved, StatusPending},
}

// CanTransition reports whether a status change from one state to another is
// allowed. Setting the current status again is permitted so that retried
// review calls stay idempotent.
func CanTransition(from, to ProductStatus) bool {
	if from == to {
		return true
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
