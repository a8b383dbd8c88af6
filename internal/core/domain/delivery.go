package domain

import "time"

// Condition is the closed set of reasons a delivery toggle can be refused.
type Condition string

const (
	ConditionNone              Condition = ""
	ConditionOrderCancelled    Condition = "order_cancelled"
	ConditionInsufficientStock Condition = "insufficient_stock"
	ConditionRevertNotAllowed  Condition = "revert_not_allowed"
	ConditionUnknownFailure    Condition = "unknown_failure"
)

const genericFailureMessage = "the delivery status could not be updated"

// Message returns the user-facing text for c. Each condition has its own text.
func (c Condition) Message() string {
	switch c {
	case ConditionNone:
		return ""
	case ConditionOrderCancelled:
		return "the order is cancelled; its deliveries can no longer be changed"
	case ConditionInsufficientStock:
		return "there is not enough stock to deliver this item"
	case ConditionRevertNotAllowed:
		return "only an administrator can revert a delivery, and only within the allowed time window"
	default:
		return genericFailureMessage
	}
}

// MutationState tracks a single optimistic toggle.
//
//	Pending ──success──▶ Confirmed
//	   └────failure──▶ RolledBack
//
// Rejected is terminal for toggles refused before any local write.
type MutationState string

const (
	MutationPending    MutationState = "pending"
	MutationConfirmed  MutationState = "confirmed"
	MutationRolledBack MutationState = "rolled_back"
	MutationRejected   MutationState = "rejected"
)

// Outcome is the single terminal result of a delivery toggle.
type Outcome struct {
	OrderID        int64         `json:"order_id"`
	DetailID       int64         `json:"detail_id"`
	Requested      bool          `json:"delivered"`
	State          MutationState `json:"state"`
	Condition      Condition     `json:"condition,omitempty"`
	OrderCompleted bool          `json:"order_completed"`
	Message        string        `json:"message,omitempty"`
	// Err keeps the underlying cause for logging and session handling.
	Err error `json:"-"`
}

// Confirmed reports whether the backend accepted the toggle.
func (o Outcome) Confirmed() bool {
	return o.State == MutationConfirmed
}

// DeliveryAttempt is the audit record written for every toggle outcome.
type DeliveryAttempt struct {
	ID             string        `json:"id" bson:"_id"`
	OrderID        int64         `json:"order_id" bson:"order_id"`
	DetailID       int64         `json:"detail_id" bson:"detail_id"`
	Requested      bool          `json:"delivered" bson:"delivered"`
	State          MutationState `json:"state" bson:"state"`
	Condition      Condition     `json:"condition,omitempty" bson:"condition,omitempty"`
	OrderCompleted bool          `json:"order_completed" bson:"order_completed"`
	Actor          string        `json:"actor,omitempty" bson:"actor,omitempty"`
	Message        string        `json:"message,omitempty" bson:"message,omitempty"`
	At             time.Time     `json:"at" bson:"at"`
}
