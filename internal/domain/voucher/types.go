package voucher

import "errors"

var ErrInvalidStatus = errors.New("invalid voucher status")

type Status string

const (
	StatusActive    Status = "active"
	StatusRedeemed  Status = "redeemed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusRedeemed, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition may leave s.
func (s Status) IsTerminal() bool {
	return s == StatusExpired || s == StatusCancelled
}

func NewStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// CanTransitionTo encodes the lifecycle table:
// active -> redeemed | cancelled, redeemed -> expired | cancelled.
func (s Status) CanTransitionTo(to Status) bool {
	switch s {
	case StatusActive:
		return to == StatusRedeemed || to == StatusCancelled
	case StatusRedeemed:
		return to == StatusExpired || to == StatusCancelled
	default:
		return false
	}
}

// Action is an audit trail action name, one per lifecycle transition.
type Action string

const (
	ActionCreated        Action = "created"
	ActionRedeemed       Action = "redeemed"
	ActionExpired        Action = "expired"
	ActionCancelled      Action = "cancelled"
	ActionExpiryExtended Action = "expiry_extended"
)
