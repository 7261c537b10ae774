package order

import (
	"github.com/go-faster/errors"
)

// Status is an order's position in its fulfillment lifecycle.
type Status string

// The full status set. Orders start in StatusPending; StatusDelivered and
// StatusCancelled are terminal.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// ErrUnknownStatus is returned by ParseStatus for values outside the set.
var ErrUnknownStatus = errors.New("unknown order status")

// transitions is the legal edge set of the state machine. The graph is
// acyclic, so any accepted status change is also the first entry into that
// status for the order.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusDelivered, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := transitions[st]; !ok {
		return "", errors.Wrapf(ErrUnknownStatus, "%q", s)
	}
	return st, nil
}

// Valid reports whether s is a member of the status set.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0 && s.Valid()
}

// CanTransitionTo reports whether the state machine permits moving from s
// to next. Same-status requests are not transitions and return false.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
