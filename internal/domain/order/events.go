package order

import "github.com/corvinae/shopengine/internal/hooks"

// Event kinds fired by the order lifecycle. Exactly one of these fires per
// accepted status-changing transition; notes-only updates fire none.
const (
	EventCreated   hooks.Kind = "order.created"
	EventUpdated   hooks.Kind = "order.updated"
	EventShipped   hooks.Kind = "order.shipped"
	EventDelivered hooks.Kind = "order.delivered"
	EventCancelled hooks.Kind = "order.cancelled"
)

// CreatedEvent fires once, after the creation transaction commits.
type CreatedEvent struct {
	Order *Order
}

func (CreatedEvent) Kind() hooks.Kind { return EventCreated }

// UpdatedEvent fires for accepted status changes that have no dedicated
// event, e.g. pending to processing. Previous carries the status the order
// left.
type UpdatedEvent struct {
	Order    *Order
	Previous Status
}

func (UpdatedEvent) Kind() hooks.Kind { return EventUpdated }

// ShippedEvent fires on the order's first entry into StatusShipped.
type ShippedEvent struct {
	Order *Order
}

func (ShippedEvent) Kind() hooks.Kind { return EventShipped }

// DeliveredEvent fires on the order's first entry into StatusDelivered.
type DeliveredEvent struct {
	Order *Order
}

func (DeliveredEvent) Kind() hooks.Kind { return EventDelivered }

// CancelledEvent fires on the order's first entry into StatusCancelled.
type CancelledEvent struct {
	Order    *Order
	Previous Status
}

func (CancelledEvent) Kind() hooks.Kind { return EventCancelled }

// eventFor maps an accepted status change to the single event it fires.
func eventFor(o *Order, prev Status) hooks.Event {
	switch o.Status {
	case StatusShipped:
		return ShippedEvent{Order: o}
	case StatusDelivered:
		return DeliveredEvent{Order: o}
	case StatusCancelled:
		return CancelledEvent{Order: o, Previous: prev}
	default:
		return UpdatedEvent{Order: o, Previous: prev}
	}
}
