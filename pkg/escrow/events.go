package escrow

import "context"

// BookingEvent is published after a booking operation commits.
type BookingEvent struct {
	Type            string `json:"type"`
	Address         string `json:"address"`
	Driver          string `json:"driver"`
	Owner           string `json:"owner"`
	Amount          uint64 `json:"amount"`
	OwnerAmount     uint64 `json:"owner_amount,omitempty"`
	PlatformFee     uint64 `json:"platform_fee,omitempty"`
	Status          string `json:"status"`
	OccurredUnixUTC int64  `json:"occurred_unix_utc"`
}

// EventPublisher delivers booking events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event BookingEvent) error
}

// BookingCache caches booking snapshots by address.
type BookingCache interface {
	Get(ctx context.Context, address BookingAddress) (Booking, bool, error)
	Set(ctx context.Context, booking Booking) error
	Delete(ctx context.Context, address BookingAddress) error
}

func newBookingEvent(eventType string, booking Booking, occurredUnixUTC int64) BookingEvent {
	return BookingEvent{
		Type:            eventType,
		Address:         booking.Address().String(),
		Driver:          booking.Driver().String(),
		Owner:           booking.Owner().String(),
		Amount:          booking.Amount().Uint64(),
		Status:          booking.Status().String(),
		OccurredUnixUTC: occurredUnixUTC,
	}
}
