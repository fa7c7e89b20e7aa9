package models

import (
	"errors"
	"time"
)

// EstimatedDeliveryWindow is added to the confirmation instant to estimate
// when the order arrives.
const EstimatedDeliveryWindow = 45 * time.Minute

var ErrNotCancellable = errors.New("order can no longer be cancelled")

// CanCancel reports whether the order is still pending or confirmed.
func (o Order) CanCancel() bool {
	return o.Status == StatusPending || o.Status == StatusConfirmed
}

// ApplyStatus moves o to next and derives the status timestamps. Any status
// may overwrite any other except that cancelling requires CanCancel.
func ApplyStatus(o *Order, next OrderStatus, now time.Time) error {
	if next == StatusCancelled && !o.CanCancel() {
		return ErrNotCancellable
	}
	o.Status = next
	deriveTimestamps(o, now)
	o.UpdatedAt = now
	return nil
}

// deriveTimestamps sets estimatedDeliveryAt and deliveredAt once; later saves
// never move them.
func deriveTimestamps(o *Order, now time.Time) {
	if o.Status == StatusConfirmed && o.EstimatedDeliveryAt == nil {
		eta := now.Add(EstimatedDeliveryWindow)
		o.EstimatedDeliveryAt = &eta
	}
	if o.Status == StatusDelivered && o.DeliveredAt == nil {
		delivered := now
		o.DeliveredAt = &delivered
	}
}
