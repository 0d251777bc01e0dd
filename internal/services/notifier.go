package services

import (
	"context"
	"time"

	"storefront/internal/models"
)

// ProductEventType names a product change pushed to subscribers.
type ProductEventType string

const (
	ProductAdded   ProductEventType = "productAdded"
	ProductDeleted ProductEventType = "productDeleted"
)

// ProductEvent describes a completed product mutation.
// Snapshot is the refreshed first page of the listing; it is nil if it could not be read.
type ProductEvent struct {
	Type       ProductEventType
	ProductID  string
	Product    *models.Product
	Snapshot   []models.Product
	OccurredAt time.Time
}

// ProductNotifier receives product events after create and delete.
// Delivery is best effort: implementations log their own failures.
type ProductNotifier interface {
	NotifyProductChange(ctx context.Context, event ProductEvent)
}

// Notifiers fans an event out to several notifiers in order.
type Notifiers []ProductNotifier

func (n Notifiers) NotifyProductChange(ctx context.Context, event ProductEvent) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.NotifyProductChange(ctx, event)
		}
	}
}

// NotifierFunc adapts a function to ProductNotifier.
type NotifierFunc func(ctx context.Context, event ProductEvent)

func (f NotifierFunc) NotifyProductChange(ctx context.Context, event ProductEvent) {
	f(ctx, event)
}
