// Package events publishes product changes to message brokers.
package events

import (
	"context"
	"log"
	"time"

	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/pkg/kafka"
)

// Routing keys and Kafka event types.
const (
	TypeProductAdded   = "product.added"
	TypeProductDeleted = "product.deleted"
)

// ProductMessage is the broker payload for a product change.
type ProductMessage struct {
	Type       string          `json:"type"`
	ProductID  string          `json:"productId"`
	Product    *models.Product `json:"product,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// NewProductMessage converts a service event to its broker form.
func NewProductMessage(event services.ProductEvent) ProductMessage {
	msg := ProductMessage{
		ProductID:  event.ProductID,
		Product:    event.Product,
		OccurredAt: event.OccurredAt,
	}
	switch event.Type {
	case services.ProductAdded:
		msg.Type = TypeProductAdded
	case services.ProductDeleted:
		msg.Type = TypeProductDeleted
	default:
		msg.Type = string(event.Type)
	}
	return msg
}

// Publisher is the part of the RabbitMQ client used here.
type Publisher interface {
	PublishJSON(routingKey string, payload interface{}) error
}

// RabbitMQNotifier publishes product changes to a RabbitMQ exchange.
type RabbitMQNotifier struct {
	publisher Publisher
}

func NewRabbitMQNotifier(publisher Publisher) *RabbitMQNotifier {
	return &RabbitMQNotifier{publisher: publisher}
}

func (n *RabbitMQNotifier) NotifyProductChange(_ context.Context, event services.ProductEvent) {
	msg := NewProductMessage(event)
	if err := n.publisher.PublishJSON(msg.Type, msg); err != nil {
		log.Printf("Warning: failed to publish %s for product %s to RabbitMQ: %v", msg.Type, msg.ProductID, err)
		return
	}
	log.Printf("Published %s for product %s to RabbitMQ", msg.Type, msg.ProductID)
}

// KafkaNotifier publishes product changes to a Kafka topic keyed by product id.
type KafkaNotifier struct {
	writer  kafka.MessageWriter
	timeout time.Duration
}

func NewKafkaNotifier(writer kafka.MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, timeout: 5 * time.Second}
}

func (n *KafkaNotifier) NotifyProductChange(ctx context.Context, event services.ProductEvent) {
	msg := NewProductMessage(event)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()
	if err := kafka.PublishJSON(ctx, n.writer, msg.ProductID, msg); err != nil {
		log.Printf("Warning: failed to publish %s for product %s to Kafka: %v", msg.Type, msg.ProductID, err)
	}
}
