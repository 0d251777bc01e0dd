package events

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/streadway/amqp"
)

// AuditHandler logs every product event delivered from the exchange.
// Malformed bodies are rejected so the consumer nacks them.
func AuditHandler(msg amqp.Delivery) error {
	event, err := DecodeProductMessage(msg.Body)
	if err != nil {
		return err
	}
	log.Printf("Audit (tag %d): %s product=%s at %s", msg.DeliveryTag, event.Type, event.ProductID, event.OccurredAt.Format("2006-01-02T15:04:05Z07:00"))
	return nil
}

func DecodeProductMessage(body []byte) (ProductMessage, error) {
	var msg ProductMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("invalid product event: %w", err)
	}
	if msg.Type == "" || msg.ProductID == "" {
		return msg, fmt.Errorf("invalid product event: type and productId are required")
	}
	return msg, nil
}
