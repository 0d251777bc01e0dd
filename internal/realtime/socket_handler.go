package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"storefront/internal/apperror"
	"storefront/internal/models"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// ProductCommands is the subset of the product service reachable from the socket.
type ProductCommands interface {
	Create(ctx context.Context, in models.ProductInput) (*models.Product, error)
	Delete(ctx context.Context, id string) (*models.Product, error)
	ValidID(id string) bool
}

type inboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// SocketHandler serves WebSocket clients: it subscribes them to the hub and
// runs their addProduct/deleteProduct commands. Successful commands are broadcast
// by the product service's notifier; failures go back to the sender only.
type SocketHandler struct {
	hub      *Hub
	products ProductCommands
}

// NewSocketHandler creates a new SocketHandler.
func NewSocketHandler(hub *Hub, products ProductCommands) *SocketHandler {
	return &SocketHandler{hub: hub, products: products}
}

// RegisterRoutes mounts the WebSocket endpoint at /ws.
func (h *SocketHandler) RegisterRoutes(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(func(c *websocket.Conn) {
		h.Serve(context.Background(), c)
	}))
}

// Serve reads frames from conn until it closes.
func (h *SocketHandler) Serve(ctx context.Context, conn Conn) {
	sub := h.hub.Subscribe(conn)
	// The connection must not be touched once Serve returns.
	defer func() {
		h.hub.Unsubscribe(sub)
		sub.Wait()
	}()
	log.Printf("Socket client connected (%d connected)", h.hub.Len())

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if isDecodeError(err) {
				h.replyError(sub, apperror.Validation("malformed message"))
				continue
			}
			log.Printf("Socket client disconnected: %v", err)
			return
		}
		h.handle(ctx, sub, msg)
	}
}

func (h *SocketHandler) handle(ctx context.Context, sub *Subscriber, msg inboundMessage) {
	switch msg.Event {
	case EventAddProduct:
		var in models.ProductInput
		if err := json.Unmarshal(msg.Data, &in); err != nil {
			h.replyError(sub, apperror.Validation("invalid product payload"))
			return
		}
		if _, err := h.products.Create(ctx, in); err != nil {
			h.replyError(sub, err)
		}
	case EventDeleteProduct:
		id, ok := productIDFrom(msg.Data)
		if !ok || !h.products.ValidID(id) {
			h.replyError(sub, apperror.Validation("invalid product id"))
			return
		}
		if _, err := h.products.Delete(ctx, id); err != nil {
			h.replyError(sub, err)
		}
	default:
		h.replyError(sub, apperror.Validation("unknown event: "+msg.Event))
	}
}

func (h *SocketHandler) replyError(sub *Subscriber, err error) {
	payload := ErrorPayload{Message: apperror.PublicMessage(err)}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		payload.Errors = appErr.Details
	}
	if sendErr := sub.Send(Message{Event: EventError, Data: payload}); sendErr != nil {
		log.Printf("Failed to send socket error reply: %v", sendErr)
	}
}

// productIDFrom accepts either a bare JSON string or {"id": "..."}.
func productIDFrom(data json.RawMessage) (string, bool) {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		return id, id != ""
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		return obj.ID, obj.ID != ""
	}
	return "", false
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
