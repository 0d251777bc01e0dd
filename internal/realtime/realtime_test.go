package realtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/realtime"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn replays queued inbound frames and records outbound ones as JSON.
type fakeConn struct {
	mu       sync.Mutex
	inbound  []string
	written  []map[string]json.RawMessage
	writeErr error
}

func (c *fakeConn) ReadJSON(v interface{}) error {
	c.mu.Lock()
	if len(c.inbound) == 0 {
		c.mu.Unlock()
		return io.EOF
	}
	frame := c.inbound[0]
	c.inbound = c.inbound[1:]
	c.mu.Unlock()
	return json.Unmarshal([]byte(frame), v)
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var frame map[string]json.RawMessage
	if err := json.Unmarshal(raw, &frame); err != nil {
		return err
	}
	c.mu.Lock()
	c.written = append(c.written, frame)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.written))
	for _, f := range c.written {
		var name string
		_ = json.Unmarshal(f["event"], &name)
		out = append(out, name)
	}
	return out
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.written)
}

// stalledConn never finishes a write until released.
type stalledConn struct {
	release chan struct{}
}

func (c *stalledConn) ReadJSON(v interface{}) error { return io.EOF }

func (c *stalledConn) WriteJSON(v interface{}) error {
	<-c.release
	return errors.New("connection reset")
}

func (c *fakeConn) frame(i int) map[string]json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written[i]
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestHub_BroadcastReachesEverySubscriber(t *testing.T) {
	hub := realtime.NewHub()
	a, b := &fakeConn{}, &fakeConn{}
	hub.Subscribe(a)
	subB := hub.Subscribe(b)
	assert.Equal(t, 2, hub.Len())

	hub.Broadcast(realtime.Message{Event: "ping", Data: 1})
	assert.Eventually(t, func() bool { return a.count() == 1 && b.count() == 1 }, time.Second, 5*time.Millisecond)

	hub.Unsubscribe(subB)
	hub.Broadcast(realtime.Message{Event: "ping", Data: 2})
	hub.Close()
	assert.Equal(t, []string{"ping", "ping"}, a.events())
	assert.Equal(t, []string{"ping"}, b.events())
	assert.Equal(t, 0, hub.Len())
}

func TestHub_DropsFailingSubscriber(t *testing.T) {
	hub := realtime.NewHub()
	good := &fakeConn{}
	bad := &fakeConn{writeErr: errors.New("broken pipe")}
	hub.Subscribe(good)
	hub.Subscribe(bad)

	hub.Broadcast(realtime.Message{Event: "ping"})
	assert.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)
	hub.Close()
	assert.Equal(t, []string{"ping"}, good.events())
}

func TestHub_StalledSubscriberDoesNotBlockMutations(t *testing.T) {
	hub := realtime.NewHub()
	stalled := &stalledConn{release: make(chan struct{})}
	good := &fakeConn{}
	hub.Subscribe(stalled)
	hub.Subscribe(good)
	products := services.NewProductService(repositories.NewMemoryProductRepository(), hub)

	const creates = 20
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < creates; i++ {
			_, err := products.Create(context.Background(), models.ProductInput{
				Title: "Lamp", Description: "Desk lamp", Code: fmt.Sprintf("L%d", i), Category: "home",
				Price: func() *float64 { v := 5.0; return &v }(), Stock: func() *int { v := 1; return &v }(),
			})
			assert.NoError(t, err)
			want := 2 * (i + 1)
			assert.Eventually(t, func() bool { return good.count() == want }, time.Second, time.Millisecond)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("product creation blocked on a stalled subscriber")
	}
	assert.Equal(t, 1, hub.Len(), "the stalled subscriber is dropped once its queue overflows")

	close(stalled.release)
	hub.Close()
	assert.Equal(t, 2*creates, good.count())
}

func TestHub_NotifyProductChangeOrder(t *testing.T) {
	hub := realtime.NewHub()
	conn := &fakeConn{}
	hub.Subscribe(conn)

	product := &models.Product{ID: "3", Title: "Lamp"}
	hub.NotifyProductChange(context.Background(), services.ProductEvent{
		Type:      services.ProductAdded,
		ProductID: "3",
		Product:   product,
		Snapshot:  []models.Product{*product},
	})
	hub.NotifyProductChange(context.Background(), services.ProductEvent{
		Type:      services.ProductDeleted,
		ProductID: "3",
		Snapshot:  []models.Product{},
	})
	hub.NotifyProductChange(context.Background(), services.ProductEvent{
		Type:      services.ProductDeleted,
		ProductID: "4",
	})

	hub.Close()
	assert.Equal(t, []string{
		realtime.EventProductsUpdated, realtime.EventProductAdded,
		realtime.EventProductsUpdated, realtime.EventProductDeleted,
		realtime.EventProductDeleted,
	}, conn.events())
	assert.JSONEq(t, `"3"`, string(conn.frame(3)["data"]))
	assert.JSONEq(t, `[]`, string(conn.frame(2)["data"]))
}

func newSocketFixture() (*realtime.Hub, *realtime.SocketHandler, *services.ProductService) {
	hub := realtime.NewHub()
	products := services.NewProductService(repositories.NewMemoryProductRepository(), hub)
	return hub, realtime.NewSocketHandler(hub, products), products
}

func TestSocketHandler_AddProductBroadcastsToAll(t *testing.T) {
	hub, handler, _ := newSocketFixture()
	watcher := &fakeConn{}
	hub.Subscribe(watcher)

	sender := &fakeConn{inbound: []string{
		`{"event":"addProduct","data":{"title":"Lamp","description":"Desk lamp","code":"L1","price":12,"stock":3,"category":"home"}}`,
	}}
	handler.Serve(context.Background(), sender)
	assert.Equal(t, 1, hub.Len(), "sender is unsubscribed after disconnect")
	hub.Close()

	want := []string{realtime.EventProductsUpdated, realtime.EventProductAdded}
	assert.Equal(t, want, watcher.events())
	assert.Equal(t, want, sender.events())

	var added models.Product
	require.NoError(t, json.Unmarshal(watcher.frame(1)["data"], &added))
	assert.Equal(t, "L1", added.Code)
}

func TestSocketHandler_ErrorsGoOnlyToSender(t *testing.T) {
	hub, handler, products := newSocketFixture()
	watcher := &fakeConn{}
	hub.Subscribe(watcher)

	p, err := products.Create(context.Background(), models.ProductInput{
		Title: "Lamp", Description: "Desk lamp", Code: "L1", Category: "home",
		Price: func() *float64 { v := 5.0; return &v }(), Stock: func() *int { v := 1; return &v }(),
	})
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return watcher.count() == 2 }, time.Second, 5*time.Millisecond)

	sender := &fakeConn{inbound: []string{
		`{"event":"addProduct","data":{"title":"","code":"L2"}}`,
		`{"event":"addProduct","data":{"title":"Lamp","description":"d","code":"L1","price":1,"stock":1,"category":"home"}}`,
		`{"event":"deleteProduct","data":"not-an-id"}`,
		`{"event":"deleteProduct","data":"999"}`,
		`{"event":"dance"}`,
		`not json`,
	}}
	handler.Serve(context.Background(), sender)
	hub.Close()

	assert.Equal(t, []string{"error", "error", "error", "error", "error", "error"}, sender.events())
	assert.Len(t, watcher.events(), 2)

	var payload realtime.ErrorPayload
	require.NoError(t, json.Unmarshal(sender.frame(0)["data"], &payload))
	assert.Equal(t, "validation failed", payload.Message)
	assert.NotEmpty(t, payload.Errors)

	require.NoError(t, json.Unmarshal(sender.frame(1)["data"], &payload))
	assert.Contains(t, payload.Message, "already exists")

	require.NoError(t, json.Unmarshal(sender.frame(3)["data"], &payload))
	assert.Equal(t, "product 999 not found", payload.Message)

	_, err = products.Get(context.Background(), p.ID)
	assert.NoError(t, err)
}

func TestSocketHandler_DeleteProductAcceptsObjectForm(t *testing.T) {
	hub, handler, products := newSocketFixture()
	watcher := &fakeConn{}
	hub.Subscribe(watcher)

	p, err := products.Create(context.Background(), models.ProductInput{
		Title: "Lamp", Description: "Desk lamp", Code: "L1", Category: "home",
		Price: func() *float64 { v := 5.0; return &v }(), Stock: func() *int { v := 1; return &v }(),
	})
	require.NoError(t, err)

	sender := &fakeConn{inbound: []string{`{"event":"deleteProduct","data":{"id":"` + p.ID + `"}}`}}
	handler.Serve(context.Background(), sender)
	hub.Close()

	events := watcher.events()
	require.Len(t, events, 4)
	assert.Equal(t, realtime.EventProductDeleted, events[3])
	assert.JSONEq(t, `"`+p.ID+`"`, string(watcher.frame(3)["data"]))
}
