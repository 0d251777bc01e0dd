package middleware_test

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"storefront/internal/apperror"
	"storefront/internal/middleware"
	"storefront/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCounter is a mock implementation of middleware.Counter
type MockCounter struct {
	mock.Mock
}

func (m *MockCounter) Incr(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCounter) Expire(ctx context.Context, key string, ttl time.Duration) error {
	args := m.Called(ctx, key, ttl)
	return args.Error(0)
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func ok(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

func statusOf(err error) int {
	if apperror.Is(err, apperror.KindValidation) {
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(statusOf(err)).SendString(err.Error())
		},
	})
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestValidateIDs(t *testing.T) {
	numeric := func(id string) bool {
		_, err := strconv.Atoi(id)
		return err == nil
	}
	app := newApp()
	app.Get("/carts/:cid/products/:pid", middleware.ValidateIDs(numeric, "cid", "pid"), ok)

	status, _ := get(t, app, "/carts/1/products/2")
	assert.Equal(t, http.StatusOK, status)

	status, body := get(t, app, "/carts/x/products/2")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid id in parameter: cid", body)

	status, body = get(t, app, "/carts/1/products/y")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid id in parameter: pid", body)
}

func TestRateLimiter(t *testing.T) {
	counter := new(MockCounter)
	key := mock.MatchedBy(func(k string) bool { return strings.HasPrefix(k, "rate_limit:") })
	counter.On("Incr", mock.Anything, key).Return(int64(1), nil).Once()
	counter.On("Expire", mock.Anything, key, time.Minute).Return(nil).Once()
	counter.On("Incr", mock.Anything, key).Return(int64(2), nil).Once()
	counter.On("Incr", mock.Anything, key).Return(int64(3), nil).Once()

	app := newApp()
	app.Get("/", middleware.RateLimiter(counter, 2, time.Minute), ok)

	for i := 0; i < 2; i++ {
		status, _ := get(t, app, "/")
		assert.Equal(t, http.StatusOK, status)
	}
	status, body := get(t, app, "/")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.JSONEq(t, `{"status":"error","message":"too many requests"}`, body)

	counter.AssertExpectations(t)
}

func TestRateLimiterFailsOpen(t *testing.T) {
	counter := new(MockCounter)
	counter.On("Incr", mock.Anything, mock.Anything).Return(int64(0), errors.New("connection refused"))

	app := newApp()
	app.Get("/", middleware.RateLimiter(counter, 1, time.Minute), ok)
	app.Get("/off", middleware.RateLimiter(nil, 0, time.Minute), ok)

	status, _ := get(t, app, "/")
	assert.Equal(t, http.StatusOK, status)
	status, _ = get(t, app, "/off")
	assert.Equal(t, http.StatusOK, status)
	counter.AssertNotCalled(t, "Expire", mock.Anything, mock.Anything, mock.Anything)
}

func TestMetricsLabelsByRoute(t *testing.T) {
	m := metrics.NewServerMetrics("test")
	app := newApp()
	app.Use(middleware.Metrics(m, statusOf))
	app.Get("/items/:id", ok)
	app.Get("/broken", func(c *fiber.Ctx) error { return apperror.Validation("bad") })

	get(t, app, "/items/1")
	get(t, app, "/items/2")
	get(t, app, "/broken")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Requests.WithLabelValues("/items/:id", "GET", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Requests.WithLabelValues("/broken", "GET", "400")))
}
