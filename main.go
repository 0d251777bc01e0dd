package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/realtime"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/views"
	"storefront/pkg/database"
	"storefront/pkg/kafka"
	"storefront/pkg/metrics"
	"storefront/pkg/mongodb"
	"storefront/pkg/rabbitmq"
	"storefront/pkg/redis"
)

const auditQueue = "product_events_audit"

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// --- Stores ---
	st, err := openStores(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer st.close()

	// --- Brokers (optional) ---
	var brokers services.Notifiers

	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange})
		if err != nil {
			log.Printf("Warning: RabbitMQ disabled: %v", err)
		} else {
			defer mqClient.Close()
			brokers = append(brokers, events.NewRabbitMQNotifier(mqClient))

			log.Println("Starting RabbitMQ consumer for product events...")
			if err := mqClient.ConsumeEvents(auditQueue, events.AuditHandler); err != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", err)
			}
		}
	}

	kafkaClient := kafka.NewClient(cfg.KafkaBrokers)
	if kafkaClient.Enabled() {
		writer := kafkaClient.NewWriter(cfg.KafkaTopic)
		defer writer.Close()
		brokers = append(brokers, events.NewKafkaNotifier(writer))
		log.Printf("Publishing product events to Kafka topic %s", cfg.KafkaTopic)
	}

	var counter middleware.Counter
	if cfg.RedisAddr != "" {
		redisClient, err := redis.NewClient(cfg.RedisAddr, "", 0)
		if err != nil {
			log.Printf("Warning: rate limiting disabled: %v", err)
		} else {
			defer redisClient.Close()
			counter = middleware.RedisCounter{Client: redisClient}
		}
	}

	srv, err := newServer(cfg, st, brokers, counter)
	if err != nil {
		log.Fatalf("Failed to build server: %v", err)
	}

	if cfg.SeedDemoData {
		seedProducts(context.Background(), srv.products)
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s (store: %s)", cfg.AppPort, cfg.StoreDriver)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := srv.app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	srv.hub.Close()

	log.Println("Server gracefully stopped")
}

type stores struct {
	products repositories.ProductRepository
	carts    repositories.CartRepository
	close    func()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return &stores{
			products: repositories.NewMemoryProductRepository(),
			carts:    repositories.NewMemoryCartRepository(),
			close:    func() {},
		}, nil

	case config.DriverFile:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
		products, err := repositories.NewJSONProductRepository(filepath.Join(cfg.DataDir, "products.json"))
		if err != nil {
			return nil, err
		}
		carts, err := repositories.NewJSONCartRepository(filepath.Join(cfg.DataDir, "carts.json"))
		if err != nil {
			return nil, err
		}
		return &stores{products: products, carts: carts, close: func() {}}, nil

	case config.DriverSQLite, config.DriverPostgres:
		db, err := database.Open(cfg.StoreDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := repositories.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		return &stores{
			products: repositories.NewGORMProductRepository(db),
			carts:    repositories.NewGORMCartRepository(db),
			close: func() {
				if err := sqlDB.Close(); err != nil {
					log.Printf("Error closing database: %v", err)
				}
			},
		}, nil

	case config.DriverMongo:
		client, err := mongodb.Connect(mongodb.Config{URI: cfg.MongoURI, DBName: cfg.MongoDatabase})
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		products, err := repositories.NewMongoProductRepository(ctx, db)
		if err != nil {
			_ = mongodb.Disconnect(client)
			return nil, err
		}
		return &stores{
			products: products,
			carts:    repositories.NewMongoCartRepository(db),
			close: func() {
				if err := mongodb.Disconnect(client); err != nil {
					log.Printf("Error disconnecting from MongoDB: %v", err)
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

type server struct {
	app      *fiber.App
	products *services.ProductService
	carts    *services.CartService
	hub      *realtime.Hub
	metrics  *metrics.ServerMetrics
}

// newServer wires services, handlers and middleware over the given stores.
// brokers and counter may be nil.
func newServer(cfg *config.Config, st *stores, brokers services.Notifiers, counter middleware.Counter) (*server, error) {
	engine, err := views.NewEngine()
	if err != nil {
		return nil, err
	}

	hub := realtime.NewHub()
	m := metrics.NewServerMetrics("api")
	m.RegisterSubscriberGauge("api", hub.Len)

	notifiers := services.Notifiers{
		hub,
		services.NotifierFunc(func(_ context.Context, e services.ProductEvent) {
			m.ProductEvents.WithLabelValues(string(e.Type)).Inc()
		}),
	}
	notifiers = append(notifiers, brokers...)

	productService := services.NewProductService(st.products, notifiers).WithSnapshotSize(cfg.SnapshotSize)
	cartService := services.NewCartService(st.carts, st.products)

	var limiter fiber.Handler
	if counter != nil {
		limiter = middleware.RateLimiter(counter, cfg.RateLimit, cfg.RateLimitWindow)
	}

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: handlers.ErrorHandler(cfg.IsProduction()),
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(middleware.Metrics(m, handlers.StatusOf))

	// --- API Routes ---
	api := app.Group("/api")
	api.Get("/", handlers.HandleAPIInfo)
	handlers.NewProductHandler(productService, limiter).RegisterRoutes(api)
	handlers.NewCartHandler(cartService, productService.ValidID, limiter).RegisterRoutes(api)

	// --- Real-time ---
	realtime.NewSocketHandler(hub, productService).RegisterRoutes(app)

	// --- Views ---
	handlers.NewViewHandler(productService, cartService).RegisterRoutes(app)

	// --- Health Check and Metrics ---
	app.Get("/health", handlers.HealthHandler(cfg.StoreDriver, hub.Len))
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	app.Use(handlers.RouteNotFound)

	return &server{app: app, products: productService, carts: cartService, hub: hub, metrics: m}, nil
}

// seedProducts populates an empty product store with demo data.
func seedProducts(ctx context.Context, products *services.ProductService) {
	page, err := products.List(ctx, services.ListOptions{Limit: 1})
	if err != nil {
		log.Printf("Error checking products before seeding: %v", err)
		return
	}
	if len(page.Payload) > 0 {
		return
	}

	price := func(v float64) *float64 { return &v }
	stock := func(v int) *int { return &v }
	inputs := []models.ProductInput{
		{Title: "Laptop", Description: "High performance laptop", Code: "LAP-001", Price: price(1200), Stock: stock(10), Category: "electronics"},
		{Title: "Keyboard", Description: "Mechanical keyboard", Code: "KEY-001", Price: price(75), Stock: stock(25), Category: "accessories"},
		{Title: "Mouse", Description: "Ergonomic wireless mouse", Code: "MOU-001", Price: price(25), Stock: stock(50), Category: "accessories"},
	}
	for _, in := range inputs {
		product, err := products.Create(ctx, in)
		if err != nil {
			log.Printf("Error seeding product %s: %v", in.Title, err)
			continue
		}
		log.Printf("Seeded product: %s (ID: %s)", product.Title, product.ID)
	}
}
