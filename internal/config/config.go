package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config is the process configuration, read from the environment.
type Config struct {
	AppPort string
	AppEnv  string

	StoreDriver   string
	DataDir       string
	DatabaseDSN   string
	MongoURI      string
	MongoDatabase string

	RabbitMQURL      string
	RabbitMQExchange string
	KafkaBrokers     string
	KafkaTopic       string

	RedisAddr       string
	RateLimit       int
	RateLimitWindow time.Duration

	SnapshotSize int
	SeedDemoData bool
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromViper(New())
}

// New returns a viper instance carrying the defaults and bound to the environment.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("STORE_DRIVER", DriverFile)
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "storefront")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "product_events")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "product-events")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("RATE_LIMIT", 60)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("SNAPSHOT_SIZE", 10)
	v.SetDefault("SEED_DEMO_DATA", false)
	v.AutomaticEnv()
	return v
}

// FromViper builds a validated Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:          v.GetString("APP_PORT"),
		AppEnv:           v.GetString("APP_ENV"),
		StoreDriver:      v.GetString("STORE_DRIVER"),
		DataDir:          v.GetString("DATA_DIR"),
		DatabaseDSN:      v.GetString("DATABASE_DSN"),
		MongoURI:         v.GetString("MONGO_URI"),
		MongoDatabase:    v.GetString("MONGO_DATABASE"),
		RabbitMQURL:      v.GetString("RABBITMQ_URL"),
		RabbitMQExchange: v.GetString("RABBITMQ_EXCHANGE"),
		KafkaBrokers:     v.GetString("KAFKA_BROKERS"),
		KafkaTopic:       v.GetString("KAFKA_TOPIC"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RateLimit:        v.GetInt("RATE_LIMIT"),
		RateLimitWindow:  v.GetDuration("RATE_LIMIT_WINDOW"),
		SnapshotSize:     v.GetInt("SNAPSHOT_SIZE"),
		SeedDemoData:     v.GetBool("SEED_DEMO_DATA"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown drivers and drivers missing their connection settings.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverFile:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the %s store", c.StoreDriver)
		}
	case DriverSQLite, DriverPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for the %s store", c.StoreDriver)
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.SnapshotSize < 1 {
		return fmt.Errorf("SNAPSHOT_SIZE must be at least 1")
	}
	if c.RedisAddr != "" && (c.RateLimit < 1 || c.RateLimitWindow <= 0) {
		return fmt.Errorf("RATE_LIMIT and RATE_LIMIT_WINDOW must be positive when REDIS_ADDR is set")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
