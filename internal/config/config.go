package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port              string
	StoreDriver       string
	MongoURI          string
	MongoDB           string
	MongoTransactions bool
	DatabaseURL       string
	JWTSecret         string
	GeocodeURL        string
	GeocodeUserAgent  string
	SeedDelay         time.Duration
	SeedOwnerID       string
}

func DefaultConfig() *Config {
	return &Config{
		Port:             "8080",
		StoreDriver:      DriverMongo,
		MongoURI:         "mongodb://127.0.0.1:27017",
		MongoDB:          "wanderlust",
		GeocodeURL:       "https://nominatim.openstreetmap.org/search",
		GeocodeUserAgent: "WanderLust-Airbnb-Clone",
		SeedDelay:        time.Second,
	}
}

// Load reads .env (if present) and the process environment on top of
// DefaultConfig.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] no .env file loaded")
	}

	cfg := DefaultConfig()
	setString(&cfg.Port, "PORT")
	setString(&cfg.StoreDriver, "STORE_DRIVER")
	setString(&cfg.MongoURI, "MONGO_URI")
	setString(&cfg.MongoDB, "MONGO_DB")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.GeocodeURL, "GEOCODE_URL")
	setString(&cfg.GeocodeUserAgent, "GEOCODE_USER_AGENT")
	setString(&cfg.SeedOwnerID, "SEED_OWNER_ID")

	if v := os.Getenv("MONGO_TRANSACTIONS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("config: MONGO_TRANSACTIONS: %w", err)
		}
		cfg.MongoTransactions = b
	}
	if v := os.Getenv("SEED_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config: SEED_DELAY: %w", err)
		}
		cfg.SeedDelay = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("config: MONGO_URI is required for the mongo driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	if c.SeedDelay < 0 {
		return fmt.Errorf("config: SEED_DELAY must not be negative")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
