package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"storefront"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	ServerPort  int    `envconfig:"SERVER_PORT" default:"8080"`
	APIPrefix   string `envconfig:"API_PREFIX" default:"/api/v1"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	// Number of line items the order pipeline handles concurrently.
	OrderWorkers int `envconfig:"ORDER_WORKERS" default:"4"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`

	Elastic ElasticConfig
}

type ElasticConfig struct {
	URL      string `envconfig:"ES_URL"`
	User     string `envconfig:"ES_USER"`
	Password string `envconfig:"ES_PASSWORD"`
	Index    string `envconfig:"ES_INDEX" default:"products"`
}

func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process configuration: %w", err)
	}
	if cfg.OrderWorkers < 1 {
		cfg.OrderWorkers = 1
	}
	return &cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
