package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/es"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/logging"
	loggingmw "github.com/Skotchmaster/storefront/internal/middleware/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err == nil {
		err = db.Migrate(ctx, gdb)
	}
	cancel()
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	var events service.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		topicCtx, topicCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := mykafka.EnsureTopics(topicCtx, cfg.KafkaBrokers[0],
			service.TopicOrderEvents, service.TopicUserEvents, service.TopicProductEvents); err != nil {
			logger.Warn("kafka topics not ensured", "error", err)
		}
		topicCancel()

		producer, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		defer producer.Close()
		events = producer
	} else {
		logger.Info("KAFKA_BROKERS not set, domain events are disabled")
	}

	var index service.ProductIndex
	if cfg.Elastic.URL != "" {
		esCtx, esCancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := es.NewClient(esCtx, cfg.Elastic)
		if err != nil {
			logger.Warn("elasticsearch unavailable, search is disabled", "error", err)
		} else {
			pi := &es.ProductIndex{Client: client, Index: cfg.Elastic.Index}
			if err := pi.EnsureIndex(esCtx); err != nil {
				logger.Warn("elasticsearch index not ensured", "index", cfg.Elastic.Index, "error", err)
			}
			index = pi
		}
		esCancel()
	}

	orders := repo.NewGormCollection[models.Order](gdb)
	items := repo.NewGormCollection[models.OrderItem](gdb)
	products := repo.NewGormCollection[models.Product](gdb)
	categories := repo.NewGormCollection[models.Category](gdb)
	users := repo.NewGormCollection[models.User](gdb)

	orderSvc := &service.OrderService{
		Orders:     orders,
		Items:      items,
		Products:   products,
		Categories: categories,
		Users:      users,
		Pricing:    &service.PricingResolver{Products: products},
		Events:     events,
		Workers:    cfg.OrderWorkers,
	}
	userSvc := &service.UserService{
		Users:     users,
		Events:    events,
		JWTSecret: []byte(cfg.JWTSecret),
		TokenTTL:  cfg.TokenTTL,
	}
	catalogSvc := &service.CatalogService{
		Categories: categories,
		Products:   products,
		Index:      index,
		Events:     events,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	policy := httpserver.Register(e, &httpserver.Deps{
		Orders:    &httpserver.OrderHTTP{Svc: orderSvc},
		Users:     &httpserver.UserHTTP{Svc: userSvc},
		Catalog:   &httpserver.CatalogHTTP{Svc: catalogSvc},
		JWTSecret: []byte(cfg.JWTSecret),
		Prefix:    cfg.APIPrefix,
		Ready: func() error {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer pingCancel()
			return sqlDB.PingContext(pingCtx)
		},
	})
	logger.Debug("access policy", "routes", policy.Routes())

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("storefront listening", "addr", srv.Addr, "prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	_ = sqlDB.Close()

	logger.Info("storefront stopped")
}
