package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mshibata/ecshop/internal/config"
	"github.com/mshibata/ecshop/internal/es"
	"github.com/mshibata/ecshop/internal/handlers"
	"github.com/mshibata/ecshop/internal/logging"
	"github.com/mshibata/ecshop/internal/mykafka"
	"github.com/mshibata/ecshop/internal/order"
	"github.com/mshibata/ecshop/internal/service"
	httpserver "github.com/mshibata/ecshop/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	ctx := logging.IntoContext(context.Background(), logger)

	db, err := config.InitDB(ctx, configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	var prod *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		brokers := []string{configuration.KAFKA_ADDRESS}
		topics := []string{"user_events", "product_events", "cart_events", "order_events"}
		prod, err = mykafka.NewProducer(brokers, topics)
		if err != nil {
			log.Fatalf("kafka init error: %v", err)
		}
	} else {
		logger.Warn("KAFKA_ADDRESS not set, events disabled")
	}

	var searchHandler *handlers.SearchHandler
	var esClient *elasticsearch.Client
	if configuration.ES_URL != "" {
		esClient, err = es.NewClient(configuration.ES_URL, configuration.ES_USER, configuration.ES_PASSWORD)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		searchHandler = &handlers.SearchHandler{ES: esClient, Index: "products"}
	} else {
		logger.Warn("ES_URL not set, search disabled")
	}

	orderService := &order.Service{DB: db}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())

	deps := httpserver.Deps{
		DB:                 db,
		AuthHandler:        &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod},
		ProductHandler:     &handlers.ProductHandler{DB: db, Producer: prod, ES: esClient, ESIndex: "products", JWTSecret: jwtSecret},
		CartHandler:        &handlers.CartHandler{DB: db, Producer: prod, JWTSecret: jwtSecret},
		OrderHandler:       &handlers.OrderHandler{Orders: orderService, Producer: prod, JWTSecret: jwtSecret},
		StoreConfigHandler: &handlers.StoreConfigHandler{DB: db},
		ServiceHandler:     &service.TokenService{DB: db, RefreshSecret: refreshSecret, JWTSecret: jwtSecret},
		SearchHandler:      searchHandler,
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
		}
	}()
	logger.Info("server started", "addr", srv.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "err", err)
		}
	} else {
		logger.Error("db() error", "err", err)
	}

	if prod != nil {
		if err := prod.Close(); err != nil {
			logger.Error("kafka close error", "err", err)
		}
	}

	logger.Info("shutdown complete")
}
