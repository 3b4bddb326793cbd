package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sdiallo/tably/internal/analysis"
	"github.com/sdiallo/tably/internal/config"
	"github.com/sdiallo/tably/internal/es"
	"github.com/sdiallo/tably/internal/handlers"
	"github.com/sdiallo/tably/internal/httpserver"
	"github.com/sdiallo/tably/internal/logging"
	"github.com/sdiallo/tably/internal/mykafka"
	"github.com/sdiallo/tably/internal/service"
	"github.com/sdiallo/tably/pkg/db"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	ctx := context.Background()
	database, err := db.Open(ctx, configuration.DSN())
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	var producer *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	}

	searchService := &service.SearchService{}
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		searchService.ES = esClient
	}

	orderService := &service.OrderService{DB: database, DefaultTable: configuration.DEFAULT_TABLE}
	statsService := &service.StatsService{DB: database}
	catalogService := &service.CatalogService{DB: database, DefaultTable: configuration.DEFAULT_TABLE}
	analyzer := analysis.NewClient(configuration.ANALYSIS_URL, configuration.ANALYSIS_API_KEY)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), logger)))
			return next(c)
		}
	})

	deps := httpserver.Deps{
		DB:             database,
		JWTSecret:      []byte(configuration.JWT_SECRET),
		OrderHandler:   &handlers.OrderHandler{Orders: orderService, Producer: producer},
		StatsHandler:   &handlers.StatsHandler{Stats: statsService, Analyzer: analyzer},
		CatalogHandler: &handlers.CatalogHandler{Catalog: catalogService, Search: searchService, Producer: producer},
		SearchHandler:  &handlers.SearchHandler{Searches: searchService},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	logger.Info("server started", "addr", configuration.HTTP_ADDR)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
