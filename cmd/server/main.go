package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/snowviz/snowviz-backend/internal/api/middleware"
	"github.com/snowviz/snowviz-backend/internal/api/rest"
	"github.com/snowviz/snowviz-backend/internal/config"
	"github.com/snowviz/snowviz-backend/internal/pkg/logger"
	"github.com/snowviz/snowviz-backend/internal/service"
	"github.com/snowviz/snowviz-backend/internal/warehouse"
)

func main() {
	log := logger.StdLogger("")
	log.Info("snowviz backend starting")

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log = logger.StdLogger(cfg.LogLevel)
	log.Info("configuration loaded", "port", cfg.Port, "fetch_workers", cfg.FetchWorkers,
		"graph_cache_ttl_sec", cfg.GraphCacheTTLSec, "debug_queries", cfg.DebugQueries)

	wh, err := warehouse.NewClient(cfg, log)
	if err != nil {
		log.Error("failed to initialize warehouse client", "error", err)
		os.Exit(1)
	}
	defer wh.Close()

	graphService := service.NewGraphService(wh, log, service.Options{
		CacheTTL:     time.Duration(cfg.GraphCacheTTLSec) * time.Second,
		Workers:      cfg.FetchWorkers,
		FetchTimeout: time.Duration(cfg.FetchTimeoutSec) * time.Second,
	})

	router := mux.NewRouter()
	handler := rest.NewHandler(graphService, wh)

	router.HandleFunc("/healthz", handler.Healthz).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	rest.SetupRoutes(apiRouter, handler)

	router.Use(middleware.RequestID)
	router.Use(middleware.StructuredLog)
	router.Use(middleware.Recover)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	requestTimeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      c.Handler(router),
		ReadTimeout:  requestTimeout,
		WriteTimeout: requestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server forced to shutdown", "error", err)
	}
	log.Info("server exited")
}
