package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ytcbow/config"
	"ytcbow/fetcher"
	"ytcbow/handler"
	"ytcbow/metrics"
	"ytcbow/router"
	"ytcbow/service"
	"ytcbow/store"
	"ytcbow/worker"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	key, err := cfg.ResolveAPIKey()
	if err != nil {
		log.Fatal(err)
	}
	metrics.Init("ytcbow", "1.0.0", getEnv("ENVIRONMENT", "development"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open store:", err)
	}
	defer st.Close()

	nc, err := nats.Connect(cfg.NATSUrl)
	if err != nil {
		log.Fatal("Failed to connect to NATS:", err)
	}
	defer nc.Close()

	crawler := service.NewCrawler(st, fetcher.NewClient(cfg, key))
	crawlWorker := worker.NewWorker(cfg, nc, crawler)
	if err := crawlWorker.Start(ctx); err != nil {
		log.Fatal("Failed to start worker:", err)
	}

	r := router.Setup(handler.New(st, worker.NewPublisher(nc)))
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		log.Printf("Crawler service starting on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down crawler service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	crawlWorker.Stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("Server forced to shutdown:", err)
	}

	log.Println("Crawler service stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
