package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"ytcbow/config"
	"ytcbow/service"
	"ytcbow/store"

	"github.com/joho/godotenv"
)

func main() {
	replies := flag.Bool("replies", false, "Tokenize replies as separate sentences")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	if _, err := service.GenerateDataset(ctx, cfg, st, *replies); err != nil {
		log.Fatalf("Dataset generation failed: %v", err)
	}
	log.Printf("Shards in %s, word frequencies in %s", cfg.ShardDir, cfg.WordFreqPath)
}
