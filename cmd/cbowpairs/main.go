package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"ytcbow/cbow"
	"ytcbow/config"
	"ytcbow/service"
	"ytcbow/vocab"

	"github.com/joho/godotenv"
)

func main() {
	take := flag.Int("take", 10, "Number of pairs to print (-1 for all)")
	onehot := flag.Bool("onehot", false, "Print targets as one-hot vectors")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	v, err := vocab.Load(cfg.WordFreqPath, cfg.MinCount)
	if err != nil {
		log.Fatalf("Failed to build vocabulary: %v", err)
	}

	stats, err := service.WalkPairs(context.Background(), cfg, v, *take, func(p cbow.Pair) {
		if *onehot {
			fmt.Println(p.Context, p.OneHot(v.Size()))
			return
		}
		fmt.Println(p.Context, p.Target)
	})
	if err != nil {
		log.Fatalf("Failed to walk pairs: %v", err)
	}
	log.Printf("Vocab size: %d, pairs: %d", stats.VocabSize, stats.Pairs)
}
