package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ytcbow/config"
	"ytcbow/fetcher"
	"ytcbow/service"
	"ytcbow/store"

	"github.com/joho/godotenv"
)

func main() {
	var channelID string
	flag.StringVar(&channelID, "channel_id", "", "Channel ID")
	flag.StringVar(&channelID, "c", "", "Channel ID (shorthand)")
	comments := flag.Bool("comments", true, "Also crawl comment threads of every upload")
	dumpPath := flag.String("dump_comments", "", "Write [text, likes] of all top-level comments to this file")
	flag.Parse()

	if channelID == "" {
		fmt.Fprintln(os.Stderr, "Usage: crawler --channel_id <id> [--comments=false] [--dump_comments out.json]")
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	key, err := cfg.ResolveAPIKey()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	crawler := service.NewCrawler(st, fetcher.NewClient(cfg, key))
	if _, err := crawler.UpdateChannel(ctx, channelID, *comments); err != nil {
		log.Fatalf("Crawl of %s failed: %v", channelID, err)
	}

	if *dumpPath != "" {
		f, err := os.Create(*dumpPath)
		if err != nil {
			log.Fatal(err)
		}
		n, err := crawler.DumpCommentLikes(ctx, channelID, false, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			log.Fatalf("Failed to dump comments: %v", err)
		}
		log.Printf("Wrote %d comments to %s", n, *dumpPath)
	}
}
