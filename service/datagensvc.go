package service

import (
	"context"
	"fmt"
	"log"

	"ytcbow/config"
	"ytcbow/model"
	"ytcbow/shard"
	"ytcbow/store"
	"ytcbow/tokenizer"
)

// DataGenStats summarises one dataset generation run.
type DataGenStats struct {
	Videos    int
	Skipped   int
	Sentences int
	Tokens    int
	Words     int
}

// DataGen tokenizes stored comments into shards and a word frequency table.
type DataGen struct {
	store     store.Store
	tokenizer *tokenizer.Tokenizer
	writer    *shard.Writer
	freq      *tokenizer.WordFreq
	// IncludeReplies also tokenizes replies, each as its own sentence.
	IncludeReplies bool
}

func NewDataGen(st store.Store, tok *tokenizer.Tokenizer, w *shard.Writer, freq *tokenizer.WordFreq) *DataGen {
	return &DataGen{store: st, tokenizer: tok, writer: w, freq: freq}
}

// Run processes every record in the videos category. Unreadable records are
// skipped with a warning.
func (g *DataGen) Run(ctx context.Context) (DataGenStats, error) {
	var stats DataGenStats

	ids, err := g.store.List(ctx, store.CategoryVideos)
	if err != nil {
		return stats, err
	}
	log.Printf("[INFO] Num files: %d", len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		var video model.Video
		if err := g.store.Restore(ctx, store.CategoryVideos, id, &video); err != nil {
			log.Printf("[WARN] Skipping video %s: %v", id, err)
			stats.Skipped++
			continue
		}
		if len(video.CommentsThreads) == 0 {
			stats.Skipped++
			continue
		}

		stats.Videos++
		for _, thread := range video.CommentsThreads {
			if err := g.add(thread.Text, &stats); err != nil {
				return stats, err
			}
			if !g.IncludeReplies {
				continue
			}
			for _, reply := range thread.Replies {
				if err := g.add(reply.Text, &stats); err != nil {
					return stats, err
				}
			}
		}
	}
	stats.Words = g.freq.Len()
	return stats, nil
}

func (g *DataGen) add(text string, stats *DataGenStats) error {
	tokens := g.tokenizer.Tokenize(text)
	if err := g.writer.Write(tokens); err != nil {
		return fmt.Errorf("write shard: %w", err)
	}
	g.freq.Add(tokens)
	stats.Sentences++
	stats.Tokens += len(tokens)
	return nil
}

// GenerateDataset runs a full pass with settings from cfg: it (re)creates the
// shard set, tokenizes every stored video and writes the word frequency table.
func GenerateDataset(ctx context.Context, cfg *config.Config, st store.Store, includeReplies bool) (DataGenStats, error) {
	stemmer, err := tokenizer.NewStemmer(cfg.Language)
	if err != nil {
		return DataGenStats{}, err
	}
	tok := tokenizer.New(stemmer)
	tok.LegacyRescan = cfg.LegacyRescan

	w, err := shard.NewWriter(cfg.ShardDir, cfg.ShardPrefix, cfg.NumShards, cfg.HashSeed)
	if err != nil {
		return DataGenStats{}, err
	}
	freq := tokenizer.NewWordFreq()

	gen := NewDataGen(st, tok, w, freq)
	gen.IncludeReplies = includeReplies
	stats, runErr := gen.Run(ctx)

	if err := w.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("close shards: %w", err)
	}
	if runErr != nil {
		return stats, runErr
	}
	if err := freq.Save(cfg.WordFreqPath); err != nil {
		return stats, err
	}

	log.Printf("[INFO] Dataset written: %d videos, %d sentences, %d tokens, %d distinct words",
		stats.Videos, stats.Sentences, stats.Tokens, stats.Words)
	return stats, nil
}
