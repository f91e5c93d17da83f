package service

import (
	"context"

	"ytcbow/cbow"
	"ytcbow/config"
	"ytcbow/shard"
	"ytcbow/vocab"
)

// PairStats describes a pass over the training pairs of a shard set.
type PairStats struct {
	VocabSize int
	Pairs     int
}

// WalkPairs streams the CBOW pairs of every shard under cfg.ShardDir and calls
// visit for the first take of them (all when take < 0). It returns the
// vocabulary size and the total number of pairs.
func WalkPairs(ctx context.Context, cfg *config.Config, v *vocab.Vocabulary, take int, visit func(cbow.Pair)) (PairStats, error) {
	files, err := shard.Files(cfg.ShardDir, cfg.ShardPrefix)
	if err != nil {
		return PairStats{}, err
	}

	stats := PairStats{VocabSize: v.Size()}
	for pair, err := range cbow.Dataset(shard.Sentences(files), cfg.WindowSize, v) {
		if err != nil {
			return stats, err
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if take < 0 || stats.Pairs < take {
			visit(pair)
		}
		stats.Pairs++
	}
	return stats, nil
}
