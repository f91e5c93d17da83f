// Package cbow generates continuous-bag-of-words training pairs.
package cbow

import (
	"iter"

	"ytcbow/vocab"
)

// Pair is one training example: 2W context indices and the center word's index.
type Pair struct {
	Context []int
	Target  int
}

// OneHot returns the target as a categorical vector of length size.
func (p Pair) OneHot(size int) []float32 {
	v := make([]float32, size)
	if p.Target >= 0 && p.Target < size {
		v[p.Target] = 1
	}
	return v
}

// Pairs yields a pair for every center position i with W <= i < len(tokens)-W.
// The context is the W tokens on each side, in order, excluding the center.
// Words missing from v map to 0. Fewer than 2W+1 tokens yield nothing.
func Pairs(tokens []string, window int, v *vocab.Vocabulary) iter.Seq[Pair] {
	return func(yield func(Pair) bool) {
		for i := window; i < len(tokens)-window; i++ {
			ctx := make([]int, 0, 2*window)
			for j := i - window; j <= i+window; j++ {
				if j != i {
					ctx = append(ctx, v.Index(tokens[j]))
				}
			}
			if !yield(Pair{Context: ctx, Target: v.Index(tokens[i])}) {
				return
			}
		}
	}
}

// Dataset chains Pairs over a stream of sentences. A sentence error ends the
// stream and is yielded once.
func Dataset(sentences iter.Seq2[[]string, error], window int, v *vocab.Vocabulary) iter.Seq2[Pair, error] {
	return func(yield func(Pair, error) bool) {
		for tokens, err := range sentences {
			if err != nil {
				yield(Pair{}, err)
				return
			}
			for p := range Pairs(tokens, window, v) {
				if !yield(p, nil) {
					return
				}
			}
		}
	}
}

// Count returns how many pairs a sentence of length n produces.
func Count(n, window int) int {
	if c := n - 2*window; c > 0 {
		return c
	}
	return 0
}
