package fetcher

import (
	"context"

	"ytcbow/metrics"
)

// page is one response of a paginated list endpoint.
type page[I any] struct {
	items []I
	next  string
}

// foldPages walks a paginated endpoint, threading an accumulator through step.
// step must not mutate acc; it returns the next snapshot and whether to stop.
// The walk also stops when a page has no next token. On error the last complete
// snapshot is returned along with the error.
func foldPages[I, A any](
	ctx context.Context,
	kind string,
	acc A,
	fetch func(ctx context.Context, token string) (page[I], error),
	step func(acc A, items []I) (A, bool),
) (A, error) {
	token := ""
	for {
		p, err := fetch(ctx, token)
		if err != nil {
			return acc, err
		}
		metrics.CrawlPagesTotal.WithLabelValues(kind).Inc()

		next, done := step(acc, p.items)
		acc = next
		if done || p.next == "" {
			return acc, nil
		}
		token = p.next
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
