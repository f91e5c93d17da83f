// Package store persists crawled records keyed by (category, id).
package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"ytcbow/config"
	"ytcbow/metrics"
)

// Categories used by the crawler.
const (
	CategoryChannels = "channels"
	CategoryVideos   = "videos"
)

var ErrNotFound = errors.New("store: not found")

// Error wraps a backend failure with the record it concerned.
type Error struct {
	Op       string
	Category string
	ID       string
	Err      error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store: %s %s/%s: %v", e.Op, e.Category, e.ID, e.Err)
	}
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Category, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Store is a key-value record store. Writes overwrite; the last writer wins.
type Store interface {
	Store(ctx context.Context, category, id string, v any) error
	// Restore decodes the record into v, returning ErrNotFound when absent.
	Restore(ctx context.Context, category, id string, v any) error
	// List returns the ids stored in a category, sorted.
	List(ctx context.Context, category string) ([]string, error)
	Close() error
}

// Open builds the backend selected by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	log.Printf("[INFO] Opening %s record store", cfg.StoreBackend)
	switch cfg.StoreBackend {
	case config.BackendFile:
		return NewFileStore(cfg.DBDir), nil
	case config.BackendMongo:
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func observe(backend, op string, err error) {
	status := metrics.Status(err)
	if errors.Is(err, ErrNotFound) {
		status = "not_found"
	}
	metrics.StoreOperationsTotal.WithLabelValues(backend, op, status).Inc()
}
