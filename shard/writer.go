// Package shard writes token sequences into a fixed set of TFRecord files.
package shard

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"ytcbow/metrics"

	"github.com/cespare/xxhash/v2"
)

// FileName returns "<prefix>.<i>" with i zero padded to the width of n-1.
func FileName(prefix string, i, n int) string {
	width := len(strconv.Itoa(n - 1))
	return fmt.Sprintf("%s.%0*d", prefix, width, i)
}

// Writer distributes serialized records over n shard files by content hash.
// Identical records always land in the same shard for a given seed.
type Writer struct {
	mu      sync.Mutex
	seed    uint64
	files   []*os.File
	writers []*RecordWriter
	written int
}

// NewWriter creates (truncating) n shard files under dir.
func NewWriter(dir, prefix string, n int, seed uint64) (*Writer, error) {
	if n < 1 {
		return nil, fmt.Errorf("shard count must be positive, got %d", n)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	w := &Writer{seed: seed}
	for i := 0; i < n; i++ {
		f, err := os.Create(filepath.Join(dir, FileName(prefix, i, n)))
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("create shard %d: %w", i, err)
		}
		w.files = append(w.files, f)
		w.writers = append(w.writers, NewRecordWriter(f))
	}
	return w, nil
}

// ShardFor returns the shard index for a serialized record.
func (w *Writer) ShardFor(data []byte) int {
	return ShardIndex(data, w.seed, len(w.files))
}

// ShardIndex hashes data with a seeded xxHash64 and reduces it modulo n.
func ShardIndex(data []byte, seed uint64, n int) int {
	d := xxhash.NewWithSeed(seed)
	d.Write(data)
	return int(d.Sum64() % uint64(n))
}

// Write serializes tokens as a BytesList feature and appends it to its shard.
func (w *Writer) Write(tokens []string) error {
	return w.WriteRaw(EncodeStrings(tokens))
}

// WriteRaw appends an already serialized record.
func (w *Writer) WriteRaw(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.writers == nil {
		return errors.New("shard writer is closed")
	}
	if err := w.writers[w.ShardFor(data)].Write(data); err != nil {
		return err
	}
	w.written++
	metrics.ShardRecordsWritten.Inc()
	return nil
}

// Written returns the number of records written so far.
func (w *Writer) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Close flushes and closes every shard, returning the first error.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var first error
	for i, f := range w.files {
		if i < len(w.writers) {
			if err := w.writers[i].Flush(); err != nil && first == nil {
				first = err
			}
		}
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	w.files = nil
	w.writers = nil
	return first
}

// Files lists the shard files for prefix under dir in name order.
func Files(dir, prefix string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, prefix+".*"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// Records yields every raw record of every shard file in name order.
// Iteration stops after the first error.
func Records(files []string) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for _, path := range files {
			f, err := os.Open(path)
			if err != nil {
				yield(nil, err)
				return
			}
			r := NewRecordReader(f)
			for {
				rec, err := r.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					f.Close()
					yield(nil, fmt.Errorf("%s: %w", path, err))
					return
				}
				if !yield(rec, nil) {
					f.Close()
					return
				}
			}
			f.Close()
		}
	}
}

// Sentences decodes every record of the shard set into tokens.
func Sentences(files []string) iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		for rec, err := range Records(files) {
			if err != nil {
				yield(nil, err)
				return
			}
			tokens, err := DecodeStrings(rec)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(tokens, nil) {
				return
			}
		}
	}
}
