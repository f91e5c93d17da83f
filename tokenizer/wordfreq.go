package tokenizer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WordFreq counts tokens, remembering the order words were first seen.
type WordFreq struct {
	order  []string
	counts map[string]int
}

func NewWordFreq() *WordFreq {
	return &WordFreq{counts: make(map[string]int)}
}

func (f *WordFreq) Add(tokens []string) {
	for _, w := range tokens {
		if _, ok := f.counts[w]; !ok {
			f.order = append(f.order, w)
		}
		f.counts[w]++
	}
}

func (f *WordFreq) Count(word string) int { return f.counts[word] }

func (f *WordFreq) Len() int { return len(f.order) }

// WriteTSV writes "word<TAB>count" lines in first-seen order.
func (f *WordFreq) WriteTSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, word := range f.order {
		if _, err := fmt.Fprintf(bw, "%s\t%d\n", word, f.counts[word]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Save writes the table to path, creating parent directories.
func (f *WordFreq) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.WriteTSV(out); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}
