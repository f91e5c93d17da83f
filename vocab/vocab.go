// Package vocab builds the word-to-index mapping used for CBOW training.
package vocab

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

// PAD is the reserved padding word. It always maps to index 0, which is also
// the index of every unknown word.
const PAD = "PAD"

// DefaultMinCount is the frequency a word needs to be kept.
const DefaultMinCount = 2000

// Vocabulary maps words to dense indices 0..Size()-1.
type Vocabulary struct {
	words []string
	index map[string]int
}

func newVocabulary() *Vocabulary {
	return &Vocabulary{words: []string{PAD}, index: map[string]int{PAD: 0}}
}

// Build reads a "word<TAB>count" table and keeps words whose count is at
// least minCount, numbered from 1 in table order. Reading stops at the first
// blank line. Lines that do not split into a word and an integer count are
// skipped with a warning, as are duplicate words and a literal PAD entry.
func Build(r io.Reader, minCount int) (*Vocabulary, error) {
	v := newVocabulary()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			break
		}
		if len(fields) != 2 {
			log.Printf("[WARN] vocab line %d: expected 2 fields, got %d: %q", line, len(fields), scanner.Text())
			continue
		}
		word := fields[0]
		count, err := strconv.Atoi(fields[1])
		if err != nil {
			log.Printf("[WARN] vocab line %d: bad count %q", line, fields[1])
			continue
		}
		if count < minCount {
			continue
		}
		if _, ok := v.index[word]; ok {
			if word != PAD {
				log.Printf("[WARN] vocab line %d: duplicate word %q", line, word)
			}
			continue
		}
		v.index[word] = len(v.words)
		v.words = append(v.words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocabulary table: %w", err)
	}
	return v, nil
}

// Load builds a vocabulary from the table at path.
func Load(path string, minCount int) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	v, err := Build(f, minCount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Printf("[INFO] Vocab size: %d", v.Size())
	return v, nil
}

// FromWords builds a vocabulary in which words[i] gets index i+1.
func FromWords(words ...string) *Vocabulary {
	v := newVocabulary()
	for _, w := range words {
		if _, ok := v.index[w]; ok {
			continue
		}
		v.index[w] = len(v.words)
		v.words = append(v.words, w)
	}
	return v
}

func (v *Vocabulary) Size() int { return len(v.words) }

// Index returns the index of word, or 0 when the word is unknown.
func (v *Vocabulary) Index(word string) int { return v.index[word] }

// Contains reports whether word has its own index.
func (v *Vocabulary) Contains(word string) bool {
	_, ok := v.index[word]
	return ok
}

// Word returns the word at index i.
func (v *Vocabulary) Word(i int) (string, bool) {
	if i < 0 || i >= len(v.words) {
		return "", false
	}
	return v.words[i], true
}

// Words returns all words in index order, PAD first.
func (v *Vocabulary) Words() []string {
	out := make([]string, len(v.words))
	copy(out, v.words)
	return out
}

// Map returns a copy of the word to index mapping.
func (v *Vocabulary) Map() map[string]int {
	out := make(map[string]int, len(v.index))
	for w, i := range v.index {
		out[w] = i
	}
	return out
}
