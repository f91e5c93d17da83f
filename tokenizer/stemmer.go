package tokenizer

import (
	"fmt"
	"log"

	"github.com/kljensen/snowball"
)

// Stemmer reduces a lowercased word to its stem.
type Stemmer interface {
	Stem(word string) string
}

// IdentityStemmer returns words unchanged.
type IdentityStemmer struct{}

func (IdentityStemmer) Stem(word string) string { return word }

// SnowballStemmer applies the Snowball algorithm for one language.
type SnowballStemmer struct {
	Language string
}

func (s SnowballStemmer) Stem(word string) string {
	stemmed, err := snowball.Stem(word, s.Language, true)
	if err != nil {
		log.Printf("[WARN] snowball %s: %v", s.Language, err)
		return word
	}
	return stemmed
}

// NewStemmer returns a Snowball stemmer for language, or the identity stemmer
// for "" and "none".
func NewStemmer(language string) (Stemmer, error) {
	switch language {
	case "", "none":
		return IdentityStemmer{}, nil
	}
	if _, err := snowball.Stem("test", language, true); err != nil {
		return nil, fmt.Errorf("unsupported stemmer language %q: %w", language, err)
	}
	return SnowballStemmer{Language: language}, nil
}
