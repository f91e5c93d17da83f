// Package tokenizer turns comment text into normalized tokens for CBOW training.
package tokenizer

import (
	"regexp"
	"strings"
	"unicode"
)

// tokenPattern matches word runs, or single emoji/symbol code points.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+|[\x{263a}-\x{1f645}]|[\x{1F601}-\x{1F94F}]`)

// IsValid reports whether a whitespace-delimited word may contribute tokens.
// Mentions, words with '_' or '.', and words containing any digit are rejected.
func IsValid(word string) bool {
	if strings.TrimSpace(word) == "" {
		return false
	}
	if strings.HasPrefix(word, "@") {
		return false
	}
	if strings.ContainsAny(word, "_.") {
		return false
	}
	return !strings.ContainsFunc(word, unicode.IsDigit)
}

// Normalize lowercases word and stems it.
func Normalize(word string, stemmer Stemmer) string {
	return stemmer.Stem(strings.ToLower(word))
}

type Tokenizer struct {
	stemmer Stemmer
	// LegacyRescan scans the whole text once per valid word instead of scanning
	// the word itself. Output matches datasets produced by the first generation
	// of the pipeline; it repeats tokens and can include filtered words.
	LegacyRescan bool
}

func New(stemmer Stemmer) *Tokenizer {
	if stemmer == nil {
		stemmer = IdentityStemmer{}
	}
	return &Tokenizer{stemmer: stemmer}
}

// Tokenize splits text on whitespace, drops invalid words and returns the
// normalized tokens found in the remaining ones, in order.
func (t *Tokenizer) Tokenize(text string) []string {
	tokens := []string{}
	for _, word := range strings.Fields(text) {
		if !IsValid(word) {
			continue
		}
		source := word
		if t.LegacyRescan {
			source = text
		}
		for _, m := range tokenPattern.FindAllString(source, -1) {
			tokens = append(tokens, Normalize(m, t.stemmer))
		}
	}
	return tokens
}
