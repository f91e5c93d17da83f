// Package embedding exports trained word vectors in the TensorFlow projector
// format: vectors.tsv with one tab-separated row per word and metadata.tsv
// with the matching words.
package embedding

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"ytcbow/vocab"
)

// Exportable reports whether word starts with a word character: a letter,
// any numeral (including superscripts and fractions) or '_'.
func Exportable(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Export writes one vector row and one metadata line per vocabulary word, in
// index order, skipping index 0 and words that are not Exportable. weights[i]
// is the embedding of index i. It returns the number of words written.
func Export(v *vocab.Vocabulary, weights [][]float32, vectors, metadata io.Writer) (int, error) {
	vw := bufio.NewWriter(vectors)
	mw := bufio.NewWriter(metadata)

	written := 0
	for i, word := range v.Words() {
		if i == 0 || !Exportable(word) {
			continue
		}
		if i >= len(weights) {
			return written, fmt.Errorf("no weights for index %d (%q), matrix has %d rows", i, word, len(weights))
		}
		row := weights[i]
		cells := make([]string, len(row))
		for j, x := range row {
			cells[j] = strconv.FormatFloat(float64(x), 'g', -1, 32)
		}
		if _, err := fmt.Fprintln(vw, strings.Join(cells, "\t")); err != nil {
			return written, err
		}
		if _, err := fmt.Fprintln(mw, word); err != nil {
			return written, err
		}
		written++
	}
	if err := vw.Flush(); err != nil {
		return written, err
	}
	return written, mw.Flush()
}

// LoadWeights reads a whitespace-separated float matrix, one row per line.
// Blank lines are ignored; all rows must have the same width.
func LoadWeights(r io.Reader) ([][]float32, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var rows [][]float32
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		row := make([]float32, len(fields))
		for j, f := range fields {
			x, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("weights line %d column %d: %w", line, j+1, err)
			}
			row[j] = float32(x)
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("weights line %d: %d columns, expected %d", line, len(row), len(rows[0]))
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}
