package tokenizer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValid(t *testing.T) {
	cases := map[string]bool{
		"hello":    true,
		"мир!!":    true,
		"@someone": false,
		"snake_x":  false,
		"a.b":      false,
		"abc1":     false,
		"٣abc":     false,
		" \t":      false,
		"e-mail":   true,
	}
	for word, want := range cases {
		assert.Equal(t, want, IsValid(word), word)
	}
}

func TestTokenize(t *testing.T) {
	tok := New(IdentityStemmer{})

	cases := []struct {
		text string
		want []string
	}{
		{"Hello @bob world_x foo.bar a1 Мир!!", []string{"hello", "мир"}},
		{"nice 😀", []string{"nice", "😀"}},
		{"don't stop", []string{"don", "t", "stop"}},
		{"", []string{}},
		{"!!! ???", []string{}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tok.Tokenize(tc.text), tc.text)
	}
}

func TestTokenizeNeverEmitsFilteredCharacters(t *testing.T) {
	tok := New(IdentityStemmer{})
	texts := []string{
		"Check https://example.com 4 more @user_name",
		"version v1.2 is out, 2020 was great",
		"snake_case and ９ and ٣ and plain words",
		"емейл test@mail.ru и 100500 лайков",
	}
	for _, text := range texts {
		for _, token := range tok.Tokenize(text) {
			assert.False(t, strings.ContainsAny(token, "@_."), token)
			assert.False(t, strings.ContainsFunc(token, unicode.IsDigit), token)
		}
	}
}

func TestTokenizeLegacyRescan(t *testing.T) {
	tok := New(IdentityStemmer{})
	tok.LegacyRescan = true

	assert.Equal(t, []string{"foo", "bar", "foo", "bar"}, tok.Tokenize("foo bar"))
	assert.Equal(t, []string{"ok", "x1"}, tok.Tokenize("ok x1"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "привет", Normalize("ПРИВЕТ", IdentityStemmer{}))

	for _, w := range []string{"Hello", "мир", "😀"} {
		once := Normalize(w, IdentityStemmer{})
		assert.Equal(t, once, Normalize(once, IdentityStemmer{}))
	}

	// Snowball is not idempotent in general; these stems are fixed points.
	english, err := NewStemmer("english")
	require.NoError(t, err)
	for _, w := range []string{"Running", "cats", "jumping", "cat"} {
		once := Normalize(w, english)
		assert.Equal(t, once, Normalize(once, english), w)
	}
}

func TestSnowballStemmer(t *testing.T) {
	stemmer, err := NewStemmer("english")
	require.NoError(t, err)
	assert.Equal(t, "run", Normalize("Running", stemmer))
	assert.Equal(t, "cat", Normalize("cats", stemmer))

	ru, err := NewStemmer("russian")
	require.NoError(t, err)
	assert.NotEmpty(t, New(ru).Tokenize("Привет мир"))
}

func TestNewStemmer(t *testing.T) {
	s, err := NewStemmer("none")
	require.NoError(t, err)
	assert.IsType(t, IdentityStemmer{}, s)

	_, err = NewStemmer("klingon")
	assert.Error(t, err)
}

func TestWordFreq(t *testing.T) {
	f := NewWordFreq()
	f.Add([]string{"b", "a", "b"})
	f.Add([]string{"c", "a", "b"})

	assert.Equal(t, 3, f.Len())
	assert.Equal(t, 3, f.Count("b"))
	assert.Zero(t, f.Count("zzz"))

	var buf bytes.Buffer
	require.NoError(t, f.WriteTSV(&buf))
	assert.Equal(t, "b\t3\na\t2\nc\t1\n", buf.String())
}

func TestWordFreqSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "word_freq.tsv")
	f := NewWordFreq()
	f.Add([]string{"x"})
	require.NoError(t, f.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x\t1\n", string(data))
}
