package shard

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	assert.Equal(t, "data.tfrecord.000", FileName("data.tfrecord", 0, 1000))
	assert.Equal(t, "data.tfrecord.999", FileName("data.tfrecord", 999, 1000))
	assert.Equal(t, "data.tfrecord.07", FileName("data.tfrecord", 7, 100))
	assert.Equal(t, "x.0", FileName("x", 0, 1))
	assert.Equal(t, "x.3", FileName("x", 3, 4))
}

func TestEncodeFeatureWireFormat(t *testing.T) {
	assert.Equal(t, []byte{0x0a, 0x00}, EncodeFeature(nil))
	assert.Equal(t,
		[]byte{0x0a, 0x08, 0x0a, 0x01, 'a', 0x0a, 0x03, 'b', 'c', 'd'},
		EncodeFeature([][]byte{[]byte("a"), []byte("bcd")}))
}

func TestDecodeFeature(t *testing.T) {
	tokens := []string{"привет", "мир", "😀", ""}
	got, err := DecodeStrings(EncodeStrings(tokens))
	require.NoError(t, err)
	assert.Equal(t, tokens, got)

	empty, err := DecodeStrings(EncodeStrings(nil))
	require.NoError(t, err)
	assert.Empty(t, empty)

	// int64_list { value: 1 }
	_, err = DecodeFeature([]byte{0x1a, 0x03, 0x0a, 0x01, 0x01})
	assert.Error(t, err)

	_, err = DecodeFeature([]byte{0x0a, 0x05, 0x0a})
	assert.Error(t, err)
}

func TestRecordFraming(t *testing.T) {
	var buf bytes.Buffer
	w := NewRecordWriter(&buf)
	require.NoError(t, w.Write([]byte("hello")))
	require.NoError(t, w.Write(nil))
	require.NoError(t, w.Flush())

	assert.Equal(t, 8+4+5+4+8+4+0+4, buf.Len())
	assert.Equal(t, []byte{5, 0, 0, 0, 0, 0, 0, 0}, buf.Bytes()[:8])

	r := NewRecordReader(bytes.NewReader(buf.Bytes()))
	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(rec))
	rec, err = r.Next()
	require.NoError(t, err)
	assert.Empty(t, rec)
	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestRecordReaderDetectsCorruption(t *testing.T) {
	var buf bytes.Buffer
	w := NewRecordWriter(&buf)
	require.NoError(t, w.Write([]byte("hello")))
	require.NoError(t, w.Flush())

	data := buf.Bytes()
	data[13] ^= 0xff
	_, err := NewRecordReader(bytes.NewReader(data)).Next()
	assert.True(t, errors.Is(err, ErrCorrupt))

	_, err = NewRecordReader(bytes.NewReader(data[:15])).Next()
	assert.Error(t, err)
	assert.False(t, errors.Is(err, io.EOF))
}

func TestRecordReaderRejectsOversizedLength(t *testing.T) {
	var header [12]byte
	binary.LittleEndian.PutUint64(header[:8], 1<<40)
	binary.LittleEndian.PutUint32(header[8:], maskedCRC(header[:8]))

	_, err := NewRecordReader(bytes.NewReader(header[:])).Next()
	assert.ErrorIs(t, err, ErrCorrupt)

	binary.LittleEndian.PutUint64(header[:8], ^uint64(0))
	binary.LittleEndian.PutUint32(header[8:], maskedCRC(header[:8]))
	_, err = NewRecordReader(bytes.NewReader(header[:])).Next()
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestMaskedCRC(t *testing.T) {
	// crc32c("") == 0, so the mask constant alone remains.
	assert.Equal(t, uint32(0xa282ead8), maskedCRC(nil))
}

func TestShardIndexReproducible(t *testing.T) {
	rec := EncodeStrings([]string{"a", "b", "c"})
	first := ShardIndex(rec, 42, 4)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ShardIndex(rec, 42, 4))
	}
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, 4)
}

func TestWriterExactlyOnce(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "data.tfrecord", 4, 7)
	require.NoError(t, err)

	sentences := [][]string{
		{"a", "b", "c"},
		{"hello", "world"},
		{},
		{"a", "b", "c"},
		{"один", "два", "три", "четыре"},
	}
	expectedShard := make([]int, len(sentences))
	for i, s := range sentences {
		require.NoError(t, w.Write(s))
		expectedShard[i] = w.ShardFor(EncodeStrings(s))
	}
	assert.Equal(t, len(sentences), w.Written())
	require.NoError(t, w.Close())
	assert.Error(t, w.Write([]string{"late"}))

	files, err := Files(dir, "data.tfrecord")
	require.NoError(t, err)
	require.Len(t, files, 4)
	assert.Equal(t, "data.tfrecord.0", filepath.Base(files[0]))

	perShard := make([]int, 4)
	for i := range sentences {
		perShard[expectedShard[i]]++
	}
	for i, path := range files {
		n := 0
		for _, err := range Records([]string{path}) {
			require.NoError(t, err)
			n++
		}
		assert.Equal(t, perShard[i], n, path)
	}

	var got [][]string
	for tokens, err := range Sentences(files) {
		require.NoError(t, err)
		got = append(got, tokens)
	}
	assert.ElementsMatch(t, sentences, got)
}

func TestNewWriterTruncatesExisting(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "p", 2, 0)
	require.NoError(t, err)
	require.NoError(t, w.Write([]string{"x"}))
	require.NoError(t, w.Close())

	w, err = NewWriter(dir, "p", 2, 0)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	files, err := Files(dir, "p")
	require.NoError(t, err)
	for _, f := range files {
		info, err := os.Stat(f)
		require.NoError(t, err)
		assert.Zero(t, info.Size())
	}
}

func TestNewWriterRejectsZeroShards(t *testing.T) {
	_, err := NewWriter(t.TempDir(), "p", 0, 0)
	assert.Error(t, err)
}
