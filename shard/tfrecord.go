package shard

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// maxRecordSize bounds the length field accepted by RecordReader.
const maxRecordSize = math.MaxInt32

// ErrCorrupt is returned when a record's length or payload checksum does not match.
var ErrCorrupt = errors.New("tfrecord: checksum mismatch")

func maskedCRC(data []byte) uint32 {
	c := crc32.Checksum(data, castagnoli)
	return ((c >> 15) | (c << 17)) + 0xa282ead8
}

// RecordWriter frames records in the TFRecord container format:
//
//	uint64 length | uint32 masked crc32c(length) | data | uint32 masked crc32c(data)
//
// with all integers little endian.
type RecordWriter struct {
	w *bufio.Writer
}

func NewRecordWriter(w io.Writer) *RecordWriter {
	return &RecordWriter{w: bufio.NewWriter(w)}
}

func (rw *RecordWriter) Write(data []byte) error {
	var header [12]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(len(data)))
	binary.LittleEndian.PutUint32(header[8:], maskedCRC(header[:8]))
	if _, err := rw.w.Write(header[:]); err != nil {
		return err
	}
	if _, err := rw.w.Write(data); err != nil {
		return err
	}
	var footer [4]byte
	binary.LittleEndian.PutUint32(footer[:], maskedCRC(data))
	_, err := rw.w.Write(footer[:])
	return err
}

func (rw *RecordWriter) Flush() error {
	return rw.w.Flush()
}

// RecordReader reads TFRecord framed records, verifying both checksums.
type RecordReader struct {
	r *bufio.Reader
}

func NewRecordReader(r io.Reader) *RecordReader {
	return &RecordReader{r: bufio.NewReader(r)}
}

// Next returns the next record, or io.EOF at a clean end of input.
func (rr *RecordReader) Next() ([]byte, error) {
	var header [12]byte
	if _, err := io.ReadFull(rr.r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("tfrecord header: %w", err)
	}
	if binary.LittleEndian.Uint32(header[8:]) != maskedCRC(header[:8]) {
		return nil, fmt.Errorf("length: %w", ErrCorrupt)
	}
	n := binary.LittleEndian.Uint64(header[:8])
	if n > maxRecordSize {
		return nil, fmt.Errorf("length %d: %w", n, ErrCorrupt)
	}

	data := make([]byte, n+4)
	if _, err := io.ReadFull(rr.r, data); err != nil {
		return nil, fmt.Errorf("tfrecord payload: %w", io.ErrUnexpectedEOF)
	}
	payload := data[:n]
	if binary.LittleEndian.Uint32(data[n:]) != maskedCRC(payload) {
		return nil, fmt.Errorf("payload: %w", ErrCorrupt)
	}
	return payload, nil
}
