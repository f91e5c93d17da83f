package shard

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// tf.train.Feature field numbers.
const (
	featureBytesList = 1
	featureFloatList = 2
	featureInt64List = 3
	bytesListValue   = 1
)

// EncodeFeature serializes values as a tf.train.Feature holding a BytesList.
func EncodeFeature(values [][]byte) []byte {
	var list []byte
	for _, v := range values {
		list = protowire.AppendTag(list, bytesListValue, protowire.BytesType)
		list = protowire.AppendBytes(list, v)
	}
	out := protowire.AppendTag(nil, featureBytesList, protowire.BytesType)
	return protowire.AppendBytes(out, list)
}

// EncodeStrings is EncodeFeature over UTF-8 strings.
func EncodeStrings(tokens []string) []byte {
	values := make([][]byte, len(tokens))
	for i, t := range tokens {
		values[i] = []byte(t)
	}
	return EncodeFeature(values)
}

// DecodeFeature parses a serialized tf.train.Feature and returns its BytesList values.
// Unknown fields are skipped; float and int64 lists are rejected.
func DecodeFeature(data []byte) ([][]byte, error) {
	values := [][]byte{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("feature tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == featureBytesList && typ == protowire.BytesType:
			list, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return nil, fmt.Errorf("bytes_list: %w", protowire.ParseError(m))
			}
			data = data[m:]
			vs, err := decodeBytesList(list)
			if err != nil {
				return nil, err
			}
			values = append(values, vs...)
		case num == featureFloatList || num == featureInt64List:
			return nil, errors.New("feature is not a bytes_list")
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return nil, fmt.Errorf("feature field %d: %w", num, protowire.ParseError(m))
			}
			data = data[m:]
		}
	}
	return values, nil
}

func decodeBytesList(data []byte) ([][]byte, error) {
	var values [][]byte
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("bytes_list tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		if num == bytesListValue && typ == protowire.BytesType {
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return nil, fmt.Errorf("bytes_list value: %w", protowire.ParseError(m))
			}
			values = append(values, v)
			data = data[m:]
			continue
		}
		m := protowire.ConsumeFieldValue(num, typ, data)
		if m < 0 {
			return nil, fmt.Errorf("bytes_list field %d: %w", num, protowire.ParseError(m))
		}
		data = data[m:]
	}
	return values, nil
}

// DecodeStrings is DecodeFeature returning UTF-8 strings.
func DecodeStrings(data []byte) ([]string, error) {
	values, err := DecodeFeature(data)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, len(values))
	for i, v := range values {
		tokens[i] = string(v)
	}
	return tokens, nil
}
