package storage

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

func encodeVector(v []float64) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode vector: %w", err)
	}
	return data, nil
}

func decodeVector(data []byte) ([]float64, error) {
	var v []float64
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode vector: %w", err)
	}
	return v, nil
}
