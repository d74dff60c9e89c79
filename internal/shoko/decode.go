package shoko

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrSchemaMismatch is returned when a payload does not have the shape of the
// record it is decoded into. No retry or fallback happens at this layer.
var ErrSchemaMismatch = errors.New("schema mismatch")

// normalizer is implemented by records that fill defaults after decoding
type normalizer interface {
	normalize()
}

// Decode reads a single JSON document from r into a new T. Unset optional
// fields take their defaults: empty strings, zero counts, empty lists and
// zero-value sub-records.
func Decode[T any](r io.Reader) (*T, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return Unmarshal[T](data)
}

// Unmarshal is Decode for a payload already in memory
func Unmarshal[T any](data []byte) (*T, error) {
	var v T
	kind := fmt.Sprintf("%T", v)

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: decode %s: empty payload", ErrSchemaMismatch, kind)
	}

	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrSchemaMismatch, kind, err)
	}

	normalizeValue(&v)
	return &v, nil
}

func normalizeValue(v any) {
	switch rec := v.(type) {
	case normalizer:
		rec.normalize()
	case *[]Series:
		for i := range *rec {
			(*rec)[i].normalize()
		}
	case *[]Episode:
		for i := range *rec {
			(*rec)[i].normalize()
		}
	}
}

// DecodeSeries decodes a series record
func DecodeSeries(r io.Reader) (*Series, error) {
	return Decode[Series](r)
}

// DecodeEpisode decodes an episode record
func DecodeEpisode(r io.Reader) (*Episode, error) {
	return Decode[Episode](r)
}

// DecodeEpisodes decodes a list of episode records
func DecodeEpisodes(r io.Reader) ([]Episode, error) {
	episodes, err := Decode[[]Episode](r)
	if err != nil {
		return nil, err
	}
	return *episodes, nil
}
