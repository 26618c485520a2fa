package socrata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/grantsync/internal/core/domain"
)

// errNotArray is returned when the records body is not a JSON array.
var errNotArray = errors.New("expected a JSON array of records")

// decodeRecords parses a JSON array of flat objects. Columns follow the
// order keys are first seen; a record missing a column reads as "".
// Nested objects and arrays are kept as compact JSON text.
func decodeRecords(body []byte) (*domain.Dataset, error) {
	dec := json.NewDecoder(bytes.NewReader(body))

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty body", ErrUnexpectedPayload)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedPayload, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedPayload, errNotArray)
	}

	ds := domain.NewDataset(nil)
	seen := make(map[string]bool)

	for dec.More() {
		rec, keys, err := decodeRecord(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrUnexpectedPayload, ds.Len(), err)
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				ds.Columns = append(ds.Columns, k)
			}
		}
		ds.Records = append(ds.Records, rec)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedPayload, err)
	}

	return ds, nil
}

// decodeRecord reads one object, returning its values and keys in order.
func decodeRecord(dec *json.Decoder) (domain.Record, []string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	rec := make(domain.Record)
	var keys []string

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected key, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("value for %q: %w", key, err)
		}
		value, err := rawToString(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("value for %q: %w", key, err)
		}

		if _, dup := rec[key]; !dup {
			keys = append(keys, key)
		}
		rec[key] = value
	}

	// closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return rec, keys, nil
}

func rawToString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		// numbers and booleans keep their literal text
		return string(raw), nil
	}
}
