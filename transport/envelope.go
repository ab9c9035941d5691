package transport

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Envelope is the backend's fixed response shape. The data member is
// kept raw because its nesting is not uniform across resources: it can
// be a bare collection, an object with an "items" member, or an object
// keyed by the resource name. Each variant is resolved explicitly by
// Array and Object rather than guessed at.
type Envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// Page pairs a decoded collection with its pagination block.
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

// Array decodes the envelope's collection payload. Variants tried in
// order: data as a bare array, data.items, then data.<name> for each
// given name.
func Array[T any](e *Envelope, names ...string) ([]T, error) {
	if e == nil || len(e.Data) == 0 {
		return nil, nil
	}

	var items []T
	if err := json.Unmarshal(e.Data, &items); err == nil {
		return items, nil
	}

	var nested map[string]json.RawMessage
	if err := json.Unmarshal(e.Data, &nested); err != nil {
		return nil, errors.Wrap(err, "[transport.Array] data is neither array nor object")
	}

	for _, key := range append([]string{"items"}, names...) {
		raw, ok := nested[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, errors.Wrapf(err, "[transport.Array] decode data.%s", key)
		}
		return items, nil
	}
	return nil, errors.Errorf("[transport.Array] no collection found under %v", names)
}

// Object decodes a single payload object, preferring data.<name> and
// falling back to data itself.
func Object[T any](e *Envelope, name string) (T, error) {
	var out T
	if e == nil || len(e.Data) == 0 {
		return out, errors.New("[transport.Object] empty data payload")
	}

	var nested map[string]json.RawMessage
	if err := json.Unmarshal(e.Data, &nested); err == nil {
		if raw, ok := nested[name]; ok {
			if err := json.Unmarshal(raw, &out); err != nil {
				return out, errors.Wrapf(err, "[transport.Object] decode data.%s", name)
			}
			return out, nil
		}
	}

	if err := json.Unmarshal(e.Data, &out); err != nil {
		return out, errors.Wrap(err, "[transport.Object] decode data")
	}
	return out, nil
}
