// Package statestore defines the durable key-value store the advisor keeps
// its per-pair optimizer records and its configuration record in. Records
// are opaque serialized blobs; the service owns their schema.
package statestore

import (
	"context"
	"encoding/json"
)

// Store provides durable access to serialized advisor records.
type Store interface {
	// Load returns the record under key. Returns ErrNotFound if absent.
	Load(ctx context.Context, key string) (json.RawMessage, error)

	// LoadAll returns every record keyed by its store key.
	LoadAll(ctx context.Context) (map[string]json.RawMessage, error)

	// Save upserts the record under key. The record must be durable when
	// the call returns.
	Save(ctx context.Context, key string, record json.RawMessage) error

	// Delete removes the record under key. Deleting an absent key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// Keys enumerates all record keys.
	Keys(ctx context.Context) ([]string, error)

	// Clear removes every record.
	Clear(ctx context.Context) error
}
