// Package store is the composite-key durable key-value abstraction shared by the
// login, callback, onboarding and authorizer paths.
//
// Every item is addressed by a (partition key, sort key) pair. The partition key
// encodes the tenant boundary, so a lookup under one tenant's partition can never
// return another tenant's record. Items are JSON-shaped attribute maps; backends
// add the "pk" and "sk" attributes themselves.
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get and Update when no item exists under the key.
	ErrNotFound = errors.New("item not found")
	// ErrConditionFailed is returned by PutIfAbsent when an item already exists under the key.
	ErrConditionFailed = errors.New("conditional check failed")
)

const (
	AttrPK = "pk"
	AttrSK = "sk"
)

// Key is a composite (partition, sort) key.
type Key struct {
	PK string
	SK string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.PK, k.SK)
}

func (k Key) validate() error {
	if k.PK == "" || k.SK == "" {
		return fmt.Errorf("invalid key %q: partition and sort key are required", k.String())
	}
	return nil
}

// Store is implemented by every backend. TTL attributes are stored but never
// enforced here; callers check expiry explicitly.
type Store interface {
	// Get decodes the item under key into out. Returns ErrNotFound if absent.
	Get(ctx context.Context, key Key, out any) error

	// Put writes item under key unconditionally.
	Put(ctx context.Context, key Key, item any) error

	// PutIfAbsent writes item only if nothing exists under key, atomically.
	// Returns ErrConditionFailed if an item already exists.
	PutIfAbsent(ctx context.Context, key Key, item any) error

	// Update sets the given attributes on an existing item. Returns ErrNotFound if absent.
	Update(ctx context.Context, key Key, fields map[string]any) error

	// Delete removes the item under key. Deleting a missing item is not an error.
	Delete(ctx context.Context, key Key) error
}
