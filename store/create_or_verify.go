package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	apperrors "github.com/jrsteele09/bff-auth/internal/errors"
)

// MismatchError reports an invariant field that differs between an existing item and
// the item a create-or-verify caller attempted to write.
type MismatchError struct {
	Key      Key
	Field    string
	Existing any
	Desired  any
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: field %q is %v, expected %v", e.Key, e.Field, e.Existing, e.Desired)
}

func (e *MismatchError) Unwrap() error {
	return apperrors.ErrInvariantMismatch
}

// CreateOrVerify writes item under key if absent. If an item already exists, it is
// re-read and every invariant field must equal the value item would have written;
// otherwise a *MismatchError is returned. created reports which path was taken.
// Any other store error is returned unchanged.
func CreateOrVerify(ctx context.Context, s Store, key Key, item any, invariants ...string) (created bool, err error) {
	err = s.PutIfAbsent(ctx, key, item)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, ErrConditionFailed) {
		return false, err
	}

	desired, err := toAttributes(key, item)
	if err != nil {
		return false, err
	}

	existing := map[string]any{}
	if err := s.Get(ctx, key, &existing); err != nil {
		return false, fmt.Errorf("[CreateOrVerify] re-read %s after conflict: %w", key, err)
	}

	for _, field := range invariants {
		if !reflect.DeepEqual(existing[field], desired[field]) {
			return false, &MismatchError{Key: key, Field: field, Existing: existing[field], Desired: desired[field]}
		}
	}
	return false, nil
}
