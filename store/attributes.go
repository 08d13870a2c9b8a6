package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// Attributes is the backend-neutral representation of an item.
// Numbers are float64 and nested values follow encoding/json decoding rules.
type Attributes map[string]any

// toAttributes converts a JSON-taggable value into Attributes and stamps the key attributes.
func toAttributes(key Key, item any) (Attributes, error) {
	attrs, err := normalize(item)
	if err != nil {
		return nil, err
	}
	attrs[AttrPK] = key.PK
	attrs[AttrSK] = key.SK
	return attrs, nil
}

func normalize(v any) (Attributes, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("[store normalize] marshal: %w", err)
	}
	attrs := Attributes{}
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("[store normalize] item must encode to an object: %w", err)
	}
	return attrs, nil
}

// decode writes attrs into out, which may be a struct pointer or *map[string]any.
func decode(attrs Attributes, out any) error {
	data, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("[store decode] marshal: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("[store decode] unmarshal: %w", err)
	}
	return nil
}

func (a Attributes) clone() Attributes {
	c := make(Attributes, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// expiresAt reads the conventional expires_at attribute (unix seconds).
func (a Attributes) expiresAt() (time.Time, bool) {
	v, ok := a["expires_at"].(float64)
	if !ok || v <= 0 {
		return time.Time{}, false
	}
	return time.Unix(int64(v), 0), true
}
