package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// A Keyer derives the cache key for one tool invocation. Keys must be
// deterministic: the same tool and logically equal input always map to the
// same key, no matter how the input value was assembled. Implementations
// are called concurrently.
type Keyer interface {
	Key(toolID string, input any) (string, error)
}

// DefaultKeyer hashes the canonical JSON form of the input with SHA-256.
// Keys have the shape tool:<toolID>:<hash>, where hash is the first 8 bytes
// of the digest in hex. Object keys are sorted at every nesting level, so
// map iteration order never leaks into the key.
type DefaultKeyer struct{}

var _ Keyer = (*DefaultKeyer)(nil)

// NewDefaultKeyer creates a keyer using the canonical-JSON scheme.
func NewDefaultKeyer() *DefaultKeyer { return &DefaultKeyer{} }

// Key derives the cache key for a tool invocation.
func (k *DefaultKeyer) Key(toolID string, input any) (string, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, input); err != nil {
		return "", fmt.Errorf("cache: canonicalize input: %w", err)
	}

	digest := sha256.Sum256(buf.Bytes())
	return "tool:" + toolID + ":" + hex.EncodeToString(digest[:8]), nil
}

// writeCanonical appends a deterministic JSON rendering of v to buf.
// Objects are written with sorted keys, recursively; every other value goes
// through encoding/json unchanged.
func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")

	case map[string]any:
		buf.WriteByte('{')
		for i, key := range slices.Sorted(maps.Keys(val)) {
			if i > 0 {
				buf.WriteByte(',')
			}
			name, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(name)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')

	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')

	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(raw)
	}

	return nil
}
