// Package cas provides BLAKE3 content addressing and canonical JSON for
// document snapshots.
package cas

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"sort"

	"lukechampine.com/blake3"

	"uiforge/element"
)

// KindForest prefixes the digest input of a forest snapshot.
const KindForest = "Forest"

// CanonicalJSON encodes v as JSON with sorted object keys, no insignificant
// whitespace and no HTML escaping, so equal values always encode to equal
// bytes.
func CanonicalJSON(v any) ([]byte, error) {
	data, err := encode(v)
	if err != nil {
		return nil, err
	}

	var obj any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := canonicalMarshal(&buf, obj); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func canonicalMarshal(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := encode(k)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := canonicalMarshal(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := canonicalMarshal(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		data, err := encode(v)
		if err != nil {
			return err
		}
		buf.Write(data)
	}
	return nil
}

// Blake3Hash returns the 32-byte BLAKE3 digest of data.
func Blake3Hash(data []byte) []byte {
	sum := blake3.Sum256(data)
	return sum[:]
}

// Digest returns blake3(kind + "\n" + canonicalJSON(payload)).
func Digest(kind string, payload any) ([]byte, error) {
	body, err := CanonicalJSON(payload)
	if err != nil {
		return nil, err
	}
	h := blake3.New(32, nil)
	h.Write([]byte(kind + "\n"))
	h.Write(body)
	return h.Sum(nil), nil
}

// ForestDigest addresses a forest snapshot. Forests that differ only in
// attribute map iteration order share a digest; an empty forest and a nil
// forest do too.
func ForestDigest(f element.Forest) ([]byte, error) {
	if f == nil {
		f = element.Forest{}
	}
	return Digest(KindForest, f)
}

// BytesToHex converts a digest to lower-case hex.
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// HexToBytes parses a hex digest.
func HexToBytes(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// ShortHex returns the first 12 hex characters of a digest, for display.
func ShortHex(b []byte) string {
	s := BytesToHex(b)
	if len(s) > 12 {
		return s[:12]
	}
	return s
}
