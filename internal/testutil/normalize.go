package testutil

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Normalizer rewrites JSON documents so they compare stably across
// machines and runs.
type Normalizer struct {
	// Root is replaced by "<root>" in every string value.
	Root string

	// Volatile lists object keys whose values are replaced by "<volatile>".
	Volatile []string
}

// Normalize decodes data, rewrites it and encodes it again with sorted
// keys, two-space indent and a trailing newline.
func (n Normalizer) Normalize(data []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(n.value(v, "")); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n Normalizer) value(v any, key string) any {
	if key != "" && n.isVolatile(key) {
		return "<volatile>"
	}
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = n.value(item, k)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = n.value(item, "")
		}
		return out
	case string:
		return n.normalizeString(val)
	default:
		return v
	}
}

func (n Normalizer) normalizeString(s string) string {
	if n.Root != "" {
		root := strings.ReplaceAll(n.Root, "\\", "/")
		s = strings.ReplaceAll(strings.ReplaceAll(s, "\\", "/"), root, "<root>")
	}
	return s
}

func (n Normalizer) isVolatile(key string) bool {
	for _, v := range n.Volatile {
		if v == key {
			return true
		}
	}
	return false
}
