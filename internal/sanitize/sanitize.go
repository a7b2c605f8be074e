// Package sanitize strips markup from user supplied text before it is stored
// or fanned out to other clients.
package sanitize

import (
	"bytes"
	"encoding/json"

	"github.com/microcosm-cc/bluemonday"
)

// strict allows no elements and no attributes. A Policy is safe for
// concurrent use once built.
var strict = bluemonday.StrictPolicy()

var emptyDocument = json.RawMessage(`{}`)

// Text removes every tag from s. Content of script and style elements is dropped.
func Text(s string) string {
	if s == "" {
		return s
	}
	return strict.Sanitize(s)
}

// Document walks an arbitrary JSON document and applies Text to every string,
// object keys included. Numbers keep their original representation. Empty,
// null or undecodable input yields an empty object.
func Document(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return emptyDocument
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return emptyDocument
	}

	out, err := json.Marshal(walk(v))
	if err != nil {
		return emptyDocument
	}
	return out
}

func walk(v any) any {
	switch t := v.(type) {
	case string:
		return Text(t)
	case []any:
		for i := range t {
			t[i] = walk(t[i])
		}
		return t
	case map[string]any:
		clean := make(map[string]any, len(t))
		for k, val := range t {
			clean[Text(k)] = walk(val)
		}
		return clean
	default:
		return v
	}
}
