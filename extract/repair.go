package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"github.com/fwojciec/schemex"
)

// ErrMalformed is returned when a model response contains no usable JSON object.
var ErrMalformed = errors.New("malformed model response")

// Repair turns a raw model response into records for schema.
//
// The steps run in order:
//  1. A response that is not a JSON object is searched for its first
//     balanced {...} substring, which is parsed instead.
//  2. An object without a listings key is itself one record.
//  3. An empty listings array next to other top-level keys means those
//     keys are the record.
//  4. Every record carries every schema field, null when missing. Keys
//     outside the schema are dropped.
//  5. Every record is stamped with url.
//
// A response of {"listings": []} and nothing else is a valid answer with no
// records. Repair is pure; repeated calls on the same input produce
// identical records.
func Repair(raw string, schema schemex.Schema, url string) ([]*schemex.Record, error) {
	top, err := parseObject(raw)
	if err != nil {
		return nil, err
	}

	var objects []map[string]json.RawMessage
	listings, ok := top[schemex.RecordsKey]
	if !ok {
		objects = append(objects, top)
	} else {
		objects = listingObjects(listings)
		if len(objects) == 0 && len(top) > 1 {
			rest := make(map[string]json.RawMessage, len(top)-1)
			for k, v := range top {
				if k != schemex.RecordsKey {
					rest[k] = v
				}
			}
			objects = append(objects, rest)
		}
	}

	records := make([]*schemex.Record, 0, len(objects))
	for _, obj := range objects {
		records = append(records, conform(obj, schema, url))
	}
	return records, nil
}

// parseObject decodes raw as a JSON object, falling back to the first
// balanced object embedded in surrounding text.
func parseObject(raw string) (map[string]json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &top); err == nil && top != nil {
		return top, nil
	}

	candidate, ok := FirstObject(raw)
	if !ok {
		return nil, ErrMalformed
	}
	top = nil
	if err := json.Unmarshal([]byte(candidate), &top); err != nil || top == nil {
		return nil, ErrMalformed
	}
	return top, nil
}

// FirstObject returns the first balanced {...} substring of s. Braces
// inside JSON string literals, including escaped quotes, are ignored.
func FirstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// listingObjects returns the object elements of a listings value. A single
// object counts as one listing; anything else yields none.
func listingObjects(raw json.RawMessage) []map[string]json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil
		}
		return []map[string]json.RawMessage{obj}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil
		}
		var objects []map[string]json.RawMessage
		for _, item := range items {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
				continue
			}
			objects = append(objects, obj)
		}
		return objects
	}
	return nil
}

// conform builds a record holding exactly the schema fields, in schema
// order, followed by URL. Field names are matched exactly, then
// case-insensitively, then by a small edit distance on letters and digits
// so that near-miss keys such as "scheme_name" or "Ministry/Department"
// still land in their field. Each response key fills at most one field.
func conform(obj map[string]json.RawMessage, schema schemex.Schema, url string) *schemex.Record {
	keys := slices.Sorted(maps.Keys(obj))
	claimed := make(map[string]bool, len(keys))
	for _, k := range keys {
		if owner(k, schema) {
			claimed[k] = true
		}
	}

	rec := schemex.NewRecord()
	for _, field := range schema {
		rec.Set(field, decodeValue(lookup(obj, keys, field, claimed)))
	}
	rec.Set(schemex.URLField, url)
	return rec
}

// owner reports whether key names a schema field or URL outright, making it
// unavailable for fuzzy matching.
func owner(key string, schema schemex.Schema) bool {
	k := strings.TrimSpace(key)
	if strings.EqualFold(k, schemex.URLField) {
		return true
	}
	for _, field := range schema {
		if strings.EqualFold(k, strings.TrimSpace(field)) {
			return true
		}
	}
	return false
}

func lookup(obj map[string]json.RawMessage, keys []string, field string, claimed map[string]bool) json.RawMessage {
	if v, ok := obj[field]; ok {
		return v
	}
	want := strings.TrimSpace(field)
	for _, k := range keys {
		if strings.EqualFold(strings.TrimSpace(k), want) {
			return obj[k]
		}
	}

	norm := normalizeKey(field)
	best, bestDist := "", max(1, len(norm)/5)+1
	for _, k := range keys {
		if claimed[k] {
			continue
		}
		if d := levenshtein.Distance(normalizeKey(k), norm, nil); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best == "" {
		return nil
	}
	claimed[best] = true
	return obj[best]
}

// normalizeKey lowercases s and keeps only letters and digits.
func normalizeKey(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}

func decodeValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
