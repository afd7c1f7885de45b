package schemex

import (
	"encoding/json"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// URLField is the field every record carries with its source URL.
const URLField = "URL"

// RecordsKey is the top-level key holding records in model output and in
// persisted JSON files.
const RecordsKey = "listings"

// Schema is the ordered set of field names every record must contain.
type Schema []string

// Validate returns an error if the schema cannot be used for extraction.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return Errorf(EINVALID, "schema requires at least one field")
	}
	seen := make(map[string]bool, len(s))
	for _, field := range s {
		if strings.TrimSpace(field) == "" {
			return Errorf(EINVALID, "schema field name required")
		}
		if field == URLField {
			return Errorf(EINVALID, "schema field %q is reserved", URLField)
		}
		if seen[field] {
			return Errorf(EINVALID, "duplicate schema field %q", field)
		}
		seen[field] = true
	}
	return nil
}

// Columns returns the tabular column order: schema fields followed by URL.
func (s Schema) Columns() []string {
	cols := make([]string, 0, len(s)+1)
	cols = append(cols, s...)
	return append(cols, URLField)
}

// Record is one extracted set of field values.
// Field order is preserved for serialization. A nil value is the null state;
// other values are opaque JSON values, usually strings.
type Record struct {
	fields *orderedmap.OrderedMap[string, any]
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{fields: orderedmap.New[string, any]()}
}

// Set assigns value to field, keeping the field's original position if it
// already exists.
func (r *Record) Set(field string, value any) {
	r.init()
	r.fields.Set(field, value)
}

// Get returns the value of field and whether it is present.
func (r *Record) Get(field string) (any, bool) {
	if r.fields == nil {
		return nil, false
	}
	return r.fields.Get(field)
}

// Fields returns field names in order.
func (r *Record) Fields() []string {
	if r.fields == nil {
		return nil
	}
	names := make([]string, 0, r.fields.Len())
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Text returns the field value as text: empty for null or missing fields,
// the string itself for strings, compact JSON for anything else.
func (r *Record) Text(field string) string {
	v, _ := r.Get(field)
	return FormatValue(v)
}

// MarshalJSON encodes the record as a JSON object in field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	r.init()
	return r.fields.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	r.fields = orderedmap.New[string, any]()
	return r.fields.UnmarshalJSON(data)
}

func (r *Record) init() {
	if r.fields == nil {
		r.fields = orderedmap.New[string, any]()
	}
}

// FormatValue renders a record value as a single text cell.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// ExtractionResult holds the records extracted from a single URL.
// Extraction is one-record-per-URL: Records holds zero or one record.
type ExtractionResult struct {
	URL     string    `json:"-"`
	Records []*Record `json:"listings"`
}

// NewExtractionResult returns a result for url with no records.
func NewExtractionResult(url string) *ExtractionResult {
	return &ExtractionResult{URL: url, Records: []*Record{}}
}

// Empty reports whether the result holds no records.
func (r *ExtractionResult) Empty() bool {
	return r == nil || len(r.Records) == 0
}

// BatchResult accumulates records across one run over a target list.
type BatchResult struct {
	// Timestamp identifies the batch; it is part of every output file name.
	Timestamp string `json:"timestamp"`

	// Records in target input order.
	Records []*Record `json:"listings"`

	Targets   int `json:"targets"`
	Extracted int `json:"extracted"`
	Reused    int `json:"reused"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}
