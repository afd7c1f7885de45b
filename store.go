package schemex

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// CombinedSource is the source name used for batch-wide output files.
const CombinedSource = "combined"

// OutputStore persists diagnostic text and extraction results as files.
type OutputStore interface {
	// SaveRaw persists the normalized text of the target at index.
	SaveRaw(ctx context.Context, batch string, index int, text string) error

	// SaveResult persists records as structured and tabular files.
	// The source is a target URL or CombinedSource.
	SaveResult(ctx context.Context, batch string, source string, schema Schema, records []*Record) error
}

// StoredResult is an extraction result kept across runs.
type StoredResult struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Batch       string    `json:"batch"`
	ContentHash string    `json:"contentHash"`
	Record      *Record   `json:"record"`
	ExtractedAt time.Time `json:"extractedAt"`
}

// Validate returns an error if the result contains invalid fields.
func (r *StoredResult) Validate() error {
	if r.URL == "" {
		return Errorf(EINVALID, "result URL required")
	}
	if r.Batch == "" {
		return Errorf(EINVALID, "result batch required")
	}
	if r.Record == nil {
		return Errorf(EINVALID, "result record required")
	}
	return nil
}

// ResultStore keeps one result per URL so that reruns are idempotent.
type ResultStore interface {
	// UpsertResult creates the result or replaces the one stored for its URL.
	UpsertResult(ctx context.Context, result *StoredResult) error

	// FindResultByURL retrieves the result stored for url.
	// Returns ENOTFOUND if none exists.
	FindResultByURL(ctx context.Context, url string) (*StoredResult, error)

	// FindResults retrieves results matching the filter.
	FindResults(ctx context.Context, filter ResultFilter) ([]*StoredResult, error)
}

// ResultFilter represents a filter for FindResults.
type ResultFilter struct {
	Batch *string `json:"batch"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// ContentHash returns a stable fingerprint of normalized page text, used to
// detect unchanged pages between runs.
func ContentHash(text string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(text))
}
