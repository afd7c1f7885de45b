package mock

import (
	"context"

	"github.com/fwojciec/schemex"
)

var (
	_ schemex.Completer       = (*Completer)(nil)
	_ schemex.RecordExtractor = (*RecordExtractor)(nil)
)

// Completer is a mock implementation of schemex.Completer.
type Completer struct {
	CompleteFn func(ctx context.Context, req *schemex.CompletionRequest) (string, error)
}

func (c *Completer) Complete(ctx context.Context, req *schemex.CompletionRequest) (string, error) {
	return c.CompleteFn(ctx, req)
}

// RecordExtractor is a mock implementation of schemex.RecordExtractor.
type RecordExtractor struct {
	ExtractFn func(ctx context.Context, text string, schema schemex.Schema, url string) *schemex.ExtractionResult
}

func (e *RecordExtractor) Extract(ctx context.Context, text string, schema schemex.Schema, url string) *schemex.ExtractionResult {
	return e.ExtractFn(ctx, text, schema, url)
}
