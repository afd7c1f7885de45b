package schemex

import "context"

// CompletionRequest is a single request to a language-model completion endpoint.
type CompletionRequest struct {
	// SystemInstruction carries the field schema, the output contract and
	// the disambiguation policy.
	SystemInstruction string

	// UserMessage carries the page text to extract from.
	UserMessage string

	Temperature     float32
	MaxOutputTokens int
}

// Completer sends prompts to a language model.
type Completer interface {
	// Complete returns the model's free-form text response.
	Complete(ctx context.Context, req *CompletionRequest) (string, error)
}

// RecordExtractor turns normalized page text into a schema-conformant record.
type RecordExtractor interface {
	// Extract never fails: transient and malformed-output errors are
	// retried and finally absorbed into an empty result.
	Extract(ctx context.Context, text string, schema Schema, url string) *ExtractionResult
}
