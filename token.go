package schemex

import "context"

// TokenCounter sizes a completion request before it is sent.
type TokenCounter interface {
	// CountTokens returns the number of input tokens req would consume,
	// system instruction included.
	CountTokens(ctx context.Context, req *CompletionRequest) (int, error)
}
