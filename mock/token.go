package mock

import (
	"context"

	"github.com/fwojciec/schemex"
)

var _ schemex.TokenCounter = (*TokenCounter)(nil)

// TokenCounter is a mock implementation of schemex.TokenCounter.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, req *schemex.CompletionRequest) (int, error)
}

func (tc *TokenCounter) CountTokens(ctx context.Context, req *schemex.CompletionRequest) (int, error) {
	return tc.CountTokensFn(ctx, req)
}
