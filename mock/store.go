package mock

import (
	"context"

	"github.com/fwojciec/schemex"
)

var (
	_ schemex.OutputStore = (*OutputStore)(nil)
	_ schemex.ResultStore = (*ResultStore)(nil)
)

// OutputStore is a mock implementation of schemex.OutputStore.
type OutputStore struct {
	SaveRawFn    func(ctx context.Context, batch string, index int, text string) error
	SaveResultFn func(ctx context.Context, batch, source string, schema schemex.Schema, records []*schemex.Record) error
}

func (s *OutputStore) SaveRaw(ctx context.Context, batch string, index int, text string) error {
	return s.SaveRawFn(ctx, batch, index, text)
}

func (s *OutputStore) SaveResult(ctx context.Context, batch, source string, schema schemex.Schema, records []*schemex.Record) error {
	return s.SaveResultFn(ctx, batch, source, schema, records)
}

// ResultStore is a mock implementation of schemex.ResultStore.
type ResultStore struct {
	UpsertResultFn    func(ctx context.Context, result *schemex.StoredResult) error
	FindResultByURLFn func(ctx context.Context, url string) (*schemex.StoredResult, error)
	FindResultsFn     func(ctx context.Context, filter schemex.ResultFilter) ([]*schemex.StoredResult, error)
}

func (s *ResultStore) UpsertResult(ctx context.Context, result *schemex.StoredResult) error {
	return s.UpsertResultFn(ctx, result)
}

func (s *ResultStore) FindResultByURL(ctx context.Context, url string) (*schemex.StoredResult, error) {
	return s.FindResultByURLFn(ctx, url)
}

func (s *ResultStore) FindResults(ctx context.Context, filter schemex.ResultFilter) ([]*schemex.StoredResult, error) {
	return s.FindResultsFn(ctx, filter)
}
