package mock

import "github.com/fwojciec/schemex"

var (
	_ schemex.Extractor = (*Extractor)(nil)
	_ schemex.Reducer   = (*Reducer)(nil)
)

// Extractor is a mock implementation of schemex.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*schemex.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*schemex.ExtractResult, error) {
	return e.ExtractFn(html)
}

// Reducer is a mock implementation of schemex.Reducer.
type Reducer struct {
	ReduceFn func(html string) string
}

func (r *Reducer) Reduce(html string) string {
	return r.ReduceFn(html)
}
