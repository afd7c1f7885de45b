package mock

import "github.com/fwojciec/schemex"

var _ schemex.Converter = (*Converter)(nil)

// Converter is a mock implementation of schemex.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
