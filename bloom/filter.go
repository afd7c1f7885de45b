// Package bloom provides approximate set membership for target URLs.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter is a Bloom filter over strings. A negative answer is exact; a
// positive answer may be a false positive and must be confirmed by callers
// that cannot tolerate one.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter returns a filter sized for n expected items at the given false
// positive rate. A zero n is treated as one.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{f: bloom.NewWithEstimates(max(n, 1), fpRate)}
}

// Add records s.
func (f *Filter) Add(s string) {
	f.f.AddString(s)
}

// Test reports whether s may have been added.
func (f *Filter) Test(s string) bool {
	return f.f.TestString(s)
}

// TestAndAdd reports whether s may have been added before, and adds it.
func (f *Filter) TestAndAdd(s string) bool {
	return f.f.TestAndAddString(s)
}

// EstimatedCount returns the approximate number of distinct items added.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
