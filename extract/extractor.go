// Package extract turns normalized page text into schema-conformant
// records using a language model.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/schemex"
)

// Sampling and size limits for extraction requests.
const (
	MaxTextChars    = 24000
	Temperature     = 0.2
	MaxOutputTokens = 2048
)

// Ensure Extractor implements schemex.RecordExtractor at compile time.
var _ schemex.RecordExtractor = (*Extractor)(nil)

// Extractor asks a Completer for one record per page and repairs the answer
// into the schema's shape.
type Extractor struct {
	completer    schemex.Completer
	tokens       schemex.TokenCounter
	retry        schemex.RetryPolicy
	descriptions map[string]string
	synonyms     map[string][]string
	maxChars     int
	logger       *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRetryPolicy replaces the retry policy. Tests use it to inject a
// sleep that returns immediately.
func WithRetryPolicy(p schemex.RetryPolicy) Option {
	return func(e *Extractor) { e.retry = p }
}

// WithSynonyms replaces the synonym map used for disambiguation.
func WithSynonyms(synonyms map[string][]string) Option {
	return func(e *Extractor) { e.synonyms = synonyms }
}

// WithDescriptions replaces the field descriptions.
func WithDescriptions(descriptions map[string]string) Option {
	return func(e *Extractor) { e.descriptions = descriptions }
}

// WithTokenCounter logs the token size of each prompt.
func WithTokenCounter(tc schemex.TokenCounter) Option {
	return func(e *Extractor) { e.tokens = tc }
}

// WithMaxTextChars sets the truncation limit in characters.
func WithMaxTextChars(n int) Option {
	return func(e *Extractor) { e.maxChars = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) { e.logger = logger }
}

// NewExtractor creates an Extractor backed by completer.
func NewExtractor(completer schemex.Completer, opts ...Option) *Extractor {
	e := &Extractor{
		completer:    completer,
		retry:        schemex.DefaultRetryPolicy(),
		descriptions: DefaultDescriptions,
		synonyms:     DefaultSynonyms,
		maxChars:     MaxTextChars,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns at most one record for the page at url. It never fails:
// empty text, exhausted retries and cancellation all yield an empty result.
func (e *Extractor) Extract(ctx context.Context, text string, schema schemex.Schema, url string) *schemex.ExtractionResult {
	result := schemex.NewExtractionResult(url)
	if strings.TrimSpace(text) == "" {
		e.logger.Warn("no text to extract from", "url", url)
		return result
	}

	if t, ok := Truncate(text, e.maxChars); ok {
		e.logger.Info("truncating page text", "url", url, "from", utf8.RuneCountInString(text), "to", e.maxChars)
		text = t
	}

	req := &schemex.CompletionRequest{
		SystemInstruction: BuildSystemInstruction(schema, e.descriptions, e.synonyms),
		UserMessage:       BuildUserPrompt(schema, url, text),
		Temperature:       Temperature,
		MaxOutputTokens:   MaxOutputTokens,
	}
	e.logTokens(ctx, req, url)

	policy := e.retry
	policy.OnRetry = func(attempt int, err error) {
		e.logger.Warn("retrying extraction", "url", url, "attempt", attempt, "max", policy.MaxAttempts, "err", err)
	}

	records, err := schemex.Retry(ctx, policy, func(ctx context.Context) ([]*schemex.Record, error) {
		raw, err := e.completer.Complete(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("completion: %w", err)
		}
		records, err := Repair(raw, schema, url)
		if err != nil {
			e.logger.Debug("unparseable model response", "url", url, "response", preview(raw))
			return nil, err
		}
		return records, nil
	})
	if err != nil {
		e.logger.Error("extraction failed", "url", url, "err", err)
		return result
	}

	if len(records) > 1 {
		e.logger.Warn("model returned several listings, keeping the first", "url", url, "count", len(records))
		records = records[:1]
	}
	result.Records = records
	return result
}

func (e *Extractor) logTokens(ctx context.Context, req *schemex.CompletionRequest, url string) {
	if e.tokens == nil {
		return
	}
	n, err := e.tokens.CountTokens(ctx, req)
	if err != nil {
		e.logger.Debug("token count failed", "url", url, "err", err)
		return
	}
	e.logger.Info("prompt size", "url", url, "tokens", n)
}

// Truncate cuts text to at most n characters. It reports whether text was cut.
func Truncate(text string, n int) (string, bool) {
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text, false
	}
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos], true
		}
		i++
	}
	return text, false
}

func preview(s string) string {
	const limit = 200
	if t, ok := Truncate(s, limit); ok {
		return t + "..."
	}
	return s
}
