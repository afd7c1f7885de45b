// Package gemini implements schemex.Completer and schemex.TokenCounter
// using Google Gemini.
package gemini

import (
	"context"

	"github.com/fwojciec/schemex"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Ensure Completer implements schemex.Completer at compile time.
var _ schemex.Completer = (*Completer)(nil)

// Completer implements schemex.Completer using Google Gemini.
type Completer struct {
	client *genai.Client
	model  string
}

// Option configures a Completer.
type Option func(*Completer)

// WithModel sets the Gemini model name.
func WithModel(model string) Option {
	return func(c *Completer) {
		if model != "" {
			c.model = model
		}
	}
}

// NewCompleter creates a new Completer.
func NewCompleter(client *genai.Client, opts ...Option) *Completer {
	c := &Completer{client: client, model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name.
func (c *Completer) Model() string {
	return c.model
}

// Complete sends the request to Gemini and returns the response text.
func (c *Completer) Complete(ctx context.Context, req *schemex.CompletionRequest) (string, error) {
	if req == nil || req.UserMessage == "" {
		return "", schemex.Errorf(schemex.EINVALID, "user message required")
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(req.UserMessage, genai.RoleUser)},
		BuildConfig(req),
	)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", schemex.Errorf(schemex.EINTERNAL, "gemini returned nil result")
	}

	return result.Text(), nil
}

// BuildConfig returns the GenerateContentConfig for a completion request.
// Responses are requested as JSON.
func BuildConfig(req *schemex.CompletionRequest) *genai.GenerateContentConfig {
	temp := req.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}
	if req.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemInstruction}},
		}
	}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	return config
}
