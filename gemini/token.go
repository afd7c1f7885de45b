package gemini

import (
	"context"

	"github.com/fwojciec/schemex"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

var _ schemex.TokenCounter = (*TokenCounter)(nil)

// TokenCounter sizes extraction prompts with the local Gemini tokenizer, so
// no API quota is spent on counting.
type TokenCounter struct {
	tok *tokenizer.LocalTokenizer
}

// NewTokenCounter loads the tokenizer vocabulary for model.
func NewTokenCounter(model string) (*TokenCounter, error) {
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, err
	}
	return &TokenCounter{tok: tok}, nil
}

// CountTokens counts the user message and the system instruction the way
// Complete would send them.
func (tc *TokenCounter) CountTokens(ctx context.Context, req *schemex.CompletionRequest) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if req.UserMessage == "" && req.SystemInstruction == "" {
		return 0, nil
	}

	var config *genai.CountTokensConfig
	if req.SystemInstruction != "" {
		config = &genai.CountTokensConfig{
			SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
		}
	}
	var contents []*genai.Content
	if req.UserMessage != "" {
		contents = []*genai.Content{genai.NewContentFromText(req.UserMessage, genai.RoleUser)}
	}

	result, err := tc.tok.CountTokens(contents, config)
	if err != nil {
		return 0, err
	}
	return int(result.TotalTokens), nil
}
