// Package oracle is the session's AI capability: classifying messages,
// answering questions about the secret word, and generating corpus batches.
// Everything network-bound goes through the Completer seam.
package oracle

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"wordoracle/internal/domain"
)

// Completer is an opaque text-completion capability: a system/user prompt
// pair in, a string out.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Client is a Completer backed by an OpenAI-compatible chat endpoint
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a completion client. An empty baseURL targets the
// default OpenAI endpoint; any OpenAI-compatible provider works via baseURL.
func NewClient(apiKey, baseURL, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Complete sends one system/user prompt pair and returns the raw completion
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("completion call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.ErrBadCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// Waterfall tries each completer in order until one succeeds
type Waterfall struct {
	completers []Completer
}

// NewWaterfall creates an ordered-fallback completer
func NewWaterfall(completers ...Completer) *Waterfall {
	return &Waterfall{completers: completers}
}

// Complete returns the first successful completion, or the joined errors
// when every provider fails
func (w *Waterfall) Complete(ctx context.Context, system, user string) (string, error) {
	if len(w.completers) == 0 {
		return "", domain.ErrBadCompletion
	}

	var errs []error
	for _, c := range w.completers {
		result, err := c.Complete(ctx, system, user)
		if err == nil {
			return result, nil
		}
		errs = append(errs, err)
	}
	return "", errors.Join(errs...)
}
