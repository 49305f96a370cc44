package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sethvargo/go-retry"
)

// ErrMissingAPIKey is returned when a registry entry's credential is not
// present in the environment.
var ErrMissingAPIKey = errors.New("llm: API key not set")

// Client is a chat client for one registry entry.
type Client struct {
	entry RegistryEntry
	api   *openai.Client
}

// NewClient builds a client for a registry entry, reading its API key
// from the configured environment variable.
func NewClient(entry RegistryEntry) (*Client, error) {
	apiKey := os.Getenv(entry.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s for %s", ErrMissingAPIKey, entry.APIKeyEnv, entry.Provider)
	}
	cfg := openai.DefaultConfig(apiKey)
	if entry.BaseURL != "" {
		cfg.BaseURL = entry.BaseURL
	}
	return &Client{entry: entry, api: openai.NewClientWithConfig(cfg)}, nil
}

// Alias returns the registry alias this client answers as.
func (c *Client) Alias() string {
	return c.entry.Alias
}

// Chat sends one system+user exchange and returns the raw answer text.
// Transient API failures are retried with exponential backoff; the caller
// supplies the deadline via ctx.
func (c *Client) Chat(ctx context.Context, systemPrompt, prompt string) (string, error) {
	var answer string
	backoff := retry.WithMaxRetries(3, retry.NewExponential(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.entry.Model,
			Temperature: c.entry.Temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		if len(resp.Choices) == 0 {
			return retry.RetryableError(errors.New("empty choice list"))
		}
		answer = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("llm: chat with %s: %w", c.entry.Alias, err)
	}
	return answer, nil
}
