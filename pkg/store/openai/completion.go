package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/de-tools/cluster-iq/pkg/services/config"
)

// Client wraps the OpenAI chat-completion API behind the single
// Complete call the AI analyzer consumes. Azure OpenAI is used when
// its credential set is complete, matching the platform the advisor
// is usually deployed next to.
type Client struct {
	client  *goopenai.Client
	model   string
	timeout time.Duration
}

func NewClient(cfg config.OpenAIConfig) (*Client, error) {
	if !cfg.Configured() {
		return nil, errors.New("either an OpenAI API key or Azure OpenAI credentials must be provided")
	}

	model := cfg.Model
	var client *goopenai.Client
	if cfg.AzureEndpoint != "" && cfg.AzureAPIKey != "" && cfg.AzureDeployment != "" {
		azureCfg := goopenai.DefaultAzureConfig(cfg.AzureAPIKey, cfg.AzureEndpoint)
		deployment := cfg.AzureDeployment
		azureCfg.AzureModelMapperFunc = func(string) string { return deployment }
		client = goopenai.NewClientWithConfig(azureCfg)
		model = deployment
	} else {
		client = goopenai.NewClient(cfg.APIKey)
	}

	return &Client{
		client:  client,
		model:   model,
		timeout: cfg.Timeout(),
	}, nil
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion response contained no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
