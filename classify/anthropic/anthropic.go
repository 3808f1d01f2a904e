// Package anthropic provides a classify.Classifier backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/inboxmesh/classify"
	"github.com/hupe1980/inboxmesh/triage"
)

// Options configures the Anthropic classifier (model id, max tokens,
// temperature, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Classifier wraps the Anthropic Messages API behind classify.Classifier.
type Classifier struct {
	client *anthropic.Client
	opts   Options
}

// NewClassifier creates a new Anthropic classifier using the official client
func NewClassifier(optFns ...func(o *Options)) *Classifier {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.0,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Classifier{
		client: &client,
		opts:   opts,
	}
}

// NewClassifierFromClient creates a new Anthropic classifier from an existing client
func NewClassifierFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Classifier {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.0,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Classifier{
		client: client,
		opts:   opts,
	}
}

// Classify implements classify.Classifier. It submits the rendered message
// list with the triage system prompt and parses the JSON verdict document.
func (c *Classifier) Classify(ctx context.Context, msgs []classify.Message) (*triage.Classification, error) {
	if len(msgs) == 0 {
		return &triage.Classification{ByCategory: map[triage.Category][]triage.Item{}}, nil
	}

	params := anthropic.MessageNewParams{
		Model:       c.opts.Model,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: anthropic.Float(c.opts.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: classify.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(classify.RenderMessages(msgs))),
		},
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}
	if text == "" {
		return nil, fmt.Errorf("anthropic: empty classification response")
	}

	return classify.ParseResult([]byte(classify.ExtractJSON(text)), msgs)
}
