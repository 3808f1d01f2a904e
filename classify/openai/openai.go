// Package openai provides a classify.Classifier backed by the OpenAI Chat
// Completions API.
package openai

import (
	"context"
	"fmt"

	"github.com/hupe1980/inboxmesh/classify"
	"github.com/hupe1980/inboxmesh/triage"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI classifier.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Classifier wraps the OpenAI Chat Completions API behind classify.Classifier.
type Classifier struct {
	client *openai.Client
	opts   Options
}

// NewClassifier creates a new OpenAI classifier using the official client
func NewClassifier(optFns ...func(o *Options)) *Classifier {
	client := openai.NewClient()
	return NewClassifierFromClient(&client, optFns...)
}

// NewClassifierFromClient creates a new OpenAI classifier from an existing client
func NewClassifierFromClient(client *openai.Client, optFns ...func(o *Options)) *Classifier {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.0,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Classifier{client: client, opts: opts}
}

// Classify implements classify.Classifier. It submits the rendered message
// list with the triage system prompt and parses the JSON verdict document.
func (c *Classifier) Classify(ctx context.Context, msgs []classify.Message) (*triage.Classification, error) {
	if len(msgs) == 0 {
		return &triage.Classification{ByCategory: map[triage.Category][]triage.Item{}}, nil
	}

	params := openai.ChatCompletionNewParams{
		Model:               c.opts.Model,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(classify.SystemPrompt),
			openai.UserMessage(classify.RenderMessages(msgs)),
		},
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no choices returned")
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		return nil, fmt.Errorf("openai: empty classification response")
	}

	return classify.ParseResult([]byte(classify.ExtractJSON(text)), msgs)
}
