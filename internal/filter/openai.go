// Package filter asks a chat model to keep only the user-facing strings out
// of the heuristic extractor's output.
package filter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ui-translator/internal/textutil"
	"ui-translator/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// DefaultModel is used when Options.Model is empty.
const DefaultModel = openai.GPT3Dot5Turbo

const systemPrompt = "Filter the following strings to keep only clearly user-facing UI texts. (like button labels, messages, etc.)\n" +
	"If a string is not user-facing (variable names, expressions, code, keys, selectors, etc.), remove it.\n" +
	"Return only the strings that are user-facing, one per line, each prefixed with '- '.\n"

// Options configures an OpenAIFilter.
type Options struct {
	BaseURL   string
	Model     string
	BatchSize int
	Timeout   time.Duration
}

// OpenAIFilter removes non user-facing strings with an OpenAI chat model.
type OpenAIFilter struct {
	client    *openai.Client
	model     string
	batchSize int
	timeout   time.Duration
}

// NewOpenAIFilter creates a filter backed by the chat completions API.
func NewOpenAIFilter(apiKey string, opts Options) (*OpenAIFilter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		clientConfig.BaseURL = opts.BaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 30
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	return &OpenAIFilter{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     opts.Model,
		batchSize: opts.BatchSize,
		timeout:   opts.Timeout,
	}, nil
}

// Filter sends texts in batches and concatenates what the model keeps.
// A failed batch is logged and contributes nothing; only a cancelled
// context is returned as an error.
func (f *OpenAIFilter) Filter(ctx context.Context, texts []string) ([]string, error) {
	var kept []string
	batches := worker.Batch(texts, f.batchSize)

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return kept, err
		}
		log.Info().
			Int("batch", i+1).
			Int("total_batches", textutil.BatchCount(len(texts), f.batchSize)).
			Msg("Filtering batch")

		out, err := f.filterBatch(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return kept, ctx.Err()
			}
			log.Error().Err(err).Int("batch", i+1).Msg("OpenAI filter batch failed")
			continue
		}
		kept = append(kept, out...)
	}

	return kept, nil
}

func (f *OpenAIFilter) filterBatch(ctx context.Context, batch []string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: f.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: UserMessage(batch)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return ParseResponse(resp.Choices[0].Message.Content), nil
}

// UserMessage lists the batch one string per line, each prefixed with "- ".
func UserMessage(batch []string) string {
	var sb strings.Builder
	sb.WriteString("Strings: \n")
	for i, s := range batch {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- ")
		sb.WriteString(s)
	}
	return sb.String()
}

// ParseResponse keeps the "- " prefixed lines of a model reply, with the
// surrounding dashes and spaces removed.
func ParseResponse(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !strings.HasPrefix(strings.TrimSpace(line), "- ") {
			continue
		}
		out = append(out, strings.Trim(line, "- "))
	}
	return out
}
