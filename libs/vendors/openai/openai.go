package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/jacky-htg/warm-transfer/libs/interfaces"
)

const defaultModel = "gpt-4o-mini"

type openaiLLM struct {
	client *goopenai.Client
	model  string
}

// New returns an OpenAI chat-completions client. baseURL may be empty to use
// the public API.
func New(apiKey, model, baseURL string) interfaces.LLM {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = defaultModel
	}
	return &openaiLLM{client: goopenai.NewClientWithConfig(cfg), model: model}
}

func (o *openaiLLM) Generate(ctx context.Context, prompt string, opts ...interfaces.LLMOption) (string, error) {
	opt := interfaces.ApplyLLMOptions(opts...)

	var msgs []goopenai.ChatCompletionMessage
	if opt.System != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: opt.System})
	}
	msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: prompt})

	req := goopenai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    msgs,
		MaxTokens:   opt.MaxTokens,
		Temperature: opt.Temperature,
	}
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
