package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jacky-htg/warm-transfer/libs/interfaces"
)

const (
	defaultEndpoint = "http://localhost:11434/api/generate"
	defaultModel    = "tinyllama"
)

type ollamaLLM struct {
	endpoint string
	model    string
	client   *http.Client
}

// New returns a client configured for the local Ollama HTTP API.
func New() interfaces.LLM {
	return NewWithEndpointModel(defaultEndpoint, defaultModel)
}

// NewWithEndpointModel creates an Ollama client with custom endpoint and model.
func NewWithEndpointModel(endpoint, model string) interfaces.LLM {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if model == "" {
		model = defaultModel
	}
	return &ollamaLLM{endpoint: endpoint, model: model, client: &http.Client{Timeout: 30 * time.Second}}
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
	Error     string `json:"error"`
}

func (o *ollamaLLM) Generate(ctx context.Context, prompt string, opts ...interfaces.LLMOption) (string, error) {
	opt := interfaces.ApplyLLMOptions(opts...)
	reqBody := ollamaRequest{Model: o.model, Prompt: prompt, System: opt.System, Stream: false}
	if opt.MaxTokens > 0 || opt.Temperature > 0 {
		reqBody.Options = map[string]any{}
		if opt.MaxTokens > 0 {
			reqBody.Options["num_predict"] = opt.MaxTokens
		}
		if opt.Temperature > 0 {
			reqBody.Options["temperature"] = opt.Temperature
		}
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("new ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("post to ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama: %s", out.Error)
	}

	return out.Response, nil
}
