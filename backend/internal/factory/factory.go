package factory

import (
	"errors"
	"fmt"

	"github.com/jacky-htg/warm-transfer/libs/config"
	"github.com/jacky-htg/warm-transfer/libs/interfaces"
	"github.com/jacky-htg/warm-transfer/libs/vendors/keyword"
	"github.com/jacky-htg/warm-transfer/libs/vendors/livekit"
	"github.com/jacky-htg/warm-transfer/libs/vendors/ollama"
	"github.com/jacky-htg/warm-transfer/libs/vendors/openai"
)

var (
	// ErrLLMNotConfigured means the selected LLM vendor lacks its credentials.
	ErrLLMNotConfigured = errors.New("OpenAI API key not configured")
	// ErrLiveKitNotConfigured means one of the LiveKit settings is empty.
	ErrLiveKitNotConfigured = errors.New("LiveKit environment variables not properly configured")
)

// NewLLM builds the summary backend selected by cfg.LLMVendor.
func NewLLM(cfg *config.Config) (interfaces.LLM, error) {
	switch cfg.LLMVendor {
	case "openai", "":
		if cfg.OpenAIAPIKey == "" {
			return nil, ErrLLMNotConfigured
		}
		return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	case "ollama":
		if cfg.OllamaEndpoint != "" || cfg.OllamaModel != "" {
			return ollama.NewWithEndpointModel(cfg.OllamaEndpoint, cfg.OllamaModel), nil
		}
		return ollama.New(), nil
	case "keyword":
		return keyword.New(), nil
	default:
		return nil, fmt.Errorf("unknown llm vendor %q", cfg.LLMVendor)
	}
}

// NewRoomService builds the LiveKit control-plane client.
func NewRoomService(cfg *config.Config) (interfaces.RoomService, error) {
	if cfg.MissingLiveKit() != "" {
		return nil, ErrLiveKitNotConfigured
	}
	return livekit.New(cfg.LiveKitURL, cfg.LiveKitAPIKey, cfg.LiveKitAPISecret), nil
}
