package interfaces

import "context"

// LLM is the language model interface. Implementations should be swappable.
type LLM interface {
	// Generate takes a prompt and returns a generated text response
	Generate(ctx context.Context, prompt string, opts ...LLMOption) (string, error)
}

// RoomService represents the LiveKit control-plane actions the backend needs.
type RoomService interface {
	// CreateRoom creates (or returns the existing) room with the given name
	CreateRoom(ctx context.Context, name string) (RoomInfo, error)
	// ListRooms returns every active room
	ListRooms(ctx context.Context) ([]RoomInfo, error)
	// DeleteRoom closes a room and disconnects its participants
	DeleteRoom(ctx context.Context, name string) error
}

// RoomInfo is the room descriptor returned to API clients.
type RoomInfo struct {
	SID             string   `json:"sid"`
	Name            string   `json:"name"`
	EmptyTimeout    uint32   `json:"empty_timeout"`
	MaxParticipants uint32   `json:"max_participants"`
	CreationTime    int64    `json:"creation_time"`
	TurnPassword    string   `json:"turn_password"`
	EnabledCodecs   []string `json:"enabled_codecs"`
	Metadata        string   `json:"metadata"`
	NumParticipants uint32   `json:"num_participants"`
	NumPublishers   uint32   `json:"num_publishers"`
	ActiveRecording bool     `json:"active_recording"`
}

// LLMOption adjusts a single Generate call.
type LLMOption func(*LLMOptions)

// LLMOptions collects per-call generation settings. Zero values mean vendor defaults.
type LLMOptions struct {
	System      string
	MaxTokens   int
	Temperature float32
}

// WithSystem sets the system instruction sent ahead of the prompt.
func WithSystem(s string) LLMOption { return func(o *LLMOptions) { o.System = s } }

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) LLMOption { return func(o *LLMOptions) { o.MaxTokens = n } }

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) LLMOption { return func(o *LLMOptions) { o.Temperature = t } }

// ApplyLLMOptions folds opts into an LLMOptions value.
func ApplyLLMOptions(opts ...LLMOption) LLMOptions {
	var o LLMOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
