package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration and vendor selection.
type Config struct {
	// LiveKit control plane and token signing.
	LiveKitURL       string
	LiveKitAPIKey    string
	LiveKitAPISecret string

	// LLMVendor selects the summary backend: "openai", "ollama" or "keyword".
	LLMVendor      string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	OllamaEndpoint string
	OllamaModel    string

	HTTPAddr        string
	CORSOrigins     []string
	TokenTTL        time.Duration
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// Load constructs a Config reading from environment variables.
// Supported env vars:
//
//	LIVEKIT_URL, LIVEKIT_API_KEY, LIVEKIT_API_SECRET
//	LLM_VENDOR (openai|ollama|keyword), OPENAI_API_KEY, OPENAI_MODEL, OPENAI_BASE_URL
//	OLLAMA_ENDPOINT, OLLAMA_MODEL
//	HTTP_ADDR or PORT, CORS_ORIGINS (comma separated), TOKEN_TTL, SHUTDOWN_TIMEOUT
//	LOG_LEVEL, LOG_FORMAT (console|json)
//
// Values missing from the process environment are looked up in a .env file in
// the working directory.
func Load() *Config {
	cfg := &Config{
		LiveKitURL:       getEnv("LIVEKIT_URL", ""),
		LiveKitAPIKey:    getEnv("LIVEKIT_API_KEY", ""),
		LiveKitAPISecret: getEnv("LIVEKIT_API_SECRET", ""),

		LLMVendor:      strings.ToLower(getEnv("LLM_VENDOR", "openai")),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		OllamaEndpoint: getEnv("OLLAMA_ENDPOINT", ""),
		OllamaModel:    getEnv("OLLAMA_MODEL", ""),

		HTTPAddr:        getEnv("HTTP_ADDR", ""),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		TokenTTL:        getDuration("TOKEN_TTL", time.Hour),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":" + getEnv("PORT", "8000")
	}
	return cfg
}

// MissingLiveKit returns the name of the first LiveKit variable that is not
// set, or an empty string when the LiveKit settings are complete.
func (c *Config) MissingLiveKit() string {
	switch {
	case c.LiveKitURL == "":
		return "LIVEKIT_URL"
	case c.LiveKitAPIKey == "":
		return "LIVEKIT_API_KEY"
	case c.LiveKitAPISecret == "":
		return "LIVEKIT_API_SECRET"
	}
	return ""
}

func getEnv(key, def string) string {
	v := ""
	if val, ok := lookupEnv(key); ok {
		v = val
	} else {
		// fallback to .env file if present
		loadDotEnvOnce.Do(loadDotEnv)
		if val2, ok := dotEnv[key]; ok {
			v = val2
		}
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// lookupEnv is a thin wrapper over os.LookupEnv so tests can replace it if needed.
var lookupEnv = func(key string) (string, bool) { return os.LookupEnv(key) }

var (
	dotEnv         map[string]string
	loadDotEnvOnce sync.Once
	dotEnvPath     = func() string {
		cwd, err := os.Getwd()
		if err != nil {
			return ""
		}
		return filepath.Join(cwd, ".env")
	}
)

// loadDotEnv parses the .env file without touching the process environment.
func loadDotEnv() {
	path := dotEnvPath()
	if path == "" {
		return
	}
	m, err := godotenv.Read(path)
	if err != nil {
		// no .env present - nothing to do
		return
	}
	dotEnv = m
}
