package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacky-htg/warm-transfer/libs/interfaces"
)

func TestGenerate(t *testing.T) {
	// Ollama fake: accept JSON {model,prompt,system,stream} and return {response: ...}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req["model"])
		assert.Equal(t, false, req["stream"])
		assert.Equal(t, "be brief", req["system"])
		opts, _ := req["options"].(map[string]any)
		assert.EqualValues(t, 120, opts["num_predict"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "LLM answer to: " + req["prompt"].(string), "done": true})
	}))
	defer srv.Close()

	llm := NewWithEndpointModel(srv.URL, "llama3")
	out, err := llm.Generate(context.Background(), "transcript",
		interfaces.WithSystem("be brief"), interfaces.WithMaxTokens(120))
	require.NoError(t, err)
	assert.Equal(t, "LLM answer to: transcript", out)
}

func TestGenerate_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewWithEndpointModel(srv.URL, "").Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "model not found")
}

func TestGenerate_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewWithEndpointModel(srv.URL, "").Generate(ctx, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
