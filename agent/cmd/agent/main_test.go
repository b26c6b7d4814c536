package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTransferCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transfer", r.URL.Path)
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "support", in["fromRoom"])
		assert.Equal(t, "customer wants a refund", in["transcript"])
		_, _ = w.Write([]byte(`{"summary":"billing","newRoom":"support-transfer-1","agentAToken":"a","agentBToken":"b","wsUrl":"wss://lk"}`))
	}))
	defer srv.Close()

	out, err := execute(t, "--backend", srv.URL, "transfer",
		"--from", "support", "--agent-a", "alice", "--agent-b", "bob",
		"--transcript", "customer wants a refund")
	require.NoError(t, err)
	assert.Contains(t, out, `"newRoom": "support-transfer-1"`)
}

func TestTransferCommand_NeedsSummarySource(t *testing.T) {
	_, err := execute(t, "--backend", "http://127.0.0.1:0", "transfer",
		"--from", "support", "--agent-a", "alice", "--agent-b", "bob")
	assert.Error(t, err)
}

func TestTokenCommand_ReportsDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Failed to create token: LIVEKIT_API_KEY environment variable not set"}`))
	}))
	defer srv.Close()

	_, err := execute(t, "--backend", srv.URL, "token", "--identity", "alice", "--room", "support")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LIVEKIT_API_KEY")
}

func TestProbeCommand_RequiresTokenOrIdentity(t *testing.T) {
	_, err := execute(t, "probe", "--url", "wss://lk.example")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--token")
}
