// Package client talks to the warm transfer API and to LiveKit signaling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Client calls the backend HTTP API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a client for baseURL with the given request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bad status %d: %s", e.Status, e.Detail)
}

type TokenResponse struct {
	Token string `json:"token"`
	WSURL string `json:"wsUrl"`
}

type TransferRequest struct {
	FromRoom   string `json:"fromRoom"`
	AgentA     string `json:"agentA"`
	AgentB     string `json:"agentB"`
	NewRoom    string `json:"newRoom,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Summary    string `json:"summary,omitempty"`
}

type TransferResponse struct {
	Summary     string `json:"summary"`
	NewRoom     string `json:"newRoom"`
	AgentAToken string `json:"agentAToken"`
	AgentBToken string `json:"agentBToken"`
	WSURL       string `json:"wsUrl"`
}

// Health reports whether GET /health answered ok.
func (c *Client) Health(ctx context.Context) (bool, error) {
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return false, err
	}
	return out.OK, nil
}

// Token fetches a room join token for identity.
func (c *Client) Token(ctx context.Context, identity, room string) (*TokenResponse, error) {
	in := map[string]string{"identity": identity, "room": room}
	var out TokenResponse
	if err := c.do(ctx, http.MethodPost, "/token", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transfer asks the backend to prepare a warm transfer.
func (c *Client) Transfer(ctx context.Context, req TransferRequest) (*TransferResponse, error) {
	var out TransferResponse
	if err := c.do(ctx, http.MethodPost, "/transfer", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpc := c.HTTP
	if httpc == nil {
		httpc = http.DefaultClient
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		var e struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(b, &e) != nil || e.Detail == "" {
			e.Detail = strings.TrimSpace(string(b))
		}
		return &APIError{Status: resp.StatusCode, Detail: e.Detail}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// RTCURL builds <livekitURL>/rtc?access_token=<token> with a ws or wss scheme.
func RTCURL(livekitURL, token string) (string, error) {
	u, err := url.Parse(livekitURL)
	if err != nil {
		return "", fmt.Errorf("invalid LiveKit URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid LiveKit URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/rtc"
	q := u.Query()
	q.Set("access_token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Probe opens the LiveKit signaling websocket with token and copies every
// message it receives to out until ctx is done or the server closes.
// It returns the number of messages seen.
func Probe(ctx context.Context, livekitURL, token string, out io.Writer) (int, error) {
	if token == "" {
		return 0, fmt.Errorf("no token; cannot join LiveKit")
	}
	target, err := RTCURL(livekitURL, token)
	if err != nil {
		return 0, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return 0, fmt.Errorf("websocket dial failed: %w status=%d body=%s", err, resp.StatusCode, string(b))
		}
		return 0, fmt.Errorf("websocket dial failed: %w", err)
	}
	defer conn.Close()

	// unblock ReadMessage once the observation window ends
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	n := 0
	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return n, nil
			}
			return n, fmt.Errorf("ws read error: %w", err)
		}
		n++
		fmt.Fprintf(out, "ws message (type=%d, %d bytes)\n", mt, len(msg))
	}
}
