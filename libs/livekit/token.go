package livekit

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/livekit/protocol/auth"
	lkproto "github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/webhook"
)

// ErrCredentialsMissing is returned when the API key or secret is not configured.
var ErrCredentialsMissing = errors.New("livekit api key/secret required")

const defaultTTL = time.Hour

// TokenIssuer mints LiveKit access tokens signed with the project API secret.
type TokenIssuer struct {
	APIKey    string
	APISecret string
	TTL       time.Duration
}

// NewTokenIssuer returns an issuer; a non-positive ttl means one hour.
func NewTokenIssuer(apiKey, apiSecret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &TokenIssuer{APIKey: apiKey, APISecret: apiSecret, TTL: ttl}
}

// Issue creates a join token for identity limited to room.
func (t *TokenIssuer) Issue(identity, room string) (string, error) {
	if t == nil || t.APIKey == "" || t.APISecret == "" {
		return "", ErrCredentialsMissing
	}
	ttl := t.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	at := auth.NewAccessToken(t.APIKey, t.APISecret)
	at.SetVideoGrant(&auth.VideoGrant{
		RoomJoin: true,
		Room:     room,
	}).
		SetIdentity(identity).
		SetValidFor(ttl)

	signed, err := at.ToJWT()
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyWebhook checks the Authorization header of a LiveKit webhook request
// against the body hash and returns the decoded event.
func (t *TokenIssuer) VerifyWebhook(r *http.Request) (*lkproto.WebhookEvent, error) {
	if t == nil || t.APIKey == "" || t.APISecret == "" {
		return nil, ErrCredentialsMissing
	}
	provider := auth.NewSimpleKeyProvider(t.APIKey, t.APISecret)
	evt, err := webhook.ReceiveWebhookEvent(r, provider)
	if err != nil {
		return nil, fmt.Errorf("receive webhook: %w", err)
	}
	return evt, nil
}
