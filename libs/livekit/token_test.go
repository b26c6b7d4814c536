package livekit

import (
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/livekit/protocol/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = "APIdevkey"
	testSecret = "a-very-long-development-secret-value-0123456789"
)

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		return []byte(testSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	return claims
}

func TestIssue_GrantsRoomJoin(t *testing.T) {
	issuer := NewTokenIssuer(testKey, testSecret, 30*time.Minute)

	token, err := issuer.Issue("agent-a", "support-1-transfer-42")
	require.NoError(t, err)

	claims := parseClaims(t, token)
	assert.Equal(t, testKey, claims["iss"])
	assert.Equal(t, "agent-a", claims["sub"])

	video, ok := claims["video"].(map[string]any)
	require.True(t, ok, "video grant missing: %v", claims)
	assert.Equal(t, "support-1-transfer-42", video["room"])
	assert.Equal(t, true, video["roomJoin"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), exp.Time, time.Minute)
}

func TestIssue_DefaultTTL(t *testing.T) {
	issuer := &TokenIssuer{APIKey: testKey, APISecret: testSecret}
	token, err := issuer.Issue("caller", "room")
	require.NoError(t, err)

	exp, err := parseClaims(t, token).GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp.Time, time.Minute)
}

func TestIssue_MissingCredentials(t *testing.T) {
	for _, issuer := range []*TokenIssuer{
		nil,
		{APIKey: testKey},
		{APISecret: testSecret},
	} {
		_, err := issuer.Issue("x", "y")
		assert.ErrorIs(t, err, ErrCredentialsMissing)
	}
}

func signedWebhook(t *testing.T, body string) *http.Request {
	t.Helper()
	sum := sha256.Sum256([]byte(body))
	at := auth.NewAccessToken(testKey, testSecret)
	at.SetValidFor(5 * time.Minute)
	at.SetSha256(base64.StdEncoding.EncodeToString(sum[:]))
	token, err := at.ToJWT()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhook/livekit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/webhook+json")
	req.Header.Set("Authorization", token)
	return req
}

func TestVerifyWebhook(t *testing.T) {
	issuer := NewTokenIssuer(testKey, testSecret, 0)
	body := `{"event":"participant_joined","room":{"name":"support-1"},"participant":{"identity":"agent-b"}}`

	evt, err := issuer.VerifyWebhook(signedWebhook(t, body))
	require.NoError(t, err)
	assert.Equal(t, "participant_joined", evt.GetEvent())
	assert.Equal(t, "support-1", evt.GetRoom().GetName())
	assert.Equal(t, "agent-b", evt.GetParticipant().GetIdentity())
}

func TestVerifyWebhook_RejectsTamperedBody(t *testing.T) {
	issuer := NewTokenIssuer(testKey, testSecret, 0)
	req := signedWebhook(t, `{"event":"room_started"}`)
	req.Body = io.NopCloser(strings.NewReader(`{"event":"room_finished"}`))

	_, err := issuer.VerifyWebhook(req)
	assert.Error(t, err)
}
