package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datalens-ai/analytics-console/internal/model"
	"github.com/datalens-ai/analytics-console/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL
	return NewClient(cfg, logger.NewNop())
}

func TestStreamChatRequestShape(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, ChatPath, r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var req model.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Query)
		assert.Equal(t, "conv-1", req.ConversationID)

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: [DONE]\n\n")
	}), Config{})

	body, err := client.StreamChat(context.Background(), model.ChatRequest{
		Query:          "hello",
		ConversationID: "conv-1",
	})
	require.NoError(t, err)
	defer body.Close()

	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[DONE]")
}

func TestStreamChatNon200(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}), Config{})

	_, err := client.StreamChat(context.Background(), model.ChatRequest{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestDrillOptionsDecodes(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DrillOptionsPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"options":[{"id":"opt-1","label":"Break down","drill_type":"breakdown"}]}`)
	}), Config{})

	options, err := client.DrillOptions(context.Background(), model.DrillOptionsRequest{})
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "opt-1", options[0].ID)
	assert.Equal(t, "breakdown", options[0].DrillType)
}

func TestDrillOptionsMalformedBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{truncated`)
	}), Config{})

	_, err := client.DrillOptions(context.Background(), model.DrillOptionsRequest{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	status := http.StatusOK
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, HealthPath, r.URL.Path)
		w.WriteHeader(status)
	}), Config{})

	require.NoError(t, client.Health(context.Background()))

	status = http.StatusInternalServerError
	assert.Error(t, client.Health(context.Background()))
}

func TestAuthTokenAttachedAndValid(t *testing.T) {
	const secret = "test-secret"

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		require.True(t, strings.HasPrefix(header, "Bearer "))

		claims, err := ParseToken(strings.TrimPrefix(header, "Bearer "), secret)
		require.NoError(t, err)
		assert.Equal(t, "console-test", claims.Subject)
		assert.Contains(t, claims.Scopes, "analytics:query")

		io.WriteString(w, `{"options":[]}`)
	}), Config{
		JWTSecret:     secret,
		JWTSubject:    "console-test",
		JWTExpiration: time.Minute,
	})

	_, err := client.DrillOptions(context.Background(), model.DrillOptionsRequest{})
	require.NoError(t, err)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	minter := newTokenMinter("right-secret", "sub", time.Minute)
	token, err := minter.Token()
	require.NoError(t, err)

	_, err = ParseToken(token, "wrong-secret")
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	minter := newTokenMinter("secret", "sub", -time.Minute)
	token, err := minter.Token()
	require.NoError(t, err)

	_, err = ParseToken(token, "secret")
	assert.Error(t, err)
}
