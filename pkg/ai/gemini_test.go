package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1beta/models/gemini-2.5-flash:streamGenerateContent", r.URL.Path)
		require.Equal(t, "sse", r.URL.Query().Get("alt"))
		require.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

		var payload geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Contents, 2)
		assert.Equal(t, "user", payload.Contents[0].Role)
		assert.Equal(t, "model", payload.Contents[1].Role)

		w.Header().Set("Content-Type", "text/event-stream")
		for _, text := range []string{"Hello", ", ", "world"} {
			fmt.Fprintf(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":%q}]}}]}\n\n", text)
		}
	}))
	defer server.Close()

	g, err := NewGemini("secret", "gemini-2.5-flash", WithBaseURL(server.URL))
	require.NoError(t, err)

	var chunks []string
	full, err := g.Stream(context.Background(), []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}, func(chunk string) {
		chunks = append(chunks, chunk)
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello, world", full)
	assert.Equal(t, []string{"Hello", ", ", "world"}, chunks)
}

func TestGeminiStreamAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 403, "message": "API key not valid"},
		})
	}))
	defer server.Close()

	g, err := NewGemini("bad", "gemini-2.5-flash", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = g.Stream(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini("", "gemini-2.5-flash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), APIKeyEnv)
}

func TestGeminiStreamNoMessages(t *testing.T) {
	g, err := NewGemini("secret", "gemini-2.5-flash")
	require.NoError(t, err)
	_, err = g.Stream(context.Background(), nil, nil)
	require.Error(t, err)
}
