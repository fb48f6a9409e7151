package driver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mail-digest/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRemoteChatClient_Complete(t *testing.T) {
	t.Run("should send chat request and return answer text", func(t *testing.T) {
		var captured chatRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

			_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "{\"summary\": \"ok\"}"}}]}`))
		}))
		defer server.Close()

		client := NewRemoteChatClient(server.URL, "test-key", "gpt-4o-mini", 5*time.Second, testLogger())

		answer, err := client.Complete(context.Background(), "Summarize this email.")

		require.NoError(t, err)
		assert.Equal(t, `{"summary": "ok"}`, answer)
		assert.Equal(t, "gpt-4o-mini", captured.Model)
		require.Len(t, captured.Messages, 2)
		assert.Equal(t, "system", captured.Messages[0].Role)
		assert.Equal(t, "Summarize this email.", captured.Messages[1].Content)
	})

	t.Run("should report non-200 status as backend error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": "rate limited"}`))
		}))
		defer server.Close()

		client := NewRemoteChatClient(server.URL, "test-key", "gpt-4o-mini", 5*time.Second, testLogger())

		_, err := client.Complete(context.Background(), "prompt")

		assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	})

	t.Run("should report empty choices as backend error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices": []}`))
		}))
		defer server.Close()

		client := NewRemoteChatClient(server.URL, "test-key", "gpt-4o-mini", 5*time.Second, testLogger())

		_, err := client.Complete(context.Background(), "prompt")

		assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	})

	t.Run("should report unreachable server as backend error", func(t *testing.T) {
		client := NewRemoteChatClient("http://127.0.0.1:1", "test-key", "gpt-4o-mini", time.Second, testLogger())

		_, err := client.Complete(context.Background(), "prompt")

		assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	})
}

func TestLocalModelClient_Complete(t *testing.T) {
	t.Run("should send generate request and return response text", func(t *testing.T) {
		var captured generatePayload
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/generate", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

			_, _ = w.Write([]byte(`{"response": "A concise summary.", "done": true}`))
		}))
		defer server.Close()

		client := NewLocalModelClient(server.URL, "llama3.2", 5*time.Second, testLogger())

		answer, err := client.Complete(context.Background(), "Subject: test\n\nbody")

		require.NoError(t, err)
		assert.Equal(t, "A concise summary.", answer)
		assert.Equal(t, "llama3.2", captured.Model)
		assert.False(t, captured.Stream)
		assert.Equal(t, "Subject: test\n\nbody", captured.Prompt)
	})

	t.Run("should report non-200 status as backend error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewLocalModelClient(server.URL, "llama3.2", 5*time.Second, testLogger())

		_, err := client.Complete(context.Background(), "input")

		assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	})

	t.Run("should still return text when done flag is false", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"response": "partial", "done": false}`))
		}))
		defer server.Close()

		client := NewLocalModelClient(server.URL, "llama3.2", 5*time.Second, testLogger())

		answer, err := client.Complete(context.Background(), "input")

		require.NoError(t, err)
		assert.Equal(t, "partial", answer)
	})
}
