package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voxtool/vox/internal/config"
)

func testConfig(baseURL string) config.LLMConfig {
	return config.LLMConfig{
		Enable:            true,
		BaseURL:           baseURL,
		Model:             "qwen2.5:7b-instruct-q4_K_M",
		Temperature:       0.3,
		MaxTokens:         512,
		TimeoutSec:        5,
		SkipShortMaxChars: 20,
	}
}

func TestFormatSendsSystemAndUserMessages(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Deploy the React frontend today.  "}}]}`))
	}))
	defer server.Close()

	formatter := NewFormatter(testConfig(server.URL + "/v1"))
	out, err := formatter.Format(context.Background(), "um so we should like deploy the react frontend today")
	require.NoError(t, err)
	require.Equal(t, "Deploy the React frontend today.", out)

	require.Equal(t, "qwen2.5:7b-instruct-q4_K_M", gotBody["model"])
	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 2)
	require.Equal(t, "system", messages[0].(map[string]any)["role"])
	require.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestFormatSkipsShortInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("short input must not hit the model")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	formatter := NewFormatter(testConfig(server.URL + "/v1"))
	out, err := formatter.Format(context.Background(), "  ship it  ")
	require.NoError(t, err)
	require.Equal(t, "ship it", out)
}

func TestFormatEmptyInput(t *testing.T) {
	formatter := NewFormatter(testConfig("http://127.0.0.1:1/v1"))
	out, err := formatter.Format(context.Background(), "   ")
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestFormatEmptyModelOutputIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"   "}}]}`))
	}))
	defer server.Close()

	formatter := NewFormatter(testConfig(server.URL + "/v1"))
	_, err := formatter.Format(context.Background(), "this input is long enough to reach the model")
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty text")
}

func TestFormatServerErrorWrapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"model not found"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	formatter := NewFormatter(testConfig(server.URL + "/v1"))
	_, err := formatter.Format(context.Background(), "this input is long enough to reach the model")
	require.Error(t, err)
	require.Contains(t, err.Error(), "llm formatting")
}

func TestFormatTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	cfg := testConfig(server.URL + "/v1")
	cfg.TimeoutSec = 1
	formatter := NewFormatter(cfg)

	start := time.Now()
	_, err := formatter.Format(context.Background(), "this input is long enough to reach the model")
	require.Error(t, err)
	require.Less(t, time.Since(start), 5*time.Second)
}
