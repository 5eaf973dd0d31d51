package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	openaiopt "github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-insight/internal/llm/claude"
	"stock-insight/internal/llm/gemini"
	"stock-insight/internal/llm/llmobs"
	"stock-insight/internal/llm/noop"
	"stock-insight/internal/llm/openai"
	"stock-insight/internal/store"
)

func llmConfig() store.LLMConfig {
	cfg := store.Default().LLM
	cfg.Model = "test-model"
	return cfg
}

func TestClaudeNarrator(t *testing.T) {
	t.Setenv("CLAUDE_API_KEY", "test-key")
	t.Setenv("CLAUDE_API_ENDPOINT", "")

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/messages"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"test-model",
			"content":[{"type":"text","text":"  Neutral outlook with mild optimism. "}],
			"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":7}}`))
	}))
	t.Cleanup(srv.Close)

	n := claude.NewNarrator(llmConfig(), anthropicopt.WithBaseURL(srv.URL+"/"), anthropicopt.WithMaxRetries(0))
	text, err := n.Explain(context.Background(), "explain AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Neutral outlook with mild optimism.", text)
	assert.Equal(t, "test-model", got["model"])
}

func TestClaudeNarratorMissingKey(t *testing.T) {
	t.Setenv("CLAUDE_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := claude.NewNarrator(llmConfig()).Explain(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLAUDE_API_KEY missing")
}

func TestOpenAINarrator(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"test-model",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Bearish tilt, high risk."}}]}`))
	}))
	t.Cleanup(srv.Close)

	n := openai.NewNarrator(llmConfig(), openaiopt.WithBaseURL(srv.URL+"/"), openaiopt.WithMaxRetries(0))
	text, err := n.Explain(context.Background(), "explain TSLA")
	require.NoError(t, err)
	assert.Equal(t, "Bearish tilt, high risk.", text)
}

func TestOpenAINarratorNoChoices(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"test-model","choices":[]}`))
	}))
	t.Cleanup(srv.Close)

	n := openai.NewNarrator(llmConfig(), openaiopt.WithBaseURL(srv.URL+"/"), openaiopt.WithMaxRetries(0))
	_, err := n.Explain(context.Background(), "explain TSLA")
	require.Error(t, err)
}

func TestGeminiNarratorMissingKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	n := gemini.NewNarrator(llmConfig())
	_, err := n.Explain(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY missing")
}

func TestNoopNarrator(t *testing.T) {
	text, err := noop.NewNarrator().Explain(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, text)
}

type failingNarrator struct{}

func (failingNarrator) Explain(context.Context, string) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestObservableNarratorPassesThrough(t *testing.T) {
	_, err := llmobs.Wrap(failingNarrator{}, "TEST").Explain(context.Background(), "x")
	assert.EqualError(t, err, "quota exceeded")

	text, err := llmobs.Wrap(noop.NewNarrator(), "NONE").Explain(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, text)
}
