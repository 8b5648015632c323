package openrouter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/contract-auditor/internal/common"
	"github.com/joseph-ayodele/contract-auditor/internal/llm"
)

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	require.Error(t, err)
	assert.Equal(t, common.KindConfig, common.KindOf(err))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/", Temperature: 0.2, Title: "contract-auditor"}, nil)
	require.NoError(t, err)
	return c
}

func TestComplete_SendsPromptAndReturnsContent(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "contract-auditor", r.Header.Get("X-Title"))
		assert.Equal(t, "req-123", r.Header.Get("X-Request-ID"))
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"healthScore\": 80}"}}]}`))
	})

	ctx := common.WithRequestID(context.Background(), "req-123")
	content, err := c.Complete(ctx, "This Agreement is made between...")
	require.NoError(t, err)
	require.NotNil(t, content)
	assert.Equal(t, `{"healthScore": 80}`, *content)

	assert.Equal(t, "meta-llama/llama-3.3-70b-instruct", got.Model)
	assert.InDelta(t, 0.2, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, llm.SystemPrompt, got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "This Agreement is made between...", got.Messages[1].Content)
}

func TestComplete_AbsentContent(t *testing.T) {
	for name, body := range map[string]string{
		"no choices":   `{"choices":[]}`,
		"null content": `{"choices":[{"message":{"content":null}}]}`,
		"no content":   `{"choices":[{"message":{"role":"assistant"}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			content, err := c.Complete(context.Background(), "text")
			require.NoError(t, err)
			assert.Nil(t, content)

			_, err = llm.Recover(content)
			assert.Equal(t, common.KindEmptyModelResponse, common.KindOf(err))
		})
	}
}

func TestComplete_UpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	})

	_, err := c.Complete(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, common.KindUpstream, common.KindOf(err))
	assert.Contains(t, common.DetailOf(err), "rate limited")
}

func TestComplete_UndecodableBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	})

	_, err := c.Complete(context.Background(), "text")
	assert.Equal(t, common.KindUpstream, common.KindOf(err))
}
