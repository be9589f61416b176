package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/providers"
)

func TestNewOpenAIProvider_Defaults(t *testing.T) {
	p := NewOpenAIProvider(providers.OpenAIConfig{}, providers.Deps{})
	assert.Equal(t, llm.ProviderOpenAI, p.Name())
	assert.Equal(t, DefaultBaseURL, p.Cfg.BaseURL)
	assert.Equal(t, DefaultModel, p.Cfg.DefaultModel)
	assert.True(t, p.SupportsEmbedding())
	assert.True(t, p.SupportsNativeFunctionCalling())

	_, err := p.Chat(context.Background(), llm.Prompt("hi"), llm.ChatOption{})
	assert.True(t, llm.IsCode(err, llm.ErrMissingCredential))
}

func TestOpenAIProvider_ChatRequestShape(t *testing.T) {
	var body gjson.Result
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = gjson.ParseBytes(data)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"model\":\"gpt-4.1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\n"+
			"data: {\"model\":\"gpt-4.1\",\"object\":\"chat.completion.chunk\",\"choices\":[],\"usage\":{\"prompt_tokens\":3,\"completion_tokens\":1,\"total_tokens\":4}}\n\n"+
			"data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := NewOpenAIProvider(providers.OpenAIConfig{BaseProviderConfig: providers.BaseProviderConfig{
		Keys: []string{"sk-1", "sk-2"}, BaseURL: srv.URL,
	}}, providers.Deps{})
	s, err := p.ChatStream(context.Background(), llm.Prompt("hi"), llm.ChatOption{MaxLength: 100, Temperature: llm.Float(1.5)})
	require.NoError(t, err)
	resp, err := llm.Collect(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, "Hi", resp.Content)
	assert.Equal(t, 4, resp.TotalTokens)
	assert.Equal(t, int64(100), body.Get("max_completion_tokens").Int())
	assert.False(t, body.Get("max_tokens").Exists())
	assert.Equal(t, 1.0, body.Get("temperature").Float())
	assert.True(t, body.Get("stream_options.include_usage").Bool())
}

func TestOpenAIProvider_EmbeddingDimensions(t *testing.T) {
	var body gjson.Result
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = gjson.ParseBytes(data)
		fmt.Fprint(w, `{"data":[{"index":0,"embedding":[0.5]}],"model":"m","usage":{"prompt_tokens":1,"total_tokens":1}}`)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(providers.OpenAIConfig{BaseProviderConfig: providers.BaseProviderConfig{
		Keys: []string{"sk"}, BaseURL: srv.URL,
	}}, providers.Deps{})

	_, err := p.Embedding(context.Background(), []string{"x"}, llm.EmbedOption{})
	require.NoError(t, err)
	assert.Equal(t, DefaultEmbedModel, body.Get("model").String())
	assert.False(t, body.Get("dimensions").Exists())

	_, err = p.Embedding(context.Background(), []string{"x"}, llm.EmbedOption{Model: "text-embedding-3-small"})
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultDimensions), body.Get("dimensions").Int())
}
