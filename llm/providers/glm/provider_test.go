package glm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/providers"
	"github.com/BaSui01/uniai/llm/tokencache"
)

type capture struct {
	auth []string
	body gjson.Result
}

func newServer(t *testing.T, reply string) (*httptest.Server, *capture) {
	t.Helper()
	c := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		c.auth = append(c.auth, r.Header.Get("Authorization"))
		c.body = gjson.ParseBytes(data)
		if strings.HasPrefix(reply, "data:") {
			w.Header().Set("Content-Type", "text/event-stream")
		}
		fmt.Fprint(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func TestGLMProvider_ChatRequest(t *testing.T) {
	srv, c := newServer(t, `{"model":"glm-3-turbo","choices":[{"message":{"content":"你好"}}]}`)
	p := NewGLMProvider(providers.GLMConfig{BaseProviderConfig: providers.BaseProviderConfig{
		Keys: []string{"plain"}, BaseURL: srv.URL,
	}}, providers.Deps{})

	msgs := []llm.ChatMessage{{Role: llm.RoleUser, Content: llm.Strings{"看图"}, Img: llm.Strings{"https://example.com/a.png"}}}
	resp, err := p.Chat(context.Background(), msgs, llm.ChatOption{Temperature: llm.Float(0), Top: llm.Float(1)})
	require.NoError(t, err)

	assert.Equal(t, "你好", resp.Content)
	assert.Equal(t, "Bearer plain", c.auth[0])
	assert.Equal(t, DefaultModel, c.body.Get("model").String())
	assert.Equal(t, 0.1, c.body.Get("temperature").Float())
	assert.Equal(t, 0.9, c.body.Get("top_p").Float())
	_, err = uuid.Parse(c.body.Get("request_id").String())
	assert.NoError(t, err)
	// 非视觉模型只保留文本
	assert.Equal(t, gjson.String, c.body.Get("messages.0.content").Type)
}

func TestGLMProvider_VisionModelKeepsImages(t *testing.T) {
	srv, c := newServer(t, `{"choices":[{"message":{"content":"ok"}}]}`)
	p := NewGLMProvider(providers.GLMConfig{BaseProviderConfig: providers.BaseProviderConfig{
		Keys: []string{"k"}, BaseURL: srv.URL,
	}}, providers.Deps{})

	msgs := []llm.ChatMessage{{Role: llm.RoleUser, Content: llm.Strings{"看图"}, Img: llm.Strings{"https://example.com/a.png"}}}
	_, err := p.Chat(context.Background(), msgs, llm.ChatOption{Model: "glm-4v"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.png", c.body.Get("messages.0.content.#(type==\"image_url\").image_url.url").String())
}

func TestGLMProvider_StreamSkipsEmptySnapshots(t *testing.T) {
	sse := "data: {\"model\":\"glm-3-turbo\",\"choices\":[{\"delta\":{\"role\":\"assistant\",\"content\":\"\"}}]}\n\n" +
		"data: {\"model\":\"glm-3-turbo\",\"choices\":[{\"delta\":{\"content\":\"A\"}}]}\n\n" +
		"data: {\"model\":\"glm-3-turbo\",\"choices\":[{\"delta\":{\"content\":\"B\"}}]}\n\n" +
		"data: {\"model\":\"glm-3-turbo\",\"choices\":[{\"delta\":{\"content\":\"\"},\"finish_reason\":\"stop\"}],\"usage\":{\"prompt_tokens\":5,\"completion_tokens\":2,\"total_tokens\":7}}\n\n" +
		"data: [DONE]\n\n"
	srv, _ := newServer(t, sse)
	p := NewGLMProvider(providers.GLMConfig{BaseProviderConfig: providers.BaseProviderConfig{
		Keys: []string{"k"}, BaseURL: srv.URL,
	}}, providers.Deps{})

	s, err := p.ChatStream(context.Background(), llm.Prompt("hi"), llm.ChatOption{})
	require.NoError(t, err)
	snaps, err := llm.ReadAll(s)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "A", snaps[0].Content)
	assert.Equal(t, "B", snaps[1].Content)
}

func TestGLMProvider_JWTAuthIsCached(t *testing.T) {
	srv, c := newServer(t, `{"choices":[{"message":{"content":"ok"}}]}`)
	tokens := tokencache.New(tokencache.NewMemoryStore())
	p := NewGLMProvider(providers.GLMConfig{
		BaseProviderConfig: providers.BaseProviderConfig{Keys: []string{"my-id.my-secret"}, BaseURL: srv.URL},
		JWT:                true,
	}, providers.Deps{Tokens: tokens})

	for i := 0; i < 2; i++ {
		_, err := p.Chat(context.Background(), llm.Prompt("hi"), llm.ChatOption{})
		require.NoError(t, err)
	}
	require.Len(t, c.auth, 2)
	assert.Equal(t, c.auth[0], c.auth[1])

	raw := strings.TrimPrefix(c.auth[0], "Bearer ")
	parsed, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return []byte("my-secret"), nil },
		jwt.WithValidMethods([]string{"HS256"}), jwt.WithoutClaimsValidation())
	require.NoError(t, err)
	assert.Equal(t, "SIGN", parsed.Header["sign_type"])
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "my-id", claims["api_key"])

	e, ok := tokens.Get(context.Background(), "glm_jwt_my-id")
	require.True(t, ok)
	assert.Equal(t, raw, e.AccessToken)
}

func TestSign_Claims(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	raw, err := Sign("id", "secret", now, time.Hour)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return []byte("secret"), nil },
		jwt.WithoutClaimsValidation())
	require.NoError(t, err)
	assert.EqualValues(t, now.UnixMilli(), claims["timestamp"])
	assert.EqualValues(t, now.Add(time.Hour).UnixMilli(), claims["exp"])
}

func TestGLMProvider_Embedding(t *testing.T) {
	srv, c := newServer(t, `{"data":[{"index":0,"embedding":[0.1,0.2]}],"usage":{"prompt_tokens":2,"total_tokens":2}}`)
	p := NewGLMProvider(providers.GLMConfig{BaseProviderConfig: providers.BaseProviderConfig{
		Keys: []string{"k"}, BaseURL: srv.URL,
	}}, providers.Deps{})

	resp, err := p.Embedding(context.Background(), []string{"文本"}, llm.EmbedOption{})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.1, 0.2}}, resp.Embedding)
	assert.Equal(t, DefaultEmbedModel, c.body.Get("model").String())
	assert.Equal(t, int64(DefaultDimensions), c.body.Get("dimensions").Int())
}
