package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/BaSui01/uniai/llm"
)

// TestChooseModel_Priority 模型选择优先级：请求 > 配置 > 默认
func TestChooseModel_Priority(t *testing.T) {
	tests := []struct {
		name       string
		requested  string
		configured string
		fallback   string
		want       string
	}{
		{"Request model takes priority", "request-model", "config-model", "default-model", "request-model"},
		{"Config model when request is empty", "", "config-model", "default-model", "config-model"},
		{"Default model when both are empty", "", "", "default-model", "default-model"},
		{"Empty when nothing is set", "", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChooseModel(tt.requested, tt.configured, tt.fallback))
		})
	}
}

func TestEndpoint(t *testing.T) {
	assert.Equal(t, "https://api.example.com/v1/chat", Endpoint("https://api.example.com/", "/v1/chat"))
	assert.Equal(t, "https://api.example.com/v1/chat", Endpoint("https://api.example.com", "/v1/chat"))
}

func TestDeps_WithDefaults(t *testing.T) {
	d := Deps{}.WithDefaults()
	assert.NotNil(t, d.Client)
	assert.NotNil(t, d.Media)
	assert.NotNil(t, d.Tokens)
	assert.NotNil(t, d.Logger)
}

func TestMissingKey(t *testing.T) {
	err := MissingKey(llm.ProviderGLM)
	assert.True(t, llm.IsCode(err, llm.ErrMissingCredential))
	assert.Contains(t, err.Error(), "glm")
}

func TestBodyError(t *testing.T) {
	tests := []struct {
		name string
		body string
		want llm.ErrorCode
	}{
		{"no error", `{"choices":[]}`, ""},
		{"null error", `{"error":null}`, ""},
		{"zero error_code", `{"error_code":0,"error_msg":""}`, ""},
		{"error object", `{"error":{"message":"invalid model"}}`, llm.ErrVendor},
		{"error string", `{"error":"quota exceeded"}`, llm.ErrVendor},
		{"error_code", `{"error_code":110,"error_msg":"Access token invalid"}`, llm.ErrVendor},
		{"blocked", `{"error":{"message":"input data may contain inappropriate content, data_inspection_failed"}}`, llm.ErrContentBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := BodyError(llm.ProviderAliYun, gjson.Parse(tt.body))
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, llm.IsCode(err, tt.want), "got %v", err)
		})
	}

	err := BodyError(llm.ProviderBaidu, gjson.Parse(`{"error_code":110,"error_msg":"Access token invalid"}`))
	assert.Contains(t, err.Error(), "(code: 110)")
}

func TestParseOpenAIResponse(t *testing.T) {
	body := `{
		"object":"chat.completion",
		"model":"gpt-4o",
		"choices":[{"message":{"content":"hello","tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"f","arguments":"{}"}}]},"finish_reason":"stop"}],
		"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}
	}`
	resp, err := ParseOpenAIResponse(llm.ProviderOpenAI, []byte(body), "configured")
	require.NoError(t, err)

	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, "gpt-4o", resp.Model)
	assert.Equal(t, "chat.completion", resp.Object)
	require.Len(t, resp.Tools, 1)
	assert.Equal(t, "call_1", gjson.GetBytes(resp.Tools[0], "id").String())
	assert.Equal(t, 3, resp.PromptTokens)
	assert.Equal(t, 2, resp.CompletionTokens)
	assert.Equal(t, 5, resp.TotalTokens)
}

func TestParseOpenAIResponse_MissingFields(t *testing.T) {
	resp, err := ParseOpenAIResponse(llm.ProviderOther, []byte(`{"choices":[{"message":{"content":"x"}}]}`), "local-model")
	require.NoError(t, err)

	assert.Equal(t, "local-model", resp.Model)
	assert.Equal(t, "chat.completion", resp.Object)
	assert.Nil(t, resp.Tools)
	assert.Zero(t, resp.TotalTokens)
}

func TestParseOpenAIResponse_Errors(t *testing.T) {
	_, err := ParseOpenAIResponse(llm.ProviderOpenAI, []byte(`not json`), "")
	assert.True(t, llm.IsCode(err, llm.ErrTransport))

	_, err = ParseOpenAIResponse(llm.ProviderDeepSeek, []byte(`{"choices":[{"message":{"content":""},"finish_reason":"content_filter"}]}`), "")
	assert.True(t, llm.IsCode(err, llm.ErrContentBlocked))

	_, err = ParseOpenAIResponse(llm.ProviderXAI, []byte(`{"error":{"message":"bad key"}}`), "")
	assert.True(t, llm.IsCode(err, llm.ErrVendor))
}

func TestParseOpenAIEmbedding_SortsByIndex(t *testing.T) {
	body := `{"data":[{"index":1,"embedding":[0.2,0.3]},{"index":0,"embedding":[0.1]}],"model":"m","usage":{"prompt_tokens":4,"total_tokens":4}}`
	resp, err := ParseOpenAIEmbedding(llm.ProviderOpenAI, []byte(body), "", 2)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{0.1}, {0.2, 0.3}}, resp.Embedding)
	assert.Equal(t, "m", resp.Model)
	assert.Equal(t, "embedding", resp.Object)
	assert.Equal(t, 4, resp.PromptTokens)
	assert.Equal(t, 4, resp.TotalTokens)
}

func TestParseOpenAIEmbedding_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		inputs int
		want   llm.ErrorCode
	}{
		{"count mismatch", `{"data":[{"index":0,"embedding":[1]}]}`, 2, llm.ErrVendor},
		{"index out of range", `{"data":[{"index":3,"embedding":[1]}]}`, 1, llm.ErrVendor},
		{"duplicate index", `{"data":[{"index":0,"embedding":[1,2]},{"index":0,"embedding":[3,4]}]}`, 2, llm.ErrVendor},
		{"bad vector", `{"data":[{"index":0,"embedding":"nope"}]}`, 1, llm.ErrTransport},
		{"body error", `{"error":{"message":"nope"}}`, 1, llm.ErrVendor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOpenAIEmbedding(llm.ProviderAliYun, []byte(tt.body), "", tt.inputs)
			assert.True(t, llm.IsCode(err, tt.want), "got %v", err)
		})
	}
}

func TestParseOpenAIEmbedding_OneVectorPerInput(t *testing.T) {
	body := `{"data":[{"embedding":[1]},{"index":2,"embedding":[3]},{"index":1,"embedding":null}]}`
	resp, err := ParseOpenAIEmbedding(llm.ProviderOther, []byte(body), "", 3)
	require.NoError(t, err)

	require.Len(t, resp.Embedding, 3)
	for i, vec := range resp.Embedding {
		assert.NotNil(t, vec, "slot %d", i)
	}
	assert.Equal(t, []float64{1}, resp.Embedding[0])
	assert.Equal(t, []float64{3}, resp.Embedding[2])
}
