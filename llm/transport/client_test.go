package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/uniai/llm"
)

func TestClient_PostJSON(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := NewWithHTTPClient(server.Client(), nil)
	header := http.Header{}
	header.Set("Authorization", "Bearer k")

	var out struct {
		OK bool `json:"ok"`
	}
	err := c.PostJSON(context.Background(), llm.ProviderOpenAI, server.URL, header, map[string]any{"model": "m"}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, "m", gotBody["model"])

	var raw json.RawMessage
	require.NoError(t, c.PostJSON(context.Background(), llm.ProviderOpenAI, server.URL, header, map[string]any{}, &raw))
	assert.JSONEq(t, `{"ok":true}`, string(raw))
}

func TestClient_HTTPErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  llm.ErrorCode
		wantMsg   string
		retryable bool
	}{
		{"openai style", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`, llm.ErrVendor, "Incorrect API key (type: invalid_request_error)", false},
		{"baidu style", http.StatusBadRequest, `{"error_code":17,"error_msg":"Open api daily request limit reached"}`, llm.ErrVendor, "Open api daily request limit reached", false},
		{"moderation", http.StatusBadRequest, `{"error":{"message":"Input data may contain inappropriate content.","code":"data_inspection_failed"}}`, llm.ErrContentBlocked, "", false},
		{"rate limited", http.StatusTooManyRequests, `slow down`, llm.ErrVendor, "slow down", true},
		{"server error", http.StatusBadGateway, ``, llm.ErrVendor, "empty error response", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			c := NewWithHTTPClient(server.Client(), nil)
			err := c.PostJSON(context.Background(), llm.ProviderGLM, server.URL, nil, map[string]any{}, nil)
			require.Error(t, err)
			var le *llm.Error
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.wantCode, le.Code)
			assert.Equal(t, tt.status, le.HTTPStatus)
			assert.Equal(t, tt.retryable, le.Retryable)
			assert.Equal(t, "glm", le.Provider)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, le.Message)
			}
		})
	}
}

func TestClient_TransportErrorRedactsQuery(t *testing.T) {
	c := NewWithHTTPClient(&http.Client{}, nil)
	err := c.PostJSON(context.Background(), llm.ProviderGoogle, "http://127.0.0.1:1/v1beta/models/x:generateContent?key=secret", nil, map[string]any{}, nil)
	require.Error(t, err)
	assert.True(t, llm.IsCode(err, llm.ErrTransport))
	assert.NotContains(t, err.Error(), "secret")
}

func TestClient_PostStreamReturnsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "data: {}\n\n")
	}))
	defer server.Close()

	c := NewWithHTTPClient(server.Client(), nil)
	body, err := c.PostStream(context.Background(), llm.ProviderOpenAI, server.URL, nil, map[string]any{"stream": true})
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "data: {}\n\n", string(data))
}

func TestClient_FetchLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		io.WriteString(w, strings.Repeat("x", 32))
	}))
	defer server.Close()

	c := NewWithHTTPClient(server.Client(), nil)
	data, mime, err := c.Fetch(context.Background(), server.URL+"/a.png")
	require.NoError(t, err)
	assert.Len(t, data, 32)
	assert.Equal(t, "image/png", mime)

	c.maxMediaBytes = 16
	_, _, err = c.Fetch(context.Background(), server.URL+"/a.png")
	assert.Error(t, err)
}

func TestNew_InvalidProxy(t *testing.T) {
	_, err := New(Options{Proxy: "://bad"}, nil)
	assert.Error(t, err)

	c, err := New(Options{Proxy: "http://127.0.0.1:8080", MaxMediaBytes: 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), c.maxMediaBytes)
}
