package transport

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BaSui01/uniai/llm"
)

func TestMapHTTPError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		msg       string
		code      llm.ErrorCode
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, "invalid api key", llm.ErrVendor, false},
		{"bad request", http.StatusBadRequest, "invalid model", llm.ErrVendor, false},
		{"moderation 400", http.StatusBadRequest, "Content filter triggered", llm.ErrContentBlocked, false},
		{"moderation 403", http.StatusForbidden, "sensitive words detected", llm.ErrContentBlocked, false},
		{"legal", http.StatusUnavailableForLegalReasons, "blocked", llm.ErrContentBlocked, false},
		{"rate limited", http.StatusTooManyRequests, "slow down", llm.ErrVendor, true},
		{"upstream", http.StatusBadGateway, "bad gateway", llm.ErrVendor, true},
		{"safety on 500 stays vendor", http.StatusInternalServerError, "safety system down", llm.ErrVendor, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := MapHTTPError(tt.status, tt.msg, llm.ProviderOpenAI)
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, tt.retryable, e.Retryable)
			assert.Equal(t, tt.status, e.HTTPStatus)
			assert.Equal(t, "openai", e.Provider)
			assert.Equal(t, tt.msg, e.Message)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"openai", `{"error":{"message":"bad key","type":"invalid_request_error"}}`, "bad key (type: invalid_request_error)"},
		{"openai without type", `{"error":{"message":"bad key"}}`, "bad key"},
		{"baidu", `{"error_code":17,"error_msg":"Open api daily request limit reached"}`, "Open api daily request limit reached"},
		{"message", `{"code":10007,"message":"account suspended"}`, "account suspended"},
		{"msg", `{"msg":"quota"}`, "quota"},
		{"error string", `{"error":"not found"}`, "not found"},
		{"plain text", "  upstream timeout \n", "upstream timeout"},
		{"empty", "", "empty error response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage([]byte(tt.body)))
		})
	}
}

func TestIsBlocked(t *testing.T) {
	assert.True(t, IsBlocked("Output data may contain inappropriate content: data_inspection_failed"))
	assert.True(t, IsBlocked("MODERATION"))
	assert.False(t, IsBlocked("invalid api key"))
}
