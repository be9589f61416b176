package transport

import (
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/BaSui01/uniai/llm"
)

// 命中以下关键字的 400 响应视为内容安全拦截。
var blockedKeywords = []string{"content_filter", "content filter", "sensitive", "safety", "moderation", "data_inspection_failed"}

// MapHTTPError 将 HTTP 状态码映射为 llm.Error。
// 所有非 2xx 响应都归为 VendorError，内容审核类响应归为 ContentBlocked。
func MapHTTPError(status int, msg string, provider llm.Provider) *llm.Error {
	e := &llm.Error{
		Code:       llm.ErrVendor,
		Message:    msg,
		HTTPStatus: status,
		Provider:   string(provider),
	}
	switch {
	case status == http.StatusUnavailableForLegalReasons:
		e.Code = llm.ErrContentBlocked
	case (status == http.StatusBadRequest || status == http.StatusForbidden) && IsBlocked(msg):
		e.Code = llm.ErrContentBlocked
	case status == http.StatusTooManyRequests, status >= 500:
		e.Retryable = true
	}
	return e
}

// IsBlocked 判断错误文本是否为内容安全拦截。
func IsBlocked(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range blockedKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// errorPaths 各服务商错误消息所在的 JSON 路径，按顺序尝试。
var errorPaths = []string{"error.message", "error_msg", "message", "msg", "error.msg", "error"}

// ErrorMessage 从错误响应体中提取可读消息。
func ErrorMessage(data []byte) string {
	if gjson.ValidBytes(data) {
		for _, p := range errorPaths {
			if v := gjson.GetBytes(data, p); v.Type == gjson.String && v.String() != "" {
				if t := gjson.GetBytes(data, "error.type"); t.Exists() && p == "error.message" {
					return v.String() + " (type: " + t.String() + ")"
				}
				return v.String()
			}
		}
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "empty error response"
	}
	return text
}
