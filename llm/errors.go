package llm

import (
	"errors"
	"fmt"
)

// 统一错误码，覆盖适配层对调用方暴露的全部失败类别。
type ErrorCode string

const (
	ErrMissingCredential   ErrorCode = "LLM_MISSING_CREDENTIAL"   // 未配置密钥或地址
	ErrUnsupportedProvider ErrorCode = "LLM_UNSUPPORTED_PROVIDER" // 未知服务商或能力不支持
	ErrEmptyInput          ErrorCode = "LLM_EMPTY_INPUT"          // 格式化后没有可用内容
	ErrUnsupportedFormat   ErrorCode = "LLM_UNSUPPORTED_FORMAT"   // 图片/音频格式不被服务商接受
	ErrVendor              ErrorCode = "LLM_VENDOR_ERROR"         // 服务商返回显式错误
	ErrContentBlocked      ErrorCode = "LLM_CONTENT_BLOCKED"      // 命中内容安全
	ErrTransport           ErrorCode = "LLM_TRANSPORT_ERROR"      // 网络或解析失败
)

type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
	Cause      error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Provider == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError 构造带格式化消息的错误。
func NewError(code ErrorCode, provider Provider, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Provider: string(provider)}
}

// TransportError 包装网络或解析错误，已是 *Error 的原样返回。
func TransportError(provider Provider, err error) error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return err
	}
	return &Error{
		Code:      ErrTransport,
		Message:   err.Error(),
		Retryable: true,
		Provider:  string(provider),
		Cause:     err,
	}
}

// CodeOf 返回错误链中第一个 *Error 的错误码，没有则返回空串。
func CodeOf(err error) ErrorCode {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsCode 判断错误链中是否包含指定错误码。
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }
