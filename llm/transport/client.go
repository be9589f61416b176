package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/uniai/internal/tlsutil"
	"github.com/BaSui01/uniai/llm"
)

// DefaultMaxMediaBytes 远程图片/音频下载上限。
const DefaultMaxMediaBytes int64 = 20 << 20

// Options HTTP 传输配置。
type Options struct {
	ResponseHeaderTimeout time.Duration
	Proxy                 string
	MaxMediaBytes         int64
}

// Client 所有适配器共享的 HTTP 传输层：缓冲 JSON 请求、原始字节流请求、媒体下载。
// 不做任何重试。
type Client struct {
	http          *http.Client
	logger        *zap.Logger
	maxMediaBytes int64
}

// New 根据配置创建 Client。
func New(opts Options, logger *zap.Logger) (*Client, error) {
	var proxy *url.URL
	if opts.Proxy != "" {
		u, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		proxy = u
	}
	hc := tlsutil.StreamingHTTPClient(tlsutil.TransportOptions{
		ResponseHeaderTimeout: opts.ResponseHeaderTimeout,
		Proxy:                 proxy,
	})
	c := NewWithHTTPClient(hc, logger)
	if opts.MaxMediaBytes > 0 {
		c.maxMediaBytes = opts.MaxMediaBytes
	}
	return c, nil
}

// NewWithHTTPClient 使用外部 http.Client，测试中常用 httptest 的客户端。
func NewWithHTTPClient(hc *http.Client, logger *zap.Logger) *Client {
	if hc == nil {
		hc = tlsutil.StreamingHTTPClient(tlsutil.TransportOptions{})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:          hc,
		logger:        logger.With(zap.String("component", "transport")),
		maxMediaBytes: DefaultMaxMediaBytes,
	}
}

// Default 返回默认配置的 Client。
func Default() *Client { return NewWithHTTPClient(nil, nil) }

// PostJSON 发送 JSON 请求并把响应解码到 out。out 为 *json.RawMessage 时保留原始字节。
func (c *Client) PostJSON(ctx context.Context, provider llm.Provider, endpoint string, header http.Header, body, out any) error {
	resp, err := c.do(ctx, provider, http.MethodPost, endpoint, header, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(provider, resp.Body, out)
}

// GetJSON 发送 GET 请求并解码 JSON 响应。
func (c *Client) GetJSON(ctx context.Context, provider llm.Provider, endpoint string, header http.Header, out any) error {
	resp, err := c.do(ctx, provider, http.MethodGet, endpoint, header, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(provider, resp.Body, out)
}

// PostStream 发送请求并返回原始响应体，调用方负责关闭。
// 非 2xx 响应在此处被转换为错误，响应体已关闭。
func (c *Client) PostStream(ctx context.Context, provider llm.Provider, endpoint string, header http.Header, body any) (io.ReadCloser, error) {
	resp, err := c.do(ctx, provider, http.MethodPost, endpoint, header, body)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Fetch 下载远程资源，返回内容与 Content-Type。
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("fetch %s: status %d", redact(rawURL), resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxMediaBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > c.maxMediaBytes {
		return nil, "", fmt.Errorf("fetch %s: larger than %d bytes", redact(rawURL), c.maxMediaBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) do(ctx context.Context, provider llm.Provider, method, endpoint string, header http.Header, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = redact(ue.URL)
		}
		c.logger.Debug("request failed",
			zap.String("provider", string(provider)),
			zap.String("url", redact(endpoint)),
			zap.Error(err))
		return nil, llm.TransportError(provider, err)
	}
	c.logger.Debug("request sent",
		zap.String("provider", string(provider)),
		zap.String("method", method),
		zap.String("url", redact(endpoint)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		e := MapHTTPError(resp.StatusCode, ErrorMessage(data), provider)
		// 错误码字段里的审核标记
		if e.Code == llm.ErrVendor && resp.StatusCode < 500 && IsBlocked(string(data)) {
			e.Code = llm.ErrContentBlocked
		}
		return nil, e
	}
	return resp, nil
}

func decode(provider llm.Provider, r io.Reader, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, r)
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return llm.TransportError(provider, err)
		}
		*raw = data
		return nil
	}
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return llm.TransportError(provider, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// redact 去掉查询串，避免把 key / access_token 写进日志。
func redact(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}
