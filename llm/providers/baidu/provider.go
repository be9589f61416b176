package baidu

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/format"
	"github.com/BaSui01/uniai/llm/providers"
	"github.com/BaSui01/uniai/llm/streaming"
)

const (
	// DefaultBaseURL 百度智能云千帆地址.
	DefaultBaseURL = "https://aip.baidubce.com"
	// DefaultModel ERNIE 3.5 的接口名.
	DefaultModel = "completions"

	// TokenCacheKey access_token 在令牌缓存中的键.
	TokenCacheKey = "baidu_access_token"
)

var (
	// temperature 取值 (0,1]
	temperatureBound = &llm.Bound{Low: 0, High: 1, LowOpen: true, LowTo: 0.1, HighTo: 1}
	topBound         = llm.Closed(0, 1)
)

// BaiduProvider 实现百度文心 (ERNIE) 提供者.
// 调用前先用 API Key / Secret Key 换取 access_token，令牌按绝对过期时间缓存.
type BaiduProvider struct {
	cfg    providers.BaiduConfig
	deps   providers.Deps
	logger *zap.Logger
}

// NewBaiduProvider 创建新的百度文心提供者实例.
func NewBaiduProvider(cfg providers.BaiduConfig, deps providers.Deps) *BaiduProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	deps = deps.WithDefaults()
	return &BaiduProvider{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.With(zap.String("provider", string(llm.ProviderBaidu))),
	}
}

func (p *BaiduProvider) Name() llm.Provider { return llm.ProviderBaidu }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages        []chatMessage `json:"messages"`
	System          string        `json:"system,omitempty"`
	Stream          bool          `json:"stream,omitempty"`
	Temperature     *float64      `json:"temperature,omitempty"`
	TopP            *float64      `json:"top_p,omitempty"`
	MaxOutputTokens int           `json:"max_output_tokens,omitempty"`
}

// accessToken 返回缓存的 access_token，过期或缺失时重新换取.
func (p *BaiduProvider) accessToken(ctx context.Context) (string, error) {
	clientID := llm.PickKey(p.cfg.Keys)
	if clientID == "" {
		return "", providers.MissingKey(p.Name())
	}
	if p.cfg.SecretKey == "" {
		return "", llm.NewError(llm.ErrMissingCredential, p.Name(), "secret key is not set in config")
	}
	return p.deps.Tokens.Token(ctx, TokenCacheKey, func(ctx context.Context) (string, time.Duration, error) {
		q := url.Values{}
		q.Set("grant_type", "client_credentials")
		q.Set("client_id", clientID)
		q.Set("client_secret", p.cfg.SecretKey)

		var raw json.RawMessage
		endpoint := providers.Endpoint(p.cfg.BaseURL, "/oauth/2.0/token") + "?" + q.Encode()
		if err := p.deps.Client.GetJSON(ctx, p.Name(), endpoint, nil, &raw); err != nil {
			return "", 0, err
		}
		r := gjson.ParseBytes(raw)
		if e := r.Get("error"); e.Exists() {
			return "", 0, llm.NewError(llm.ErrVendor, p.Name(), "access token: %s", r.Get("error_description").String())
		}
		token := r.Get("access_token").String()
		if token == "" {
			return "", 0, llm.NewError(llm.ErrVendor, p.Name(), "access token missing in response")
		}
		p.logger.Debug("access token refreshed", zap.Int64("expires_in", r.Get("expires_in").Int()))
		return token, time.Duration(r.Get("expires_in").Int()) * time.Second, nil
	})
}

// buildRequest 文心要求 user / assistant 严格交替且以非空 user 结尾，不支持图片与音频.
func (p *BaiduProvider) buildRequest(msgs []llm.ChatMessage, opt llm.ChatOption, stream bool) (*chatRequest, error) {
	system, turns := format.Alternate(msgs)
	if len(turns) == 0 || turns[len(turns)-1].Closed || strings.TrimSpace(turns[len(turns)-1].User) == "" {
		return nil, llm.NewError(llm.ErrEmptyInput, p.Name(), "user input nothing")
	}

	req := &chatRequest{
		System:          system,
		Stream:          stream,
		Temperature:     temperatureBound.Apply(opt.Temperature),
		TopP:            topBound.Apply(opt.Top),
		MaxOutputTokens: opt.MaxLength,
	}
	for _, t := range turns {
		if len(t.Images) > 0 || len(t.Audio) > 0 {
			p.logger.Debug("attachments dropped, not supported", zap.Int("images", len(t.Images)), zap.Int("audio", len(t.Audio)))
		}
		user := strings.TrimSpace(t.User)
		if user == "" {
			user = " "
		}
		req.Messages = append(req.Messages, chatMessage{Role: "user", Content: user})
		if t.Closed {
			req.Messages = append(req.Messages, chatMessage{Role: "assistant", Content: t.Assistant})
		}
	}
	return req, nil
}

func (p *BaiduProvider) endpoint(model, token string) string {
	return providers.Endpoint(p.cfg.BaseURL, "/rpc/2.0/ai_custom/v1/wenxinworkshop/chat/"+url.PathEscape(model)) +
		"?access_token=" + url.QueryEscape(token)
}

// Chat 发送非流式请求.
func (p *BaiduProvider) Chat(ctx context.Context, msgs []llm.ChatMessage, opt llm.ChatOption) (*llm.ChatResponse, error) {
	model := providers.ChooseModel(opt.Model, p.cfg.Model, DefaultModel)
	body, err := p.buildRequest(msgs, opt, false)
	if err != nil {
		return nil, err
	}
	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := p.deps.Client.PostJSON(ctx, p.Name(), p.endpoint(model, token), nil, body, &raw); err != nil {
		return nil, err
	}
	r, err := streaming.Parse(p.Name(), raw)
	if err != nil {
		return nil, err
	}
	resp := &llm.ChatResponse{Model: model, Object: "chat.completion"}
	if _, err := extract(r, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ChatStream 发送流式请求，文心的 SSE 事件每条都带 result 片段与累计用量.
func (p *BaiduProvider) ChatStream(ctx context.Context, msgs []llm.ChatMessage, opt llm.ChatOption) (*llm.Stream, error) {
	model := providers.ChooseModel(opt.Model, p.cfg.Model, DefaultModel)
	body, err := p.buildRequest(msgs, opt, true)
	if err != nil {
		return nil, err
	}
	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	rc, err := p.deps.Client.PostStream(ctx, p.Name(), p.endpoint(model, token), nil, body)
	if err != nil {
		return nil, err
	}
	base := llm.ChatResponse{Model: model, Object: "chat.completion.chunk"}
	return streaming.Pipe(ctx, p.Name(), rc, streaming.NewSSEDecoder(rc), func(ev streaming.Event, snap *llm.ChatResponse) (bool, error) {
		r, err := streaming.Parse(llm.ProviderBaidu, ev.Data)
		if err != nil {
			return false, err
		}
		usage, err := extract(r, snap)
		if err != nil {
			return false, err
		}
		return snap.Content != "" || usage, nil
	}, base, p.logger), nil
}

// extract 写入 result、object 与用量，返回是否带用量.
func extract(r gjson.Result, resp *llm.ChatResponse) (bool, error) {
	if err := providers.BodyError(llm.ProviderBaidu, r); err != nil {
		return false, err
	}
	if r.Get("need_clear_history").Bool() {
		return false, llm.NewError(llm.ErrContentBlocked, llm.ProviderBaidu,
			"Content blocked, reason: ban_round %d", r.Get("ban_round").Int())
	}
	resp.Content = r.Get("result").String()
	if o := r.Get("object").String(); o != "" {
		resp.Object = o
	}
	u := r.Get("usage")
	if !u.IsObject() {
		return false, nil
	}
	return streaming.ApplyUsage(resp, u.Get("prompt_tokens"), u.Get("completion_tokens"), u.Get("total_tokens")), nil
}
