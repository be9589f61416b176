package gemini

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/format"
	"github.com/BaSui01/uniai/llm/providers"
	"github.com/BaSui01/uniai/llm/streaming"
)

const (
	// DefaultBaseURL Gemini API 地址.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	// DefaultModel 未指定模型时使用.
	DefaultModel = "gemini-2.5-pro"
	// DefaultEmbedModel 未指定 Embedding 模型时使用.
	DefaultEmbedModel = "gemini-embedding-001"
	// DefaultDimensions Embedding 默认输出维度.
	DefaultDimensions = 768

	// embedConcurrency 单次 Embedding 调用的最大并发请求数.
	embedConcurrency = 8
)

var (
	temperatureBound = llm.Closed(0, 1)
	topBound         = llm.Closed(0, 1)

	// 关闭全部可配置的安全过滤，拦截仍通过 promptFeedback 返回.
	safetySettings = []safetySetting{
		{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"},
		{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_NONE"},
		{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_NONE"},
		{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
	}

	// 这些结束原因表示内容被安全策略拦截.
	blockedFinish = map[string]bool{
		"SAFETY":             true,
		"PROHIBITED_CONTENT": true,
		"BLOCKLIST":          true,
		"SPII":               true,
		"RECITATION":         true,
	}
)

// GeminiProvider 实现 Google Gemini 的 LLM Provider.
// Gemini API 特点：
// 1. 使用 key 查询参数认证
// 2. 角色只有 user / model，且必须交替出现
// 3. 流式接口返回一个逐步写出的 JSON 数组，而不是 SSE
type GeminiProvider struct {
	cfg    providers.GeminiConfig
	deps   providers.Deps
	logger *zap.Logger
}

// NewGeminiProvider 创建 Gemini Provider.
func NewGeminiProvider(cfg providers.GeminiConfig, deps providers.Deps) *GeminiProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	deps = deps.WithDefaults()
	return &GeminiProvider{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.With(zap.String("provider", string(llm.ProviderGoogle))),
	}
}

func (p *GeminiProvider) Name() llm.Provider { return llm.ProviderGoogle }

func (p *GeminiProvider) SupportsEmbedding() bool { return true }

// Gemini API 类型
type geminiPart struct {
	Text       *string     `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateRequest struct {
	Contents          []geminiContent  `json:"contents"`
	SystemInstruction *geminiContent   `json:"system_instruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	SafetySettings    []safetySetting  `json:"safetySettings"`
}

type embedRequest struct {
	Model                string        `json:"model"`
	Content              geminiContent `json:"content"`
	OutputDimensionality int           `json:"output_dimensionality,omitempty"`
}

func textPart(s string) geminiPart { return geminiPart{Text: &s} }

// endpoint 拼接 models/{model}:{method}?key=.
func (p *GeminiProvider) endpoint(model, method, key string) string {
	return providers.Endpoint(p.cfg.BaseURL, "/v1beta/models/"+url.PathEscape(model)+":"+method) +
		"?key=" + url.QueryEscape(key)
}

// buildRequest 构造 generateContent 请求体.
func (p *GeminiProvider) buildRequest(ctx context.Context, msgs []llm.ChatMessage, opt llm.ChatOption) (*generateRequest, error) {
	system, turns := format.Alternate(msgs)
	if err := format.CheckTurns(p.Name(), turns); err != nil {
		return nil, err
	}

	contents, err := p.convertTurns(ctx, turns)
	if err != nil {
		return nil, err
	}
	req := &generateRequest{
		Contents: contents,
		GenerationConfig: generationConfig{
			Temperature:     temperatureBound.Apply(opt.Temperature),
			TopP:            topBound.Apply(opt.Top),
			MaxOutputTokens: opt.MaxLength,
		},
		SafetySettings: safetySettings,
	}
	if system != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{textPart(system)}}
	}
	return req, nil
}

// convertTurns 每个轮次展开为 user + model 两条内容，最后一条总是 user.
// 空白的用户文本以单个空格代替，Gemini 不接受空 parts.
func (p *GeminiProvider) convertTurns(ctx context.Context, turns []format.Turn) ([]geminiContent, error) {
	out := make([]geminiContent, 0, len(turns)*2+1)
	for _, t := range turns {
		user, err := p.userContent(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
		if t.Closed {
			out = append(out, geminiContent{Role: "model", Parts: []geminiPart{textPart(t.Assistant)}})
		}
	}
	if len(turns) == 0 || turns[len(turns)-1].Closed {
		out = append(out, geminiContent{Role: "user", Parts: []geminiPart{textPart(" ")}})
	}
	return out, nil
}

func (p *GeminiProvider) userContent(ctx context.Context, t format.Turn) (geminiContent, error) {
	text := strings.TrimSpace(t.User)
	if text == "" {
		text = " "
	}
	c := geminiContent{Role: "user", Parts: []geminiPart{textPart(text)}}

	images, err := p.deps.Media.ResolveAll(ctx, p.Name(), t.Images, format.ImagePolicy("image/png"))
	if err != nil {
		return c, err
	}
	clips, err := p.deps.Media.ResolveAll(ctx, p.Name(), t.Audio, format.AudioPolicy())
	if err != nil {
		return c, err
	}
	for _, m := range append(images, clips...) {
		c.Parts = append(c.Parts, geminiPart{InlineData: &inlineData{MimeType: m.MIME, Data: m.Data}})
	}
	return c, nil
}

// Chat 调用 generateContent.
func (p *GeminiProvider) Chat(ctx context.Context, msgs []llm.ChatMessage, opt llm.ChatOption) (*llm.ChatResponse, error) {
	key := llm.PickKey(p.cfg.Keys)
	if key == "" {
		return nil, providers.MissingKey(p.Name())
	}
	model := providers.ChooseModel(opt.Model, p.cfg.Model, DefaultModel)
	body, err := p.buildRequest(ctx, msgs, opt)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := p.deps.Client.PostJSON(ctx, p.Name(), p.endpoint(model, "generateContent", key), nil, body, &raw); err != nil {
		return nil, err
	}
	r, err := streaming.Parse(p.Name(), raw)
	if err != nil {
		return nil, err
	}

	resp := &llm.ChatResponse{Model: model, Object: "chat.completion"}
	if err := extract(r, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ChatStream 调用 streamGenerateContent，响应为 JSON 数组.
func (p *GeminiProvider) ChatStream(ctx context.Context, msgs []llm.ChatMessage, opt llm.ChatOption) (*llm.Stream, error) {
	key := llm.PickKey(p.cfg.Keys)
	if key == "" {
		return nil, providers.MissingKey(p.Name())
	}
	model := providers.ChooseModel(opt.Model, p.cfg.Model, DefaultModel)
	body, err := p.buildRequest(ctx, msgs, opt)
	if err != nil {
		return nil, err
	}

	rc, err := p.deps.Client.PostStream(ctx, p.Name(), p.endpoint(model, "streamGenerateContent", key), nil, body)
	if err != nil {
		return nil, err
	}
	base := llm.ChatResponse{Model: model, Object: "chat.completion.chunk"}
	return streaming.Pipe(ctx, p.Name(), rc, streaming.NewJSONArrayDecoder(rc), extractEvent, base, p.logger), nil
}

func extractEvent(ev streaming.Event, snap *llm.ChatResponse) (bool, error) {
	r, err := streaming.Parse(llm.ProviderGoogle, ev.Data)
	if err != nil {
		return false, err
	}
	if !r.Get("candidates").Exists() && !r.Get("promptFeedback").Exists() && !r.Get("error").Exists() {
		// 只带 usageMetadata 的尾包
		return applyUsage(r, snap), nil
	}
	if err := extract(r, snap); err != nil {
		return false, err
	}
	return snap.Content != "" || r.Get("usageMetadata").IsObject(), nil
}

// extract 把一个 GenerateContentResponse 写入 resp.
func extract(r gjson.Result, resp *llm.ChatResponse) error {
	if err := providers.BodyError(llm.ProviderGoogle, r); err != nil {
		return err
	}
	if reason := r.Get("promptFeedback.blockReason").String(); reason != "" {
		return llm.NewError(llm.ErrContentBlocked, llm.ProviderGoogle, "Content blocked, reason: %s", reason)
	}
	candidate := r.Get("candidates.0")
	if !candidate.Exists() {
		return llm.NewError(llm.ErrVendor, llm.ProviderGoogle, "Google API error, no candidates")
	}
	finish := candidate.Get("finishReason").String()
	if blockedFinish[finish] {
		return llm.NewError(llm.ErrContentBlocked, llm.ProviderGoogle, "Content blocked, reason: %s", finish)
	}
	parts := candidate.Get("content.parts")
	if !parts.Exists() && finish != "" && finish != "STOP" && finish != "MAX_TOKENS" {
		return llm.NewError(llm.ErrVendor, llm.ProviderGoogle, "generation stopped: %s", finish)
	}

	var text strings.Builder
	for _, part := range parts.Array() {
		if part.Get("thought").Bool() {
			continue
		}
		text.WriteString(part.Get("text").String())
	}
	resp.Content = text.String()
	if v := r.Get("modelVersion").String(); v != "" {
		resp.Model = v
	}
	applyUsage(r, resp)
	return nil
}

func applyUsage(r gjson.Result, resp *llm.ChatResponse) bool {
	u := r.Get("usageMetadata")
	if !u.IsObject() {
		return false
	}
	return streaming.ApplyUsage(resp, u.Get("promptTokenCount"), u.Get("candidatesTokenCount"), u.Get("totalTokenCount"))
}

// Embedding 对每条输入单独调用 embedContent，并发执行，结果保持输入顺序.
func (p *GeminiProvider) Embedding(ctx context.Context, input []string, opt llm.EmbedOption) (*llm.EmbeddingResponse, error) {
	if len(input) == 0 {
		return nil, llm.NewError(llm.ErrEmptyInput, p.Name(), "embedding input is empty")
	}
	key := llm.PickKey(p.cfg.Keys)
	if key == "" {
		return nil, providers.MissingKey(p.Name())
	}
	model := providers.ChooseModel(opt.Model, p.cfg.EmbedModel, DefaultEmbedModel)
	dims := opt.Dimensions
	if dims == 0 {
		dims = DefaultDimensions
	}
	endpoint := p.endpoint(model, "embedContent", key)

	vectors := make([][]float64, len(input))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i, text := range input {
		g.Go(func() error {
			body := embedRequest{
				Model:                "models/" + model,
				Content:              geminiContent{Parts: []geminiPart{textPart(text)}},
				OutputDimensionality: dims,
			}
			var raw json.RawMessage
			if err := p.deps.Client.PostJSON(gctx, p.Name(), endpoint, nil, body, &raw); err != nil {
				return err
			}
			values := gjson.GetBytes(raw, "embedding.values")
			if !values.IsArray() {
				return llm.NewError(llm.ErrVendor, p.Name(), "embedding response has no values")
			}
			vec := make([]float64, 0, len(values.Array()))
			for _, v := range values.Array() {
				vec = append(vec, v.Float())
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.Debug("embedding done", zap.String("model", model), zap.Int("inputs", len(input)))
	return &llm.EmbeddingResponse{Embedding: vectors, Model: model, Object: "embedding"}, nil
}
