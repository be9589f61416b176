package uniai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/uniai/config"
	"github.com/BaSui01/uniai/internal/metrics"
	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/factory"
	"github.com/BaSui01/uniai/llm/format"
	"github.com/BaSui01/uniai/llm/providers"
	"github.com/BaSui01/uniai/llm/tokencache"
	"github.com/BaSui01/uniai/llm/transport"
)

const tracerName = "github.com/BaSui01/uniai"

// 指标与 span 使用的操作名
const (
	opChat       = "chat"
	opChatStream = "chat_stream"
	opEmbedding  = "embedding"
)

// UniAI 按服务商标签把统一调用分发给对应适配器。
// 适配器在 New 中一次性构造，之后只读，可被多个 goroutine 并发使用。
type UniAI struct {
	adapters map[llm.Provider]llm.ChatProvider
	logger   *zap.Logger
	metrics  *metrics.Collector
	tracer   trace.Tracer
	closers  []io.Closer
}

// New 根据配置构造全部适配器。cfg 为 nil 时使用默认配置。
func New(cfg *config.Config, opts ...Option) (*UniAI, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	u := &UniAI{logger: logger.With(zap.String("component", "uniai"))}

	reg := o.registerer
	if reg == nil && cfg.Metrics.Enabled {
		reg = prometheus.DefaultRegisterer
	}
	if reg != nil {
		u.metrics = metrics.NewCollector(cfg.Metrics.Namespace, reg, logger)
	}

	tp := o.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	u.tracer = tp.Tracer(tracerName)

	var client *transport.Client
	if o.httpClient != nil {
		client = transport.NewWithHTTPClient(o.httpClient, logger)
	} else {
		c, err := transport.New(cfg.HTTP.TransportOptions(), logger)
		if err != nil {
			return nil, err
		}
		client = c
	}

	store := o.tokenStore
	if store == nil {
		s, err := u.openTokenStore(cfg.TokenCache, logger)
		if err != nil {
			return nil, err
		}
		store = s
	}
	cacheOpts := []tokencache.Option{tokencache.WithLogger(logger)}
	if u.metrics != nil {
		cacheOpts = append(cacheOpts, tokencache.WithObserver(u.metrics.RecordTokenCache))
	}

	deps := providers.Deps{
		Client: client,
		Media:  format.NewResolver(client, format.WithStrict(cfg.HTTP.StrictMedia), format.WithLogger(logger)),
		Tokens: tokencache.New(store, cacheOpts...),
		Logger: logger,
	}
	u.adapters = factory.Build(cfg.Providers, deps)
	for tag, p := range o.custom {
		u.adapters[tag] = p
	}

	u.logger.Info("uniai initialized",
		zap.Int("providers", len(u.adapters)),
		zap.String("token_cache", cfg.TokenCache.Driver),
		zap.Bool("metrics", u.metrics != nil))
	return u, nil
}

func (u *UniAI) openTokenStore(cfg config.TokenCacheConfig, logger *zap.Logger) (tokencache.Store, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		s, err := tokencache.NewRedisStore(cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("open redis token store: %w", err)
		}
		u.closers = append(u.closers, s)
		return s, nil
	case config.DriverSQLite:
		s, err := tokencache.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite token store: %w", err)
		}
		u.closers = append(u.closers, s)
		return s, nil
	default:
		return tokencache.NewMemoryStore(), nil
	}
}

// Close 释放令牌存储等外部资源。
func (u *UniAI) Close() error {
	var errs []error
	for _, c := range u.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	u.closers = nil
	return errors.Join(errs...)
}

// Provider 返回已注册的适配器。
func (u *UniAI) Provider(tag llm.Provider) (llm.ChatProvider, bool) {
	p, ok := u.adapters[tag]
	return p, ok
}

// Providers 返回已注册的服务商标签，内置服务商按固定顺序在前。
func (u *UniAI) Providers() []llm.Provider {
	out := make([]llm.Provider, 0, len(u.adapters))
	seen := make(map[llm.Provider]bool, len(u.adapters))
	for _, tag := range llm.ChatProviders() {
		if _, ok := u.adapters[tag]; ok {
			out = append(out, tag)
			seen[tag] = true
		}
	}
	for tag := range u.adapters {
		if !seen[tag] {
			out = append(out, tag)
		}
	}
	return out
}

// Models 返回静态的服务商模型清单。
func (u *UniAI) Models() []llm.ProviderModels { return llm.Models() }

func (u *UniAI) adapter(tag llm.Provider) (llm.Provider, llm.ChatProvider, error) {
	if tag == "" {
		tag = llm.ProviderOpenAI
	}
	p, ok := u.adapters[tag]
	if !ok {
		return tag, nil, llm.NewError(llm.ErrUnsupportedProvider, tag, "unsupported provider %q", string(tag))
	}
	return tag, p, nil
}

// Chat 发起一次对话并返回完整结果。opt.Stream 为 true 时走流式接口，
// 由 llm.Collect 聚合后返回。没有消息时使用默认提示语。
func (u *UniAI) Chat(ctx context.Context, messages []llm.ChatMessage, opt llm.ChatOption) (*llm.ChatResponse, error) {
	tag, p, err := u.adapter(opt.Provider)
	ctx, finish := u.begin(ctx, opChat, tag)
	if err != nil {
		finish(err, 0, 0)
		return nil, err
	}
	messages = withDefault(messages)

	var resp *llm.ChatResponse
	if opt.Stream {
		var s *llm.Stream
		s, err = p.ChatStream(ctx, messages, opt)
		if err == nil {
			resp, err = llm.Collect(ctx, s)
		}
	} else {
		resp, err = p.Chat(ctx, messages, opt)
	}
	if err != nil {
		finish(err, 0, 0)
		return nil, err
	}
	finish(nil, resp.PromptTokens, resp.CompletionTokens)
	return resp, nil
}

// ChatStream 发起流式对话。返回的 Stream 中每个快照只含本次增量文本，
// 调用方读完或放弃时必须调用 Close。
func (u *UniAI) ChatStream(ctx context.Context, messages []llm.ChatMessage, opt llm.ChatOption) (*llm.Stream, error) {
	tag, p, err := u.adapter(opt.Provider)
	spanCtx, finish := u.begin(ctx, opChatStream, tag)
	if err != nil {
		finish(err, 0, 0)
		return nil, err
	}
	opt.Stream = true

	inner, err := p.ChatStream(spanCtx, withDefault(messages), opt)
	if err != nil {
		finish(err, 0, 0)
		return nil, err
	}
	return u.relay(spanCtx, tag, inner, finish), nil
}

// relay 转发快照并记录流式事件与最终用量。关闭外层流会同步关闭内层流。
func (u *UniAI) relay(ctx context.Context, tag llm.Provider, inner *llm.Stream, finish finishFunc) *llm.Stream {
	var usage llm.ChatResponse
	out := llm.StartStream(ctx, closerFunc(inner.Close), func(ctx context.Context, emit llm.EmitFunc) error {
		for {
			r, err := inner.Recv()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if r.HasUsage() {
				usage = *r
			}
			if u.metrics != nil {
				u.metrics.RecordStreamEvent(string(tag))
			}
			if err := emit(*r); err != nil {
				return err
			}
		}
	})
	out.OnClose(func(err error) {
		finish(err, usage.PromptTokens, usage.CompletionTokens)
	})
	return out
}

// Embedding 计算向量，结果与 input 一一对应。
func (u *UniAI) Embedding(ctx context.Context, input []string, opt llm.EmbedOption) (*llm.EmbeddingResponse, error) {
	tag, p, err := u.adapter(opt.Provider)
	ctx, finish := u.begin(ctx, opEmbedding, tag)
	if err != nil {
		finish(err, 0, 0)
		return nil, err
	}
	e, ok := p.(llm.Embedder)
	if ok {
		if s, has := p.(interface{ SupportsEmbedding() bool }); has && !s.SupportsEmbedding() {
			ok = false
		}
	}
	if !ok {
		err := llm.NewError(llm.ErrUnsupportedProvider, tag, "embedding is not supported")
		finish(err, 0, 0)
		return nil, err
	}

	resp, err := e.Embedding(ctx, input, opt)
	if err != nil {
		finish(err, 0, 0)
		return nil, err
	}
	finish(nil, resp.PromptTokens, 0)
	return resp, nil
}

type finishFunc func(err error, promptTokens, completionTokens int)

// begin 开启 span 并返回结束回调，回调负责日志、指标与 span 状态。
func (u *UniAI) begin(ctx context.Context, op string, tag llm.Provider) (context.Context, finishFunc) {
	requestID := uuid.NewString()
	ctx, span := u.tracer.Start(ctx, "uniai."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("uniai.provider", string(tag)),
			attribute.String("uniai.request_id", requestID),
		))
	start := time.Now()

	return ctx, func(err error, promptTokens, completionTokens int) {
		elapsed := time.Since(start)
		if u.metrics != nil {
			u.metrics.RecordRequest(string(tag), op, err, elapsed)
			u.metrics.RecordTokens(string(tag), promptTokens, completionTokens)
		}
		span.SetAttributes(
			attribute.Int("uniai.prompt_tokens", promptTokens),
			attribute.Int("uniai.completion_tokens", completionTokens),
		)
		switch {
		case errors.Is(err, llm.ErrStreamClosed):
			span.SetStatus(codes.Unset, "closed by consumer")
			u.logger.Debug("stream closed by consumer",
				zap.String("provider", string(tag)),
				zap.String("request_id", requestID),
				zap.Duration("latency", elapsed))
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			u.logger.Warn("request failed",
				zap.String("provider", string(tag)),
				zap.String("operation", op),
				zap.String("request_id", requestID),
				zap.String("code", string(llm.CodeOf(err))),
				zap.Duration("latency", elapsed),
				zap.Error(err))
		default:
			span.SetStatus(codes.Ok, "")
			u.logger.Debug("request completed",
				zap.String("provider", string(tag)),
				zap.String("operation", op),
				zap.String("request_id", requestID),
				zap.Int("prompt_tokens", promptTokens),
				zap.Int("completion_tokens", completionTokens),
				zap.Duration("latency", elapsed))
		}
		span.End()
	}
}

func withDefault(messages []llm.ChatMessage) []llm.ChatMessage {
	if len(messages) == 0 {
		return llm.Prompt(llm.DefaultMessage)
	}
	return messages
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
