package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/BaSui01/uniai/llm"
)

// Extractor 把一个上游事件映射进快照，返回是否输出本次快照。
// 调用前快照的 Content 与 Tools 已清空，其余字段保留上一次的状态。
// 返回错误会终止流。
type Extractor func(ev Event, snap *llm.ChatResponse) (emit bool, err error)

// Pipe 通用的「事件源 -> 统一快照」管道：dec 负责切分事件，extract 负责
// 各服务商的字段映射。返回的流关闭时会同步关闭 body。
func Pipe(ctx context.Context, provider llm.Provider, body io.ReadCloser, dec Decoder, extract Extractor, base llm.ChatResponse, logger *zap.Logger) *llm.Stream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return llm.StartStream(ctx, body, func(ctx context.Context, emit llm.EmitFunc) error {
		snap := base
		for {
			ev, err := dec.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Debug("stream decode failed", zap.String("provider", string(provider)), zap.Error(err))
				return llm.TransportError(provider, fmt.Errorf("decode stream: %w", err))
			}

			snap.Content = ""
			snap.Tools = nil
			ok, err := extract(ev, &snap)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := emit(snap); err != nil {
				return err
			}
		}
	})
}

// Parse 校验并解析一个 JSON 负载，非法 JSON 返回 TransportError。
func Parse(provider llm.Provider, data []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, llm.TransportError(provider, fmt.Errorf("invalid JSON payload: %.200s", data))
	}
	return gjson.ParseBytes(data), nil
}

// ApplyUsage 把存在的用量字段写入快照，任一字段存在即返回 true。
func ApplyUsage(snap *llm.ChatResponse, prompt, completion, total gjson.Result) bool {
	found := false
	if prompt.Exists() {
		snap.PromptTokens = int(prompt.Int())
		found = true
	}
	if completion.Exists() {
		snap.CompletionTokens = int(completion.Int())
		found = true
	}
	if total.Exists() {
		snap.TotalTokens = int(total.Int())
		found = true
	}
	return found
}

// RawList 把 JSON 数组拆成原始元素列表，不存在或为空时返回 nil。
func RawList(r gjson.Result) []json.RawMessage {
	if !r.IsArray() {
		return nil
	}
	items := r.Array()
	if len(items) == 0 {
		return nil
	}
	out := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		out = append(out, json.RawMessage(it.Raw))
	}
	return out
}
