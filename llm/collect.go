package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// Collect 读完整个流并聚合为一个 ChatResponse：文本按顺序拼接，
// 用量取最后一次上报的值，增量工具调用按 index 合并。
// ctx 取消时关闭流并返回 ctx 的错误。
func Collect(ctx context.Context, s *Stream) (*ChatResponse, error) {
	defer s.Close()

	var (
		out     ChatResponse
		content strings.Builder
		tools   toolMerger
	)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case data, ok := <-s.Chunks():
			if !ok {
				<-s.Done()
				if err := s.Err(); err != nil {
					return nil, err
				}
				out.Content = content.String()
				out.Tools = tools.result()
				return &out, nil
			}
			var snap ChatResponse
			if err := json.Unmarshal(data, &snap); err != nil {
				return nil, err
			}
			content.WriteString(snap.Content)
			for _, t := range snap.Tools {
				tools.add(t)
			}
			if snap.HasUsage() {
				out.PromptTokens = snap.PromptTokens
				out.CompletionTokens = snap.CompletionTokens
				out.TotalTokens = snap.TotalTokens
			}
			if snap.Model != "" {
				out.Model = snap.Model
			}
			if snap.Object != "" {
				out.Object = snap.Object
			}
		}
	}
}

// ReadAll 按顺序读出全部快照，返回终止前已收到的快照与终止错误。
func ReadAll(s *Stream) ([]ChatResponse, error) {
	defer s.Close()
	var out []ChatResponse
	for {
		r, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, *r)
	}
}

type toolDelta struct {
	Index    *int   `json:"index"`
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Function struct {
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// toolMerger 合并 OpenAI 风格的增量工具调用。没有 index 的条目视为完整调用。
type toolMerger struct {
	partial map[int]*toolDelta
	slots   []mergeSlot
}

type mergeSlot struct {
	index int
	raw   json.RawMessage
}

func (m *toolMerger) add(raw json.RawMessage) {
	var d toolDelta
	if err := json.Unmarshal(raw, &d); err != nil || d.Index == nil {
		m.slots = append(m.slots, mergeSlot{index: -1, raw: raw})
		return
	}
	if m.partial == nil {
		m.partial = make(map[int]*toolDelta)
	}
	cur, ok := m.partial[*d.Index]
	if !ok {
		cp := d
		m.partial[*d.Index] = &cp
		m.slots = append(m.slots, mergeSlot{index: *d.Index})
		return
	}
	if d.ID != "" {
		cur.ID = d.ID
	}
	if d.Type != "" {
		cur.Type = d.Type
	}
	if d.Function.Name != "" {
		cur.Function.Name = d.Function.Name
	}
	cur.Function.Arguments += d.Function.Arguments
}

func (m *toolMerger) result() []json.RawMessage {
	if len(m.slots) == 0 {
		return nil
	}
	out := make([]json.RawMessage, 0, len(m.slots))
	for _, slot := range m.slots {
		if slot.index < 0 {
			out = append(out, slot.raw)
			continue
		}
		data, err := json.Marshal(m.partial[slot.index])
		if err != nil {
			continue
		}
		out = append(out, data)
	}
	return out
}
