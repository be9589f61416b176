package openaicompat

import (
	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/providers"
	"github.com/BaSui01/uniai/llm/streaming"
)

// ExtractDelta maps one chat.completion.chunk event into the snapshot.
func (p *Provider) ExtractDelta(ev streaming.Event, snap *llm.ChatResponse) (bool, error) {
	r, err := streaming.Parse(p.Name(), ev.Data)
	if err != nil {
		return false, err
	}
	if err := providers.BodyError(p.Name(), r); err != nil {
		return false, err
	}
	if p.Cfg.CheckBody != nil {
		if err := p.Cfg.CheckBody(r); err != nil {
			return false, err
		}
	}

	if m := r.Get("model").String(); m != "" {
		snap.Model = m
	}
	if o := r.Get("object").String(); o != "" {
		snap.Object = o
	}
	choice := r.Get("choices.0")
	if reason := choice.Get("finish_reason").String(); reason == "content_filter" || reason == "sensitive" {
		return false, llm.NewError(llm.ErrContentBlocked, p.Name(), "Content blocked, reason: %s", reason)
	}
	snap.Content = choice.Get("delta.content").String()
	snap.Tools = streaming.RawList(choice.Get("delta.tool_calls"))

	usage := false
	if u := r.Get("usage"); u.IsObject() {
		usage = streaming.ApplyUsage(snap, u.Get("prompt_tokens"), u.Get("completion_tokens"), u.Get("total_tokens"))
	}
	if p.Cfg.SkipEmpty {
		return snap.Content != "" || len(snap.Tools) > 0, nil
	}
	return snap.Content != "" || len(snap.Tools) > 0 || usage, nil
}
