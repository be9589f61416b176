package openaicompat

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/format"
	"github.com/BaSui01/uniai/llm/providers"
)

// BuildRequest converts canonical messages and options into the request body.
func (p *Provider) BuildRequest(ctx context.Context, msgs []llm.ChatMessage, opt llm.ChatOption, stream bool) (providers.OpenAICompatRequest, error) {
	if err := format.CheckMessages(p.Name(), msgs); err != nil {
		return providers.OpenAICompatRequest{}, err
	}
	model := providers.ChooseModel(opt.Model, p.Cfg.DefaultModel, "")
	messages, err := p.BuildMessages(ctx, model, msgs)
	if err != nil {
		return providers.OpenAICompatRequest{}, err
	}

	body := providers.OpenAICompatRequest{
		Model:       model,
		Messages:    messages,
		Stream:      stream,
		Temperature: p.Cfg.Temperature.Apply(opt.Temperature),
		TopP:        p.Cfg.TopP.Apply(opt.Top),
	}
	if stream && p.Cfg.StreamUsage {
		body.StreamOptions = &providers.StreamOptions{IncludeUsage: true}
	}
	if opt.MaxLength > 0 {
		if p.Cfg.MaxTokensField == "max_completion_tokens" {
			body.MaxCompletionTokens = opt.MaxLength
		} else {
			body.MaxTokens = opt.MaxLength
		}
	}
	if len(opt.Tools) > 0 {
		if p.SupportsNativeFunctionCalling() {
			body.Tools = opt.Tools
			body.ToolChoice = opt.ToolChoice
		} else {
			p.Logger.Debug("tools ignored, provider has no function calling", zap.Int("tools", len(opt.Tools)))
		}
	}

	if p.Cfg.RequestHook != nil {
		p.Cfg.RequestHook(opt, &body)
	}
	p.Logger.Debug("chat request",
		zap.String("model", body.Model),
		zap.Bool("stream", stream),
		zap.Int("messages", len(body.Messages)))
	return body, nil
}

// BuildMessages maps canonical messages to OpenAI messages.
// Text-only messages keep a plain string content; attachments switch to content parts.
func (p *Provider) BuildMessages(ctx context.Context, model string, msgs []llm.ChatMessage) ([]providers.OpenAICompatMessage, error) {
	vision := p.Cfg.VisionModels == nil || slices.Contains(p.Cfg.VisionModels, model)
	out := make([]providers.OpenAICompatMessage, 0, len(msgs))
	for _, m := range msgs {
		imgs := m.Img.Values()
		if len(imgs) > 0 && !vision {
			p.Logger.Debug("images dropped, model has no vision support", zap.String("model", model))
			imgs = nil
		}
		audio := m.Audio.Values()
		if m.Content.Empty() && len(imgs) == 0 && len(audio) == 0 {
			continue
		}

		msg := providers.OpenAICompatMessage{Role: string(m.Role), Name: m.Name, ToolCallID: m.Tool}
		if len(imgs) == 0 && len(audio) == 0 {
			msg.Content = m.Text()
			out = append(out, msg)
			continue
		}

		parts, err := p.contentParts(ctx, m, imgs, audio)
		if err != nil {
			return nil, err
		}
		if len(parts) == 0 {
			continue
		}
		msg.Content = parts
		out = append(out, msg)
	}
	return out, nil
}

func (p *Provider) contentParts(ctx context.Context, m llm.ChatMessage, imgs, audio []string) ([]providers.ContentPart, error) {
	var parts []providers.ContentPart
	if text := m.Text(); text != "" {
		parts = append(parts, providers.ContentPart{Type: "text", Text: text})
	}

	var local []string
	for _, ref := range imgs {
		// 远程图片由服务商自行下载
		if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
			parts = append(parts, providers.ContentPart{Type: "image_url", ImageURL: &providers.ImageURL{URL: ref}})
			continue
		}
		local = append(local, ref)
	}
	media, err := p.Deps.Media.ResolveAll(ctx, p.Name(), local, format.ImagePolicy(""))
	if err != nil {
		return nil, err
	}
	for _, img := range media {
		parts = append(parts, providers.ContentPart{Type: "image_url", ImageURL: &providers.ImageURL{URL: img.DataURI()}})
	}

	clips, err := p.Deps.Media.ResolveAll(ctx, p.Name(), audio, format.AudioPolicy())
	if err != nil {
		return nil, err
	}
	for _, clip := range clips {
		f := m.AudioFormat
		if f == "" {
			f = clip.Subtype()
		}
		parts = append(parts, providers.ContentPart{Type: "input_audio", InputAudio: &providers.InputAudio{Data: clip.Data, Format: f}})
	}
	return parts, nil
}
