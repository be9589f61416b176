package format

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/uniai/llm"
)

// Kind 媒体类别，对应 MIME 主类型。
type Kind string

const (
	KindImage Kind = "image"
	KindAudio Kind = "audio"
)

// Fetcher 下载远程媒体，transport.Client 实现了该接口。
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// Media 解析后的媒体数据，Data 为标准 base64。
type Media struct {
	MIME string
	Data string
}

// DataURI 返回 data:<mime>;base64,<data> 形式。
func (m Media) DataURI() string { return "data:" + m.MIME + ";base64," + m.Data }

// Subtype 返回 MIME 子类型，如 image/png 返回 png。
func (m Media) Subtype() string {
	_, sub, _ := strings.Cut(m.MIME, "/")
	return sub
}

// Policy 服务商对某类媒体的要求。
type Policy struct {
	Kind Kind
	// Allowed 允许的 MIME，为空表示接受该类别下的任意类型。
	Allowed []string
	// Fallback 无法识别类型时使用的 MIME。
	Fallback string
}

// ImagePolicy 返回图片策略，fallback 为空时默认 image/png。
func ImagePolicy(fallback string, allowed ...string) Policy {
	if fallback == "" {
		fallback = "image/png"
	}
	return Policy{Kind: KindImage, Allowed: allowed, Fallback: fallback}
}

// AudioPolicy 音频策略，默认 audio/wav。
func AudioPolicy() Policy { return Policy{Kind: KindAudio, Fallback: "audio/wav"} }

// extMIME 常见扩展名，优先于系统 mime 表以保证结果稳定。
var extMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".mp3":  "audio/mp3",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".m4a":  "audio/m4a",
}

// Resolver 把媒体引用解析为 base64 数据。
type Resolver struct {
	fetch  Fetcher
	strict bool
	logger *zap.Logger
}

// ResolverOption 配置 Resolver。
type ResolverOption func(*Resolver)

// WithStrict 开启严格模式：解析失败直接返回错误而不是丢弃附件。
func WithStrict(strict bool) ResolverOption {
	return func(r *Resolver) { r.strict = strict }
}

// WithLogger 设置日志记录器。
func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver 创建解析器。fetch 为 nil 时远程地址一律解析失败。
func NewResolver(fetch Fetcher, opts ...ResolverOption) *Resolver {
	r := &Resolver{fetch: fetch, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("component", "media"))
	return r
}

// Strict 是否为严格模式。
func (r *Resolver) Strict() bool { return r.strict }

// Resolve 解析单个引用，失败时返回 UnsupportedFormat。
func (r *Resolver) Resolve(ctx context.Context, provider llm.Provider, ref string, policy Policy) (Media, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Media{}, llm.NewError(llm.ErrUnsupportedFormat, provider, "empty %s reference", policy.Kind)
	}

	var (
		m   Media
		err error
	)
	switch {
	case strings.HasPrefix(ref, "data:"):
		m, err = parseDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		m, err = r.fetchRemote(ctx, ref, policy)
	case isFile(ref):
		m, err = readFile(ref, policy)
	default:
		m, err = decodeRaw(ref, policy)
	}
	if err != nil {
		return Media{}, &llm.Error{
			Code:     llm.ErrUnsupportedFormat,
			Message:  fmt.Sprintf("resolve %s: %v", policy.Kind, err),
			Provider: string(provider),
			Cause:    err,
		}
	}

	m.MIME = normalizeMIME(m.MIME)
	if !strings.HasPrefix(m.MIME, string(policy.Kind)+"/") {
		return Media{}, llm.NewError(llm.ErrUnsupportedFormat, provider, "%s is not a %s type", m.MIME, policy.Kind)
	}
	if len(policy.Allowed) > 0 && !slices.Contains(policy.Allowed, m.MIME) {
		return Media{}, llm.NewError(llm.ErrUnsupportedFormat, provider,
			"%s not supported, allowed: %s", m.MIME, strings.Join(policy.Allowed, ", "))
	}
	return m, nil
}

// ResolveAll 解析一组引用。非严格模式下失败的条目记录告警后丢弃。
func (r *Resolver) ResolveAll(ctx context.Context, provider llm.Provider, refs []string, policy Policy) ([]Media, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	out := make([]Media, 0, len(refs))
	for _, ref := range refs {
		m, err := r.Resolve(ctx, provider, ref, policy)
		if err != nil {
			if r.strict {
				return nil, err
			}
			r.logger.Warn("media dropped",
				zap.String("provider", string(provider)),
				zap.String("kind", string(policy.Kind)),
				zap.String("ref", preview(ref)),
				zap.Error(err))
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *Resolver) fetchRemote(ctx context.Context, ref string, policy Policy) (Media, error) {
	if r.fetch == nil {
		return Media{}, fmt.Errorf("remote media fetch is not configured")
	}
	data, contentType, err := r.fetch.Fetch(ctx, ref)
	if err != nil {
		return Media{}, err
	}
	mt := ""
	if ct, _, err := mime.ParseMediaType(contentType); err == nil && strings.HasPrefix(ct, string(policy.Kind)+"/") {
		mt = ct
	}
	if mt == "" {
		clean := ref
		if i := strings.IndexAny(clean, "?#"); i >= 0 {
			clean = clean[:i]
		}
		mt = byExtension(path.Ext(clean))
	}
	if mt == "" {
		mt = sniff(data, policy)
	}
	return Media{MIME: mt, Data: base64.StdEncoding.EncodeToString(data)}, nil
}

func readFile(name string, policy Policy) (Media, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return Media{}, err
	}
	mt := byExtension(filepath.Ext(name))
	if mt == "" {
		mt = sniff(data, policy)
	}
	return Media{MIME: mt, Data: base64.StdEncoding.EncodeToString(data)}, nil
}

func parseDataURI(ref string) (Media, error) {
	meta, data, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return Media{}, fmt.Errorf("malformed data uri")
	}
	mt, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return Media{}, fmt.Errorf("data uri is not base64 encoded")
	}
	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return Media{}, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return Media{MIME: mt, Data: data}, nil
}

func decodeRaw(ref string, policy Policy) (Media, error) {
	raw, err := base64.StdEncoding.DecodeString(ref)
	if err != nil {
		return Media{}, fmt.Errorf("not a data uri, url, file or base64 payload")
	}
	return Media{MIME: sniff(raw, policy), Data: ref}, nil
}

// sniff 按内容识别类型，识别不出所需类别时使用策略的默认值。
func sniff(data []byte, policy Policy) string {
	ct, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	if strings.HasPrefix(ct, string(policy.Kind)+"/") {
		return ct
	}
	return policy.Fallback
}

func byExtension(ext string) string {
	ext = strings.ToLower(ext)
	if ext == "" {
		return ""
	}
	if mt, ok := extMIME[ext]; ok {
		return mt
	}
	mt, _, _ := mime.ParseMediaType(mime.TypeByExtension(ext))
	return mt
}

func normalizeMIME(mt string) string {
	mt = strings.ToLower(strings.TrimSpace(mt))
	switch mt {
	case "image/jpg":
		return "image/jpeg"
	case "audio/wave", "audio/x-wav":
		return "audio/wav"
	case "audio/mpeg":
		return "audio/mp3"
	}
	return mt
}

func isFile(name string) bool {
	if len(name) > 4096 {
		return false
	}
	info, err := os.Stat(name)
	return err == nil && info.Mode().IsRegular()
}

// preview 截断引用用于日志，避免输出整段 base64 或查询串。
func preview(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 && (strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")) {
		ref = ref[:i]
	}
	if len(ref) > 64 {
		return ref[:64] + "..."
	}
	return ref
}
