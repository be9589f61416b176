package iflytek

import (
	"math"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/providers"
	"github.com/BaSui01/uniai/llm/providers/openaicompat"
)

const (
	// DefaultBaseURL 星火 HTTP 接口地址.
	DefaultBaseURL = "https://spark-api-open.xf-yun.com"
	// DefaultModel 未指定模型时使用.
	DefaultModel = "lite"
)

// IFlyTekProvider 实现讯飞星火提供者.
type IFlyTekProvider struct {
	*openaicompat.Provider
}

// NewIFlyTekProvider 创建新的讯飞星火提供者实例.
// 凭证为 APIPassword，Keys 与 APIPassword 合并后随机选取.
func NewIFlyTekProvider(cfg providers.IFlyTekConfig, deps providers.Deps) *IFlyTekProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	return &IFlyTekProvider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName: llm.ProviderIFlyTek,
			Keys:         cfg.Passwords(),
			BaseURL:      cfg.BaseURL,
			DefaultModel: providers.ChooseModel(cfg.Model, DefaultModel, ""),
			Temperature:  &llm.Bound{Low: 0, High: 1, LowOpen: true, LowTo: 0.1, HighTo: 1},
			RequestHook:  requestHook,
			CheckBody:    checkBody,
		}, deps),
	}
}

// requestHook 星火没有 top_p，top 按比例映射到 top_k (1..6).
func requestHook(opt llm.ChatOption, body *providers.OpenAICompatRequest) {
	body.TopP = nil
	if opt.Top != nil {
		body.TopK = TopK(*opt.Top)
	}
	body.User = uuid.NewString()
}

// TopK 把 [0,1] 的 top 映射为 top_k.
func TopK(top float64) int {
	if math.IsNaN(top) {
		return 1
	}
	top = min(max(top, 0), 1)
	return max(int(math.Round(top*6)), 1)
}

// checkBody 星火在 HTTP 200 响应体中用非零 code 表示错误.
func checkBody(r gjson.Result) error {
	code := r.Get("code")
	if !code.Exists() || code.Int() == 0 {
		return nil
	}
	msg := r.Get("message").String()
	if msg == "" {
		msg = "request failed"
	}
	return &llm.Error{
		Code:     llm.ErrVendor,
		Message:  msg + " (code: " + code.String() + ")",
		Provider: string(llm.ProviderIFlyTek),
	}
}
