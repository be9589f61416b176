package llm

import (
	"math/rand"
	"strings"
)

// PickKey 从配置的密钥中均匀随机选取一个，忽略空白项。
// 没有可用密钥时返回空串。并发安全。
func PickKey(keys []string) string {
	candidates := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			candidates = append(candidates, k)
		}
	}
	switch len(candidates) {
	case 0:
		return ""
	case 1:
		return candidates[0]
	default:
		return candidates[rand.Intn(len(candidates))]
	}
}
